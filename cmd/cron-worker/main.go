package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greencycle-tech/ewaste-backend/internal/assignment"
	"github.com/greencycle-tech/ewaste-backend/internal/cron"
	"github.com/greencycle-tech/ewaste-backend/internal/notifications"
	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	"github.com/greencycle-tech/ewaste-backend/pkg/db"
	"github.com/greencycle-tech/ewaste-backend/pkg/instance"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
	"github.com/greencycle-tech/ewaste-backend/pkg/metrics"
	"github.com/greencycle-tech/ewaste-backend/pkg/migrate"
	"github.com/greencycle-tech/ewaste-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	assignmentService, err := assignment.NewService(assignment.ServiceParams{
		Repo:    assignment.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Log:     logg,
		Metrics: metrics.NewAssignmentMetrics(prometheus.DefaultRegisterer),
		Config:  cfg.Assignment,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())

	autoAssignJob, err := cron.NewAutoAssignJob(cron.AutoAssignJobParams{
		Logger:      logg,
		Assignments: assignmentService,
		Cities:      cfg.Cron.AutoAssignCities,
		MaxPerRun:   cfg.Assignment.AutoAssignMaxPerRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-assign job", err)
		os.Exit(1)
	}

	eventRetentionJob, err := cron.NewEventRetentionJob(cron.EventRetentionJobParams{
		Logger:      logg,
		Assignments: assignmentService,
		Retention:   cfg.Cron.EventRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event retention job", err)
		os.Exit(1)
	}

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:        logg,
		Notifications: notificationsRepo,
		MaxAge:        cfg.Cron.NotificationMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cron.Entry{Job: autoAssignJob, Every: cfg.Cron.AutoAssignInterval},
		cron.Entry{Job: eventRetentionJob, Every: cfg.Cron.RetentionInterval},
		cron.Entry{Job: notificationCleanupJob, Every: cfg.Cron.NotificationInterval},
	)

	locks, err := cron.NewRedisLockFactory(redisClient, redisClient.LockKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock factory", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locks:    locks,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

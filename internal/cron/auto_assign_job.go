package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/greencycle-tech/ewaste-backend/internal/assignment"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
)

type autoAssigner interface {
	AutoAssign(ctx context.Context, req assignment.AutoAssignRequest) (*assignment.AutoAssignResult, error)
}

// AutoAssignJobParams configure the scheduled auto-assignment sweep.
type AutoAssignJobParams struct {
	Logger      *logger.Logger
	Assignments autoAssigner
	Cities      []string
	MaxPerRun   int
}

// NewAutoAssignJob builds the job that sweeps unassigned pickups city by city.
func NewAutoAssignJob(params AutoAssignJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Assignments == nil {
		return nil, fmt.Errorf("assignment service required")
	}
	return &autoAssignJob{
		logg:        params.Logger,
		assignments: params.Assignments,
		cities:      params.Cities,
		maxPerRun:   params.MaxPerRun,
	}, nil
}

type autoAssignJob struct {
	logg        *logger.Logger
	assignments autoAssigner
	cities      []string
	maxPerRun   int
}

func (j *autoAssignJob) Name() string { return "auto-assign" }

func (j *autoAssignJob) Run(ctx context.Context) error {
	if len(j.cities) == 0 {
		j.logg.Info(ctx, "no cities configured for auto-assignment")
		return nil
	}

	var errs []error
	for _, city := range j.cities {
		result, err := j.assignments.AutoAssign(ctx, assignment.AutoAssignRequest{
			City:           city,
			MaxAssignments: j.maxPerRun,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("auto-assign %s: %w", city, err))
			continue
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"city":     city,
			"examined": result.Examined,
			"assigned": result.Assigned,
			"skipped":  result.Skipped,
			"failures": result.Failures,
		})
		j.logg.Info(logCtx, "auto-assignment sweep complete")
	}
	return multierr.Combine(errs...)
}

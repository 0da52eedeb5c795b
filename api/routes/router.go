package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greencycle-tech/ewaste-backend/api/controllers"
	"github.com/greencycle-tech/ewaste-backend/api/middleware"
	"github.com/greencycle-tech/ewaste-backend/internal/assignment"
	"github.com/greencycle-tech/ewaste-backend/internal/auth"
	"github.com/greencycle-tech/ewaste-backend/internal/notifications"
	"github.com/greencycle-tech/ewaste-backend/internal/orders"
	"github.com/greencycle-tech/ewaste-backend/internal/tickets"
	"github.com/greencycle-tech/ewaste-backend/pkg/auth/session"
	"github.com/greencycle-tech/ewaste-backend/pkg/config"
	"github.com/greencycle-tech/ewaste-backend/pkg/db"
	"github.com/greencycle-tech/ewaste-backend/pkg/enums"
	"github.com/greencycle-tech/ewaste-backend/pkg/logger"
	"github.com/greencycle-tech/ewaste-backend/pkg/redis"
)

// RouterParams collects every dependency the HTTP surface needs.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	AuthService     auth.Service
	RegisterService auth.RegisterService
	Orders          orders.Service
	Assignments     assignment.Service
	Tickets         tickets.Service
	Notifications   notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, p.Redis, logg),
			middleware.Idempotency(p.Redis, logg),
		).Post("/register", controllers.AuthRegister(p.RegisterService, p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Use(middleware.RequireStaff(logg))
			r.Use(middleware.Idempotency(p.Redis, logg))
			r.Post("/register-agent", controllers.AuthRegisterAgent(p.RegisterService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/", controllers.ListMyOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, logg))
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRolePickupBoy, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListAgentOrders(p.Orders, logg))
				r.Post("/{orderId}/status", controllers.UpdateOrderStatus(p.Orders, logg))
			})
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Get("/orders/pending", controllers.ListPendingOrders(p.Orders, logg))
			r.Put("/orders/{orderId}/assign", controllers.AssignOrder(p.Assignments, logg))
			r.Put("/orders/{orderId}/reassign", controllers.ReassignOrder(p.Assignments, logg))
			r.Post("/orders/bulk-assign", controllers.BulkAssignOrders(p.Assignments, logg))
			r.Post("/orders/auto-assign", controllers.AutoAssignOrders(p.Assignments, logg))
			r.Get("/statistics", controllers.AssignmentStatistics(p.Assignments, logg))
			r.Get("/agents/availability", controllers.AgentAvailability(p.Assignments, logg))
			r.Get("/agents/{agentId}/performance", controllers.AgentPerformance(p.Assignments, logg))
			r.Post("/agents/{agentId}/notify", controllers.NotifyAgent(p.Assignments, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", controllers.CreateTicket(p.Tickets, logg))
			r.Get("/", controllers.ListTickets(p.Tickets, logg))
			r.Get("/{ticketId}", controllers.GetTicket(p.Tickets, logg))
			r.Post("/{ticketId}/messages", controllers.AddTicketMessage(p.Tickets, logg))
			r.Post("/{ticketId}/status", controllers.UpdateTicketStatus(p.Tickets, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hotel-pms/internal/config"
	"hotel-pms/internal/handler"
	"hotel-pms/internal/metrics"
	"hotel-pms/internal/middleware"
	"hotel-pms/internal/model"
)

const (
	exportMaxDuration = 5 * time.Minute
	exportIdleTimeout = 30 * time.Second
)

type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	RecycleBin    *handler.RecycleBinHandler
	CapTable      *handler.CapTableHandler
	Securities    *handler.SecuritiesHandler
	Transactions  *handler.TransactionHandler
	Leads         *handler.LeadHandler
	Guests        *handler.GuestHandler
	GuestServices *handler.GuestServicesHandler
	// Live is the websocket endpoint; nil leaves /api/v1/ws unrouted.
	Live http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	staff := authMiddleware.RequireAuth
	manage := authMiddleware.RequireRoles(model.RoleManager, model.RoleAdmin)
	admin := authMiddleware.RequireRoles(model.RoleAdmin)

	r.Route("/api/v1", func(api chi.Router) {
		if h.Live != nil {
			api.With(authMiddleware.RequireQueryToken).Handle("/ws", h.Live)
		}

		// CSV downloads stream, so they sit outside the buffering timeout.
		api.Group(func(exports chi.Router) {
			exports.Use(middleware.StreamingTimeout(exportMaxDuration, exportIdleTimeout), staff)
			exports.Get("/recycle-bin/audit/export", h.RecycleBin.ExportAuditLog)
			exports.Get("/transactions/export", h.Transactions.Export)
			exports.Get("/leads/export", h.Leads.Export)
			exports.With(admin).Get("/users/export", h.User.Export)
		})

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.Post("/refresh", h.Auth.Refresh)
				auth.With(staff).Post("/logout", h.Auth.Logout)
				auth.With(staff).Get("/me", h.Auth.Me)
			})

			api.Route("/users", func(users chi.Router) {
				users.Use(staff, admin)
				users.Get("/", h.User.List)
				users.Post("/", h.User.Create)
				users.Get("/activity", h.User.Activity)
				users.Get("/{id}", h.User.Get)
				users.Patch("/{id}", h.User.Update)
				users.Delete("/{id}", h.User.Delete)
			})

			api.Route("/recycle-bin", func(rb chi.Router) {
				rb.Use(staff)
				rb.Get("/records", h.RecycleBin.List)
				rb.Get("/records/{id}", h.RecycleBin.Get)
				rb.With(manage).Post("/records/{id}/restore", h.RecycleBin.Restore)
				rb.With(manage).Post("/records/{id}/archive", h.RecycleBin.Archive)
				rb.With(admin).Delete("/records/{id}", h.RecycleBin.Delete)
				rb.With(manage).Post("/records/{id}/hold", h.RecycleBin.PlaceHold)
				rb.With(manage).Delete("/records/{id}/hold", h.RecycleBin.RemoveHold)

				rb.With(manage).Post("/bulk/restore", h.RecycleBin.BulkRestore)
				rb.With(manage).Post("/bulk/archive", h.RecycleBin.BulkArchive)
				rb.With(admin).Post("/bulk/delete", h.RecycleBin.BulkDelete)

				rb.Get("/selection", h.RecycleBin.Selection)
				rb.Post("/selection/{id}/toggle", h.RecycleBin.ToggleSelection)
				rb.Post("/selection/all", h.RecycleBin.SelectAll)
				rb.Delete("/selection", h.RecycleBin.ClearSelection)

				rb.Get("/view", h.RecycleBin.View)
				rb.Put("/view/filter", h.RecycleBin.SetFilter)
				rb.Put("/view/sort", h.RecycleBin.SetSort)
				rb.Put("/view/pagination", h.RecycleBin.SetPagination)

				rb.Get("/stats", h.RecycleBin.Stats)
				rb.Get("/audit", h.RecycleBin.AuditLog)

				rb.Get("/policy", h.RecycleBin.Policy)
				rb.With(admin).Put("/policy", h.RecycleBin.UpdatePolicy)
				rb.With(admin).Post("/purge", h.RecycleBin.Purge)
				rb.With(admin).Post("/sweep", h.RecycleBin.Sweep)
			})

			api.Route("/cap-table", func(ct chi.Router) {
				ct.Use(staff)
				ct.Get("/", h.CapTable.Overview)
				ct.Get("/shareholders", h.CapTable.ListShareholders)
				ct.Get("/shareholders/{id}", h.CapTable.GetShareholder)
				ct.With(manage).Post("/shareholders", h.CapTable.AddShareholder)
				ct.With(manage).Put("/shareholders/{id}", h.CapTable.UpdateShareholder)
				ct.With(manage).Delete("/shareholders/{id}", h.CapTable.RemoveShareholder)
				ct.Get("/classes", h.CapTable.ListClasses)
				ct.With(manage).Post("/classes", h.CapTable.AddClass)
				ct.With(manage).Put("/classes/{id}", h.CapTable.UpdateClass)
				ct.With(manage).Delete("/classes/{id}", h.CapTable.RemoveClass)
			})

			api.Route("/securities", func(sec chi.Router) {
				sec.Use(staff)
				sec.Get("/", h.Securities.List)
				sec.Get("/stats", h.Securities.Stats)
				sec.Get("/activity", h.Securities.Activity)
				sec.Get("/{id}", h.Securities.Get)
				sec.With(manage).Post("/", h.Securities.Issue)
				sec.With(manage).Put("/{id}", h.Securities.Update)
				sec.With(manage).Post("/{id}/exercise", h.Securities.Exercise)
				sec.With(manage).Post("/{id}/cancel", h.Securities.Cancel)
			})

			api.Route("/transactions", func(tx chi.Router) {
				tx.Use(staff)
				tx.Get("/", h.Transactions.List)
				tx.Get("/{id}", h.Transactions.Get)
				tx.With(manage).Post("/", h.Transactions.Create)
				tx.With(manage).Patch("/{id}", h.Transactions.Update)
				tx.With(manage).Post("/{id}/revise", h.Transactions.Revise)
				tx.With(manage).Post("/{id}/approve", h.Transactions.Approve)
				tx.With(manage).Post("/{id}/reject", h.Transactions.Reject)
				tx.With(manage).Post("/{id}/execute", h.Transactions.Execute)
				tx.With(manage).Delete("/{id}", h.Transactions.Delete)
			})

			api.Route("/leads", func(leads chi.Router) {
				leads.Use(staff)
				leads.Get("/", h.Leads.List)
				leads.Get("/stats", h.Leads.Stats)
				leads.Get("/activity", h.Leads.Activity)
				leads.Get("/{id}", h.Leads.Get)
				leads.With(manage).Post("/", h.Leads.Create)
				leads.With(manage).Put("/{id}", h.Leads.Update)
				leads.With(manage).Put("/{id}/status", h.Leads.SetStatus)
				leads.With(manage).Put("/{id}/assign", h.Leads.Assign)
				leads.With(manage).Delete("/{id}", h.Leads.Delete)
			})

			api.Route("/guests", func(guests chi.Router) {
				guests.Use(staff)
				guests.Get("/", h.Guests.List)
				guests.Get("/stats", h.Guests.Stats)
				guests.Get("/{id}", h.Guests.Get)
				guests.With(manage).Post("/", h.Guests.Create)
				guests.With(manage).Put("/{id}", h.Guests.Update)
				guests.With(manage).Post("/{id}/vip", h.Guests.ToggleVIP)
				guests.With(manage).Post("/{id}/stays", h.Guests.RecordStay)
				guests.With(manage).Delete("/{id}", h.Guests.Delete)
			})

			api.Route("/guest-services", func(gs chi.Router) {
				gs.Use(staff)
				gs.Get("/", h.GuestServices.List)
				gs.Get("/stats", h.GuestServices.Stats)
				gs.Get("/activity", h.GuestServices.Activity)
				gs.Get("/{id}", h.GuestServices.Get)
				gs.With(manage).Post("/", h.GuestServices.Create)
				gs.With(manage).Put("/{id}", h.GuestServices.Update)
				gs.With(manage).Put("/{id}/assign", h.GuestServices.Assign)
				gs.With(manage).Post("/{id}/start", h.GuestServices.Start)
				gs.With(manage).Post("/{id}/resolve", h.GuestServices.Resolve)
				gs.With(manage).Post("/{id}/cancel", h.GuestServices.Cancel)
				gs.With(manage).Delete("/{id}", h.GuestServices.Delete)
			})
		})
	})

	return r
}

package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/gearguard/internal/auth"
	"github.com/frahmantamala/gearguard/internal/department"
	"github.com/frahmantamala/gearguard/internal/equipment"
	"github.com/frahmantamala/gearguard/internal/report"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/revalidation"
	"github.com/frahmantamala/gearguard/internal/schedule"
	"github.com/frahmantamala/gearguard/internal/team"
	"github.com/frahmantamala/gearguard/internal/transport/middleware"
	"github.com/frahmantamala/gearguard/internal/transport/swagger"
	"github.com/frahmantamala/gearguard/internal/transport/websocket"
	"github.com/frahmantamala/gearguard/internal/user"
)

// Handlers groups everything mounted under /api/v1. Nil handlers are skipped.
type Handlers struct {
	Auth         *auth.Handler
	RBAC         *auth.RBACAuthorization
	User         *user.Handler
	Request      *request.Handler
	Schedule     *schedule.Handler
	Revalidation *revalidation.Handler
	WebSocket    *websocket.Handler
	Equipment    *equipment.Handler
	Team         *team.Handler
	Department   *department.Handler
	Report       *report.Handler
}

type RouterConfig struct {
	AllowedOrigins string
	OpenAPIPath    string
	// Validator checks requests against the OpenAPI document when set.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router chi.Router, db *sqlx.DB, rdb *redis.Client, hub *websocket.Hub, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	var counter ClientCounter
	if hub != nil {
		counter = hub
	}
	healthHandler := NewHealthHandler(db.DB, rdb, counter)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	openAPIPath := cfg.OpenAPIPath
	if openAPIPath == "" {
		openAPIPath = "./api/openapi.yml"
	}
	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openAPIPath)
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	// Mount API under /api/v1 to match OpenAPI servers
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Upgrades authenticate from the query string.
		if h.WebSocket != nil {
			r.Get("/ws", h.WebSocket.ServeWS)
		}

		r.Group(func(r chi.Router) {
			if cfg.Validator != nil {
				r.Use(cfg.Validator)
			}
			if h.Auth == nil {
				return
			}

			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/register", h.Auth.Register)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})

			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)
				mountProtected(pr, db, h)
			})
		})
	})
}

func mountProtected(pr chi.Router, db *sqlx.DB, h Handlers) {
	rbac := h.RBAC

	if h.User != nil {
		pr.Get("/users/me", h.User.GetCurrentUser)
		pr.Get("/users/me/profile", h.User.GetProfile)
		pr.Get("/technicians", h.User.ListTechnicians)
	}

	if h.Request != nil {
		pr.Get("/dashboard/stats", h.Request.DashboardStats)
		pr.Route("/requests", func(rr chi.Router) {
			rr.Get("/", h.Request.ListRequests)
			rr.Post("/", h.Request.CreateRequest)
			rr.Get("/recent", h.Request.RecentRequests)

			rr.Route("/{id}", func(ir chi.Router) {
				if rbac != nil && db != nil {
					ir.Use(rbac.RequireRequestAccess(auth.SQLOwnerLookup(db)))
				}
				ir.Get("/", h.Request.GetRequest)
				ir.Patch("/", h.Request.UpdateRequest)
				ir.Delete("/", h.Request.DeleteRequest)
				ir.Patch("/status", h.Request.UpdateRequestStatus)
			})
		})
	}

	if h.Schedule != nil {
		pr.Get("/board", h.Schedule.GetBoard)
		pr.Get("/calendar", h.Schedule.GetCalendar)
	}

	if h.Revalidation != nil {
		pr.Get("/views/versions", h.Revalidation.GetVersions)
		if rbac != nil {
			pr.With(rbac.Middleware(auth.PermBroadcastRevalidate)).Post("/views/revalidate", h.Revalidation.Revalidate)
		}
	}

	if h.Equipment != nil {
		pr.Get("/equipment", h.Equipment.ListEquipment)
		pr.Get("/equipment/{id}", h.Equipment.GetEquipment)
		if rbac != nil {
			pr.With(rbac.Middleware(auth.PermManageEquipment)).Post("/equipment", h.Equipment.CreateEquipment)
		}
	}

	if h.Team != nil {
		pr.Get("/teams", h.Team.ListTeams)
	}

	if h.Department != nil {
		pr.Get("/departments/options", h.Department.GetDepartmentOptions)
		if rbac != nil {
			pr.With(rbac.Middleware(auth.PermManageDepartments)).Get("/departments", h.Department.GetDepartments)
		}
	}

	if h.Report != nil {
		pr.Get("/reports/overview", h.Report.GetOverview)
		pr.Get("/reports/overview.xlsx", h.Report.ExportOverview)
	}
}

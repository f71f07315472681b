package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/auth"
	authPostgres "github.com/frahmantamala/gearguard/internal/auth/postgres"
	"github.com/frahmantamala/gearguard/internal/core/events"
	"github.com/frahmantamala/gearguard/internal/department"
	departmentPostgres "github.com/frahmantamala/gearguard/internal/department/postgres"
	"github.com/frahmantamala/gearguard/internal/equipment"
	equipmentPostgres "github.com/frahmantamala/gearguard/internal/equipment/postgres"
	"github.com/frahmantamala/gearguard/internal/report"
	reportPostgres "github.com/frahmantamala/gearguard/internal/report/postgres"
	"github.com/frahmantamala/gearguard/internal/request"
	requestPostgres "github.com/frahmantamala/gearguard/internal/request/postgres"
	"github.com/frahmantamala/gearguard/internal/revalidation"
	"github.com/frahmantamala/gearguard/internal/schedule"
	"github.com/frahmantamala/gearguard/internal/team"
	teamPostgres "github.com/frahmantamala/gearguard/internal/team/postgres"
	"github.com/frahmantamala/gearguard/internal/transport/openapi"
	"github.com/frahmantamala/gearguard/internal/transport/rest"
	"github.com/frahmantamala/gearguard/internal/transport/websocket"
	"github.com/frahmantamala/gearguard/internal/user"
	userPostgres "github.com/frahmantamala/gearguard/internal/user/postgres"
)

// Dependencies are the connections an App is built on. Redis is optional.
type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Redis  *redis.Client
	Logger *slog.Logger
}

// App is the fully wired HTTP application.
type App struct {
	Router   *chi.Mux
	Hub      *websocket.Hub
	Bus      *events.EventBus
	Notifier *revalidation.Notifier

	relay  *revalidation.RedisFanout
	logger *slog.Logger
	cancel context.CancelFunc
}

func NewApp(ctx context.Context, deps Dependencies) (*App, error) {
	cfg := deps.Config
	lg := deps.Logger

	weekStart, err := cfg.Calendar.ParseWeekStart()
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	policy, err := request.PolicyFor(cfg.Lifecycle.Engine, cfg.Lifecycle.TransitionRule)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}

	hub := websocket.NewHub(lg)
	bus := events.NewEventBus(lg)

	var (
		store  revalidation.VersionStore = revalidation.NewMemoryStore()
		fanout revalidation.Fanout       = revalidation.NewLocalFanout(hub)
		relay  *revalidation.RedisFanout
	)
	if deps.Redis != nil {
		store = revalidation.NewRedisStore(deps.Redis, "")
		relay = revalidation.NewRedisFanout(deps.Redis, cfg.Redis.Channel, lg)
		fanout = relay
	}
	notifier := revalidation.NewNotifier(store, fanout, lg)
	notifier.Register(bus)

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTTokenGenerator(
			cfg.Security.AccessTokenSecret,
			cfg.Security.RefreshTokenSecret,
			cfg.Security.AccessTokenDuration,
			cfg.Security.RefreshTokenDuration,
		),
		cfg.Security.BCryptCost,
		lg,
	)
	authHandler := auth.NewHandler(authService)

	requestService := request.NewService(requestPostgres.NewRequestRepository(deps.Gorm), policy, bus, lg)

	handlers := rest.Handlers{
		Auth:         authHandler,
		RBAC:         auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		User:         user.NewHandler(user.NewService(userPostgres.NewUserRepository(deps.Gorm), lg)),
		Request:      request.NewHandler(requestService),
		Schedule:     schedule.NewHandler(requestService, weekStart),
		Revalidation: revalidation.NewHandler(notifier),
		WebSocket:    websocket.NewHandler(hub, authHandler, cfg.Server.AllowedOrigins),
		Equipment:    equipment.NewHandler(equipment.NewService(equipmentPostgres.NewEquipmentRepository(deps.Gorm), lg)),
		Team:         team.NewHandler(team.NewService(teamPostgres.NewTeamRepository(deps.Gorm), lg)),
		Department:   department.NewHandler(department.NewService(departmentPostgres.NewDepartmentRepository(deps.Gorm), lg)),
		Report:       report.NewHandler(report.NewService(reportPostgres.NewReportRepository(deps.Gorm), lg)),
	}

	routerCfg := rest.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPIPath:    cfg.Server.OpenAPIPath,
	}
	if cfg.Server.OpenAPIPath != "" {
		doc, err := openapi.Load(ctx, cfg.Server.OpenAPIPath)
		if err != nil {
			return nil, err
		}
		validator, err := openapi.ValidateRequests(doc, lg)
		if err != nil {
			return nil, err
		}
		routerCfg.Validator = validator
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps.DB, deps.Redis, hub, handlers, routerCfg, lg)

	return &App{
		Router:   router,
		Hub:      hub,
		Bus:      bus,
		Notifier: notifier,
		relay:    relay,
		logger:   lg,
	}, nil
}

// Start runs the websocket hub and, with redis, the invalidation relay.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	go a.Hub.Run(ctx)
	if a.relay != nil {
		go func() {
			if err := a.relay.Relay(ctx, a.Hub); err != nil {
				a.logger.Error("invalidation relay stopped", "error", err)
			}
		}()
	}
}

// Close stops background work and waits for in-flight event handlers.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.Bus.Wait()
}

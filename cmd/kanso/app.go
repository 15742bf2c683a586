package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/ai"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/notify"
	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/config"
	"github.com/comitanigiacomo/kanso-progress/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress/internal/core/services"
	"github.com/comitanigiacomo/kanso-progress/internal/core/workers"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// stores is one backend's set of repositories.
type stores struct {
	goals    domain.GoalRepository
	tasks    domain.TaskRepository
	activity domain.ActivityRepository
	users    domain.UserRepository
	pinger   adapterHTTP.StorePinger
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StoreMemory:
		m := repository.NewMemoryStore()
		return &stores{
			goals:    m.Goals(),
			tasks:    m.Tasks(),
			activity: m.Activity(),
			users:    m.Users(),
			close:    func() error { return nil },
		}, nil

	case config.StoreSQLite:
		s, err := repository.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("store initialized", "component", "store", "driver", "sqlite", "path", cfg.Storage.SQLitePath)
		return &stores{
			goals:    s.Goals(),
			tasks:    s.Tasks(),
			activity: s.Activity(),
			users:    s.Users(),
			pinger:   s,
			close:    s.Close,
		}, nil

	case config.StorePostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := repository.OpenPostgres(connectCtx, cfg.Postgres.Driver, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		if err := repository.RunMigrations(db.DB); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("store initialized", "component", "store", "driver", cfg.Postgres.Driver, "host", cfg.Postgres.Host)
		return &stores{
			goals:    repository.NewPostgresGoalRepository(db),
			tasks:    repository.NewPostgresTaskRepository(db),
			activity: repository.NewPostgresActivityRepository(db),
			users:    repository.NewPostgresUserRepository(db),
			pinger:   pingFunc(db.PingContext),
			close:    db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func newPlanner(cfg *config.Config) services.MilestonePlanner {
	if cfg.AI.OpenAIKey == "" {
		slog.Info("no OpenAI key configured, using the static milestone planner", "component", "ai")
		return ai.StaticPlanner{}
	}
	return ai.NewOpenAIPlanner(cfg.AI.OpenAIKey, cfg.AI.Model)
}

// application is the fully wired service graph.
type application struct {
	cfg      *config.Config
	stores   *stores
	redis    *redis.Client
	goals    *services.GoalService
	tasks    *services.TaskService
	activity *services.ActivityService
	auth     *services.AuthService
	tokens   *services.TokenService
	worker   *workers.StaleGoalWorker
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Attempts: 3,
		})
		if err != nil {
			st.close()
			return nil, err
		}
		slog.Info("redis connected", "component", "cache", "addr", cfg.Redis.Addr())
	}

	goalRepo := st.goals
	var seen workers.SeenSet = cache.NewMemorySeenSet()
	if rdb != nil {
		goalRepo = repository.NewCachedGoalRepository(st.goals, rdb)
		seen = cache.NewRedisSeenSet(rdb)
	}

	goalSvc := services.NewGoalService(goalRepo, st.tasks, newPlanner(cfg))

	return &application{
		cfg:      cfg,
		stores:   st,
		redis:    rdb,
		goals:    goalSvc,
		tasks:    services.NewTaskService(st.tasks),
		activity: services.NewActivityService(st.activity, goalRepo, st.tasks),
		auth:     services.NewAuthService(st.users),
		tokens:   services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, st.users),
		worker:   workers.NewStaleGoalWorker(goalSvc, seen, notify.NewLogNotifier(nil), cfg.Worker.SweepInterval),
	}, nil
}

func (a *application) handler(startTime time.Time) (http.Handler, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}

	return adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(a.auth, a.tokens),
		GoalHandler:     adapterHTTP.NewGoalHandler(a.goals),
		TaskHandler:     adapterHTTP.NewTaskHandler(a.tasks),
		ActivityHandler: adapterHTTP.NewActivityHandler(a.activity, loc),
		TokenService:    a.tokens,
		Store:           a.stores.pinger,
		StoreName:       a.cfg.Storage.Driver,
		Redis:           a.redis,
		RateLimit:       a.cfg.Server.RateLimit,
		StartTime:       startTime,
	}), nil
}

func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Error("redis close error", "component", "cache", "error", err)
		}
	}
	if err := a.stores.close(); err != nil {
		slog.Error("store close error", "component", "store", "error", err)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-contest/internal/config"
	"github.com/riskibarqy/fantasy-contest/internal/domain/competition"
	"github.com/riskibarqy/fantasy-contest/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-contest/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-contest/internal/domain/matchstat"
	"github.com/riskibarqy/fantasy-contest/internal/domain/notification"
	"github.com/riskibarqy/fantasy-contest/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-contest/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-contest/internal/domain/wallet"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/notify"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-contest/internal/infrastructure/scheduler"
	"github.com/riskibarqy/fantasy-contest/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/fantasy-contest/internal/platform/id"
	"github.com/riskibarqy/fantasy-contest/internal/platform/logging"
	"github.com/riskibarqy/fantasy-contest/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-contest/internal/usecase"
)

type competitionStore interface {
	competition.Repository
	settlement.Finalizer
}

type repositories struct {
	competitions competitionStore
	wallets      wallet.Repository
	fixtures     fixture.Repository
	stats        matchstat.Repository
	rules        scoring.RuleRepository
	locker       settlement.Locker
	dispatches   jobscheduler.Repository
	publisher    notification.Publisher
	close        func() error
}

// App owns the HTTP server and the background settlement sweep.
type App struct {
	Server *http.Server
	sweep  *scheduler.SettlementSweep
	close  func() error
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := newRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rules := repos.rules
	if cfg.RulesCacheTTL > 0 {
		rules = cache.NewRulesRepository(repos.rules, cfg.RulesCacheTTL)
	}

	ids := idgen.NewUUIDGenerator()
	competitionSvc := usecase.NewCompetitionService(repos.competitions, repos.fixtures, ids, logger.Named("competition"))
	distributor := usecase.NewPrizeDistributor(repos.competitions, repos.publisher, usecase.PrizeDistributorConfig{
		CurrencyScale: cfg.CurrencyScale,
	}, logger.Named("distributor"))
	settlementSvc := usecase.NewSettlementService(
		repos.competitions,
		repos.stats,
		rules,
		repos.locker,
		competitionSvc,
		distributor,
		ids,
		usecase.SettlementConfig{LockTTL: cfg.SettlementLockTTL},
		logger.Named("settlement"),
	)

	var queue usecase.JobQueue
	if cfg.QStashEnabled {
		queue = jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			Timeout:          cfg.QStashTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, logger.Named("qstash"))
	}
	jobSvc := usecase.NewJobOrchestratorService(
		repos.competitions,
		competitionSvc,
		settlementSvc,
		queue,
		repos.dispatches,
		usecase.JobOrchestratorConfig{
			Workers:     cfg.SettlementWorkers,
			DedupWindow: cfg.SettlementDedupWindow,
		},
		logger.Named("jobs"),
	)

	handler := httpapi.NewHandler(
		competitionSvc,
		settlementSvc,
		usecase.NewStatisticsService(repos.stats, repos.fixtures, logger.Named("statistics")),
		usecase.NewWalletService(repos.wallets),
		jobSvc,
		repos.dispatches,
		logger.Named("http"),
	)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		AdminToken:         cfg.AdminToken,
		InternalJobToken:   cfg.InternalJobToken,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	app := &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		close:  repos.close,
		logger: logger,
	}
	if app.Server.Addr == "" {
		_ = repos.close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	if cfg.SettlementSweepEnabled {
		sweep, err := scheduler.NewSettlementSweep(jobSvc, cfg.SettlementSweepInterval, logger.Named("sweep"))
		if err != nil {
			_ = repos.close()
			return nil, fmt.Errorf("build settlement sweep: %w", err)
		}
		app.sweep = sweep
	}

	return app, nil
}

// Start launches the background sweep. The HTTP server is started by the
// caller.
func (a *App) Start() error {
	if a.sweep == nil {
		a.logger.Info("settlement sweep disabled", "reason", "SETTLEMENT_SWEEP_ENABLED=false")
		return nil
	}
	return a.sweep.Start()
}

// Shutdown drains HTTP traffic, stops the sweep and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.sweep != nil {
		if err := a.sweep.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop settlement sweep: %w", err))
		}
	}
	if a.close != nil {
		if err := a.close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		return newPostgresRepositories(ctx, cfg, logger)
	default:
		return newMemoryRepositories(ctx, cfg, logger)
	}
}

func newMemoryRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	wallets := memory.NewWalletRepository()
	competitions := memory.NewCompetitionRepository(wallets)
	fixtures := memory.NewFixtureRepository(nil)
	stats := memory.NewMatchStatRepository(nil)
	if cfg.SeedDemoData {
		if err := memory.Seed(ctx, competitions, fixtures, stats); err != nil {
			return repositories{}, fmt.Errorf("seed memory storage: %w", err)
		}
	}

	logger.Info("storage ready", "driver", config.StorageMemory, "seeded", cfg.SeedDemoData)
	return repositories{
		competitions: competitions,
		wallets:      wallets,
		fixtures:     fixtures,
		stats:        stats,
		rules:        memory.NewRulesRepository(),
		locker:       memory.NewSettlementLocker(),
		dispatches:   memory.NewJobDispatchRepository(),
		publisher:    memory.NewNotificationRecorder(logger.Named("notifications")),
		close:        func() error { return nil },
	}, nil
}

func newPostgresRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	if cfg.SeedDemoData {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("seed postgres storage: %w", err)
		}
	}

	logger.Info("storage ready", "driver", config.StoragePostgres, "db", databaseName(cfg.DBURL), "seeded", cfg.SeedDemoData)
	return repositories{
		competitions: postgres.NewCompetitionRepository(db),
		wallets:      postgres.NewWalletRepository(db),
		fixtures:     postgres.NewFixtureRepository(db),
		stats:        postgres.NewMatchStatRepository(db),
		rules:        postgres.NewRulesRepository(db),
		locker:       postgres.NewSettlementLocker(db),
		dispatches:   postgres.NewJobDispatchRepository(db),
		publisher: notify.NewFanout(logger.Named("notifications"),
			postgres.NewNotificationOutbox(db),
			notify.NewLogPublisher(logger.Named("notifications")),
		),
		close: db.Close,
	}, nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/servicedesk/internal/api/http"
	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/repository/memory"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/worker"
)

// application is the fully wired HTTP server plus what must be released on shutdown.
type application struct {
	app     *fiber.App
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApplication wires the service. Without POSTGRES_DSN everything runs on the in-memory store.
func newApplication(ctx context.Context, cfg *config.Config, logger *zap.Logger, seedPath string) (*application, error) {
	a := &application{}
	pingers := map[string]handlers.Pinger{}
	deps := service.Dependencies{Logger: logger}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pool := pg.PoolHandle(); pool != nil {
		a.closers = append(a.closers, pg.Close)
		pingers["postgres"] = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, persistence.MigrateUp, logger); err != nil {
				a.Close()
				return nil, err
			}
		}
		deps.Tx = repository.NewTransactor(pool)
		deps.Tickets = repository.NewTicketRepository(pool)
		deps.Timeline = repository.NewTimelineRepository(pool)
		deps.Diagnoses = repository.NewDiagnosisRepository(pool)
		deps.WorkOrders = repository.NewWorkOrderRepository(pool)
		deps.SparepartRequests = repository.NewSparepartRequestRepository(pool)
		deps.ZoomAccounts = repository.NewZoomAccountRepository(pool)
		deps.Users = repository.NewUserRepository(pool)
		deps.Assets = repository.NewCachedAssetRepository(repository.NewAssetRepository(pool), cfg.Assets.CacheTTL())
		if seedPath != "" {
			logger.Warn("seed file ignored with the postgres backend", zap.String("seed", seedPath))
		}
	} else {
		store := memory.NewStore()
		if seedPath != "" {
			if err := loadSeed(seedPath, store); err != nil {
				return nil, err
			}
		}
		logger.Warn("running on the in-memory store; data is lost on exit")
		repos := store.Repositories()
		deps.Tx = store
		deps.Tickets = repos.Tickets
		deps.Timeline = repos.Timeline
		deps.Diagnoses = repos.Diagnoses
		deps.WorkOrders = repos.WorkOrders
		deps.SparepartRequests = repos.SparepartRequests
		deps.ZoomAccounts = repos.ZoomAccounts
		deps.Users = repos.Users
		deps.Assets = repos.Assets
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	if redis.Client != nil {
		a.closers = append(a.closers, redis.Close)
		pingers["redis"] = redis
		deps.Locker = persistence.NewRedisLocker(redis, cfg.Booking.LockTTL(), cfg.Booking.LockWait(), logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	deps.Dispatcher = dispatcher
	metrics := observability.NewMetrics()

	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	a.closers = append(a.closers, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close kafka publisher", zap.Error(err))
		}
	})
	notifications := service.NewNotificationService(dispatcher, deps.Users, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications, dispatcher, publisher, metrics, logger)

	zoom := service.NewZoomBookingService(deps)
	tickets := service.NewTicketService(deps, zoom)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	a.app = httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers, metrics),
		Tickets:           handlers.NewTicketsHandler(tickets),
		Diagnosis:         handlers.NewDiagnosisHandler(service.NewDiagnosisService(deps)),
		WorkOrders:        handlers.NewWorkOrdersHandler(service.NewWorkOrderService(deps)),
		SparepartRequests: handlers.NewSparepartRequestsHandler(service.NewSparepartRequestService(deps)),
		Zoom:              handlers.NewZoomHandler(zoom),
		Assignment:        handlers.NewAssignmentHandler(service.NewAssignmentService(deps)),
		AuthMiddleware:    auth.NewAuthMiddleware(tokens),
		RateLimiter:       httptransport.NewRateLimiter(cfg.RateLimit),
	})
	return a, nil
}

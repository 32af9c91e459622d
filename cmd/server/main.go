package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/openhousehq/openhouse/internal/api"
	v1 "github.com/openhousehq/openhouse/internal/api/v1"
	"github.com/openhousehq/openhouse/internal/config"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/postgres"
	pubsubMemory "github.com/openhousehq/openhouse/internal/pubsub/memory"
	"github.com/openhousehq/openhouse/internal/repository"
	"github.com/openhousehq/openhouse/internal/service"
	"github.com/openhousehq/openhouse/internal/validator"
	"github.com/openhousehq/openhouse/internal/webhook"
	"github.com/openhousehq/openhouse/internal/webhook/publisher"
)

func init() {
	// UTC everywhere; listing dates and timestamps are stored without zone
	time.Local = time.UTC
}

func main() {
	// Local development reads overrides from .env when present
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,

			postgres.NewDB,
			func(db *postgres.DB) postgres.IClient { return db },

			pubsubMemory.NewPubSub,
			publisher.NewPublisher,
			webhook.NewService,

			repository.NewListingRepository,

			service.NewServiceParams,
			service.NewListingService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideHandlers(
	log *logger.Logger,
	listingService service.ListingService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(),
		Listing: v1.NewListingHandler(listingService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	webhookService *webhook.Service,
	webhookPublisher publisher.WebhookPublisher,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := webhookService.Start(context.Background()); err != nil {
				return err
			}

			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			webhookService.Stop()
			if err := webhookPublisher.Close(); err != nil {
				log.Errorw("error closing webhook publisher", "error", err)
			}
			db.Close()
			return server.Shutdown(ctx)
		},
	})
}

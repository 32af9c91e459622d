package service

import (
	"github.com/openhousehq/openhouse/internal/config"
	"github.com/openhousehq/openhouse/internal/domain/listing"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/postgres"
	"github.com/openhousehq/openhouse/internal/webhook/publisher"
)

// ServiceParams holds the dependencies shared by all services so that
// constructors stay stable as the dependency set grows
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	ListingRepo listing.Repository

	WebhookPublisher publisher.WebhookPublisher
}

// NewServiceParams assembles the shared dependency set for the DI container
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	listingRepo listing.Repository,
	webhookPublisher publisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           cfg,
		DB:               db,
		ListingRepo:      listingRepo,
		WebhookPublisher: webhookPublisher,
	}
}

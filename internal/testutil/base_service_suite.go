package testutil

import (
	"context"

	"github.com/stretchr/testify/suite"

	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/postgres"
	"github.com/openhousehq/openhouse/internal/types"
)

// BaseServiceSuite provides the shared fixtures for service-level tests: a
// context carrying the default user and team, fresh in-memory stores and a
// capturing event publisher.
type BaseServiceSuite struct {
	suite.Suite
	ctx context.Context

	listingStore *InMemoryListingStore
	publisher    *InMemoryWebhookPublisher
	client       postgres.IClient
	logger       *logger.Logger
}

// SetupTest rebuilds the fixtures so each test starts from an empty store
func (s *BaseServiceSuite) SetupTest() {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = types.SetTeamID(ctx, types.DefaultTeamID)
	s.ctx = ctx

	s.listingStore = NewInMemoryListingStore()
	s.publisher = NewInMemoryWebhookPublisher()
	s.client = NewInMemoryClient()
	s.logger = logger.NewNoOpLogger()
}

func (s *BaseServiceSuite) GetContext() context.Context {
	return s.ctx
}

// ContextFor returns a context scoped to a different agent and team, for
// exercising ownership checks
func (s *BaseServiceSuite) ContextFor(userID, teamID string) context.Context {
	ctx := context.Background()
	ctx = types.SetUserID(ctx, userID)
	ctx = types.SetTeamID(ctx, teamID)
	return ctx
}

func (s *BaseServiceSuite) GetListingStore() *InMemoryListingStore {
	return s.listingStore
}

func (s *BaseServiceSuite) GetPublisher() *InMemoryWebhookPublisher {
	return s.publisher
}

func (s *BaseServiceSuite) GetClient() postgres.IClient {
	return s.client
}

func (s *BaseServiceSuite) GetLogger() *logger.Logger {
	return s.logger
}

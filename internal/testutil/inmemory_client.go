package testutil

import (
	"context"

	"github.com/openhousehq/openhouse/internal/postgres"
)

// InMemoryClient satisfies postgres.IClient without a database. WithTx runs
// the function directly; the in-memory stores already apply each write
// atomically.
type InMemoryClient struct{}

func NewInMemoryClient() postgres.IClient {
	return &InMemoryClient{}
}

func (c *InMemoryClient) GetQuerier(ctx context.Context) postgres.Querier {
	return nil
}

func (c *InMemoryClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

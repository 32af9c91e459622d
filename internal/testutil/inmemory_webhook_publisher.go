package testutil

import (
	"context"
	"sync"

	"github.com/openhousehq/openhouse/internal/types"
)

// InMemoryWebhookPublisher captures published events for assertions
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent

	// publishErr, when set, is returned by every publish to simulate a
	// broken sink
	publishErr error
}

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.publishErr != nil {
		return p.publishErr
	}
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// SetPublishError makes subsequent publishes fail with err
func (p *InMemoryWebhookPublisher) SetPublishError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishErr = err
}

// Events returns a snapshot of the captured events
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]*types.WebhookEvent, len(p.events))
	copy(snapshot, p.events)
	return snapshot
}

// EventsByName returns captured events matching the given event name
func (p *InMemoryWebhookPublisher) EventsByName(name string) []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*types.WebhookEvent
	for _, e := range p.events {
		if e.EventName == name {
			matched = append(matched, e)
		}
	}
	return matched
}

// Clear drops all captured events
func (p *InMemoryWebhookPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

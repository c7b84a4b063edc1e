// Package eventbus publishes and consumes execution lifecycle events.
package eventbus

import (
	"context"

	"github.com/dukex/ragline/pkg/events"
)

// EventHandler processes one decoded event.
type EventHandler func(ctx context.Context, event events.Event) error

// EventBus is the publish/subscribe boundary for execution events.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
	GenerateID() string
	Close() error
}

// Package events forwards committed project and task changes to MQTT.
package events

import (
	"context"
	"fmt"

	"github.com/cenitiumdev/project-tracker/internal/infrastructure/mqtt"
	"github.com/cenitiumdev/project-tracker/internal/project"
)

// Broker is the subset of *mqtt.Client the publisher needs.
type Broker interface {
	PublishJSON(topic string, v any) error
	Topics() mqtt.Topics
}

// Publisher implements project.ChangeNotifier over an MQTT broker.
// Each change goes to {prefix}/events/{entity}/{action}.
type Publisher struct {
	broker Broker
}

// NewPublisher returns a Publisher writing to broker.
func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// NotifyChange publishes change as JSON.
func (p *Publisher) NotifyChange(ctx context.Context, change project.Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	topic := p.broker.Topics().Event(change.Entity, change.Action)
	if err := p.broker.PublishJSON(topic, change); err != nil {
		return fmt.Errorf("publishing %s %s event: %w", change.Entity, change.Action, err)
	}
	return nil
}

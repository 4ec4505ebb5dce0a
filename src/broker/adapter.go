package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"teamcity-rest/src/contracts"
)

// EventAdapter publishes and consumes JSON-encoded BuildEvents over a Broker.
type EventAdapter struct {
	broker Broker
}

// NewEventAdapter wraps broker for BuildEvent traffic.
func NewEventAdapter(broker Broker) *EventAdapter {
	return &EventAdapter{broker: broker}
}

// PublishBuild sends event to TopicBuildsNew keyed by build id.
func (a *EventAdapter) PublishBuild(ctx context.Context, event contracts.BuildEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal build event: %w", err)
	}
	if err := a.broker.Publish(ctx, contracts.TopicBuildsNew, event.BuildID, data); err != nil {
		return fmt.Errorf("failed to publish build %s: %w", event.BuildID, err)
	}
	return nil
}

// SubscribeBuilds returns decoded BuildEvents from TopicBuildsNew.
// Messages that do not decode are dropped.
func (a *EventAdapter) SubscribeBuilds(ctx context.Context, groupID string) (<-chan contracts.BuildEvent, error) {
	msgChan, err := a.broker.Subscribe(ctx, contracts.TopicBuildsNew, groupID)
	if err != nil {
		return nil, err
	}

	events := make(chan contracts.BuildEvent, 100)

	go func() {
		defer close(events)
		for msg := range msgChan {
			var event contracts.BuildEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				continue
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Close closes the underlying broker.
func (a *EventAdapter) Close() error {
	return a.broker.Close()
}

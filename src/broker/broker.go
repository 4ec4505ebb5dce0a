// Package broker carries build events between the watcher and its consumers.
package broker

import "context"

// Broker publishes and consumes raw records on named topics.
// InMemoryBroker serves a single process; RedpandaBroker lets watchers and
// consumers run as separate processes.
type Broker interface {
	// Publish sends value to topic. key selects the Kafka partition, so all
	// events of one build land on the same partition; the in-memory broker
	// ignores it.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe streams records of topic until ctx ends or the broker closes.
	// Subscribers sharing a groupID split a Kafka topic between them; every
	// in-memory subscription receives every record.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	Close() error
}

// Message is a consumed record.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	// Timestamp is in Unix milliseconds.
	Timestamp int64
}

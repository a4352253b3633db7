// Package messaging provides abstractions for publishing sensor output to a
// message broker without coupling sinks to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message sent to a message broker.
type Message struct {
	// Subject is the topic/channel the message is published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was built.
	Timestamp time.Time
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishMsg sends a Message with full control over headers.
	PublishMsg(ctx context.Context, msg *Message) error

	// Flush blocks until everything published so far has reached the broker.
	Flush(ctx context.Context) error

	// IsConnected returns true if the publisher is connected to the broker.
	IsConnected() bool

	// Close releases any resources held by the publisher.
	Close() error
}

// Header keys set on published messages.
const (
	HeaderSensor  = "Runbridge-Sensor"
	HeaderTickID  = "Runbridge-Tick-Id"
	HeaderEventID = "Nats-Msg-Id"
)

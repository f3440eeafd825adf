package channels

import "context"

// Message is a notification rendered for delivery.
type Message struct {
	Topic   string
	Subject string
	Body    string
	// Data carries the structured event for channels that post JSON.
	Data interface{}
}

// Channel is the interface for notification delivery backends.
type Channel interface {
	// Name identifies the channel in logs.
	Name() string

	// Send delivers one message. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, msg *Message) error

	// Close releases any held connections.
	Close() error
}

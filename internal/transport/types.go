package transport

import "context"

// Message is one inbound chat message, already reduced to what the
// command loop needs.
type Message struct {
	// UpdateID is the transport-assigned, monotonically increasing id of
	// the update that carried this message. The engine uses it as its
	// drain cursor.
	UpdateID int
	ChatID   int64
	FromID   int64
	FromName string
	Text     string
}

// Sender delivers plain-text messages to a single chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Adapter is the full chat transport: outbound sends plus an inbound
// message stream fed by the transport's own poll loop.
type Adapter interface {
	Sender

	// Start begins polling for inbound messages. Messages are pushed to
	// the channel returned by Updates; when the consumer is slower than
	// the poll loop, messages are dropped and counted rather than
	// blocking the transport.
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Updates returns the inbound message stream. The channel is owned
	// by the adapter and is valid after New.
	Updates() <-chan Message
}

// Package channels defines the interfaces and types for Pub-AI communication
// channels. Each channel (Discord today, potentially others later) implements
// the Channel interface to receive and send messages in a unified way.
package channels

import (
	"context"
	"fmt"
	"time"
)

// Channel defines the interface that every communication channel must implement.
type Channel interface {
	// Name returns the channel identifier (e.g. "discord").
	Name() string

	// Connect establishes the connection to the messaging platform.
	Connect(ctx context.Context) error

	// Disconnect gracefully closes the connection.
	Disconnect() error

	// Send sends a message to the specified chat.
	Send(ctx context.Context, to string, message *OutgoingMessage) error

	// Receive returns a Go channel that emits incoming messages.
	Receive() <-chan *IncomingMessage

	// IsConnected returns true if the channel is connected.
	IsConnected() bool
}

// PresenceChannel extends Channel with typing indicators.
type PresenceChannel interface {
	Channel

	// SendTyping sends a "typing..." indicator to the chat.
	SendTyping(ctx context.Context, to string) error
}

// IncomingMessage represents a message received from any channel.
type IncomingMessage struct {
	// ID is the unique message identifier in the source channel.
	ID string

	// Channel identifies the source channel (e.g. "discord").
	Channel string

	// From is the sender's stable identity on the platform.
	From string

	// FromName is the sender display name (if available).
	FromName string

	// ChatID is the conversation identifier replies go to.
	ChatID string

	// Roles holds the sender's resolved role memberships, as reported
	// by the platform at delivery time.
	Roles []string

	// Content is the text content of the message.
	Content string

	// Timestamp is when the message was sent.
	Timestamp time.Time

	// Mentions lists identities of users mentioned in the message.
	Mentions []string

	// MentionNames maps mentioned identities to display names.
	MentionNames map[string]string
}

// OutgoingMessage represents a message to be sent through a channel.
// Channels that support rich formatting (embeds) use Title, Color, Fields
// and Footer; plain-text channels may render Content alone.
type OutgoingMessage struct {
	// Content is the body text of the message.
	Content string

	// Title is an optional heading.
	Title string

	// Color is an optional accent color (0 = channel default).
	Color int

	// Footer is an optional footer line.
	Footer string

	// Fields are optional name/value pairs appended to the message.
	Fields []Field

	// ReplyTo contains the ID of the message to reply to.
	ReplyTo string

	// Timestamped requests the platform timestamp on the message.
	Timestamped bool
}

// Field is a name/value pair rendered inside a formatted message.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Errors.
var (
	ErrChannelDisconnected = fmt.Errorf("channel is not connected")
	ErrSendFailed          = fmt.Errorf("failed to send message")
	ErrConnectionFailed    = fmt.Errorf("failed to connect to channel")
)

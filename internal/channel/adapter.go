// Package channel defines the adapter contract between messaging platforms
// and the bot pipeline.
package channel

import "context"

// Kind distinguishes one-on-one chats from group chats. Group messages go
// through the reply policy; direct messages always get a reply.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Format tells the adapter how to render outbound content.
type Format string

const (
	FormatPlain Format = "plain"
	FormatHTML  Format = "html"
)

// Message is a normalized inbound message.
type Message struct {
	ID       string
	Channel  string
	ChatID   string
	UserID   string
	Username string
	Text     string
	Kind     Kind
	// Mentioned is set when the platform flagged an explicit @-mention of
	// the bot; ReplyToBot when the message replies to one of the bot's own
	// messages.
	Mentioned  bool
	ReplyToBot bool
	Metadata   map[string]string
	Timestamp  int64
}

// Response is an outbound reply into the chat a message came from.
type Response struct {
	Content string
	Format  Format
	// ReplyTo is the inbound message ID to attach the reply to, when the
	// platform supports threading replies.
	ReplyTo string
}

// Sender is the outbound half of an adapter, all the pipeline needs to
// answer a message.
type Sender interface {
	SendMessage(chatID string, resp *Response) error
}

// Adapter is the interface every platform binding implements.
type Adapter interface {
	Sender

	// Start begins receiving messages.
	Start(ctx context.Context) error

	// Stop stops the adapter.
	Stop() error

	// Incoming returns the channel of normalized inbound messages.
	Incoming() <-chan *Message

	// Name returns the platform name ("telegram", "discord", ...).
	Name() string

	// IsEnabled reports whether the adapter is configured to run.
	IsEnabled() bool
}

// Package memory persists per-user key/value facts and per-chat reply modes.
package memory

import "context"

// Entry is one saved fact for a user.
type Entry struct {
	Key   string
	Value string
}

// Stats summarizes store contents for gauges and health reporting.
type Stats struct {
	Memories   int
	GroupModes int
}

// DefaultGroupMode is what GroupMode reports for chats that never had a
// mode set. No row is created for the default.
const DefaultGroupMode = "mention"

// Store is the persistence interface the bot pipeline depends on.
type Store interface {
	// SetMemory saves one fact for a user. Writing an existing key
	// overwrites its value; the newest write wins.
	SetMemory(ctx context.Context, userID, key, value string) error

	// Memories returns every fact saved for a user, oldest first.
	Memories(ctx context.Context, userID string) ([]Entry, error)

	// DeleteMemory removes one fact, reporting whether it existed.
	DeleteMemory(ctx context.Context, userID, key string) (bool, error)

	// GroupMode returns the reply mode recorded for a chat, or
	// DefaultGroupMode when the chat has none.
	GroupMode(ctx context.Context, chatID string) (string, error)

	// SetGroupMode records the reply mode for a chat.
	SetGroupMode(ctx context.Context, chatID, mode string) error

	// Stats reports row counts for both tables.
	Stats(ctx context.Context) (Stats, error)

	// Maintain runs periodic database upkeep.
	Maintain(ctx context.Context) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}

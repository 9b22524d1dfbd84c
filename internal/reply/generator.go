// Package reply produces the bot's chat responses.
package reply

import (
	"context"

	"github.com/cortexhub/mnemo/internal/memory"
)

// Generator produces a chat reply from the user's text and their saved
// memory. Implementations must never return an empty reply with a nil
// error.
type Generator interface {
	Generate(ctx context.Context, text string, memories []memory.Entry) (string, error)
}

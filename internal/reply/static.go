package reply

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/cortexhub/mnemo/internal/memory"
)

// staticPool is picked from by hashing the input text, so the same message
// always gets the same line.
var staticPool = []string{
	"Yo 😈 what's the scene today?",
	"Look who showed up! Full vibe mode.",
	"Mnemo is listening… what do you need?",
	"What mischief is going on here? 😼",
}

// psKeyLimit caps how many memory keys the fallback name-drops.
const psKeyLimit = 5

// StaticGenerator answers from a fixed pool when no completion endpoint is
// configured. It never fails.
type StaticGenerator struct{}

// NewStaticGenerator returns the fallback generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// Generate implements Generator.
func (g *StaticGenerator) Generate(ctx context.Context, text string, memories []memory.Entry) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	base := staticPool[h.Sum32()%uint32(len(staticPool))]

	if len(memories) > 0 {
		keys := make([]string, 0, psKeyLimit)
		for _, e := range memories {
			keys = append(keys, e.Key)
			if len(keys) == psKeyLimit {
				break
			}
		}
		base += "\n\n(PS: I remember: " + strings.Join(keys, ", ") + ")"
	}

	return base, nil
}

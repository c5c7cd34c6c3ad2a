package history

import (
	"context"

	"announce-qa-be/pkg/llm"
)

// Store keeps per-conversation message history. Turns under the same
// conversation id see each other's appends; different ids never interfere.
type Store interface {
	Load(ctx context.Context, conversationID string) ([]llm.Message, error)
	Append(ctx context.Context, conversationID string, messages ...llm.Message) error
	Clear(ctx context.Context, conversationID string) error
}

package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultConversationTitle is assigned at creation. There is no
	// rename operation; the title is fixed for the conversation's life.
	DefaultConversationTitle = "New Conversation"

	// PreviewPlaceholder is used for conversations without messages.
	PreviewPlaceholder = "Start a conversation"
)

// Conversation is a titled, timestamped container for an ordered message
// history, owned by one user. UpdatedAt is advanced on every append.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is the listing shape. Preview is derived at read time
// from the conversation's earliest message and is never stored.
type ConversationSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SortSummaries orders summaries by updatedAt descending. Stores assemble
// previews concurrently, so completion order must not leak into the result.
func SortSummaries(summaries []ConversationSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
}

package match

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a narrative event. DANGER events bypass the commentary
// cooldown.
type Category string

const (
	CategoryInfo       Category = "INFO"
	CategoryDanger     Category = "DANGER"
	CategoryBuff       Category = "BUFF"
	CategoryCommentary Category = "COMMENTARY"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfo, CategoryDanger, CategoryBuff, CategoryCommentary:
		return true
	}
	return false
}

// GameEvent is one line of the narrative log. Timestamp is unix milliseconds.
type GameEvent struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Type      Category `json:"type"`
	Timestamp int64    `json:"timestamp"`
}

// NewEvent stamps a fresh event.
func NewEvent(text string, category Category, at time.Time) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Text:      text,
		Type:      category,
		Timestamp: at.UnixMilli(),
	}
}

// AppendEvent returns a new log with e in front, trimmed to EventLogCap
// entries. The input slice is not modified.
func AppendEvent(log []GameEvent, e GameEvent) []GameEvent {
	n := len(log) + 1
	if n > EventLogCap {
		n = EventLogCap
	}
	out := make([]GameEvent, 0, n)
	out = append(out, e)
	for _, old := range log {
		if len(out) == n {
			break
		}
		out = append(out, old)
	}
	return out
}

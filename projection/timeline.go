// Package projection builds local read models from observed events.
// It consumes the relay's streams and never emits events back.
package projection

import (
	"bbs-lab/domain/event"
	"context"
	"sync"
	"time"
)

// Entry is one line of the recent-activity feed.
type Entry struct {
	Type    string    `json:"type"`
	Channel string    `json:"channel,omitempty"`
	Sender  string    `json:"sender,omitempty"`
	Content string    `json:"content,omitempty"`
	Board   string    `json:"board,omitempty"`
	At      time.Time `json:"at"`
}

// Timeline keeps a bounded feed of recent chat and board activity.
// It is wired as a tap on the relay's fan-out and is safe for concurrent
// use.
type Timeline struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

func NewTimeline(limit int) *Timeline {
	return &Timeline{limit: limit}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	var entry Entry
	switch evt := e.(type) {
	case event.ChatMessage:
		entry = Entry{
			Type:    string(event.TypeMessage),
			Channel: evt.Channel,
			Sender:  evt.Sender,
			Content: evt.Content,
			At:      evt.At,
		}
	case event.NewPost:
		entry = Entry{
			Type:  string(event.TypeNewPost),
			Board: evt.Board,
			At:    time.Now().UTC(),
		}
	default:
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.limit > 0 && len(t.entries) > t.limit {
		t.entries = t.entries[len(t.entries)-t.limit:]
	}
	return nil
}

// Recent returns a copy of the feed, oldest first.
func (t *Timeline) Recent() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

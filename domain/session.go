// Package domain contains core concepts of the bulletin board system.
// This file defines Session entities and related invariants.
package domain

import (
	"fmt"
	"time"
)

// Session is the server-side state of one live connection.
// It is owned exclusively by the relay: destroyed on disconnect or
// eviction, which always releases the slot and leaves any channel.
type Session struct {
	ID             string
	Kind           PoolKind
	Slot           int
	IdentityID     string // empty for observers
	DisplayName    string
	CorrelationID  string // client-generated, reconnection bookkeeping only
	LastActivityAt time.Time
	Channel        ChannelName // "" while not joined, at most one at a time
}

// SenderKind maps the session's pool kind to the kind stamped on its
// messages. Automated personas never hold a session; they post directly.
func (s *Session) SenderKind() SenderKind {
	if s.Kind == AgentPool {
		return SenderAgent
	}
	return SenderHuman
}

// IdleFor reports how long the session has been silent.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivityAt)
}

var observerHandles = []string{
	"drifter", "lurker", "wanderer", "ghost", "stray",
	"nomad", "shadow", "pilgrim", "voyager", "specter",
}

// ObserverName builds a deterministic pseudonym for an anonymous slot,
// e.g. "lurker-002". Slot numbers are unique per pool, so names are too.
func ObserverName(slot int) string {
	handle := observerHandles[(slot-1)%len(observerHandles)]
	return fmt.Sprintf("%s-%03d", handle, slot)
}

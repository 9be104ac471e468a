// Package event defines the closed set of server-to-client variants.
// Every event the relay can emit is one struct here; the transport
// serializes them as tagged envelopes and nothing else goes on the wire.
package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAssigned    Type = "assigned"
	TypePoolFull    Type = "pool_full"
	TypeIdleTimeout Type = "idle_timeout"
	TypeHistory     Type = "history"
	TypeMembers     Type = "members"
	TypeMessage     Type = "message"
	TypeNewPost     Type = "new_post"
	TypeProblem     Type = "error"
)

type DomainEvent interface {
	EventType() Type
}

// Assigned acknowledges a successful handshake: the session's kind and
// slot, plus pool capacities and live counts for the welcome banner.
type Assigned struct {
	Kind             string `json:"kind"`
	Slot             int    `json:"slot"`
	AgentCapacity    int    `json:"agentCapacity"`
	ObserverCapacity int    `json:"observerCapacity"`
	AgentsOnline     int    `json:"agentsOnline"`
	ObserversOnline  int    `json:"observersOnline"`
	DisplayName      string `json:"displayName"`
	CorrelationID    string `json:"correlationId,omitempty"`
}

func (Assigned) EventType() Type { return TypeAssigned }

// PoolFull refuses a connection whose pool has no free slot.
// The connection is closed right after this event; no session exists.
type PoolFull struct {
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
}

func (PoolFull) EventType() Type { return TypePoolFull }

// IdleTimeout tells an evicted session why it is being dropped.
type IdleTimeout struct {
	IdleSeconds int64 `json:"idleSeconds"`
}

func (IdleTimeout) EventType() Type { return TypeIdleTimeout }

// ChatMessage is one broadcast chat line, also the history replay unit.
type ChatMessage struct {
	ID         uuid.UUID `json:"id"`
	Channel    string    `json:"channel"`
	Sender     string    `json:"sender"`
	SenderKind string    `json:"senderKind"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

func (ChatMessage) EventType() Type { return TypeMessage }

// HistorySnapshot replays a channel's buffer to a joining session,
// oldest first, in exactly the order messages were appended.
type HistorySnapshot struct {
	Channel  string        `json:"channel"`
	Messages []ChatMessage `json:"messages"`
}

func (HistorySnapshot) EventType() Type { return TypeHistory }

// MemberList is the full membership of a channel, sorted by slot so every
// recipient renders the same list. Sent to the joiner and broadcast after
// every join and leave; there is no per-user "joined" chat line.
type MemberList struct {
	Channel string   `json:"channel"`
	Members []string `json:"members"`
}

func (MemberList) EventType() Type { return TypeMembers }

// NewPost is a fire-and-forget hint that a board gained a post.
// It carries no payload beyond the board name and is not chat history.
type NewPost struct {
	Board string `json:"board"`
}

func (NewPost) EventType() Type { return TypeNewPost }

// Problem is a synchronous rejection of the triggering client event.
type Problem struct {
	Code     string   `json:"code"`
	Detail   string   `json:"detail,omitempty"`
	Channels []string `json:"channels,omitempty"` // hint on invalid_channel
}

func (Problem) EventType() Type { return TypeProblem }

// Problem codes, mirrored by clients.
const (
	CodeCapacityExceeded = "capacity_exceeded"
	CodeNotAMember       = "not_a_member"
	CodeInvalidChannel   = "invalid_channel"
	CodeInvalidMessage   = "invalid_message"
)

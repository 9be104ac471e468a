// Package domain contains core concepts of the bulletin board system.
// This file defines Message events and related rules.
// Messages are immutable once constructed by the relay.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type SenderKind string

const (
	SenderHuman     SenderKind = "human"     // anonymous observer
	SenderAgent     SenderKind = "agent"     // authenticated identity
	SenderAutomated SenderKind = "automated" // scripted persona
)

// Message represents an immutable chat event owned by its channel.
type Message struct {
	ID         uuid.UUID
	Channel    ChannelName
	Sender     string
	SenderKind SenderKind
	Content    string
	CreatedAt  time.Time
}

// Package ws is the websocket transport of the real-time core: one
// connection per client, JSON tagged envelopes both ways, a buffered sink
// per session for outbound fan-out.
package ws

import (
	"bbs-lab/domain/event"
	bbserrors "bbs-lab/errors"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the wire frame in both directions: a tag and a payload.
// Inbound tags form a closed set; anything else is invalid_message, never
// silently ignored.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound tags.
const (
	TagHello = "hello"
	TagJoin  = "join"
	TagPost  = "post"
	TagLeave = "leave"
	TagPing  = "ping"
)

// HelloPayload opens every connection: an optional bearer credential and
// a client-generated correlation id for reconnection bookkeeping.
type HelloPayload struct {
	Token         string `json:"token,omitempty"`
	CorrelationID string `json:"correlationId,omitempty" validate:"max=64"`
}

type JoinPayload struct {
	Channel     string `json:"channel" validate:"required"`
	DisplayName string `json:"displayName,omitempty" validate:"max=24"`
}

type PostPayload struct {
	Channel string `json:"channel" validate:"required"`
	Text    string `json:"text" validate:"required,max=512"`
}

type LeavePayload struct {
	Channel string `json:"channel" validate:"required"`
}

type PingPayload struct{}

// Decode is the single decode-and-route step: it parses the envelope,
// picks the variant for the tag, and validates its payload.
func Decode(raw []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", bbserrors.ErrInvalidMessage, err)
	}

	var payload any
	switch env.Type {
	case TagHello:
		payload = &HelloPayload{}
	case TagJoin:
		payload = &JoinPayload{}
	case TagPost:
		payload = &PostPayload{}
	case TagLeave:
		payload = &LeavePayload{}
	case TagPing:
		return TagPing, &PingPayload{}, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", bbserrors.ErrInvalidMessage, env.Type)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return "", nil, fmt.Errorf("%w: %v", bbserrors.ErrInvalidMessage, err)
		}
	}
	if err := validate.Struct(payload); err != nil {
		return "", nil, fmt.Errorf("%w: %v", bbserrors.ErrInvalidMessage, err)
	}
	return env.Type, payload, nil
}

// Encode wraps a server event into its tagged envelope.
func Encode(e event.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:    string(e.EventType()),
		Payload: payload,
	})
}

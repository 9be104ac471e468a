package ws

import (
	"bbs-lab/domain/event"
	bbserrors "bbs-lab/errors"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_ClosedTagSet(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name string
		raw  string
		tag  string
	}{
		{
			name: "hello with credential and correlation id",
			raw:  `{"type":"hello","payload":{"token":"abc","correlationId":"reconnect-1"}}`,
			tag:  TagHello,
		},
		{
			name: "hello with empty payload",
			raw:  `{"type":"hello"}`,
			tag:  TagHello,
		},
		{
			name: "join",
			raw:  `{"type":"join","payload":{"channel":"general"}}`,
			tag:  TagJoin,
		},
		{
			name: "post",
			raw:  `{"type":"post","payload":{"channel":"tech","text":"hi"}}`,
			tag:  TagPost,
		},
		{
			name: "leave",
			raw:  `{"type":"leave","payload":{"channel":"tech"}}`,
			tag:  TagLeave,
		},
		{
			name: "ping carries no payload",
			raw:  `{"type":"ping"}`,
			tag:  TagPing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, payload, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			require.Equal(t, tt.tag, tag)
			require.NotNil(t, payload)
		})
	}

	// Payload fields land in the typed variant
	_, payload, err := Decode([]byte(`{"type":"join","payload":{"channel":"general","displayName":"alice"}}`))
	req.NoError(err)
	join := payload.(*JoinPayload)
	req.Equal("general", join.Channel)
	req.Equal("alice", join.DisplayName)
}

func TestDecode_UnknownTagIsRejectedNotIgnored(t *testing.T) {
	req := require.New(t)

	_, _, err := Decode([]byte(`{"type":"shout","payload":{"text":"HEY"}}`))
	req.ErrorIs(err, bbserrors.ErrInvalidMessage)

	_, _, err = Decode([]byte(`{"type":""}`))
	req.ErrorIs(err, bbserrors.ErrInvalidMessage)
}

func TestDecode_MalformedFrames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json at all", `garbage`},
		{"payload of the wrong shape", `{"type":"join","payload":"general"}`},
		{"missing required channel", `{"type":"post","payload":{"text":"hi"}}`},
		{"missing required text", `{"type":"post","payload":{"channel":"tech"}}`},
		{"text over the size cap", `{"type":"post","payload":{"channel":"tech","text":"` + longText(600) + `"}}`},
		{"display name over the cap", `{"type":"join","payload":{"channel":"tech","displayName":"` + longText(30) + `"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.raw))
			require.ErrorIs(t, err, bbserrors.ErrInvalidMessage)
		})
	}
}

func TestEncode_TaggedEnvelope(t *testing.T) {
	req := require.New(t)

	raw, err := Encode(event.PoolFull{Kind: "observer", Capacity: 999})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(raw, &env))
	req.Equal("pool_full", env.Type)

	var payload event.PoolFull
	req.NoError(json.Unmarshal(env.Payload, &payload))
	req.Equal("observer", payload.Kind)
	req.Equal(999, payload.Capacity)
}

func longText(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = 'a'
	}
	return string(out)
}

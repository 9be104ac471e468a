package runtime

import (
	"bbs-lab/contract"
	"bbs-lab/domain"
	"bbs-lab/domain/event"
	bbserrors "bbs-lab/errors"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Member is a channel's back-reference to a live session. The registry
// never owns sessions; the relay does.
type Member struct {
	SessionID string
	Name      string
	Slot      int
	Kind      domain.PoolKind
	Sink      contract.EventSink
}

// channelState guards one channel's membership and history together, so
// every append and every fan-out for that channel happens in a single
// authoritative order. Channels never contend with each other.
type channelState struct {
	mu      sync.Mutex
	channel *domain.Channel
	members map[string]Member
}

// ChannelRegistry owns the fixed, enumerated set of chat channels.
type ChannelRegistry struct {
	channels    map[domain.ChannelName]*channelState
	sinkTimeout time.Duration
	taps        []contract.EventSink
}

func NewChannelRegistry(historyLimit int, sinkTimeout time.Duration) *ChannelRegistry {
	channels := make(map[domain.ChannelName]*channelState)
	for _, name := range domain.ChannelNames() {
		channels[name] = &channelState{
			channel: domain.NewChannel(name, historyLimit),
			members: make(map[string]Member),
		}
	}
	return &ChannelRegistry{channels: channels, sinkTimeout: sinkTimeout}
}

// Join adds the member, broadcasts the updated member list to everyone
// in the channel, joiner included, and delivers the history snapshot to
// the joiner's sink. All of it happens under the channel lock, so no
// message can land between the snapshot and the membership taking
// effect. Returns the session ids whose sink refused delivery.
func (r *ChannelRegistry) Join(name domain.ChannelName, m Member) ([]string, error) {
	state, ok := r.channels[name]
	if !ok {
		return nil, bbserrors.ErrInvalidChannel
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	state.members[m.SessionID] = m
	failed := r.dispatchLocked(state, memberListLocked(name, state))
	ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
	if err := m.Sink.Consume(ctx, toHistoryEvent(name, state.channel.History())); err != nil {
		failed = append(failed, m.SessionID)
	}
	cancel()
	return failed, nil
}

// Leave removes the member and broadcasts the updated member list to the
// remaining members. ErrNotAMember carries no broadcast side effect.
func (r *ChannelRegistry) Leave(name domain.ChannelName, sessionID string) ([]string, error) {
	state, ok := r.channels[name]
	if !ok {
		return nil, bbserrors.ErrInvalidChannel
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if _, member := state.members[sessionID]; !member {
		return nil, bbserrors.ErrNotAMember
	}
	delete(state.members, sessionID)
	failed := r.dispatchLocked(state, memberListLocked(name, state))
	return failed, nil
}

// Post appends the message to the history and broadcasts it to every
// current member, the sender included: the sender never locally echoes,
// so all members see one consistent order. Non-members are rejected
// before any side effect.
func (r *ChannelRegistry) Post(sessionID string, message domain.Message) ([]string, error) {
	state, ok := r.channels[message.Channel]
	if !ok {
		return nil, bbserrors.ErrInvalidChannel
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if _, member := state.members[sessionID]; !member {
		return nil, bbserrors.ErrNotAMember
	}
	state.channel.Append(message)
	failed := r.dispatchLocked(state, toChatEvent(message))
	return failed, nil
}

// Purge removes the session from every channel it still appears in,
// broadcasting updated member lists. Covers sinks that outlived their
// session entry.
func (r *ChannelRegistry) Purge(sessionID string) []string {
	var failed []string
	for _, name := range domain.ChannelNames() {
		if f, err := r.Leave(name, sessionID); err == nil {
			failed = append(failed, f...)
		}
	}
	return failed
}

// Members returns the current member names, agents first, then personas,
// then observers, each group ordered by slot.
func (r *ChannelRegistry) Members(name domain.ChannelName) []string {
	state, ok := r.channels[name]
	if !ok {
		return nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return memberListLocked(name, state).Members
}

// History returns a copy of the channel's buffer, oldest first.
func (r *ChannelRegistry) History(name domain.ChannelName) []domain.Message {
	state, ok := r.channels[name]
	if !ok {
		return nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.channel.History()
}

// Names lists the enumerated channels, used as the invalid-channel hint.
func (r *ChannelRegistry) Names() []string {
	return lo.Map(domain.ChannelNames(), func(name domain.ChannelName, _ int) string {
		return string(name)
	})
}

// AddTap registers a permanent observer sink (projections, logs) fed a
// copy of every dispatched event. Call before serving traffic.
func (r *ChannelRegistry) AddTap(sinks ...contract.EventSink) {
	r.taps = append(r.taps, sinks...)
}

// NotifyTaps feeds an out-of-channel event (like the new-post notice) to
// the permanent sinks only.
func (r *ChannelRegistry) NotifyTaps(e event.DomainEvent) {
	for _, tap := range r.taps {
		ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
		_ = tap.Consume(ctx, e)
		cancel()
	}
}

// dispatchLocked fans the event out to every member under the channel
// lock, preserving the per-channel order. A slow or broken sink only
// marks that member as failed; it never blocks the others. Tap failures
// are ignored: projections must never cost a client its connection.
func (r *ChannelRegistry) dispatchLocked(state *channelState, e event.DomainEvent) []string {
	var failed []string
	for id, m := range state.members {
		ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
		err := m.Sink.Consume(ctx, e)
		cancel()
		if err != nil {
			failed = append(failed, id)
		}
	}
	for _, tap := range r.taps {
		ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
		_ = tap.Consume(ctx, e)
		cancel()
	}
	return failed
}

func memberListLocked(name domain.ChannelName, state *channelState) event.MemberList {
	members := lo.Values(state.members)
	sort.Slice(members, func(i, j int) bool {
		if ri, rj := kindRank(members[i].Kind), kindRank(members[j].Kind); ri != rj {
			return ri < rj
		}
		return members[i].Slot < members[j].Slot
	})
	return event.MemberList{
		Channel: string(name),
		Members: lo.Map(members, func(m Member, _ int) string { return m.Name }),
	}
}

func kindRank(kind domain.PoolKind) int {
	switch kind {
	case domain.AgentPool:
		return 0
	case domain.PersonaPool:
		return 1
	default:
		return 2
	}
}

func toChatEvent(message domain.Message) event.ChatMessage {
	return event.ChatMessage{
		ID:         message.ID,
		Channel:    string(message.Channel),
		Sender:     message.Sender,
		SenderKind: string(message.SenderKind),
		Content:    message.Content,
		At:         message.CreatedAt,
	}
}

func toHistoryEvent(name domain.ChannelName, history []domain.Message) event.HistorySnapshot {
	return event.HistorySnapshot{
		Channel: string(name),
		Messages: lo.Map(history, func(m domain.Message, _ int) event.ChatMessage {
			return toChatEvent(m)
		}),
	}
}

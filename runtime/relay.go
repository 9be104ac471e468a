package runtime

import (
	"bbs-lab/contract"
	"bbs-lab/domain"
	"bbs-lab/domain/event"
	bbserrors "bbs-lab/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// liveSession pairs a session with its outbound sink. Both are owned by
// the relay; once the entry leaves the sessions map, inbound events for
// that id stop being processed.
type liveSession struct {
	session *domain.Session
	sink    contract.EventSink
}

// dropSink discards outbound events. Personas are channel members with
// no connection behind them, so broadcasts to them go nowhere.
type dropSink struct{}

func (dropSink) Consume(context.Context, event.DomainEvent) error { return nil }

// Relay is the protocol handler of the real-time core. It classifies new
// connections, drives the slot and channel registries, and pushes events
// to the affected sessions. The relay's mutex guards the session table
// AND every mutable session field (Channel, DisplayName, LastActivityAt);
// eviction runs concurrently with normal handling, so no session field is
// touched outside it. Pools and channels carry their own locks.
type Relay struct {
	mu          sync.Mutex
	log         *slog.Logger
	slots       *SlotRegistry
	channels    *ChannelRegistry
	identity    contract.IdentityResolver
	censor      func(string) string
	sessions    map[string]*liveSession
	sinkTimeout time.Duration
	clock       func() time.Time
}

func NewRelay(log *slog.Logger, slots *SlotRegistry, channels *ChannelRegistry,
	identity contract.IdentityResolver, censor func(string) string,
	sinkTimeout time.Duration) *Relay {
	if censor == nil {
		censor = func(s string) string { return s }
	}
	return &Relay{
		log:         log,
		slots:       slots,
		channels:    channels,
		identity:    identity,
		censor:      censor,
		sessions:    make(map[string]*liveSession),
		sinkTimeout: sinkTimeout,
		clock:       time.Now,
	}
}

// WithClock overrides the time source, for eviction tests.
func (r *Relay) WithClock(clock func() time.Time) *Relay {
	r.clock = clock
	return r
}

// Connect performs the handshake: classify the caller as agent or
// observer, allocate the lowest free slot, and reply with the assignment.
// A full pool replies with a pool-full notice and returns
// ErrCapacityExceeded so the transport closes the connection; no session
// is created.
func (r *Relay) Connect(token, correlationID string, sink contract.EventSink) (*domain.Session, error) {
	kind := domain.ObserverPool
	identityID, identityName := "", ""
	if token != "" && r.identity != nil {
		if id, name, err := r.identity.Resolve(token); err == nil {
			kind = domain.AgentPool
			identityID, identityName = id, name
		} else {
			r.log.Debug("Credential did not resolve, treating as observer", "error", err)
		}
	}

	slot, err := r.slots.Allocate(kind)
	if err != nil {
		r.dispatch(sink, event.PoolFull{
			Kind:     string(kind),
			Capacity: r.slots.Capacity(kind),
		})
		return nil, err
	}

	displayName := identityName
	if kind == domain.ObserverPool {
		displayName = domain.ObserverName(slot)
	}
	session := &domain.Session{
		ID:             uuid.NewString(),
		Kind:           kind,
		Slot:           slot,
		IdentityID:     identityID,
		DisplayName:    displayName,
		CorrelationID:  correlationID,
		LastActivityAt: r.clock(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = &liveSession{session: session, sink: sink}
	r.mu.Unlock()

	r.dispatch(sink, event.Assigned{
		Kind:             string(kind),
		Slot:             slot,
		AgentCapacity:    r.slots.Capacity(domain.AgentPool),
		ObserverCapacity: r.slots.Capacity(domain.ObserverPool),
		AgentsOnline:     r.slots.Online(domain.AgentPool),
		ObserversOnline:  r.slots.Online(domain.ObserverPool),
		DisplayName:      displayName,
		CorrelationID:    correlationID,
	})
	r.log.Info("Session connected",
		"session_id", session.ID, "kind", kind, "slot", slot, "name", displayName)
	return session, nil
}

// Disconnect tears a session down: leave its channel (broadcasting the
// updated member list), release the slot unconditionally, drop the entry.
// Voluntary close, network drop, and eviction all land here.
func (r *Relay) Disconnect(sessionID string) {
	// Sinks that fail during the leave broadcast are torn down too,
	// iteratively rather than recursively.
	pending := []string{sessionID}
	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		pending = append(pending, r.teardown(id)...)
	}
}

func (r *Relay) teardown(sessionID string) []string {
	r.mu.Lock()
	live, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		// The session may already be gone while its sink lingers as a
		// channel member (eviction racing a join). Sweep it out.
		return r.channels.Purge(sessionID)
	}
	delete(r.sessions, sessionID)
	session := live.session
	channel := session.Channel
	r.mu.Unlock()

	var failed []string
	if channel != "" {
		failed, _ = r.channels.Leave(channel, sessionID)
	}
	r.slots.Release(session.Kind, session.Slot)
	r.log.Info("Session disconnected",
		"session_id", sessionID, "kind", session.Kind, "slot", session.Slot)
	return failed
}

// Join subscribes the session to a channel, leaving any previous one
// first. The member list reaches everyone, joiner included, through the
// channel broadcast; the history snapshot lands on the joiner's sink in
// the same locked step, so nothing can slip between snapshot and
// membership.
func (r *Relay) Join(sessionID string, channel domain.ChannelName, displayName string) error {
	r.mu.Lock()
	live, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return bbserrors.ErrUnknownSession
	}
	session := live.session
	session.LastActivityAt = r.clock()
	if !domain.ValidChannel(channel) {
		r.mu.Unlock()
		return bbserrors.ErrInvalidChannel
	}
	if session.Kind == domain.AgentPool && displayName != "" {
		session.DisplayName = displayName
	}
	previous := session.Channel
	member := Member{
		SessionID: sessionID,
		Name:      session.DisplayName,
		Slot:      session.Slot,
		Kind:      session.Kind,
		Sink:      live.sink,
	}
	r.mu.Unlock()

	var failed []string
	if previous != "" && previous != channel {
		if prevFailed, err := r.channels.Leave(previous, sessionID); err == nil {
			failed = append(failed, prevFailed...)
		}
	}

	joinFailed, err := r.channels.Join(channel, member)
	if err != nil {
		r.disconnectAll(failed)
		return err
	}
	failed = append(failed, joinFailed...)

	// Eviction may have torn the session down while the membership was
	// being added; undo it rather than leave a ghost member behind.
	r.mu.Lock()
	_, alive := r.sessions[sessionID]
	if alive {
		session.Channel = channel
	}
	r.mu.Unlock()
	if !alive {
		if ghostFailed, err := r.channels.Leave(channel, sessionID); err == nil {
			failed = append(failed, ghostFailed...)
		}
		r.disconnectAll(failed)
		return bbserrors.ErrUnknownSession
	}

	r.disconnectAll(failed)
	return nil
}

// Leave unsubscribes the session from the channel and clears its
// back-reference. Leaving a channel it never joined is ErrNotAMember and
// has no broadcast side effect.
func (r *Relay) Leave(sessionID string, channel domain.ChannelName) error {
	r.mu.Lock()
	live, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return bbserrors.ErrUnknownSession
	}
	live.session.LastActivityAt = r.clock()
	if !domain.ValidChannel(channel) {
		r.mu.Unlock()
		return bbserrors.ErrInvalidChannel
	}
	r.mu.Unlock()

	failed, err := r.channels.Leave(channel, sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if current, ok := r.sessions[sessionID]; ok && current.session.Channel == channel {
		current.session.Channel = ""
	}
	r.mu.Unlock()

	r.disconnectAll(failed)
	return nil
}

// PostMessage builds an immutable message from the session's identity,
// censors the body, appends it to the channel history, and broadcasts it
// to every member including the sender.
func (r *Relay) PostMessage(sessionID string, channel domain.ChannelName, text string) error {
	r.mu.Lock()
	live, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return bbserrors.ErrUnknownSession
	}
	session := live.session
	session.LastActivityAt = r.clock()
	if !domain.ValidChannel(channel) {
		r.mu.Unlock()
		return bbserrors.ErrInvalidChannel
	}
	sender := session.DisplayName
	senderKind := session.SenderKind()
	r.mu.Unlock()

	failed, err := r.channels.Post(sessionID, domain.Message{
		ID:         uuid.New(),
		Channel:    channel,
		Sender:     sender,
		SenderKind: senderKind,
		Content:    r.censor(text),
		CreatedAt:  r.clock(),
	})
	if err != nil {
		return err
	}
	r.disconnectAll(failed)
	return nil
}

// AddPersona registers an automated persona as a member of the channel.
// Personas hold no slot and no connection; they appear in the member
// list and post through the same membership-checked path as everyone
// else. Registering the same persona twice is a no-op.
func (r *Relay) AddPersona(channel domain.ChannelName, name string) error {
	if !domain.ValidChannel(channel) {
		return bbserrors.ErrInvalidChannel
	}
	failed, err := r.channels.Join(channel, Member{
		SessionID: personaID(name),
		Name:      name,
		Kind:      domain.PersonaPool,
		Sink:      dropSink{},
	})
	if err != nil {
		return err
	}
	r.disconnectAll(failed)
	return nil
}

// PostPersona feeds a persona line through the normal post path, so it
// interleaves with human traffic in arrival order and is rejected like
// any other non-member if the persona was never registered.
func (r *Relay) PostPersona(channel domain.ChannelName, persona, text string) error {
	if !domain.ValidChannel(channel) {
		return bbserrors.ErrInvalidChannel
	}
	failed, err := r.channels.Post(personaID(persona), domain.Message{
		ID:         uuid.New(),
		Channel:    channel,
		Sender:     persona,
		SenderKind: domain.SenderAutomated,
		Content:    r.censor(text),
		CreatedAt:  r.clock(),
	})
	if err != nil {
		return err
	}
	r.disconnectAll(failed)
	return nil
}

func personaID(name string) string { return "persona:" + name }

// KeepAlive refreshes the session's activity timestamp. Any inbound event
// does the same; this one exists for clients with nothing to say.
func (r *Relay) KeepAlive(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.sessions[sessionID]
	if !ok {
		return bbserrors.ErrUnknownSession
	}
	live.session.LastActivityAt = r.clock()
	return nil
}

// NotifyNewPost broadcasts a fire-and-forget "new content" hint to every
// connected session regardless of channel. Not part of any chat history.
func (r *Relay) NotifyNewPost(board string) {
	r.mu.Lock()
	sinks := make(map[string]contract.EventSink, len(r.sessions))
	for id, live := range r.sessions {
		sinks[id] = live.sink
	}
	r.mu.Unlock()

	notice := event.NewPost{Board: board}
	r.channels.NotifyTaps(notice)
	var failed []string
	for id, sink := range sinks {
		if err := r.dispatch(sink, notice); err != nil {
			failed = append(failed, id)
		}
	}
	r.disconnectAll(failed)
}

// EvictIdle sweeps the session table and tears down every session idle
// for at least timeout, after sending it the idle-timeout notice. Returns
// the number of evicted sessions. Safe to run concurrently with normal
// handling: an evicted id is gone from the table before teardown starts.
func (r *Relay) EvictIdle(timeout time.Duration) int {
	now := r.clock()

	type idleEntry struct {
		id   string
		slot int
		sink contract.EventSink
		idle time.Duration
	}

	r.mu.Lock()
	var idle []idleEntry
	for _, live := range r.sessions {
		if d := live.session.IdleFor(now); d >= timeout {
			idle = append(idle, idleEntry{
				id:   live.session.ID,
				slot: live.session.Slot,
				sink: live.sink,
				idle: d,
			})
		}
	}
	r.mu.Unlock()

	for _, entry := range idle {
		r.dispatch(entry.sink, event.IdleTimeout{
			IdleSeconds: int64(entry.idle.Seconds()),
		})
		r.log.Info(fmt.Sprintf("Evicting idle session %s (slot %d)",
			entry.id, entry.slot))
		r.Disconnect(entry.id)
	}
	return len(idle)
}

// AgentsOnline and ObserversOnline are derived from the slot registry on
// demand, never duplicated as counters.
func (r *Relay) AgentsOnline() int { return r.slots.Online(domain.AgentPool) }

func (r *Relay) ObserversOnline() int { return r.slots.Online(domain.ObserverPool) }

// ChannelNames exposes the enumerated set for rejection hints.
func (r *Relay) ChannelNames() []string { return r.channels.Names() }

func (r *Relay) dispatch(sink contract.EventSink, e event.DomainEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.sinkTimeout)
	defer cancel()
	if err := sink.Consume(ctx, e); err != nil {
		r.log.Warn("Sink refused delivery", "event", e.EventType(), "error", err)
		return err
	}
	return nil
}

func (r *Relay) disconnectAll(sessionIDs []string) {
	for _, id := range sessionIDs {
		r.log.Warn("Transport failure, treating as disconnect", "session_id", id)
		r.Disconnect(id)
	}
}

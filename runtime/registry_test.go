package runtime

import (
	"bbs-lab/domain"
	"bbs-lab/domain/event"
	"bbs-lab/errors"
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingSink collects every event it is fed; failing switches it to
// refusing delivery, the way a dead connection would.
type recordingSink struct {
	mu      sync.Mutex
	events  []event.DomainEvent
	failing bool
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return fmt.Errorf("sink refused")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) all() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) ofType(t event.Type) []event.DomainEvent {
	var out []event.DomainEvent
	for _, e := range s.all() {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = true
}

func newTestMember(name string, slot int, kind domain.PoolKind) (Member, *recordingSink) {
	sink := &recordingSink{}
	return Member{
		SessionID: uuid.NewString(),
		Name:      name,
		Slot:      slot,
		Kind:      kind,
		Sink:      sink,
	}, sink
}

const testSinkTimeout = 50 * time.Millisecond

func TestChannelRegistry_Join_BroadcastsMemberListAndDeliversHistory(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)
	bob, bobSink := newTestMember("bob", 2, domain.AgentPool)

	// When two members join one after the other
	failed, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)
	req.Empty(failed)

	failed, err = registry.Join(domain.ChannelGeneral, bob)
	req.NoError(err)
	req.Empty(failed)

	// Then everyone in the channel saw the second member list, joiner included
	req.Len(aliceSink.ofType(event.TypeMembers), 2)
	req.Len(bobSink.ofType(event.TypeMembers), 1)

	last := aliceSink.ofType(event.TypeMembers)[1].(event.MemberList)
	req.Equal([]string{"alice", "bob"}, last.Members)

	// And each joiner got its history snapshot in the same step
	req.Len(aliceSink.ofType(event.TypeHistory), 1)
	req.Len(bobSink.ofType(event.TypeHistory), 1)
	req.Empty(aliceSink.ofType(event.TypeHistory)[0].(event.HistorySnapshot).Messages)
}

func TestChannelRegistry_Join_SnapshotAndLiveFeedNeverOverlap(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(1000, testSinkTimeout)
	poster, _ := newTestMember("alice", 1, domain.AgentPool)
	_, err := registry.Join(domain.ChannelGeneral, poster)
	req.NoError(err)

	// Given a member posting numbered lines while someone else joins
	stop := make(chan struct{})
	var posting sync.WaitGroup
	posting.Add(1)
	go func() {
		defer posting.Done()
		for n := 0; n < 200; n++ {
			select {
			case <-stop:
				return
			default:
			}
			_, err := registry.Post(poster.SessionID, domain.Message{
				ID:        uuid.New(),
				Channel:   domain.ChannelGeneral,
				Sender:    "alice",
				Content:   strconv.Itoa(n),
				CreatedAt: time.Now(),
			})
			if err != nil {
				return
			}
		}
	}()

	joiner, joinerSink := newTestMember("bob", 2, domain.AgentPool)
	_, err = registry.Join(domain.ChannelGeneral, joiner)
	req.NoError(err)
	close(stop)
	posting.Wait()

	// Then the snapshot precedes every live message and the two streams
	// line up with no gap and no duplicate
	var seen []string
	sawSnapshot := false
	for _, e := range joinerSink.all() {
		switch ev := e.(type) {
		case event.HistorySnapshot:
			req.False(sawSnapshot, "snapshot delivered twice")
			sawSnapshot = true
			for _, m := range ev.Messages {
				seen = append(seen, m.Content)
			}
		case event.ChatMessage:
			req.True(sawSnapshot, "live message delivered before the snapshot")
			seen = append(seen, ev.Content)
		}
	}
	req.True(sawSnapshot)
	for i, content := range seen {
		req.Equal(strconv.Itoa(i), content)
	}
}

func TestChannelRegistry_Members_SortedAgentsThenPersonasThenObservers(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)

	observer, _ := newTestMember("lurker-001", 1, domain.ObserverPool)
	agentHigh, _ := newTestMember("zoe", 9, domain.AgentPool)
	agentLow, _ := newTestMember("ann", 2, domain.AgentPool)
	persona, _ := newTestMember("sysop", 0, domain.PersonaPool)

	for _, m := range []Member{observer, agentHigh, persona, agentLow} {
		_, err := registry.Join(domain.ChannelTech, m)
		req.NoError(err)
	}

	// Then the list is deterministic regardless of join order
	req.Equal([]string{"ann", "zoe", "sysop", "lurker-001"}, registry.Members(domain.ChannelTech))
}

func TestChannelRegistry_Leave_NotAMember_NoSideEffect(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)

	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)
	before := len(aliceSink.all())

	// When a stranger leaves a channel it never joined
	_, err = registry.Leave(domain.ChannelGeneral, "stranger")

	// Then the rejection is synchronous and nothing was broadcast
	req.ErrorIs(err, errors.ErrNotAMember)
	req.Len(aliceSink.all(), before)
}

func TestChannelRegistry_Post_BroadcastsToAllMembersIncludingSender(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)
	bob, bobSink := newTestMember("bob", 2, domain.AgentPool)
	outsider, outsiderSink := newTestMember("carol", 3, domain.AgentPool)

	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)
	_, err = registry.Join(domain.ChannelGeneral, bob)
	req.NoError(err)
	_, err = registry.Join(domain.ChannelRandom, outsider)
	req.NoError(err)

	// When alice posts to general
	failed, err := registry.Post(alice.SessionID, domain.Message{
		ID:        uuid.New(),
		Channel:   domain.ChannelGeneral,
		Sender:    "alice",
		Content:   "hello board",
		CreatedAt: time.Now(),
	})
	req.NoError(err)
	req.Empty(failed)

	// Then both general members got the message, the sender included
	req.Len(aliceSink.ofType(event.TypeMessage), 1)
	req.Len(bobSink.ofType(event.TypeMessage), 1)

	// And a member of another channel got nothing
	req.Empty(outsiderSink.ofType(event.TypeMessage))
}

func TestChannelRegistry_Post_NonMemberRejectedBeforeSideEffects(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)
	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)

	// When a non-member posts
	_, err = registry.Post("stranger", domain.Message{
		ID:      uuid.New(),
		Channel: domain.ChannelGeneral,
		Sender:  "stranger",
		Content: "should not land",
	})

	// Then nothing was appended or broadcast
	req.ErrorIs(err, errors.ErrNotAMember)
	req.Empty(registry.History(domain.ChannelGeneral))
	req.Empty(aliceSink.ofType(event.TypeMessage))
}

func TestChannelRegistry_Post_AutomatedSenderNeedsMembershipToo(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)
	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)

	// When a persona posts without having joined
	_, err = registry.Post("persona:sysop", domain.Message{
		ID:         uuid.New(),
		Channel:    domain.ChannelGeneral,
		Sender:     "sysop",
		SenderKind: domain.SenderAutomated,
		Content:    "the board never sleeps",
	})

	// Then it is rejected like any other non-member
	req.ErrorIs(err, errors.ErrNotAMember)
	req.Empty(registry.History(domain.ChannelGeneral))

	// When the persona is a member, its lines interleave like anyone's
	persona, _ := newTestMember("sysop", 0, domain.PersonaPool)
	persona.SessionID = "persona:sysop"
	_, err = registry.Join(domain.ChannelGeneral, persona)
	req.NoError(err)

	_, err = registry.Post("persona:sysop", domain.Message{
		ID:         uuid.New(),
		Channel:    domain.ChannelGeneral,
		Sender:     "sysop",
		SenderKind: domain.SenderAutomated,
		Content:    "the board never sleeps",
	})
	req.NoError(err)
	req.Len(registry.History(domain.ChannelGeneral), 1)
	req.Len(aliceSink.ofType(event.TypeMessage), 1)
	req.Contains(registry.Members(domain.ChannelGeneral), "sysop")
}

func TestChannelRegistry_Dispatch_FailedSinkOnlyMarksThatMember(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, aliceSink := newTestMember("alice", 1, domain.AgentPool)
	bob, bobSink := newTestMember("bob", 2, domain.AgentPool)

	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)
	_, err = registry.Join(domain.ChannelGeneral, bob)
	req.NoError(err)

	// Given bob's connection is dead
	bobSink.fail()

	// When alice posts
	failed, err := registry.Post(alice.SessionID, domain.Message{
		ID:      uuid.New(),
		Channel: domain.ChannelGeneral,
		Sender:  "alice",
		Content: "anyone there?",
	})
	req.NoError(err)

	// Then only bob is reported failed and alice still got the message
	req.Equal([]string{bob.SessionID}, failed)
	req.Len(aliceSink.ofType(event.TypeMessage), 1)
}

func TestChannelRegistry_Purge_RemovesFromEveryChannel(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, _ := newTestMember("alice", 1, domain.AgentPool)
	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)

	// When the session is purged
	registry.Purge(alice.SessionID)

	// Then no channel lists it anymore and purging again is harmless
	req.Empty(registry.Members(domain.ChannelGeneral))
	registry.Purge(alice.SessionID)
}

func TestChannelRegistry_Taps_SeeEveryDispatchedEvent(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	tap := &recordingSink{}
	registry.AddTap(tap)

	alice, _ := newTestMember("alice", 1, domain.AgentPool)
	_, err := registry.Join(domain.ChannelGeneral, alice)
	req.NoError(err)
	_, err = registry.Post(alice.SessionID, domain.Message{
		ID:      uuid.New(),
		Channel: domain.ChannelGeneral,
		Sender:  "alice",
		Content: "logged",
	})
	req.NoError(err)

	// Then the tap observed the member list and the chat message
	req.Len(tap.ofType(event.TypeMembers), 1)
	req.Len(tap.ofType(event.TypeMessage), 1)

	// And a failing tap never surfaces as a member failure
	tap.fail()
	failed, err := registry.Post(alice.SessionID, domain.Message{
		ID:      uuid.New(),
		Channel: domain.ChannelGeneral,
		Sender:  "alice",
		Content: "still fine",
	})
	req.NoError(err)
	req.Empty(failed)
}

func TestChannelRegistry_InvalidChannel(t *testing.T) {
	req := require.New(t)
	registry := NewChannelRegistry(10, testSinkTimeout)
	alice, _ := newTestMember("alice", 1, domain.AgentPool)

	_, err := registry.Join("lobby", alice)
	req.ErrorIs(err, errors.ErrInvalidChannel)

	_, err = registry.Leave("lobby", alice.SessionID)
	req.ErrorIs(err, errors.ErrInvalidChannel)

	_, err = registry.Post(alice.SessionID, domain.Message{Channel: "lobby"})
	req.ErrorIs(err, errors.ErrInvalidChannel)

	req.Equal([]string{"general", "tech", "random"}, registry.Names())
}

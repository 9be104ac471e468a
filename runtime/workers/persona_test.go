package workers

import (
	"bbs-lab/domain"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingPoster captures persona registrations and posts.
type recordingPoster struct {
	mu         sync.Mutex
	registered []string
	lines      []string
}

func (p *recordingPoster) AddPersona(_ domain.ChannelName, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, name)
	return nil
}

func (p *recordingPoster) PostPersona(_ domain.ChannelName, _ string, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, text)
	return nil
}

func (p *recordingPoster) registrations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.registered))
	copy(out, p.registered)
	return out
}

func (p *recordingPoster) posted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

func TestPersonaWorker_CyclesThroughItsScript(t *testing.T) {
	req := require.New(t)
	poster := &recordingPoster{}
	worker := NewPersonaWorker(poster, "sysop", domain.ChannelGeneral,
		[]string{"line a", "line b"}, 10*time.Millisecond, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := worker.Run(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)

	// Then the persona joined its channel before speaking
	req.Equal([]string{"sysop"}, poster.registrations())

	// And lines repeat in script order
	lines := poster.posted()
	req.GreaterOrEqual(len(lines), 2)
	req.Equal("line a", lines[0])
	req.Equal("line b", lines[1])
}

func TestPersonaWorker_JitteredIntervalStaysInBounds(t *testing.T) {
	req := require.New(t)
	worker := NewPersonaWorker(&recordingPoster{}, "sysop", domain.ChannelGeneral,
		[]string{"x"}, time.Minute, slog.Default())

	// Then every draw lands in [interval/2, interval*3/2)
	for i := 0; i < 100; i++ {
		d := worker.jitteredInterval()
		req.GreaterOrEqual(d, 30*time.Second)
		req.Less(d, 90*time.Second)
	}
}

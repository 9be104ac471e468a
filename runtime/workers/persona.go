package workers

import (
	"bbs-lab/contract"
	"bbs-lab/domain"
	"context"
	"log/slog"
	"math/rand"
	"time"
)

var _ contract.Worker = (*PersonaWorker)(nil)

// Poster is the slice of the relay a persona needs.
type Poster interface {
	AddPersona(channel domain.ChannelName, name string) error
	PostPersona(channel domain.ChannelName, persona, text string) error
}

// PersonaWorker registers its persona as a channel member, then posts
// scripted lines through the normal membership-checked post path, so
// persona traffic interleaves with human traffic in arrival order. The
// interval is jittered up to ±50% so several personas drift apart.
type PersonaWorker struct {
	relay    Poster
	name     string
	channel  domain.ChannelName
	lines    []string
	interval time.Duration
	log      *slog.Logger
	next     int
}

func NewPersonaWorker(relay Poster, name string, channel domain.ChannelName,
	lines []string, interval time.Duration, log *slog.Logger) *PersonaWorker {
	return &PersonaWorker{
		relay:    relay,
		name:     name,
		channel:  channel,
		lines:    lines,
		interval: interval,
		log:      log,
	}
}

func (w *PersonaWorker) Run(ctx context.Context) error {
	if err := w.relay.AddPersona(w.channel, w.name); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-time.After(w.jitteredInterval()):
			line := w.lines[w.next%len(w.lines)]
			w.next++
			if err := w.relay.PostPersona(w.channel, w.name, line); err != nil {
				w.log.Warn("Persona post rejected", "persona", w.name, "error", err)
			}
		}
	}
}

func (w *PersonaWorker) jitteredInterval() time.Duration {
	half := w.interval / 2
	return half + time.Duration(rand.Int63n(int64(w.interval)))
}

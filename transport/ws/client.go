package ws

import (
	"bbs-lab/contract"
	"bbs-lab/domain"
	"bbs-lab/domain/event"
	bbserrors "bbs-lab/errors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 54 * time.Second
	handshakeWait    = 10 * time.Second
	maxInboundedSize = 4096
)

// connection pairs one websocket with one relay session. The read pump
// decodes and routes inbound envelopes; the write pump drains the sink.
// Either pump failing tears the whole connection down through the same
// path as a voluntary disconnect.
type connection struct {
	conn      *websocket.Conn
	relay     contract.IRelay
	sink      *Sink
	channels  []string // enumerated set, used as the invalid-channel hint
	log       *slog.Logger
	sessionID string
	done      chan struct{}
}

func newConnection(conn *websocket.Conn, relay contract.IRelay, sink *Sink,
	channels []string, log *slog.Logger) *connection {
	conn.SetReadLimit(maxInboundedSize)
	return &connection{
		conn:     conn,
		relay:    relay,
		sink:     sink,
		channels: channels,
		log:      log,
		done:     make(chan struct{}),
	}
}

// serve runs the handshake and the read loop; it returns when the
// connection is gone. The write pump runs alongside and is stopped via
// the done channel.
func (c *connection) serve() {
	go c.writePump()
	defer close(c.done)
	defer c.sink.Close()

	if err := c.handshake(); err != nil {
		c.log.Debug("Handshake failed", "error", err)
		// Give the write pump a moment to flush the pool-full notice.
		time.Sleep(100 * time.Millisecond)
		return
	}
	defer c.relay.Disconnect(c.sessionID)

	c.readLoop()
}

// handshake expects the first envelope to be hello, classifies the caller
// through the relay, and records the assigned session.
func (c *connection) handshake() error {
	_ = c.conn.SetReadDeadline(time.Now().Add(handshakeWait))
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}
	tag, payload, err := Decode(raw)
	if err != nil {
		c.reject(err)
		return err
	}
	hello, ok := payload.(*HelloPayload)
	if tag != TagHello || !ok {
		err := fmt.Errorf("%w: expected hello, got %q", bbserrors.ErrInvalidMessage, tag)
		c.reject(err)
		return err
	}

	session, err := c.relay.Connect(hello.Token, hello.CorrelationID, c.sink)
	if err != nil {
		return err // pool full: the notice is already queued on the sink
	}
	c.sessionID = session.ID

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return nil
}

func (c *connection) readLoop() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Unexpected close", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := c.route(raw); err != nil {
			if errors.Is(err, bbserrors.ErrUnknownSession) {
				// Evicted mid-flight: nothing further is processed.
				return
			}
			c.reject(err)
		}
	}
}

// route dispatches one decoded envelope to the relay. Every rejection is
// a synchronous reply to the triggering event; none are dropped.
func (c *connection) route(raw []byte) error {
	tag, payload, err := Decode(raw)
	if err != nil {
		return err
	}
	switch p := payload.(type) {
	case *JoinPayload:
		return c.relay.Join(c.sessionID, domain.ChannelName(p.Channel), p.DisplayName)
	case *PostPayload:
		return c.relay.PostMessage(c.sessionID, domain.ChannelName(p.Channel), p.Text)
	case *LeavePayload:
		return c.relay.Leave(c.sessionID, domain.ChannelName(p.Channel))
	case *PingPayload:
		return c.relay.KeepAlive(c.sessionID)
	case *HelloPayload:
		return fmt.Errorf("%w: duplicate hello", bbserrors.ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: %q", bbserrors.ErrInvalidMessage, tag)
	}
}

// reject pushes a Problem event back through the connection's own sink so
// it lands in the same ordered stream as everything else.
func (c *connection) reject(err error) {
	problem := event.Problem{Code: event.CodeInvalidMessage, Detail: err.Error()}
	switch {
	case errors.Is(err, bbserrors.ErrInvalidChannel):
		problem.Code = event.CodeInvalidChannel
		problem.Channels = c.channels
	case errors.Is(err, bbserrors.ErrNotAMember):
		problem.Code = event.CodeNotAMember
	case errors.Is(err, bbserrors.ErrCapacityExceeded):
		problem.Code = event.CodeCapacityExceeded
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if consumeErr := c.sink.Consume(ctx, problem); consumeErr != nil {
		c.log.Debug("Could not deliver rejection", "error", consumeErr)
	}
}

// writePump drains the sink onto the wire and keeps the connection alive
// with pings. Terminal events (pool_full, idle_timeout) are flushed and
// then the connection is closed server-side.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case evt := <-c.sink.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := Encode(evt)
			if err != nil {
				c.log.Error("Failed to encode event", "event", evt.EventType(), "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
			if terminal(evt.EventType()) {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation,
						string(evt.EventType())))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func terminal(t event.Type) bool {
	return t == event.TypePoolFull || t == event.TypeIdleTimeout
}

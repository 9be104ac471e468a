package ws

import (
	"bbs-lab/contract"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	relay      contract.IRelay
	channels   []string
	bufferSize int
	log        *slog.Logger
	upgrader   websocket.Upgrader
}

func NewHandler(relay contract.IRelay, channels []string, bufferSize int,
	log *slog.Logger) *Handler {
	return &Handler{
		relay:      relay,
		channels:   channels,
		bufferSize: bufferSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP handles one client for the connection's whole lifetime; it
// returns when the socket is gone and teardown has run.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	h.log.Debug("Connection established", "remote", r.RemoteAddr)

	sink := NewSink(h.bufferSize)
	newConnection(conn, h.relay, sink, h.channels, h.log).serve()
}

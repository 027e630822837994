// Package broadcast exposes status-change events to other processes over a
// loopback websocket. Each connected client gets every event emitted while
// it is connected, encoded as an action-plus-extras envelope; nothing is
// replayed to late joiners.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/tonimelisma/wirebug-go/internal/monitor"
)

// EventsPath is the websocket endpoint.
const EventsPath = "/events"

const (
	subscriberBuffer  = 8
	writeTimeout      = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Envelope is the wire form of a status change.
type Envelope struct {
	Action string          `json:"action"`
	Extras map[string]bool `json:"extras"`
}

// NewEnvelope wraps ev as a STATUS_CHANGED envelope.
func NewEnvelope(ev monitor.StatusChangedEvent) Envelope {
	return Envelope{
		Action: monitor.ActionStatusChanged,
		Extras: map[string]bool{monitor.ExtraIsEnabled: ev.Enabled},
	}
}

// Event decodes the envelope back into a status change.
func (e Envelope) Event() (monitor.StatusChangedEvent, error) {
	if e.Action != monitor.ActionStatusChanged {
		return monitor.StatusChangedEvent{}, fmt.Errorf("broadcast: unexpected action %q", e.Action)
	}

	enabled, ok := e.Extras[monitor.ExtraIsEnabled]
	if !ok {
		return monitor.StatusChangedEvent{}, fmt.Errorf("broadcast: missing extra %q", monitor.ExtraIsEnabled)
	}

	return monitor.StatusChangedEvent{Enabled: enabled}, nil
}

// Server fans bus events out to websocket clients.
type Server struct {
	bus    *monitor.Bus
	logger *slog.Logger
}

// NewServer creates a server that forwards events from bus.
func NewServer(bus *monitor.Bus, logger *slog.Logger) *Server {
	return &Server{bus: bus, logger: logger}
}

// Handler returns the HTTP handler serving EventsPath.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(EventsPath, s.serveEvents)

	return mux
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", slog.String("error", err.Error()))

		return
	}
	defer conn.CloseNow()

	events, unsubscribe := s.bus.Subscribe(subscriberBuffer)
	defer unsubscribe()

	s.logger.Debug("event listener connected", slog.String("remote", r.RemoteAddr))

	// Clients only listen; CloseRead handles their close frames and cancels
	// ctx when they go away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "shutting down")

			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := s.write(ctx, conn, ev); err != nil {
				s.logger.Debug("event listener dropped",
					slog.String("remote", r.RemoteAddr),
					slog.String("error", err.Error()),
				)

				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, ev monitor.StatusChangedEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return wsjson.Write(ctx, conn, NewEnvelope(ev))
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("broadcast: listening on %s: %w", addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Open websocket
// connections are closed through the request contexts.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("event server shutdown", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("event server listening", slog.String("addr", ln.Addr().String()))

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("broadcast: serving: %w", err)
	}

	return nil
}

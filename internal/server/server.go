// Package server exposes a terrain session over a websocket so several
// clients can sculpt and watch the same mesh.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler executes commands against the session state. Calls are
// serialized by the Server.
type Handler interface {
	Handle(cmd Command) Frame
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(cmd Command) Frame

// Handle calls f(cmd).
func (f HandlerFunc) Handle(cmd Command) Frame { return f(cmd) }

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// Server accepts websocket clients on /ws, runs their commands through
// the Handler and fans mesh frames out to every connected client.
type Server struct {
	handler  Handler
	log      *zap.Logger
	upgrader websocket.Upgrader

	handleMu sync.Mutex

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex
}

// New returns a Server driving h.
func New(h Handler, opts ...Option) *Server {
	s := &Server{
		handler: h,
		log:     zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the HTTP handler serving /ws and /healthz.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// ListenAndServe serves Routes on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeClients()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	s.clientsMu.Unlock()
	defer s.remove(conn)
	s.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	// The current mesh, so a late joiner sees what everyone else sees.
	s.send(conn, connMu, s.handle(Command{Op: OpMesh}))

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		frame := s.handle(cmd)
		if frame.Type == FrameMesh && cmd.Op != OpMesh {
			s.Broadcast(frame)
			continue
		}
		s.send(conn, connMu, frame)
	}
}

func (s *Server) handle(cmd Command) Frame {
	s.handleMu.Lock()
	defer s.handleMu.Unlock()

	start := time.Now()
	frame := s.handler.Handle(cmd)
	frame.ID = cmd.ID
	if frame.Op == "" {
		frame.Op = cmd.Op
	}
	s.log.Debug("command",
		zap.String("op", cmd.Op),
		zap.String("frame", frame.Type),
		zap.Int("triangles", frame.Triangles),
		zap.Duration("took", time.Since(start)))
	return frame
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, f Frame) {
	mu.Lock()
	err := conn.WriteJSON(f)
	mu.Unlock()
	if err != nil {
		s.log.Debug("websocket write failed", zap.Error(err))
	}
}

// Broadcast sends f to every client. Clients whose write fails are closed
// and dropped.
func (s *Server) Broadcast(f Frame) {
	var failed []*websocket.Conn

	s.clientsMu.RLock()
	for conn, mu := range s.clients {
		mu.Lock()
		err := conn.WriteJSON(f)
		mu.Unlock()
		if err != nil {
			s.log.Debug("dropping client", zap.Error(err))
			conn.Close()
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	for _, conn := range failed {
		s.remove(conn)
	}
}

func (s *Server) remove(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn, mu := range s.clients {
		mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		mu.Unlock()
		conn.Close()
		delete(s.clients, conn)
	}
}

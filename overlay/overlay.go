// Package overlay serves the translation overlay page and pushes results to
// it over WebSocket.
package overlay

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"go.aimuz.me/gamelingo/internal/types"
)

//go:embed static
var static embed.FS

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ResultMessage carries a translation to the page.
type ResultMessage struct {
	Type string `json:"type"` // "result"
	types.Result
}

// StatusMessage carries a state change to the page.
type StatusMessage struct {
	Type string `json:"type"` // "status"
	types.Status
}

// sendQueue is how many messages a slow page may fall behind before the
// oldest pending ones are dropped.
const sendQueue = 16

// client is one connected page. Messages reach it in broadcast order through
// a single writer.
type client struct {
	conn *websocket.Conn
	send chan any
}

// enqueue must be called with Server.mu held so there is one producer.
func (c *client) enqueue(msg any) {
	for {
		select {
		case c.send <- msg:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// Server broadcasts overlay messages to every connected page.
type Server struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    any // replayed to new connections
}

// New creates a server with no connections.
func New() *Server {
	return &Server{clients: make(map[*client]struct{})}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	page, _ := fs.Sub(static, "static")
	mux.Handle("GET /", http.FileServerFS(page))
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Show pushes a translation.
func (s *Server) Show(r types.Result) {
	s.broadcast(ResultMessage{Type: "result", Result: r})
}

// SetStatus pushes a status change.
func (s *Server) SetStatus(st types.Status) {
	s.broadcast(StatusMessage{Type: "status", Status: st})
}

// Clients reports the number of connected pages.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcast(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = msg
	for c := range s.clients {
		c.enqueue(msg)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	c := &client{conn: conn, send: make(chan any, sendQueue)}

	// Queue the replay under the same lock as broadcasts so it is never
	// delivered after a newer message.
	s.mu.Lock()
	if s.last != nil {
		c.enqueue(s.last)
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	slog.Debug("overlay connected", "remote", r.RemoteAddr)

	// The page never sends anything; CloseRead handles pings and close frames.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			slog.Debug("overlay disconnected", "remote", r.RemoteAddr)
			return
		case msg := <-c.send:
			if err := write(ctx, conn, msg); err != nil {
				slog.Debug("overlay write failed", "remote", r.RemoteAddr, "error", err)
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg any) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

// ListenAndServe serves the overlay on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves the overlay on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("overlay listening", "url", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown.
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) closeAll() {
	for _, c := range s.snapshot() {
		_ = c.CloseNow()
	}
}

func (s *Server) snapshot() []*websocket.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c.conn)
	}
	return conns
}

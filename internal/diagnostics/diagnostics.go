// Package diagnostics exposes a tiny read-only websocket endpoint that
// streams pipeline Stats snapshots once a second to a local developer tool.
// It is off by default, enabled only by the --debug-ws flag, and never
// feeds back into the pipeline — a thin tap on the supervisor's counters.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lanternops/streamcast/internal/logging"
	"github.com/lanternops/streamcast/internal/metrics"
)

var log = logging.L("diagnostics")

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	statsTick    = 1 * time.Second
)

// StatsSource is the narrow read-only view of the pipeline the server taps.
type StatsSource interface {
	Stats() metrics.Stats
}

// Server serves GET /stats as a websocket upgrade and pushes one Stats
// snapshot per tick to every connected client.
type Server struct {
	addr   string
	source StatsSource
	upgrader websocket.Upgrader

	httpServer *http.Server

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// New constructs a diagnostics server bound to addr (e.g. "127.0.0.1:9090")
// reading Stats from source.
func New(addr string, source StatsSource) *Server {
	return &Server{
		addr:    addr,
		source:  source,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			// Local developer tool only; same-origin checks don't apply.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start begins serving and broadcasting until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", s.handleStats)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	go s.broadcastLoop(ctx)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, 8), done: make(chan struct{})}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	log.Info("diagnostics client connected", "remote", r.RemoteAddr)
	go s.writePump(c)
	s.readPump(c)
}

// readPump only exists to detect client disconnects (pong handling);
// diagnostics is a push-only stream, there is nothing to read.
func (s *Server) readPump(c *wsClient) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.removeClient(c)
			return
		}
	}
}

func (s *Server) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.removeClient(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.removeClient(c)
				return
			}
		}
	}
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.done)
	}
	s.mu.Unlock()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(statsTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(s.source.Stats())
			if err != nil {
				log.Warn("marshal stats failed", "error", err)
				continue
			}
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- data:
				default:
					log.Warn("diagnostics client send channel full, dropping snapshot")
				}
			}
			s.mu.Unlock()
		}
	}
}

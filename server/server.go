// Package server exposes the traffic simulator over a websocket: each
// connection gets its own simulation session, driven by the text command
// protocol and replying with the binary frame protocol.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"trafficsim/atomic_float"
	"trafficsim/internal/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is a single-process websocket endpoint; every accepted connection
// owns an independent simulation, so there is no shared state to fan in or
// throttle across clients, unlike a broadcast view server.
type Server struct {
	addr   string
	router *mux.Router
	simCfg simulation.Config

	activeConns atomic_float.Gauge
}

// NewServer builds a Server listening on addr with /healthz and /ws routes.
// Every accepted connection's session starts from simCfg.
func NewServer(addr string, simCfg simulation.Config) *Server {
	s := &Server{addr: addr, router: mux.NewRouter(), simCfg: simCfg}
	s.router.HandleFunc("/healthz", s.serveHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWebsocket)
	return s
}

// Serve blocks, running the HTTP listener until ctx is cancelled or
// ListenAndServe returns a fatal error.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func (s *Server) serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Active-Connections", fmt.Sprintf("%.0f", s.activeConns.Value()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// serveWebsocket upgrades the connection and drives it until disconnect.
// Unlike the broadcast view server this replaces, each client gets its own
// simulation: there is no shared state to synchronize across connections.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer ws.Close()

	s.activeConns.Add(1)
	defer s.activeConns.Add(-1)

	c := newConn(ws, r.Context(), s.simCfg)
	if err := c.Sync(); err != nil {
		log.Printf("server: connection closed: %v", err)
	}
}

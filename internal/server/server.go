// Package server exposes fleet state over a unix socket so external
// consumers (status bars, editor integrations) read the same snapshots the
// dashboard renders.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/fleet/logging"
	"github.com/grovetools/fleet/pkg/models"
)

// SnapshotSource provides current and streamed fleet snapshots. The poller
// satisfies this; tests substitute their own.
type SnapshotSource interface {
	Snapshot() *models.FleetSnapshot
	Subscribe() chan *models.FleetSnapshot
	Unsubscribe(chan *models.FleetSnapshot)
}

// Server serves fleet state over a unix socket.
type Server struct {
	logger   *logrus.Entry
	source   SnapshotSource
	server   *http.Server
	upgrader websocket.Upgrader
}

// New creates a server reading from source.
func New(source SnapshotSource) *Server {
	return &Server{
		logger: logging.NewLogger("server"),
		source: source,
		upgrader: websocket.Upgrader{
			// The socket's file mode is the access control; origin checks
			// do not apply to local unix connections.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/fleet", s.handleGetFleet)
	mux.HandleFunc("/api/sessions", s.handleGetSessions)
	mux.HandleFunc("/api/fleet/stream", s.handleStream)
	return mux
}

// ListenAndServe starts serving on the given unix socket path. A stale
// socket from a previous run is removed first. Blocks until the server
// stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.routes()}
	s.logger.WithField("socket", socketPath).Info("Fleet server listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleGetFleet(w http.ResponseWriter, r *http.Request) {
	snapshot := s.source.Snapshot()
	if snapshot == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (s *Server) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	snapshot := s.source.Snapshot()
	if snapshot == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot.Sessions)
}

// handleStream upgrades to a websocket and pushes every published snapshot.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.source.Subscribe()
	defer s.source.Unsubscribe(updates)

	s.logger.Debug("Stream client connected")

	// Current state first so clients render without waiting for a pass.
	if snapshot := s.source.Snapshot(); snapshot != nil {
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
	}

	// Reads are discarded; the pump exists to notice the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			s.logger.Debug("Stream client disconnected")
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				return
			}
		}
	}
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/models"
)

// baseURL is the dummy host used for unix socket HTTP requests.
// The actual connection goes through the socket, not this URL.
const baseURL = "http://unix"

// Remote implements Client against the fleet server's unix socket. Snapshots
// come from the server's poll loop, so consumers share one discovery pass
// instead of each scanning on their own.
type Remote struct {
	httpClient *http.Client
	socketPath string
}

// NewRemote creates a Remote connected to the server socket.
func NewRemote(socketPath string) (*Remote, error) {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &Remote{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}, nil
}

// Fleet returns the server's current snapshot.
func (c *Remote) Fleet(ctx context.Context) (*models.FleetSnapshot, error) {
	var snapshot models.FleetSnapshot
	if err := c.getJSON(ctx, "/api/fleet", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Sessions returns the server's current session records.
func (c *Remote) Sessions(ctx context.Context) ([]models.SessionRecord, error) {
	var sessions []models.SessionRecord
	if err := c.getJSON(ctx, "/api/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Remote) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServerUnavailable, "fleet server not reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return errors.New(errors.ErrCodeServerUnavailable, "fleet server has no snapshot yet")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fleet server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode server response: %w", err)
	}
	return nil
}

// Stream subscribes to snapshot updates over the server's websocket. The
// server sends the current snapshot on connect, then one per completed pass.
func (c *Remote) Stream(ctx context.Context) (<-chan *models.FleetSnapshot, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
	}

	conn, _, err := dialer.DialContext(ctx, "ws://unix/api/fleet/stream", nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServerUnavailable, "failed to connect to snapshot stream")
	}

	ch := make(chan *models.FleetSnapshot, 10)
	done := make(chan struct{})

	// Close the connection on cancel so the read loop unblocks.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		defer close(ch)
		defer conn.Close()
		for {
			var snapshot models.FleetSnapshot
			if err := conn.ReadJSON(&snapshot); err != nil {
				return
			}
			select {
			case ch <- &snapshot:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// IsRunning returns true if the server is reachable and healthy.
func (c *Remote) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close cleans up any resources used by the client.
func (c *Remote) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Ensure Remote implements Client.
var _ Client = (*Remote)(nil)

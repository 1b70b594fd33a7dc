// Package client provides fleet snapshots to other processes. It implements
// a transparent fallback: when the fleet server is running, snapshots come
// from its socket; otherwise a discovery pass runs in-process. Callers get
// the same API in both modes.
package client

import (
	"context"

	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/pkg/models"
)

// ErrStreamUnavailable reports that snapshot streaming needs the server.
var ErrStreamUnavailable = errors.New(errors.ErrCodeServerUnavailable,
	"snapshot streaming requires a running fleet server")

// Client is the consumer-side view of the fleet.
type Client interface {
	// Fleet returns the current fleet snapshot.
	Fleet(ctx context.Context) (*models.FleetSnapshot, error)

	// Sessions returns the current session records.
	Sessions(ctx context.Context) ([]models.SessionRecord, error)

	// Stream subscribes to snapshot updates. The channel closes when the
	// context is canceled or the connection is lost. Only the remote
	// client streams; the local client returns ErrStreamUnavailable.
	Stream(ctx context.Context) (<-chan *models.FleetSnapshot, error)

	// IsRunning reports whether the backing source is reachable.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

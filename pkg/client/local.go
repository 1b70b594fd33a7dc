package client

import (
	"context"

	"github.com/grovetools/fleet/config"
	"github.com/grovetools/fleet/errors"
	"github.com/grovetools/fleet/internal/poll"
	"github.com/grovetools/fleet/pkg/models"
)

// Local implements Client by running discovery in-process. It is used when
// the fleet server is not running, providing the same API with a fresh pass
// per call.
type Local struct {
	poller *poll.Poller
}

// NewLocal creates a Local client from loaded configuration.
func NewLocal(cfg *config.Config) (*Local, error) {
	poller, err := poll.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Local{poller: poller}, nil
}

// Fleet runs one discovery pass and returns the snapshot.
func (c *Local) Fleet(ctx context.Context) (*models.FleetSnapshot, error) {
	snapshot, _ := c.poller.RunPass(ctx)
	if snapshot == nil {
		return nil, errors.New(errors.ErrCodeSnapshotFailed, "discovery pass failed")
	}
	return snapshot, nil
}

// Sessions runs one discovery pass and returns the session records.
func (c *Local) Sessions(ctx context.Context) ([]models.SessionRecord, error) {
	snapshot, err := c.Fleet(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Sessions, nil
}

// Stream is unavailable without the server.
func (c *Local) Stream(ctx context.Context) (<-chan *models.FleetSnapshot, error) {
	return nil, ErrStreamUnavailable
}

// IsRunning always returns true: local discovery has no connection to lose.
func (c *Local) IsRunning() bool {
	return true
}

// Close cleans up any resources used by the client.
func (c *Local) Close() error {
	return nil
}

// Ensure Local implements Client.
var _ Client = (*Local)(nil)

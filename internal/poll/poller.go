// Package poll drives periodic discovery passes and fans fleet snapshots
// out to subscribers. One pass runs at a time; ticks and manual refreshes
// that land mid-pass are dropped rather than queued.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/fleet/config"
	"github.com/grovetools/fleet/logging"
	"github.com/grovetools/fleet/pkg/hooks"
	"github.com/grovetools/fleet/pkg/models"
	"github.com/grovetools/fleet/pkg/sessions"
)

// subscriberBuffer bounds how many snapshots a slow subscriber can lag
// behind before updates are dropped for it.
const subscriberBuffer = 8

// Poller owns the discovery loop. The zero value is not usable; construct
// with New.
type Poller struct {
	discover   func(ctx context.Context, now time.Time) (*models.FleetSnapshot, error)
	discoverer *sessions.Discoverer
	interval   time.Duration
	logger     *logrus.Entry

	running atomic.Bool
	refresh chan struct{}

	mu          sync.RWMutex
	snapshot    *models.FleetSnapshot
	subscribers map[chan *models.FleetSnapshot]struct{}
}

// New builds a poller from loaded configuration.
func New(cfg *config.Config) (*Poller, error) {
	matcher, err := cfg.ExcludeMatcher()
	if err != nil {
		return nil, err
	}

	opts := sessions.Options{
		TranscriptRoot: cfg.TranscriptRoot(),
		EnrichmentDir:  cfg.EnrichmentDir(),
		BranchTimeout:  cfg.BranchTimeout(),
		TokensMax:      cfg.TokensMax,
		DefaultBudget:  cfg.DefaultBudget,
		Workers:        cfg.Workers(),
		Exclude:        matcher,
	}

	discoverer := sessions.NewDiscoverer(opts)
	return &Poller{
		discover:    discoverer.Discover,
		discoverer:  discoverer,
		interval:    cfg.PollInterval(),
		logger:      logging.NewLogger("poller"),
		refresh:     make(chan struct{}, 1),
		subscribers: make(map[chan *models.FleetSnapshot]struct{}),
	}, nil
}

// Store returns the enrichment store backing this poller's discovery, so
// budget updates and channel toggles operate on the same directory the
// poller reads.
func (p *Poller) Store() *hooks.Store {
	return p.discoverer.Store()
}

// Snapshot returns the most recent successful snapshot, or nil before the
// first pass completes.
func (p *Poller) Snapshot() *models.FleetSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe registers for snapshot updates. The channel is buffered; a
// subscriber that falls more than a few snapshots behind misses updates
// instead of stalling the loop.
func (p *Poller) Subscribe() chan *models.FleetSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan *models.FleetSnapshot, subscriberBuffer)
	p.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (p *Poller) Unsubscribe(ch chan *models.FleetSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscribers, ch)
	close(ch)
}

// Refresh requests an early pass from the running loop. Requests collapse:
// asking twice before the loop gets to it still runs one pass.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// RunPass executes one discovery pass unless one is already in flight.
// It returns the freshest snapshot available and whether this call produced
// it. A failed pass keeps the previous snapshot; freshness degrades instead
// of blanking the fleet.
func (p *Poller) RunPass(ctx context.Context) (*models.FleetSnapshot, bool) {
	if !p.running.CompareAndSwap(false, true) {
		return p.Snapshot(), false
	}
	defer p.running.Store(false)

	snapshot, err := p.discover(ctx, time.Now())
	if err != nil {
		p.logger.WithError(err).Debug("Discovery pass failed, keeping previous snapshot")
		return p.Snapshot(), false
	}

	p.publish(snapshot)
	return snapshot, true
}

// Run drives the poll loop until the context is canceled. An initial pass
// runs immediately so subscribers do not wait a full interval for data.
func (p *Poller) Run(ctx context.Context) {
	p.logger.WithField("interval", p.interval).Info("Starting discovery loop")
	p.RunPass(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunPass(ctx)
		case <-p.refresh:
			p.RunPass(ctx)
		}
	}
}

func (p *Poller) publish(snapshot *models.FleetSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = snapshot
	for ch := range p.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
	p.logger.WithField("sessions", len(snapshot.Sessions)).Debug("Published fleet snapshot")
}

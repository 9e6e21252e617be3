// Package events publishes committed outbox rows to the orchestration
// engine over NATS. Delivery is at-least-once: a row is marked sent in the
// same unit of work that publishes it, so a crash between publish and commit
// replays the message on the next sweep.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/db"
	"github.com/openfleet/fleetcore/internal/store"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 2 * time.Second
)

// Dispatcher drains the transactional outbox.
type Dispatcher struct {
	pool     *db.Pool
	outbox   *store.OutboxRepository
	conn     *nats.Conn
	log      zerolog.Logger
	batch    int64
	interval time.Duration
	now      func() time.Time
}

// NewDispatcher builds a dispatcher over an established NATS connection.
func NewDispatcher(pool *db.Pool, outbox *store.OutboxRepository, conn *nats.Conn, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		pool:     pool,
		outbox:   outbox,
		conn:     conn,
		log:      log,
		batch:    defaultBatchSize,
		interval: defaultInterval,
		now:      time.Now,
	}
}

// DispatchPending publishes one batch of unsent events, oldest first, and
// returns how many went out.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	sent := 0
	err := d.pool.RunInUnitOfWork(ctx, func(ctx context.Context) error {
		pending, err := d.outbox.ListPending(ctx, d.batch)
		if err != nil {
			return err
		}
		for _, event := range pending {
			if err := d.conn.Publish(event.Subject, event.Payload); err != nil {
				return fmt.Errorf("publishing %s: %w", event.Subject, err)
			}
			if err := d.outbox.MarkSent(ctx, event.ID, d.now()); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

// Run sweeps the outbox until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sent, err := d.DispatchPending(ctx)
			if err != nil {
				d.log.Error().Err(err).Msg("outbox sweep failed")
				continue
			}
			if sent > 0 {
				d.log.Debug().Int("sent", sent).Msg("outbox events dispatched")
			}
		}
	}
}

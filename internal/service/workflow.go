package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/db"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// Workflow subjects published to the orchestration engine.
const (
	SubjectDHCPReconfigure = "fleet.workflow.dhcp-reconfigure"
	SubjectNodeReleased    = "fleet.workflow.node-released"
	SubjectAgentRevoked    = "fleet.workflow.agent-revoked"
)

// Enqueuer records collaborator messages for later publication. Implemented
// by WorkflowEnqueuer; tests substitute fakes.
type Enqueuer interface {
	Enqueue(ctx context.Context, subject string, payload any) error
}

// WorkflowEnqueuer writes workflow messages to the transactional outbox.
// The row rides the caller's unit of work, so a rolled-back operation never
// leaks a message; the dispatcher publishes committed rows asynchronously.
type WorkflowEnqueuer struct {
	outbox *store.OutboxRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewWorkflowEnqueuer builds an enqueuer over the outbox repository.
func NewWorkflowEnqueuer(outbox *store.OutboxRepository, log zerolog.Logger) *WorkflowEnqueuer {
	return &WorkflowEnqueuer{outbox: outbox, log: log, now: time.Now}
}

// Enqueue serializes payload and stores it under subject.
func (w *WorkflowEnqueuer) Enqueue(ctx context.Context, subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding workflow payload for %s: %w", subject, err)
	}
	event, err := w.outbox.Create(ctx, model.NewOutboxEventBuilder().
		WithEventID(uuid.NewString()).
		WithSubject(subject).
		WithPayload(body).
		WithCreated(w.now().UTC().Truncate(time.Microsecond)))
	if err != nil {
		return fmt.Errorf("enqueueing workflow message %s: %w", subject, err)
	}
	db.OnCommit(ctx, func(ctx context.Context) {
		w.log.Debug().Str("subject", subject).Str("event_id", event.EventID).Msg("workflow message committed")
	})
	return nil
}

package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var outboxMapper = Mapper[model.OutboxEvent]{
	Table:   "outbox_event",
	Columns: []string{"id", "event_id", "subject", "payload", "created", "sent_at"},
	Scan: func(row scanner) (model.OutboxEvent, error) {
		var e model.OutboxEvent
		err := row.Scan(&e.ID, &e.EventID, &e.Subject, &e.Payload, &e.Created, &e.SentAt)
		return e, err
	},
}

// OutboxRepository persists pending collaborator messages. Rows are written
// inside the unit of work that produced them and marked sent by the
// dispatcher afterwards.
type OutboxRepository struct {
	*Repository[model.OutboxEvent]
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{NewRepository(outboxMapper)}
}

// ListPending fetches unsent events oldest first, capped at limit.
func (r *OutboxRepository) ListPending(ctx context.Context, limit int64) ([]model.OutboxEvent, error) {
	page, err := r.List(ctx, 1, limit, QuerySpec{
		Where:   OutboxClause.Pending(),
		OrderBy: []OrderByClause{{Column: "outbox_event.created"}},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// MarkSent records the publication instant on one event.
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	_, err := r.UpdateByID(ctx, id, model.NewOutboxEventBuilder().WithSentAt(at.UTC()))
	return err
}

type outboxClauseFactory struct{}

// OutboxClause builds predicates over outbox events.
var OutboxClause outboxClauseFactory

func (outboxClauseFactory) Pending() Clause {
	return Clause{Condition: sq.Eq{"outbox_event.sent_at": nil}}
}

func (outboxClauseFactory) WithSubject(subject string) Clause {
	return Clause{Condition: sq.Eq{"outbox_event.subject": subject}}
}

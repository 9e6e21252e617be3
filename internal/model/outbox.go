package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OutboxEvent is a pending collaborator message, written in the same
// transaction as the state change it describes and published afterwards by
// the dispatcher. SentAt is nil until publication succeeds.
type OutboxEvent struct {
	Identity
	EventID string
	Subject string
	Payload []byte
	Created time.Time
	SentAt  *time.Time
}

// OutboxEventBuilder assembles the populated fields for outbox rows.
type OutboxEventBuilder struct {
	eventID Field[string]
	subject Field[string]
	payload Field[[]byte]
	created Field[time.Time]
	sentAt  Field[time.Time]
}

func NewOutboxEventBuilder() *OutboxEventBuilder { return &OutboxEventBuilder{} }

func (b *OutboxEventBuilder) WithEventID(id string) *OutboxEventBuilder {
	b.eventID = Set(id)
	return b
}

func (b *OutboxEventBuilder) WithSubject(subject string) *OutboxEventBuilder {
	b.subject = Set(subject)
	return b
}

func (b *OutboxEventBuilder) WithPayload(payload []byte) *OutboxEventBuilder {
	b.payload = Set(payload)
	return b
}

func (b *OutboxEventBuilder) WithCreated(t time.Time) *OutboxEventBuilder {
	b.created = Set(t)
	return b
}

func (b *OutboxEventBuilder) WithSentAt(t time.Time) *OutboxEventBuilder {
	b.sentAt = Set(t)
	return b
}

func (b *OutboxEventBuilder) Fields() Fields {
	f := Fields{}
	if b.eventID.IsSet() {
		f["event_id"] = b.eventID.SQLValue()
	}
	if b.subject.IsSet() {
		f["subject"] = b.subject.SQLValue()
	}
	if b.payload.IsSet() {
		f["payload"] = b.payload.SQLValue()
	}
	if b.created.IsSet() {
		f["created"] = b.created.SQLValue()
	}
	if b.sentAt.IsSet() {
		f["sent_at"] = b.sentAt.SQLValue()
	}
	return f
}

func (b *OutboxEventBuilder) Validate() error {
	if b.subject.IsSet() {
		subject, _ := b.subject.Get()
		if err := validation.Validate(subject, validation.Required, validation.Length(1, 256)); err != nil {
			return fieldError("subject", err)
		}
	}
	if b.eventID.IsSet() {
		id, _ := b.eventID.Get()
		if err := validation.Validate(id, validation.Required); err != nil {
			return fieldError("event_id", err)
		}
	}
	return nil
}

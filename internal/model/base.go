// Package model contains the persisted domain entities and their builders.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entity is a persisted domain object with a stable integer identity.
type Entity interface {
	GetID() int64
}

// Etagged is implemented by entities that support optimistic concurrency.
type Etagged interface {
	Etag() string
}

// Identity is embedded by entities without created/updated columns.
type Identity struct {
	ID int64
}

func (m Identity) GetID() int64 { return m.ID }

// Timestamped is embedded by entities carrying created/updated instants.
// Invariant: Created <= Updated, and Created == Updated right after creation.
type Timestamped struct {
	ID      int64
	Created time.Time
	Updated time.Time
}

func (m Timestamped) GetID() int64 { return m.ID }

// Etag returns an opaque fingerprint of the current row state, derived from
// the updated instant. Two reads of an unmodified row yield identical ETags;
// any successful mutation bumps updated and therefore the ETag.
func (m Timestamped) Etag() string {
	sum := sha256.Sum256([]byte(m.Updated.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}

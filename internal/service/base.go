// Package service holds the business layer: one service per entity, built on
// a generic base that owns validation, optimistic concurrency and lifecycle
// hooks. Services assume they run inside a unit of work; cascades issued by
// hooks therefore commit or roll back together with the triggering write.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// Repo is the persistence surface the base service drives. *store.Repository
// satisfies it; tests substitute fakes.
type Repo[T model.Entity] interface {
	Create(ctx context.Context, b model.Builder) (T, error)
	CreateMany(ctx context.Context, builders []model.Builder) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	GetOne(ctx context.Context, spec store.QuerySpec) (T, error)
	GetMany(ctx context.Context, spec store.QuerySpec) ([]T, error)
	List(ctx context.Context, page, size int64, spec store.QuerySpec) (store.Page[T], error)
	ListWithToken(ctx context.Context, size int64, token *int64, spec store.QuerySpec) (store.TokenPage[T], error)
	UpdateByID(ctx context.Context, id int64, b model.Builder) (T, error)
	UpdateOne(ctx context.Context, spec store.QuerySpec, b model.Builder) (T, error)
	UpdateMany(ctx context.Context, spec store.QuerySpec, b model.Builder) ([]T, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteOne(ctx context.Context, spec store.QuerySpec) (T, error)
	DeleteMany(ctx context.Context, spec store.QuerySpec) ([]T, error)
	IDsClause(ids []int64) store.Clause
}

// Hooks are the lifecycle callbacks a concrete service composes into its
// base. All hooks run inside the caller's unit of work, so side effects they
// issue are atomic with the triggering operation. A nil hook is skipped.
//
// PreDelete may veto by returning an error; nothing is deleted in that case
// and force deletes skip it. Cascade always runs before the delete statement,
// force or not, and is where dependents are reassigned or removed so that
// referential constraints hold. PreDeleteMany and CascadeMany are the bulk
// counterparts: they see the whole doomed batch at once and issue one
// statement per dependent table. The *Many hooks run once per batch, not
// once per row.
//
// PostUpdate receives the entity as it was read before the write alongside
// the written state, so consumers can react to specific transitions.
type Hooks[T model.Entity] struct {
	PostCreate     func(ctx context.Context, created T) error
	PostCreateMany func(ctx context.Context, created []T) error
	PostUpdate     func(ctx context.Context, before, after T) error
	PreDelete      func(ctx context.Context, doomed T) error
	PreDeleteMany  func(ctx context.Context, doomed []T) error
	Cascade        func(ctx context.Context, doomed T) error
	CascadeMany    func(ctx context.Context, doomed []T) error
	PostDelete     func(ctx context.Context, deleted T) error
	PostDeleteMany func(ctx context.Context, deleted []T) error
}

// Service is the generic business layer over one entity.
type Service[T model.Entity] struct {
	repo  Repo[T]
	hooks Hooks[T]
	log   zerolog.Logger
}

// NewService builds a service over repo with the given lifecycle hooks.
func NewService[T model.Entity](repo Repo[T], hooks Hooks[T], log zerolog.Logger) *Service[T] {
	return &Service[T]{repo: repo, hooks: hooks, log: log}
}

// checkEtag enforces optimistic concurrency. An empty etag means the caller
// opted out; entities without ETag support always pass.
func checkEtag[T model.Entity](entity T, etag string) error {
	if etag == "" {
		return nil
	}
	tagged, ok := any(entity).(model.Etagged)
	if !ok {
		return nil
	}
	if tagged.Etag() != etag {
		return fault.PreconditionFailed(fault.ViolationEtagMismatch,
			"entity %d changed since it was read", entity.GetID())
	}
	return nil
}

// Create validates the builder, inserts the row and runs the post-create
// hook.
func (s *Service[T]) Create(ctx context.Context, b model.Builder) (T, error) {
	var zero T
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return zero, err
	}
	if s.hooks.PostCreate != nil {
		if err := s.hooks.PostCreate(ctx, created); err != nil {
			return zero, err
		}
	}
	return created, nil
}

// CreateMany inserts all builders in one statement. The batch hook runs
// once, after the statement, and only when something was created.
func (s *Service[T]) CreateMany(ctx context.Context, builders []model.Builder) ([]T, error) {
	created, err := s.repo.CreateMany(ctx, builders)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 && s.hooks.PostCreateMany != nil {
		if err := s.hooks.PostCreateMany(ctx, created); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// GetByID fetches one entity by primary key.
func (s *Service[T]) GetByID(ctx context.Context, id int64) (T, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOne fetches the single entity matching the spec.
func (s *Service[T]) GetOne(ctx context.Context, spec store.QuerySpec) (T, error) {
	return s.repo.GetOne(ctx, spec)
}

// GetMany fetches every entity matching the spec.
func (s *Service[T]) GetMany(ctx context.Context, spec store.QuerySpec) ([]T, error) {
	return s.repo.GetMany(ctx, spec)
}

// List fetches one offset-paginated window.
func (s *Service[T]) List(ctx context.Context, page, size int64, spec store.QuerySpec) (store.Page[T], error) {
	return s.repo.List(ctx, page, size, spec)
}

// ListWithToken fetches one keyset-paginated window.
func (s *Service[T]) ListWithToken(ctx context.Context, size int64, token *int64, spec store.QuerySpec) (store.TokenPage[T], error) {
	return s.repo.ListWithToken(ctx, size, token, spec)
}

// Update applies the builder to one entity by primary key. A non-empty etag
// must match the entity's current state; on mismatch nothing is written.
func (s *Service[T]) Update(ctx context.Context, id int64, etag string, b model.Builder) (T, error) {
	var zero T
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := checkEtag(current, etag); err != nil {
		return zero, err
	}
	updated, err := s.repo.UpdateByID(ctx, id, b)
	if err != nil {
		return zero, err
	}
	if s.hooks.PostUpdate != nil {
		if err := s.hooks.PostUpdate(ctx, current, updated); err != nil {
			return zero, err
		}
	}
	return updated, nil
}

// UpdateOne applies the builder to the single entity matching the spec,
// with the same etag semantics as Update.
func (s *Service[T]) UpdateOne(ctx context.Context, spec store.QuerySpec, etag string, b model.Builder) (T, error) {
	var zero T
	current, err := s.repo.GetOne(ctx, spec)
	if err != nil {
		return zero, err
	}
	if err := checkEtag(current, etag); err != nil {
		return zero, err
	}
	return s.Update(ctx, current.GetID(), "", b)
}

// UpdateMany applies the builder to every entity matching the spec in one
// statement. No etag semantics; bulk writes are last-write-wins.
func (s *Service[T]) UpdateMany(ctx context.Context, spec store.QuerySpec, b model.Builder) ([]T, error) {
	return s.repo.UpdateMany(ctx, spec, b)
}

// Delete removes one entity by primary key. The pre-delete hook may veto;
// a non-empty etag must match the current state.
func (s *Service[T]) Delete(ctx context.Context, id int64, etag string) error {
	return s.delete(ctx, id, etag, false)
}

// ForceDelete removes one entity, skipping the etag check and the pre-delete
// veto. Cascading hooks still run.
func (s *Service[T]) ForceDelete(ctx context.Context, id int64) error {
	return s.delete(ctx, id, "", true)
}

func (s *Service[T]) delete(ctx context.Context, id int64, etag string, force bool) error {
	doomed, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !force {
		if err := checkEtag(doomed, etag); err != nil {
			return err
		}
		if s.hooks.PreDelete != nil {
			if err := s.hooks.PreDelete(ctx, doomed); err != nil {
				return err
			}
		}
	}
	if s.hooks.Cascade != nil {
		if err := s.hooks.Cascade(ctx, doomed); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	if s.hooks.PostDelete != nil {
		if err := s.hooks.PostDelete(ctx, doomed); err != nil {
			return err
		}
	}
	s.log.Debug().Int64("id", id).Bool("force", force).Msg("entity deleted")
	return nil
}

// DeleteMany removes every entity matching the spec. Zero matches is fine.
// The doomed batch is read first so PreDeleteMany can veto it and
// CascadeMany can clear dependents before the delete statement runs; each
// batch hook runs once, never once per row. The delete itself targets the
// ids read up front, so cascades that rewrite joined rows cannot shrink the
// batch between the read and the delete.
func (s *Service[T]) DeleteMany(ctx context.Context, spec store.QuerySpec) ([]T, error) {
	doomed, err := s.repo.GetMany(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(doomed) == 0 {
		return nil, nil
	}
	if s.hooks.PreDeleteMany != nil {
		if err := s.hooks.PreDeleteMany(ctx, doomed); err != nil {
			return nil, err
		}
	}
	if s.hooks.CascadeMany != nil {
		if err := s.hooks.CascadeMany(ctx, doomed); err != nil {
			return nil, err
		}
	}
	deleted, err := s.repo.DeleteMany(ctx, store.QuerySpec{Where: s.repo.IDsClause(entityIDs(doomed))})
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 && s.hooks.PostDeleteMany != nil {
		if err := s.hooks.PostDeleteMany(ctx, deleted); err != nil {
			return nil, err
		}
	}
	s.log.Debug().Int("count", len(deleted)).Msg("entities deleted")
	return deleted, nil
}

func entityIDs[T model.Entity](entities []T) []int64 {
	ids := make([]int64, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.GetID())
	}
	return ids
}

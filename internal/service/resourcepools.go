package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// ResourcePoolsService manages resource pools. Deleting a pool reassigns its
// nodes to the default pool in the same unit of work. The default pool
// cannot be deleted.
type ResourcePoolsService struct {
	*Service[model.ResourcePool]

	pools     *store.ResourcePoolsRepository
	nodes     *store.NodesRepository
	defaultID *Cache[int64]
}

// NewResourcePoolsService wires the pools service and its cascade
// dependencies.
func NewResourcePoolsService(
	pools *store.ResourcePoolsRepository,
	nodes *store.NodesRepository,
	caches *CacheRegistry,
	log zerolog.Logger,
) *ResourcePoolsService {
	s := &ResourcePoolsService{
		pools:     pools,
		nodes:     nodes,
		defaultID: RegisterCache[int64](caches, "resourcepools.default-id"),
	}
	s.Service = NewService[model.ResourcePool](pools, Hooks[model.ResourcePool]{
		PreDelete:     s.preDelete,
		PreDeleteMany: s.preDeleteMany,
		Cascade:       s.cascade,
		CascadeMany:   s.cascadeMany,
	}, log)
	return s
}

// DefaultPoolID returns the id of the seeded default pool, cached for the
// life of the process.
func (s *ResourcePoolsService) DefaultPoolID(ctx context.Context) (int64, error) {
	return s.defaultID.GetOrFetch(ctx, func(ctx context.Context) (int64, error) {
		pool, err := s.pools.GetDefault(ctx)
		if err != nil {
			return 0, err
		}
		return pool.ID, nil
	})
}

func (s *ResourcePoolsService) preDelete(ctx context.Context, doomed model.ResourcePool) error {
	if doomed.IsDefault() {
		return fault.BadRequest(fault.ViolationCannotDeleteDefaultResourcePool,
			"the default resource pool cannot be deleted")
	}
	return nil
}

func (s *ResourcePoolsService) preDeleteMany(ctx context.Context, doomed []model.ResourcePool) error {
	for _, pool := range doomed {
		if pool.IsDefault() {
			return fault.BadRequest(fault.ViolationCannotDeleteDefaultResourcePool,
				"the default resource pool cannot be deleted")
		}
	}
	return nil
}

func (s *ResourcePoolsService) cascade(ctx context.Context, doomed model.ResourcePool) error {
	return s.cascadeMany(ctx, []model.ResourcePool{doomed})
}

func (s *ResourcePoolsService) cascadeMany(ctx context.Context, doomed []model.ResourcePool) error {
	if err := s.preDeleteMany(ctx, doomed); err != nil {
		return err
	}
	defaultID, err := s.DefaultPoolID(ctx)
	if err != nil {
		return err
	}
	_, err = s.nodes.ReassignPools(ctx, entityIDs(doomed), defaultID)
	return err
}

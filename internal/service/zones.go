package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// ZonesService manages availability zones. Deleting a zone reassigns its
// nodes, BMCs and VM clusters to the default zone in the same unit of work
// and asks the orchestration engine to reconfigure DHCP afterwards. The
// default zone itself cannot be deleted, not even with force.
type ZonesService struct {
	*Service[model.Zone]

	zones      *store.ZonesRepository
	nodes      *store.NodesRepository
	bmcs       *store.BMCsRepository
	vmClusters *store.VMClustersRepository
	workflows  Enqueuer
	defaultID  *Cache[int64]
}

// NewZonesService wires the zones service and its cascade dependencies.
func NewZonesService(
	zones *store.ZonesRepository,
	nodes *store.NodesRepository,
	bmcs *store.BMCsRepository,
	vmClusters *store.VMClustersRepository,
	workflows Enqueuer,
	caches *CacheRegistry,
	log zerolog.Logger,
) *ZonesService {
	s := &ZonesService{
		zones:      zones,
		nodes:      nodes,
		bmcs:       bmcs,
		vmClusters: vmClusters,
		workflows:  workflows,
		defaultID:  RegisterCache[int64](caches, "zones.default-id"),
	}
	s.Service = NewService[model.Zone](zones, Hooks[model.Zone]{
		PreDelete:      s.preDelete,
		PreDeleteMany:  s.preDeleteMany,
		Cascade:        s.cascade,
		CascadeMany:    s.cascadeMany,
		PostDelete:     s.postDelete,
		PostDeleteMany: s.postDeleteMany,
	}, log)
	return s
}

// DefaultZoneID returns the id of the seeded default zone, cached for the
// life of the process. The default zone cannot be deleted, so the id is
// stable.
func (s *ZonesService) DefaultZoneID(ctx context.Context) (int64, error) {
	return s.defaultID.GetOrFetch(ctx, func(ctx context.Context) (int64, error) {
		zone, err := s.zones.GetDefault(ctx)
		if err != nil {
			return 0, err
		}
		return zone.ID, nil
	})
}

func (s *ZonesService) preDelete(ctx context.Context, doomed model.Zone) error {
	if doomed.IsDefault() {
		return fault.BadRequest(fault.ViolationCannotDeleteDefaultZone,
			"the default zone cannot be deleted")
	}
	return nil
}

func (s *ZonesService) preDeleteMany(ctx context.Context, doomed []model.Zone) error {
	for _, zone := range doomed {
		if zone.IsDefault() {
			return fault.BadRequest(fault.ViolationCannotDeleteDefaultZone,
				"the default zone cannot be deleted")
		}
	}
	return nil
}

func (s *ZonesService) cascade(ctx context.Context, doomed model.Zone) error {
	return s.cascadeMany(ctx, []model.Zone{doomed})
}

func (s *ZonesService) cascadeMany(ctx context.Context, doomed []model.Zone) error {
	// Force deletes bypass the veto but never the default-zone guard:
	// dependents cannot be reassigned to a zone being removed.
	if err := s.preDeleteMany(ctx, doomed); err != nil {
		return err
	}
	defaultID, err := s.DefaultZoneID(ctx)
	if err != nil {
		return err
	}
	ids := entityIDs(doomed)
	if _, err := s.nodes.ReassignZones(ctx, ids, defaultID); err != nil {
		return err
	}
	if _, err := s.bmcs.ReassignZones(ctx, ids, defaultID); err != nil {
		return err
	}
	if _, err := s.vmClusters.ReassignZones(ctx, ids, defaultID); err != nil {
		return err
	}
	return nil
}

func (s *ZonesService) postDelete(ctx context.Context, deleted model.Zone) error {
	return s.postDeleteMany(ctx, []model.Zone{deleted})
}

func (s *ZonesService) postDeleteMany(ctx context.Context, deleted []model.Zone) error {
	names := make([]string, 0, len(deleted))
	for _, zone := range deleted {
		names = append(names, zone.Name)
	}
	return s.workflows.Enqueue(ctx, SubjectDHCPReconfigure, map[string]any{
		"zone_ids":   entityIDs(deleted),
		"zone_names": names,
	})
}

package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var vmClusterMapper = Mapper[model.VMCluster]{
	Table:       "vm_cluster",
	Columns:     []string{"id", "created", "updated", "name", "project", "zone_id"},
	Timestamped: true,
	Scan: func(row scanner) (model.VMCluster, error) {
		var c model.VMCluster
		err := row.Scan(&c.ID, &c.Created, &c.Updated, &c.Name, &c.Project, &c.ZoneID)
		return c, err
	},
}

// VMClustersRepository persists VM clusters.
type VMClustersRepository struct {
	*Repository[model.VMCluster]
}

func NewVMClustersRepository() *VMClustersRepository {
	return &VMClustersRepository{NewRepository(vmClusterMapper)}
}

// ReassignZone moves every cluster in fromZone to toZone in one statement.
func (r *VMClustersRepository) ReassignZone(ctx context.Context, fromZone, toZone int64) ([]model.VMCluster, error) {
	return r.ReassignZones(ctx, []int64{fromZone}, toZone)
}

// ReassignZones moves every cluster in any of fromZones to toZone in one
// statement.
func (r *VMClustersRepository) ReassignZones(ctx context.Context, fromZones []int64, toZone int64) ([]model.VMCluster, error) {
	return r.UpdateMany(ctx,
		QuerySpec{Where: VMClusterClause.WithZoneIDs(fromZones)},
		model.NewVMClusterBuilder().WithZoneID(toZone),
	)
}

type vmClusterClauseFactory struct{}

// VMClusterClause builds predicates over VM clusters.
var VMClusterClause vmClusterClauseFactory

func (vmClusterClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"vm_cluster.id": id}}
}

func (vmClusterClauseFactory) WithName(name string) Clause {
	return Clause{Condition: sq.Eq{"vm_cluster.name": name}}
}

func (vmClusterClauseFactory) WithZoneID(id int64) Clause {
	return Clause{Condition: sq.Eq{"vm_cluster.zone_id": id}}
}

func (vmClusterClauseFactory) WithZoneIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"vm_cluster.zone_id": ids}}
}

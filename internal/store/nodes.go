package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var nodeMapper = Mapper[model.Node]{
	Table: "node",
	Columns: []string{
		"id", "created", "updated",
		"hostname", "status", "zone_id", "pool_id", "owner_id", "bmc_id",
	},
	Timestamped: true,
	Scan: func(row scanner) (model.Node, error) {
		var n model.Node
		err := row.Scan(
			&n.ID, &n.Created, &n.Updated,
			&n.Hostname, &n.Status, &n.ZoneID, &n.PoolID, &n.OwnerID, &n.BMCID,
		)
		return n, err
	},
}

// NodesRepository persists nodes.
type NodesRepository struct {
	*Repository[model.Node]
}

func NewNodesRepository() *NodesRepository {
	return &NodesRepository{NewRepository(nodeMapper)}
}

// ReassignZone moves every node in fromZone to toZone in one statement and
// returns the moved nodes.
func (r *NodesRepository) ReassignZone(ctx context.Context, fromZone, toZone int64) ([]model.Node, error) {
	return r.ReassignZones(ctx, []int64{fromZone}, toZone)
}

// ReassignZones moves every node in any of fromZones to toZone in one
// statement and returns the moved nodes.
func (r *NodesRepository) ReassignZones(ctx context.Context, fromZones []int64, toZone int64) ([]model.Node, error) {
	return r.UpdateMany(ctx,
		QuerySpec{Where: NodeClause.WithZoneIDs(fromZones)},
		model.NewNodeBuilder().WithZoneID(toZone),
	)
}

// ReassignPool moves every node in fromPool to toPool in one statement and
// returns the moved nodes.
func (r *NodesRepository) ReassignPool(ctx context.Context, fromPool, toPool int64) ([]model.Node, error) {
	return r.ReassignPools(ctx, []int64{fromPool}, toPool)
}

// ReassignPools moves every node in any of fromPools to toPool in one
// statement and returns the moved nodes.
func (r *NodesRepository) ReassignPools(ctx context.Context, fromPools []int64, toPool int64) ([]model.Node, error) {
	return r.UpdateMany(ctx,
		QuerySpec{Where: NodeClause.WithPoolIDs(fromPools)},
		model.NewNodeBuilder().WithPoolID(toPool),
	)
}

type nodeClauseFactory struct{}

// NodeClause builds predicates over nodes.
var NodeClause nodeClauseFactory

func (nodeClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"node.id": id}}
}

func (nodeClauseFactory) WithHostname(hostname string) Clause {
	return Clause{Condition: sq.Eq{"node.hostname": hostname}}
}

func (nodeClauseFactory) WithStatus(status model.NodeStatus) Clause {
	return Clause{Condition: sq.Eq{"node.status": status}}
}

func (nodeClauseFactory) WithZoneID(id int64) Clause {
	return Clause{Condition: sq.Eq{"node.zone_id": id}}
}

func (nodeClauseFactory) WithZoneIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"node.zone_id": ids}}
}

func (nodeClauseFactory) WithPoolID(id int64) Clause {
	return Clause{Condition: sq.Eq{"node.pool_id": id}}
}

func (nodeClauseFactory) WithPoolIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"node.pool_id": ids}}
}

func (nodeClauseFactory) WithOwnerID(id int64) Clause {
	return Clause{Condition: sq.Eq{"node.owner_id": id}}
}

func (nodeClauseFactory) WithOwnerIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"node.owner_id": ids}}
}

func (nodeClauseFactory) WithBMCID(id int64) Clause {
	return Clause{Condition: sq.Eq{"node.bmc_id": id}}
}

func (nodeClauseFactory) WithBMCIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"node.bmc_id": ids}}
}

// WithZoneName filters on the joined zone's name.
func (nodeClauseFactory) WithZoneName(name string) Clause {
	return Clause{
		Condition: sq.Eq{"zone.name": name},
		Joins:     []Join{{Table: "zone", On: "node.zone_id = zone.id"}},
	}
}

// WithPoolName filters on the joined pool's name.
func (nodeClauseFactory) WithPoolName(name string) Clause {
	return Clause{
		Condition: sq.Eq{"resource_pool.name": name},
		Joins:     []Join{{Table: "resource_pool", On: "node.pool_id = resource_pool.id"}},
	}
}

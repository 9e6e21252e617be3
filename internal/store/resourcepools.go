package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var resourcePoolMapper = Mapper[model.ResourcePool]{
	Table:       "resource_pool",
	Columns:     []string{"id", "created", "updated", "name", "description"},
	Timestamped: true,
	Scan: func(row scanner) (model.ResourcePool, error) {
		var p model.ResourcePool
		err := row.Scan(&p.ID, &p.Created, &p.Updated, &p.Name, &p.Description)
		return p, err
	},
}

// ResourcePoolsRepository persists resource pools.
type ResourcePoolsRepository struct {
	*Repository[model.ResourcePool]
}

func NewResourcePoolsRepository() *ResourcePoolsRepository {
	return &ResourcePoolsRepository{NewRepository(resourcePoolMapper)}
}

// GetDefault returns the seeded default pool.
func (r *ResourcePoolsRepository) GetDefault(ctx context.Context) (model.ResourcePool, error) {
	return r.GetOne(ctx, QuerySpec{Where: ResourcePoolClause.WithName(model.DefaultResourcePoolName)})
}

type resourcePoolClauseFactory struct{}

// ResourcePoolClause builds predicates over resource pools.
var ResourcePoolClause resourcePoolClauseFactory

func (resourcePoolClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"resource_pool.id": id}}
}

func (resourcePoolClauseFactory) WithName(name string) Clause {
	return Clause{Condition: sq.Eq{"resource_pool.name": name}}
}

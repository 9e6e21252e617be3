package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var zoneMapper = Mapper[model.Zone]{
	Table:       "zone",
	Columns:     []string{"id", "created", "updated", "name", "description"},
	Timestamped: true,
	Scan: func(row scanner) (model.Zone, error) {
		var z model.Zone
		err := row.Scan(&z.ID, &z.Created, &z.Updated, &z.Name, &z.Description)
		return z, err
	},
}

// ZonesRepository persists availability zones.
type ZonesRepository struct {
	*Repository[model.Zone]
}

func NewZonesRepository() *ZonesRepository {
	return &ZonesRepository{NewRepository(zoneMapper)}
}

// GetDefault returns the seeded default zone.
func (r *ZonesRepository) GetDefault(ctx context.Context) (model.Zone, error) {
	return r.GetOne(ctx, QuerySpec{Where: ZoneClause.WithName(model.DefaultZoneName)})
}

type zoneClauseFactory struct{}

// ZoneClause builds predicates over zones.
var ZoneClause zoneClauseFactory

func (zoneClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"zone.id": id}}
}

func (zoneClauseFactory) WithName(name string) Clause {
	return Clause{Condition: sq.Eq{"zone.name": name}}
}

package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var bmcMapper = Mapper[model.BMC]{
	Table:       "bmc",
	Columns:     []string{"id", "created", "updated", "power_type", "power_parameters", "zone_id"},
	Timestamped: true,
	Scan: func(row scanner) (model.BMC, error) {
		var b model.BMC
		err := row.Scan(&b.ID, &b.Created, &b.Updated, &b.PowerType, &b.PowerParameters, &b.ZoneID)
		return b, err
	},
}

// BMCsRepository persists baseboard management controllers.
type BMCsRepository struct {
	*Repository[model.BMC]
}

func NewBMCsRepository() *BMCsRepository {
	return &BMCsRepository{NewRepository(bmcMapper)}
}

// ReassignZone moves every BMC in fromZone to toZone in one statement.
func (r *BMCsRepository) ReassignZone(ctx context.Context, fromZone, toZone int64) ([]model.BMC, error) {
	return r.ReassignZones(ctx, []int64{fromZone}, toZone)
}

// ReassignZones moves every BMC in any of fromZones to toZone in one
// statement.
func (r *BMCsRepository) ReassignZones(ctx context.Context, fromZones []int64, toZone int64) ([]model.BMC, error) {
	return r.UpdateMany(ctx,
		QuerySpec{Where: BMCClause.WithZoneIDs(fromZones)},
		model.NewBMCBuilder().WithZoneID(toZone),
	)
}

type bmcClauseFactory struct{}

// BMCClause builds predicates over BMCs.
var BMCClause bmcClauseFactory

func (bmcClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"bmc.id": id}}
}

func (bmcClauseFactory) WithZoneID(id int64) Clause {
	return Clause{Condition: sq.Eq{"bmc.zone_id": id}}
}

func (bmcClauseFactory) WithZoneIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"bmc.zone_id": ids}}
}

func (bmcClauseFactory) WithPowerType(powerType string) Clause {
	return Clause{Condition: sq.Eq{"bmc.power_type": powerType}}
}

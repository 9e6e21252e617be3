package store_test

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func TestAndClauses_SingleClauseIsUnwrapped(t *testing.T) {
	combined := store.AndClauses(store.ZoneClause.WithName("default"))

	sqlStr, args, err := combined.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "zone.name = ?", sqlStr)
	assert.Equal(t, []any{"default"}, args)
}

func TestAndClauses_EmptyHasNoCondition(t *testing.T) {
	assert.Nil(t, store.AndClauses().Condition)
	assert.Nil(t, store.OrClauses().Condition)
}

func TestAndClauses_CombinesConditions(t *testing.T) {
	combined := store.AndClauses(
		store.NodeClause.WithHostname("rack1-node1"),
		store.NodeClause.WithStatus("ready"),
	)

	sqlStr, args, err := combined.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(node.hostname = ? AND node.status = ?)", sqlStr)
	assert.Equal(t, []any{"rack1-node1", model.NodeStatusReady}, args)
}

func TestOrClauses_CombinesConditions(t *testing.T) {
	combined := store.OrClauses(
		store.NodeClause.WithStatus("ready"),
		store.NodeClause.WithStatus("allocated"),
	)

	sqlStr, _, err := combined.Condition.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(node.status = ? OR node.status = ?)", sqlStr)
}

func TestIDSetClauses_CompileToOneInPredicate(t *testing.T) {
	cases := []struct {
		name   string
		clause store.Clause
		want   string
	}{
		{"certificates by agents", store.CertificateClause.WithAgentIDs([]int64{7, 9}),
			"agent_certificate.agent_id IN (?,?)"},
		{"nodes by zones", store.NodeClause.WithZoneIDs([]int64{1, 2, 3}),
			"node.zone_id IN (?,?,?)"},
		{"nodes by owners", store.NodeClause.WithOwnerIDs([]int64{4, 5}),
			"node.owner_id IN (?,?)"},
		{"dismissals by notifications", store.DismissalClause.WithNotificationIDs([]int64{6}),
			"notification_dismissal.notification_id IN (?)"},
		{"profiles by users", store.UserProfileClause.WithUserIDs([]int64{8, 10}),
			"user_profile.user_id IN (?,?)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sqlStr, _, err := tc.clause.Condition.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tc.want, sqlStr)
		})
	}
}

func TestAndClauses_DeduplicatesSharedJoins(t *testing.T) {
	combined := store.AndClauses(
		store.NodeClause.WithZoneName("default"),
		store.NodeClause.WithZoneName("rack-zone"),
	)

	require.Len(t, combined.Joins, 1)
	assert.Equal(t, "zone", combined.Joins[0].Table)
}

func TestAndClauses_KeepsDistinctJoins(t *testing.T) {
	combined := store.AndClauses(
		store.NodeClause.WithZoneName("default"),
		store.NodeClause.WithPoolName("default"),
	)

	require.Len(t, combined.Joins, 2)
	assert.Equal(t, "zone", combined.Joins[0].Table)
	assert.Equal(t, "resource_pool", combined.Joins[1].Table)
}

func TestNestedComposition_StillEmitsEachJoinOnce(t *testing.T) {
	combined := store.AndClauses(
		store.OrClauses(
			store.NodeClause.WithZoneName("default"),
			store.NodeClause.WithZoneName("rack-zone"),
		),
		store.NodeClause.WithZoneName("other"),
	)

	require.Len(t, combined.Joins, 1)
}

func TestQuerySpec_ApplyToSelect(t *testing.T) {
	spec := store.QuerySpec{Where: store.NodeClause.WithZoneName("default")}

	sqlStr, args, err := spec.ApplyToSelect(psql.Select("node.id").From("node")).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT node.id FROM node JOIN zone ON node.zone_id = zone.id WHERE zone.name = $1",
		sqlStr)
	assert.Equal(t, []any{"default"}, args)
}

func TestQuerySpec_ApplyToSelect_DeduplicatedJoinAppearsOnce(t *testing.T) {
	spec := store.QuerySpec{Where: store.AndClauses(
		store.NodeClause.WithZoneName("default"),
		store.NodeClause.WithZoneName("rack-zone"),
	)}

	sqlStr, _, err := spec.ApplyToSelect(psql.Select("node.id").From("node")).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT node.id FROM node JOIN zone ON node.zone_id = zone.id "+
			"WHERE (zone.name = $1 AND zone.name = $2)",
		sqlStr)
}

func TestQuerySpec_ApplyToUpdate_JoinedTablesBecomeFromList(t *testing.T) {
	spec := store.QuerySpec{Where: store.NodeClause.WithZoneName("default")}

	sqlStr, args, err := spec.ApplyToUpdate(psql.Update("node").Set("status", "ready")).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE node SET status = $1 FROM zone WHERE node.zone_id = zone.id AND zone.name = $2",
		sqlStr)
	assert.Equal(t, []any{"ready", "default"}, args)
}

func TestQuerySpec_ApplyToUpdate_NoJoins(t *testing.T) {
	spec := store.QuerySpec{Where: store.NodeClause.WithStatus("broken")}

	sqlStr, _, err := spec.ApplyToUpdate(psql.Update("node").Set("status", "new")).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE node SET status = $1 WHERE node.status = $2", sqlStr)
}

func TestQuerySpec_ApplyToDelete_JoinedTablesRideUsing(t *testing.T) {
	spec := store.QuerySpec{Where: store.CertificateClause.WithAgentName("rack-7")}

	target := "agent_certificate"
	if tables := spec.JoinTables(); len(tables) > 0 {
		target += " USING " + tables[0]
	}
	sqlStr, args, err := spec.ApplyToDelete(psql.Delete(target)).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM agent_certificate USING agent "+
			"WHERE agent_certificate.agent_id = agent.id AND agent.name = $1",
		sqlStr)
	assert.Equal(t, []any{"rack-7"}, args)
}

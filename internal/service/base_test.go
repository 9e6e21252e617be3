package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/service"
	"github.com/openfleet/fleetcore/internal/store"
)

// fakeZoneRepo is an in-memory Repo[model.Zone] that records which write
// paths were exercised.
type fakeZoneRepo struct {
	byID map[int64]model.Zone

	createCalls     int
	updateCalls     int
	deleteCalls     int
	deleteManyCalls int
}

func newFakeZoneRepo(zones ...model.Zone) *fakeZoneRepo {
	r := &fakeZoneRepo{byID: map[int64]model.Zone{}}
	for _, z := range zones {
		r.byID[z.ID] = z
	}
	return r
}

func (r *fakeZoneRepo) Create(_ context.Context, b model.Builder) (model.Zone, error) {
	if err := b.Validate(); err != nil {
		return model.Zone{}, fault.Validation(err, "invalid zone fields")
	}
	r.createCalls++
	zone := model.Zone{Timestamped: model.Timestamped{ID: int64(len(r.byID) + 1)}}
	if name, ok := b.Fields()["name"].(string); ok {
		zone.Name = name
	}
	r.byID[zone.ID] = zone
	return zone, nil
}

func (r *fakeZoneRepo) CreateMany(ctx context.Context, builders []model.Builder) ([]model.Zone, error) {
	created := make([]model.Zone, 0, len(builders))
	for _, b := range builders {
		z, err := r.Create(ctx, b)
		if err != nil {
			return nil, err
		}
		created = append(created, z)
	}
	return created, nil
}

func (r *fakeZoneRepo) GetByID(_ context.Context, id int64) (model.Zone, error) {
	zone, ok := r.byID[id]
	if !ok {
		return model.Zone{}, fault.NotFound("zone not found")
	}
	return zone, nil
}

func (r *fakeZoneRepo) GetOne(ctx context.Context, _ store.QuerySpec) (model.Zone, error) {
	for id := range r.byID {
		return r.GetByID(ctx, id)
	}
	return model.Zone{}, fault.NotFound("zone not found")
}

func (r *fakeZoneRepo) GetMany(context.Context, store.QuerySpec) ([]model.Zone, error) {
	zones := make([]model.Zone, 0, len(r.byID))
	for _, z := range r.byID {
		zones = append(zones, z)
	}
	return zones, nil
}

func (r *fakeZoneRepo) List(context.Context, int64, int64, store.QuerySpec) (store.Page[model.Zone], error) {
	return store.Page[model.Zone]{}, errors.New("not used")
}

func (r *fakeZoneRepo) ListWithToken(context.Context, int64, *int64, store.QuerySpec) (store.TokenPage[model.Zone], error) {
	return store.TokenPage[model.Zone]{}, errors.New("not used")
}

func (r *fakeZoneRepo) UpdateByID(_ context.Context, id int64, b model.Builder) (model.Zone, error) {
	zone, ok := r.byID[id]
	if !ok {
		return model.Zone{}, fault.NotFound("zone not found")
	}
	r.updateCalls++
	if name, ok := b.Fields()["name"].(string); ok {
		zone.Name = name
	}
	zone.Updated = zone.Updated.Add(time.Microsecond)
	r.byID[id] = zone
	return zone, nil
}

func (r *fakeZoneRepo) UpdateOne(ctx context.Context, _ store.QuerySpec, b model.Builder) (model.Zone, error) {
	for id := range r.byID {
		return r.UpdateByID(ctx, id, b)
	}
	return model.Zone{}, fault.NotFound("zone not found")
}

func (r *fakeZoneRepo) UpdateMany(context.Context, store.QuerySpec, model.Builder) ([]model.Zone, error) {
	return nil, errors.New("not used")
}

func (r *fakeZoneRepo) DeleteByID(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return fault.NotFound("zone not found")
	}
	r.deleteCalls++
	delete(r.byID, id)
	return nil
}

func (r *fakeZoneRepo) DeleteOne(context.Context, store.QuerySpec) (model.Zone, error) {
	return model.Zone{}, errors.New("not used")
}

func (r *fakeZoneRepo) DeleteMany(context.Context, store.QuerySpec) ([]model.Zone, error) {
	r.deleteManyCalls++
	deleted := make([]model.Zone, 0, len(r.byID))
	for id, z := range r.byID {
		deleted = append(deleted, z)
		delete(r.byID, id)
	}
	return deleted, nil
}

func (r *fakeZoneRepo) IDsClause(ids []int64) store.Clause {
	return store.Clause{Condition: sq.Eq{"zone.id": ids}}
}

func testZone(id int64) model.Zone {
	updated := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	return model.Zone{
		Timestamped: model.Timestamped{ID: id, Created: updated, Updated: updated},
		Name:        "rack-zone",
	}
}

func TestService_Update_MatchingEtagWrites(t *testing.T) {
	zone := testZone(1)
	repo := newFakeZoneRepo(zone)
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{}, zerolog.Nop())

	updated, err := svc.Update(context.Background(), 1, zone.Etag(), model.NewZoneBuilder().WithName("renamed"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestService_Update_StaleEtagWritesNothing(t *testing.T) {
	zone := testZone(1)
	stale := model.Zone{Timestamped: model.Timestamped{ID: 1, Updated: zone.Updated.Add(-time.Hour)}}
	repo := newFakeZoneRepo(zone)
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 1, stale.Etag(), model.NewZoneBuilder().WithName("renamed"))
	assert.True(t, fault.IsKind(err, fault.KindPreconditionFailed))
	assert.Equal(t, fault.ViolationEtagMismatch, fault.ViolationOf(err))
	assert.Equal(t, 0, repo.updateCalls)
}

func TestService_Update_EmptyEtagSkipsCheck(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 1, "", model.NewZoneBuilder().WithName("renamed"))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestService_Update_MissingEntityIsNotFound(t *testing.T) {
	repo := newFakeZoneRepo()
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 42, "", model.NewZoneBuilder().WithName("renamed"))
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestService_Update_PostUpdateSeesBothStates(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	var beforeName, afterName string
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PostUpdate: func(_ context.Context, before, after model.Zone) error {
			beforeName = before.Name
			afterName = after.Name
			return nil
		},
	}, zerolog.Nop())

	_, err := svc.Update(context.Background(), 1, "", model.NewZoneBuilder().WithName("renamed"))
	require.NoError(t, err)
	assert.Equal(t, "rack-zone", beforeName)
	assert.Equal(t, "renamed", afterName)
}

func TestService_Create_RunsPostCreateHook(t *testing.T) {
	repo := newFakeZoneRepo()
	var hooked []model.Zone
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PostCreate: func(_ context.Context, created model.Zone) error {
			hooked = append(hooked, created)
			return nil
		},
	}, zerolog.Nop())

	created, err := svc.Create(context.Background(), model.NewZoneBuilder().WithName("rack-zone"))
	require.NoError(t, err)
	require.Len(t, hooked, 1)
	assert.Equal(t, created.ID, hooked[0].ID)
}

func TestService_CreateMany_BatchHookRunsOnce(t *testing.T) {
	repo := newFakeZoneRepo()
	var batches [][]model.Zone
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PostCreateMany: func(_ context.Context, created []model.Zone) error {
			batches = append(batches, created)
			return nil
		},
	}, zerolog.Nop())

	created, err := svc.CreateMany(context.Background(), []model.Builder{
		model.NewZoneBuilder().WithName("zone-a"),
		model.NewZoneBuilder().WithName("zone-b"),
		model.NewZoneBuilder().WithName("zone-c"),
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}

func TestService_CreateMany_EmptyBatchSkipsHook(t *testing.T) {
	repo := newFakeZoneRepo()
	hookCalls := 0
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PostCreateMany: func(context.Context, []model.Zone) error {
			hookCalls++
			return nil
		},
	}, zerolog.Nop())

	created, err := svc.CreateMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 0, hookCalls)
}

func TestService_Delete_PreDeleteVetoStopsDeletion(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	veto := fault.BadRequest("some-violation", "vetoed")
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PreDelete: func(context.Context, model.Zone) error { return veto },
	}, zerolog.Nop())

	err := svc.Delete(context.Background(), 1, "")
	assert.ErrorIs(t, err, veto)
	assert.Equal(t, 0, repo.deleteCalls)
}

func TestService_Delete_StaleEtagStopsDeletion(t *testing.T) {
	zone := testZone(1)
	repo := newFakeZoneRepo(zone)
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{}, zerolog.Nop())

	stale := model.Zone{Timestamped: model.Timestamped{ID: 1, Updated: zone.Updated.Add(time.Minute)}}
	err := svc.Delete(context.Background(), 1, stale.Etag())
	assert.True(t, fault.IsKind(err, fault.KindPreconditionFailed))
	assert.Equal(t, 0, repo.deleteCalls)
}

func TestService_ForceDelete_SkipsVetoButCascades(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	cascaded, posted := false, false
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PreDelete: func(context.Context, model.Zone) error {
			return fault.BadRequest("some-violation", "vetoed")
		},
		Cascade: func(context.Context, model.Zone) error {
			cascaded = true
			return nil
		},
		PostDelete: func(context.Context, model.Zone) error {
			posted = true
			return nil
		},
	}, zerolog.Nop())

	require.NoError(t, svc.ForceDelete(context.Background(), 1))
	assert.True(t, cascaded)
	assert.True(t, posted)
	assert.Equal(t, 1, repo.deleteCalls)
}

func TestService_DeleteMany_BatchHooksRunOnce(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1), testZone(2), testZone(3))
	preBatches := 0
	cascadeBatches := 0
	postBatches := 0
	var postSize int
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PreDeleteMany: func(_ context.Context, doomed []model.Zone) error {
			preBatches++
			assert.Len(t, doomed, 3)
			return nil
		},
		CascadeMany: func(_ context.Context, doomed []model.Zone) error {
			cascadeBatches++
			assert.Len(t, doomed, 3)
			return nil
		},
		PostDeleteMany: func(_ context.Context, deleted []model.Zone) error {
			postBatches++
			postSize = len(deleted)
			return nil
		},
	}, zerolog.Nop())

	deleted, err := svc.DeleteMany(context.Background(), store.QuerySpec{})
	require.NoError(t, err)
	assert.Len(t, deleted, 3)
	assert.Equal(t, 1, preBatches)
	assert.Equal(t, 1, cascadeBatches)
	assert.Equal(t, 1, postBatches)
	assert.Equal(t, 3, postSize)
}

func TestService_DeleteMany_NoMatchesSkipsHooks(t *testing.T) {
	repo := newFakeZoneRepo()
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PreDeleteMany: func(context.Context, []model.Zone) error {
			t.Fatal("veto hook must not run for an empty batch")
			return nil
		},
		PostDeleteMany: func(context.Context, []model.Zone) error {
			t.Fatal("batch hook must not run for an empty batch")
			return nil
		},
	}, zerolog.Nop())

	deleted, err := svc.DeleteMany(context.Background(), store.QuerySpec{})
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Equal(t, 0, repo.deleteManyCalls)
}

func TestService_DeleteMany_BulkVetoStopsDeletion(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1), testZone(2))
	veto := fault.BadRequest("some-violation", "vetoed")
	cascaded := false
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		PreDeleteMany: func(context.Context, []model.Zone) error { return veto },
		CascadeMany: func(context.Context, []model.Zone) error {
			cascaded = true
			return nil
		},
	}, zerolog.Nop())

	deleted, err := svc.DeleteMany(context.Background(), store.QuerySpec{})
	assert.ErrorIs(t, err, veto)
	assert.Empty(t, deleted)
	assert.False(t, cascaded)
	assert.Equal(t, 0, repo.deleteManyCalls)
	assert.Len(t, repo.byID, 2)
}

func TestService_DeleteMany_CascadeRunsBeforeStatement(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		CascadeMany: func(context.Context, []model.Zone) error {
			// Dependent cleanup must precede the delete so referential
			// constraints hold.
			assert.Equal(t, 0, repo.deleteManyCalls)
			return nil
		},
	}, zerolog.Nop())

	deleted, err := svc.DeleteMany(context.Background(), store.QuerySpec{})
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	assert.Equal(t, 1, repo.deleteManyCalls)
}

func TestService_DeleteMany_CascadeErrorStopsStatement(t *testing.T) {
	repo := newFakeZoneRepo(testZone(1))
	boom := errors.New("dependent cleanup failed")
	svc := service.NewService[model.Zone](repo, service.Hooks[model.Zone]{
		CascadeMany: func(context.Context, []model.Zone) error { return boom },
	}, zerolog.Nop())

	_, err := svc.DeleteMany(context.Background(), store.QuerySpec{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, repo.deleteManyCalls)
	assert.Len(t, repo.byID, 1)
}

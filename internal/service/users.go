package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// UsersService manages operator accounts. Creating an account seeds its
// profile row; deleting one removes the profile and the account's dismissal
// records in the same unit of work. An account still owning nodes cannot be
// deleted.
type UsersService struct {
	*Service[model.User]

	users      *store.UsersRepository
	profiles   *store.UserProfilesRepository
	nodes      *store.NodesRepository
	dismissals *store.DismissalsRepository
}

// NewUsersService wires the users service and its cascade dependencies.
func NewUsersService(
	users *store.UsersRepository,
	profiles *store.UserProfilesRepository,
	nodes *store.NodesRepository,
	dismissals *store.DismissalsRepository,
	log zerolog.Logger,
) *UsersService {
	s := &UsersService{
		users:      users,
		profiles:   profiles,
		nodes:      nodes,
		dismissals: dismissals,
	}
	s.Service = NewService[model.User](users, Hooks[model.User]{
		PostCreate:     s.postCreate,
		PostCreateMany: s.postCreateMany,
		PreDelete:      s.preDelete,
		PreDeleteMany:  s.preDeleteMany,
		Cascade:        s.cascade,
		CascadeMany:    s.cascadeMany,
	}, log)
	return s
}

// GetProfile fetches the profile seeded for one account.
func (s *UsersService) GetProfile(ctx context.Context, userID int64) (model.UserProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// CompleteIntro marks the account's first-run walkthrough as done.
func (s *UsersService) CompleteIntro(ctx context.Context, userID int64) (model.UserProfile, error) {
	return s.profiles.UpdateOne(ctx,
		store.QuerySpec{Where: store.UserProfileClause.WithUserID(userID)},
		model.NewUserProfileBuilder().WithCompletedIntro(true),
	)
}

func (s *UsersService) postCreate(ctx context.Context, created model.User) error {
	_, err := s.profiles.Create(ctx, profileSeed(created.ID))
	return err
}

// postCreateMany seeds every profile in one statement.
func (s *UsersService) postCreateMany(ctx context.Context, created []model.User) error {
	seeds := make([]model.Builder, 0, len(created))
	for _, u := range created {
		seeds = append(seeds, profileSeed(u.ID))
	}
	_, err := s.profiles.CreateMany(ctx, seeds)
	return err
}

func profileSeed(userID int64) *model.UserProfileBuilder {
	return model.NewUserProfileBuilder().
		WithUserID(userID).
		WithIsLocal(true).
		WithCompletedIntro(false)
}

func (s *UsersService) preDelete(ctx context.Context, doomed model.User) error {
	owned, err := s.nodes.GetMany(ctx, store.QuerySpec{Where: store.NodeClause.WithOwnerID(doomed.ID)})
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return fault.Conflict(fault.ViolationUserOwnsResources,
			"user %q still owns %d nodes", doomed.Username, len(owned))
	}
	return nil
}

func (s *UsersService) preDeleteMany(ctx context.Context, doomed []model.User) error {
	owned, err := s.nodes.GetMany(ctx,
		store.QuerySpec{Where: store.NodeClause.WithOwnerIDs(entityIDs(doomed))})
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return fault.Conflict(fault.ViolationUserOwnsResources,
			"%d of the users still own nodes", len(owned))
	}
	return nil
}

func (s *UsersService) cascade(ctx context.Context, doomed model.User) error {
	return s.cascadeMany(ctx, []model.User{doomed})
}

// cascadeMany releases owned nodes and removes dismissals and profiles, one
// statement per table. Force deletes skip the ownership veto, so the node
// release here keeps the owner reference valid either way.
func (s *UsersService) cascadeMany(ctx context.Context, doomed []model.User) error {
	ids := entityIDs(doomed)
	if _, err := s.nodes.UpdateMany(ctx,
		store.QuerySpec{Where: store.NodeClause.WithOwnerIDs(ids)},
		model.NewNodeBuilder().WithoutOwner(),
	); err != nil {
		return err
	}
	if _, err := s.dismissals.DeleteMany(ctx,
		store.QuerySpec{Where: store.DismissalClause.WithUserIDs(ids)},
	); err != nil {
		return err
	}
	_, err := s.profiles.DeleteMany(ctx,
		store.QuerySpec{Where: store.UserProfileClause.WithUserIDs(ids)},
	)
	return err
}

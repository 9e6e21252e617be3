package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var userMapper = Mapper[model.User]{
	Table:   "user_account",
	Columns: []string{"id", "username", "email", "is_superuser"},
	Scan: func(row scanner) (model.User, error) {
		var u model.User
		err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsSuperuser)
		return u, err
	},
}

var userProfileMapper = Mapper[model.UserProfile]{
	Table:   "user_profile",
	Columns: []string{"id", "user_id", "is_local", "completed_intro"},
	Scan: func(row scanner) (model.UserProfile, error) {
		var p model.UserProfile
		err := row.Scan(&p.ID, &p.UserID, &p.IsLocal, &p.CompletedIntro)
		return p, err
	},
}

// UsersRepository persists operator accounts.
type UsersRepository struct {
	*Repository[model.User]
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{NewRepository(userMapper)}
}

// UserProfilesRepository persists the per-account profile rows.
type UserProfilesRepository struct {
	*Repository[model.UserProfile]
}

func NewUserProfilesRepository() *UserProfilesRepository {
	return &UserProfilesRepository{NewRepository(userProfileMapper)}
}

// GetByUserID fetches the profile seeded for one account.
func (r *UserProfilesRepository) GetByUserID(ctx context.Context, userID int64) (model.UserProfile, error) {
	return r.GetOne(ctx, QuerySpec{Where: UserProfileClause.WithUserID(userID)})
}

type userClauseFactory struct{}

// UserClause builds predicates over accounts.
var UserClause userClauseFactory

func (userClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"user_account.id": id}}
}

func (userClauseFactory) WithUsername(username string) Clause {
	return Clause{Condition: sq.Eq{"user_account.username": username}}
}

func (userClauseFactory) Superusers() Clause {
	return Clause{Condition: sq.Eq{"user_account.is_superuser": true}}
}

type userProfileClauseFactory struct{}

// UserProfileClause builds predicates over profiles.
var UserProfileClause userProfileClauseFactory

func (userProfileClauseFactory) WithUserIDs(userIDs []int64) Clause {
	return Clause{Condition: sq.Eq{"user_profile.user_id": userIDs}}
}

func (userProfileClauseFactory) WithUserID(userID int64) Clause {
	return Clause{Condition: sq.Eq{"user_profile.user_id": userID}}
}

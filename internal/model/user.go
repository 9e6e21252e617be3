package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is an operator account. The legacy schema carries no created/updated
// columns for it, so users do not participate in ETag concurrency checks.
type User struct {
	Identity
	Username    string
	Email       string
	IsSuperuser bool
}

// UserProfile is the denormalized per-user row seeded by the users service
// when an account is created.
type UserProfile struct {
	Identity
	UserID         int64
	IsLocal        bool
	CompletedIntro bool
}

// UserBuilder assembles the populated fields for user creates and updates.
type UserBuilder struct {
	username    Field[string]
	email       Field[string]
	isSuperuser Field[bool]
}

func NewUserBuilder() *UserBuilder { return &UserBuilder{} }

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = Set(username)
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = Set(email)
	return b
}

func (b *UserBuilder) WithIsSuperuser(isSuperuser bool) *UserBuilder {
	b.isSuperuser = Set(isSuperuser)
	return b
}

func (b *UserBuilder) Fields() Fields {
	f := Fields{}
	if b.username.IsSet() {
		f["username"] = b.username.SQLValue()
	}
	if b.email.IsSet() {
		f["email"] = b.email.SQLValue()
	}
	if b.isSuperuser.IsSet() {
		f["is_superuser"] = b.isSuperuser.SQLValue()
	}
	return f
}

func (b *UserBuilder) Validate() error {
	if b.username.IsSet() {
		username, _ := b.username.Get()
		if err := validation.Validate(username, validation.Required, validation.Length(1, 150)); err != nil {
			return fieldError("username", err)
		}
	}
	if email, ok := b.email.Get(); ok && email != "" {
		if err := validation.Validate(email, is.EmailFormat); err != nil {
			return fieldError("email", err)
		}
	}
	return nil
}

// UserProfileBuilder assembles the populated fields for profile rows.
type UserProfileBuilder struct {
	userID         Field[int64]
	isLocal        Field[bool]
	completedIntro Field[bool]
}

func NewUserProfileBuilder() *UserProfileBuilder { return &UserProfileBuilder{} }

func (b *UserProfileBuilder) WithUserID(id int64) *UserProfileBuilder {
	b.userID = Set(id)
	return b
}

func (b *UserProfileBuilder) WithIsLocal(isLocal bool) *UserProfileBuilder {
	b.isLocal = Set(isLocal)
	return b
}

func (b *UserProfileBuilder) WithCompletedIntro(done bool) *UserProfileBuilder {
	b.completedIntro = Set(done)
	return b
}

func (b *UserProfileBuilder) Fields() Fields {
	f := Fields{}
	if b.userID.IsSet() {
		f["user_id"] = b.userID.SQLValue()
	}
	if b.isLocal.IsSet() {
		f["is_local"] = b.isLocal.SQLValue()
	}
	if b.completedIntro.IsSet() {
		f["completed_intro"] = b.completedIntro.SQLValue()
	}
	return f
}

func (b *UserProfileBuilder) Validate() error {
	if b.userID.IsSet() {
		id, _ := b.userID.Get()
		if err := validation.Validate(id, validation.Required, validation.Min(int64(1))); err != nil {
			return fieldError("user_id", err)
		}
	}
	return nil
}

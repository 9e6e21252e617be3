package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NotificationCategory is the severity bucket of a notification.
type NotificationCategory string

const (
	NotificationCategoryError   NotificationCategory = "error"
	NotificationCategoryWarning NotificationCategory = "warning"
	NotificationCategoryInfo    NotificationCategory = "info"
	NotificationCategorySuccess NotificationCategory = "success"
)

// Notification is a banner shown to users until dismissed.
type Notification struct {
	Timestamped
	Ident       string
	Message     string
	Category    NotificationCategory
	Dismissable bool
	ForUsers    bool
	ForAdmins   bool
}

// NotificationDismissal records that one user dismissed one notification.
type NotificationDismissal struct {
	Timestamped
	UserID         int64
	NotificationID int64
}

// NotificationBuilder assembles the populated fields for notifications.
type NotificationBuilder struct {
	ident       Field[string]
	message     Field[string]
	category    Field[NotificationCategory]
	dismissable Field[bool]
	forUsers    Field[bool]
	forAdmins   Field[bool]
}

func NewNotificationBuilder() *NotificationBuilder { return &NotificationBuilder{} }

func (b *NotificationBuilder) WithIdent(ident string) *NotificationBuilder {
	b.ident = Set(ident)
	return b
}

func (b *NotificationBuilder) WithMessage(message string) *NotificationBuilder {
	b.message = Set(message)
	return b
}

func (b *NotificationBuilder) WithCategory(category NotificationCategory) *NotificationBuilder {
	b.category = Set(category)
	return b
}

func (b *NotificationBuilder) WithDismissable(dismissable bool) *NotificationBuilder {
	b.dismissable = Set(dismissable)
	return b
}

func (b *NotificationBuilder) WithForUsers(forUsers bool) *NotificationBuilder {
	b.forUsers = Set(forUsers)
	return b
}

func (b *NotificationBuilder) WithForAdmins(forAdmins bool) *NotificationBuilder {
	b.forAdmins = Set(forAdmins)
	return b
}

func (b *NotificationBuilder) Fields() Fields {
	f := Fields{}
	if b.ident.IsSet() {
		f["ident"] = b.ident.SQLValue()
	}
	if b.message.IsSet() {
		f["message"] = b.message.SQLValue()
	}
	if b.category.IsSet() {
		f["category"] = b.category.SQLValue()
	}
	if b.dismissable.IsSet() {
		f["dismissable"] = b.dismissable.SQLValue()
	}
	if b.forUsers.IsSet() {
		f["for_users"] = b.forUsers.SQLValue()
	}
	if b.forAdmins.IsSet() {
		f["for_admins"] = b.forAdmins.SQLValue()
	}
	return f
}

func (b *NotificationBuilder) Validate() error {
	if b.message.IsSet() {
		message, _ := b.message.Get()
		if err := validation.Validate(message, validation.Required); err != nil {
			return fieldError("message", err)
		}
	}
	if category, ok := b.category.Get(); ok {
		if err := validation.Validate(string(category), validation.In(
			string(NotificationCategoryError),
			string(NotificationCategoryWarning),
			string(NotificationCategoryInfo),
			string(NotificationCategorySuccess),
		)); err != nil {
			return fieldError("category", err)
		}
	}
	return nil
}

// NotificationDismissalBuilder assembles the populated fields for dismissal
// rows. Dismissals are created once and never updated.
type NotificationDismissalBuilder struct {
	userID         Field[int64]
	notificationID Field[int64]
}

func NewNotificationDismissalBuilder() *NotificationDismissalBuilder {
	return &NotificationDismissalBuilder{}
}

func (b *NotificationDismissalBuilder) WithUserID(id int64) *NotificationDismissalBuilder {
	b.userID = Set(id)
	return b
}

func (b *NotificationDismissalBuilder) WithNotificationID(id int64) *NotificationDismissalBuilder {
	b.notificationID = Set(id)
	return b
}

func (b *NotificationDismissalBuilder) Fields() Fields {
	f := Fields{}
	if b.userID.IsSet() {
		f["user_id"] = b.userID.SQLValue()
	}
	if b.notificationID.IsSet() {
		f["notification_id"] = b.notificationID.SQLValue()
	}
	return f
}

func (b *NotificationDismissalBuilder) Validate() error {
	if b.userID.IsSet() {
		id, _ := b.userID.Get()
		if err := validation.Validate(id, validation.Required, validation.Min(int64(1))); err != nil {
			return fieldError("user_id", err)
		}
	}
	if b.notificationID.IsSet() {
		id, _ := b.notificationID.Get()
		if err := validation.Validate(id, validation.Required, validation.Min(int64(1))); err != nil {
			return fieldError("notification_id", err)
		}
	}
	return nil
}

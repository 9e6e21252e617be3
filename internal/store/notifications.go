package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openfleet/fleetcore/internal/model"
)

var notificationMapper = Mapper[model.Notification]{
	Table: "notification",
	Columns: []string{
		"id", "created", "updated",
		"ident", "message", "category", "dismissable", "for_users", "for_admins",
	},
	Timestamped: true,
	Scan: func(row scanner) (model.Notification, error) {
		var n model.Notification
		err := row.Scan(
			&n.ID, &n.Created, &n.Updated,
			&n.Ident, &n.Message, &n.Category, &n.Dismissable, &n.ForUsers, &n.ForAdmins,
		)
		return n, err
	},
}

var dismissalMapper = Mapper[model.NotificationDismissal]{
	Table:       "notification_dismissal",
	Columns:     []string{"id", "created", "updated", "user_id", "notification_id"},
	Timestamped: true,
	Scan: func(row scanner) (model.NotificationDismissal, error) {
		var d model.NotificationDismissal
		err := row.Scan(&d.ID, &d.Created, &d.Updated, &d.UserID, &d.NotificationID)
		return d, err
	},
}

// NotificationsRepository persists banner notifications.
type NotificationsRepository struct {
	*Repository[model.Notification]
}

func NewNotificationsRepository() *NotificationsRepository {
	return &NotificationsRepository{NewRepository(notificationMapper)}
}

// ListActiveForUser fetches notifications still visible to one user: those
// addressed to their audience and not yet dismissed by them.
func (r *NotificationsRepository) ListActiveForUser(ctx context.Context, userID int64, isAdmin bool) ([]model.Notification, error) {
	audience := NotificationClause.ForUsers()
	if isAdmin {
		audience = NotificationClause.ForAdmins()
	}
	return r.GetMany(ctx, QuerySpec{
		Where:   AndClauses(audience, NotificationClause.NotDismissedBy(userID)),
		OrderBy: []OrderByClause{{Column: "notification.id"}},
	})
}

// DismissalsRepository persists per-user dismissal records.
type DismissalsRepository struct {
	*Repository[model.NotificationDismissal]
}

func NewDismissalsRepository() *DismissalsRepository {
	return &DismissalsRepository{NewRepository(dismissalMapper)}
}

// DeleteForNotification removes every dismissal of one notification,
// returning the removed rows. Used when the notification itself goes away.
func (r *DismissalsRepository) DeleteForNotification(ctx context.Context, notificationID int64) ([]model.NotificationDismissal, error) {
	return r.DeleteForNotifications(ctx, []int64{notificationID})
}

// DeleteForNotifications removes every dismissal of any of the
// notifications in one statement, returning the removed rows.
func (r *DismissalsRepository) DeleteForNotifications(ctx context.Context, notificationIDs []int64) ([]model.NotificationDismissal, error) {
	return r.DeleteMany(ctx, QuerySpec{Where: DismissalClause.WithNotificationIDs(notificationIDs)})
}

type notificationClauseFactory struct{}

// NotificationClause builds predicates over notifications.
var NotificationClause notificationClauseFactory

func (notificationClauseFactory) WithID(id int64) Clause {
	return Clause{Condition: sq.Eq{"notification.id": id}}
}

func (notificationClauseFactory) WithIdent(ident string) Clause {
	return Clause{Condition: sq.Eq{"notification.ident": ident}}
}

func (notificationClauseFactory) ForUsers() Clause {
	return Clause{Condition: sq.Eq{"notification.for_users": true}}
}

func (notificationClauseFactory) ForAdmins() Clause {
	return Clause{Condition: sq.Eq{"notification.for_admins": true}}
}

// NotDismissedBy keeps notifications the user has not dismissed yet.
func (notificationClauseFactory) NotDismissedBy(userID int64) Clause {
	return Clause{Condition: sq.Expr(
		"NOT EXISTS (SELECT 1 FROM notification_dismissal d WHERE d.notification_id = notification.id AND d.user_id = ?)",
		userID,
	)}
}

type dismissalClauseFactory struct{}

// DismissalClause builds predicates over dismissal records.
var DismissalClause dismissalClauseFactory

func (dismissalClauseFactory) WithUserID(userID int64) Clause {
	return Clause{Condition: sq.Eq{"notification_dismissal.user_id": userID}}
}

func (dismissalClauseFactory) WithUserIDs(userIDs []int64) Clause {
	return Clause{Condition: sq.Eq{"notification_dismissal.user_id": userIDs}}
}

func (dismissalClauseFactory) WithNotificationID(id int64) Clause {
	return Clause{Condition: sq.Eq{"notification_dismissal.notification_id": id}}
}

func (dismissalClauseFactory) WithNotificationIDs(ids []int64) Clause {
	return Clause{Condition: sq.Eq{"notification_dismissal.notification_id": ids}}
}

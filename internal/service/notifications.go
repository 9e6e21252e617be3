package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

// NotificationsService manages banner notifications and their per-user
// dismissals.
type NotificationsService struct {
	*Service[model.Notification]

	notifications *store.NotificationsRepository
	dismissals    *store.DismissalsRepository
}

// NewNotificationsService wires the notifications service.
func NewNotificationsService(
	notifications *store.NotificationsRepository,
	dismissals *store.DismissalsRepository,
	log zerolog.Logger,
) *NotificationsService {
	s := &NotificationsService{
		notifications: notifications,
		dismissals:    dismissals,
	}
	s.Service = NewService[model.Notification](notifications, Hooks[model.Notification]{
		Cascade:     s.cascade,
		CascadeMany: s.cascadeMany,
	}, log)
	return s
}

// ListActiveForUser returns the notifications still visible to one user.
func (s *NotificationsService) ListActiveForUser(ctx context.Context, userID int64, isAdmin bool) ([]model.Notification, error) {
	return s.notifications.ListActiveForUser(ctx, userID, isAdmin)
}

// Dismiss records that the user dismissed one notification. Dismissing a
// non-dismissable notification is rejected; dismissing one twice is not an
// error beyond the uniqueness of the dismissal row.
func (s *NotificationsService) Dismiss(ctx context.Context, notificationID, userID int64) error {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if !notification.Dismissable {
		return fault.PreconditionFailed(fault.ViolationNotDismissable,
			"notification %q cannot be dismissed", notification.Ident)
	}
	_, err = s.dismissals.Create(ctx, model.NewNotificationDismissalBuilder().
		WithUserID(userID).
		WithNotificationID(notificationID))
	return err
}

func (s *NotificationsService) cascade(ctx context.Context, doomed model.Notification) error {
	_, err := s.dismissals.DeleteForNotification(ctx, doomed.ID)
	return err
}

func (s *NotificationsService) cascadeMany(ctx context.Context, doomed []model.Notification) error {
	_, err := s.dismissals.DeleteForNotifications(ctx, entityIDs(doomed))
	return err
}

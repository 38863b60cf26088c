package service

import (
	"testing"

	"rentalhub/internal/domain"
	"rentalhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	f := newFixture(t)
	notifications := f.admin.Notifications

	all, err := notifications.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, models.NotificationID(4), all[0].ID, "newest first")

	mine, err := notifications.GetByUserID(f.ctx, 2)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	unread, err := notifications.GetUnreadCount(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	read, err := notifications.MarkAsRead(f.ctx, 3)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err = notifications.GetUnreadCount(f.ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = notifications.MarkAsRead(f.ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	f := newFixture(t)
	notifications := f.admin.Notifications

	marked, err := notifications.MarkAllAsRead(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	marked, err = notifications.MarkAllAsRead(f.ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, marked)

	unread, err := notifications.GetUnreadCount(f.ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, unread, "other users are untouched")
}

func TestNotificationService_Create(t *testing.T) {
	f := newFixture(t)
	notifications := f.admin.Notifications

	created, err := notifications.Create(f.ctx, CreateNotificationInput{UserID: 1, Message: "Maintenance on Sunday"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSystem, created.Type)
	assert.False(t, created.IsRead)

	unread, err := notifications.GetUnreadCount(f.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	_, err = notifications.Create(f.ctx, CreateNotificationInput{UserID: 99, Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = notifications.Create(f.ctx, CreateNotificationInput{UserID: 1, Message: "hi", Type: "sms"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = notifications.Create(f.ctx, CreateNotificationInput{UserID: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

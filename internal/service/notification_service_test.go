package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/service"
)

type notificationFixture struct {
	svc  service.NotificationService
	repo *fakeNotificationRepo
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{repo: newFakeNotificationRepo()}
	f.svc = service.NewNotificationService(f.repo)
	return f
}

func (f *notificationFixture) seed(t *testing.T, userID string, typ domain.NotificationType) *domain.Notification {
	t.Helper()
	n, err := f.repo.Create(context.Background(), userID, typ, "title", "message", nil)
	require.NoError(t, err)
	return n
}

func TestGetNotification_OwnershipCheck(t *testing.T) {
	f := newNotificationFixture()
	n := f.seed(t, "user-1", domain.NotificationSystem)

	_, err := f.svc.Get(context.Background(), n.ID, "user-2")
	assert.ErrorIs(t, err, service.ErrNotNotificationOwner)

	got, err := f.svc.Get(context.Background(), n.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
}

func TestGetNotification_NotFound(t *testing.T) {
	f := newNotificationFixture()

	_, err := f.svc.Get(context.Background(), "missing", "user-1")
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)
}

func TestMarkRead_ByIDs(t *testing.T) {
	f := newNotificationFixture()
	a := f.seed(t, "user-1", domain.NotificationSystem)
	b := f.seed(t, "user-1", domain.NotificationPostLiked)
	other := f.seed(t, "user-2", domain.NotificationSystem)

	count, err := f.svc.MarkRead(context.Background(), "user-1", &domain.MarkReadRequest{
		IDs: []string{a.ID, other.ID},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, f.repo.items[a.ID].IsRead)
	assert.False(t, f.repo.items[b.ID].IsRead)
	// Another user's notification is untouched
	assert.False(t, f.repo.items[other.ID].IsRead)
}

func TestMarkRead_AllWhenNoIDsGiven(t *testing.T) {
	f := newNotificationFixture()
	f.seed(t, "user-1", domain.NotificationSystem)
	f.seed(t, "user-1", domain.NotificationPostLiked)

	count, err := f.svc.MarkRead(context.Background(), "user-1", &domain.MarkReadRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMarkUnread(t *testing.T) {
	f := newNotificationFixture()
	n := f.seed(t, "user-1", domain.NotificationSystem)
	n.IsRead = true

	require.NoError(t, f.svc.MarkUnread(context.Background(), n.ID, "user-1"))
	assert.False(t, n.IsRead)

	err := f.svc.MarkUnread(context.Background(), n.ID, "user-2")
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)
}

func TestDeleteNotification_OwnershipCheck(t *testing.T) {
	f := newNotificationFixture()
	n := f.seed(t, "user-1", domain.NotificationSystem)

	err := f.svc.Delete(context.Background(), n.ID, "user-2")
	assert.ErrorIs(t, err, service.ErrNotificationNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), n.ID, "user-1"))
	assert.Nil(t, f.repo.items[n.ID])
}

func TestClearAll_OnlyOwnNotifications(t *testing.T) {
	f := newNotificationFixture()
	f.seed(t, "user-1", domain.NotificationSystem)
	f.seed(t, "user-1", domain.NotificationPostLiked)
	other := f.seed(t, "user-2", domain.NotificationSystem)

	count, err := f.svc.ClearAll(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NotNil(t, f.repo.items[other.ID])
}

func TestNotificationStats(t *testing.T) {
	f := newNotificationFixture()
	read := f.seed(t, "user-1", domain.NotificationSystem)
	read.IsRead = true
	f.seed(t, "user-1", domain.NotificationPostLiked)
	f.seed(t, "user-1", domain.NotificationPostLiked)

	stats, err := f.svc.Stats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Unread)
	assert.Equal(t, 1, stats.Read)
	assert.Equal(t, 2, stats.ByType[string(domain.NotificationPostLiked)])

	unread, err := f.svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

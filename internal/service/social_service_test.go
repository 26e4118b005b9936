package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/events"
)

type socialFixture struct {
	svc           service.SocialService
	postRepo      *fakePostRepo
	userRepo      *fakeUserRepo
	notifications *fakeNotificationRepo
	bus           *fakeEventBus
}

func newSocialFixture() *socialFixture {
	f := &socialFixture{
		postRepo:      newFakePostRepo(),
		userRepo:      newFakeUserRepo(),
		notifications: newFakeNotificationRepo(),
		bus:           &fakeEventBus{},
	}
	f.svc = service.NewSocialService(f.postRepo, f.userRepo, f.notifications, f.bus)
	return f
}

func (f *socialFixture) seedPost(t *testing.T, userID string) *domain.Post {
	t.Helper()
	post, err := f.postRepo.Create(context.Background(), userID, &domain.CreatePostRequest{
		Title:   "Hidden beaches of Palawan",
		Content: "Rent a boat early, the lagoons are empty before nine.",
	})
	require.NoError(t, err)
	return post
}

func TestCreatePost_Validation(t *testing.T) {
	f := newSocialFixture()

	_, err := f.svc.CreatePost(context.Background(), "user-1", &domain.CreatePostRequest{Title: "No body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestToggleLike_NotifiesAuthor(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")

	result, err := f.svc.ToggleLike(context.Background(), post.ID, "user-2")

	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.Likes)
	assert.Contains(t, f.bus.published, events.PostLiked)

	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, "author-1", f.notifications.created[0].userID)
	assert.Equal(t, domain.NotificationPostLiked, f.notifications.created[0].typ)
}

func TestToggleLike_SelfLikeSkipsNotification(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")

	result, err := f.svc.ToggleLike(context.Background(), post.ID, "author-1")

	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Empty(t, f.notifications.created)
	assert.Contains(t, f.bus.published, events.PostLiked)
}

func TestToggleLike_UnlikeSkipsNotification(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")
	f.postRepo.likeResult = &domain.LikeResult{Liked: false, Likes: 0}

	result, err := f.svc.ToggleLike(context.Background(), post.ID, "user-2")

	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Empty(t, f.notifications.created)
}

func TestToggleLike_MissingPost(t *testing.T) {
	f := newSocialFixture()

	_, err := f.svc.ToggleLike(context.Background(), "missing", "user-2")
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestCreateComment_NotifiesAuthor(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")

	comment, err := f.svc.CreateComment(context.Background(), post.ID, "user-2", &domain.CreateCommentRequest{
		Content: "Adding this to my list, thanks!",
	})

	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Contains(t, f.bus.published, events.PostCommented)

	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, "author-1", f.notifications.created[0].userID)
	assert.Equal(t, domain.NotificationPostCommented, f.notifications.created[0].typ)
}

func TestCreateComment_SelfCommentSkipsNotification(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")

	_, err := f.svc.CreateComment(context.Background(), post.ID, "author-1", &domain.CreateCommentRequest{
		Content: "Forgot to mention the tide tables.",
	})

	require.NoError(t, err)
	assert.Empty(t, f.notifications.created)
}

func TestUpdatePost_OwnershipCheck(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")
	title := "Updated title"

	_, err := f.svc.UpdatePost(context.Background(), post.ID, "user-2", domain.RoleUser, &domain.UpdatePostRequest{Title: &title})
	assert.ErrorIs(t, err, service.ErrNotPostOwner)

	updated, err := f.svc.UpdatePost(context.Background(), post.ID, "user-2", domain.RoleAdmin, &domain.UpdatePostRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Updated title", updated.Title)
}

func TestDeletePost_OwnershipCheck(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")

	err := f.svc.DeletePost(context.Background(), post.ID, "user-2", domain.RoleUser)
	assert.ErrorIs(t, err, service.ErrNotPostOwner)

	require.NoError(t, f.svc.DeletePost(context.Background(), post.ID, "author-1", domain.RoleUser))
	assert.Nil(t, f.postRepo.posts[post.ID])
}

func TestDeleteComment_OwnershipCheck(t *testing.T) {
	f := newSocialFixture()
	post := f.seedPost(t, "author-1")
	comment, err := f.svc.CreateComment(context.Background(), post.ID, "user-2", &domain.CreateCommentRequest{
		Content: "Great write-up.",
	})
	require.NoError(t, err)

	err = f.svc.DeleteComment(context.Background(), comment.ID, "user-3", domain.RoleUser)
	assert.ErrorIs(t, err, service.ErrNotCommentOwner)

	require.NoError(t, f.svc.DeleteComment(context.Background(), comment.ID, "user-2", domain.RoleUser))
	assert.Nil(t, f.postRepo.comments[comment.ID])
}

func TestListComments_MissingPost(t *testing.T) {
	f := newSocialFixture()

	_, err := f.svc.ListComments(context.Background(), "missing", 1, 10)
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

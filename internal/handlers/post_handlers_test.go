package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/handlers"
	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/auth"
	"github.com/tripmate/tripmate-api/pkg/config"
)

// stubSocialService records the viewer each read resolved to.
type stubSocialService struct {
	viewer string
}

func (s *stubSocialService) CreatePost(context.Context, string, *domain.CreatePostRequest) (*domain.Post, error) {
	return &domain.Post{}, nil
}

func (s *stubSocialService) GetPost(_ context.Context, id, viewerID string) (*domain.Post, error) {
	s.viewer = viewerID
	return &domain.Post{ID: id}, nil
}

func (s *stubSocialService) ListPosts(_ context.Context, viewerID string, query *domain.PostQuery) (*domain.Page[domain.Post], error) {
	s.viewer = viewerID
	return domain.NewPage[domain.Post](nil, 0, query.Page, query.Limit), nil
}

func (s *stubSocialService) UpdatePost(context.Context, string, string, string, *domain.UpdatePostRequest) (*domain.Post, error) {
	return &domain.Post{}, nil
}

func (s *stubSocialService) DeletePost(context.Context, string, string, string) error { return nil }

func (s *stubSocialService) ToggleLike(context.Context, string, string) (*domain.LikeResult, error) {
	return &domain.LikeResult{}, nil
}

func (s *stubSocialService) CreateComment(context.Context, string, string, *domain.CreateCommentRequest) (*domain.Comment, error) {
	return &domain.Comment{}, nil
}

func (s *stubSocialService) ListComments(_ context.Context, _ string, page, limit int) (*domain.Page[domain.Comment], error) {
	return domain.NewPage[domain.Comment](nil, 0, page, limit), nil
}

func (s *stubSocialService) DeleteComment(context.Context, string, string, string) error { return nil }

var _ service.SocialService = (*stubSocialService)(nil)

type postEnv struct {
	server *httptest.Server
	stub   *stubSocialService
	cfg    *config.Config
}

func newPostEnv(t *testing.T) *postEnv {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "handler-test-access",
			AccessTokenTTL: 15 * time.Minute,
		},
	}
	stub := &stubSocialService{}
	h := handlers.New(nil, nil, nil, stub, nil, nil, nil, cfg)
	server := httptest.NewServer(h.Routes(nil))
	t.Cleanup(server.Close)

	return &postEnv{server: server, stub: stub, cfg: cfg}
}

func TestPostReads_PublicWithoutToken(t *testing.T) {
	env := newPostEnv(t)

	for _, path := range []string{
		"/api/posts/",
		"/api/posts/post-1",
		"/api/posts/post-1/comments",
		"/api/posts/user/user-1",
	} {
		resp, err := http.Get(env.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
	assert.Empty(t, env.stub.viewer)
}

func TestPostReads_TokenPersonalizesViewer(t *testing.T) {
	env := newPostEnv(t)

	token, err := auth.NewToken("user-1", "user-1@example.com", domain.RoleUser, env.cfg.Auth.JWTSecret, env.cfg.Auth.AccessTokenTTL)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/posts/post-1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", env.stub.viewer)
}

func TestPostWrites_RequireToken(t *testing.T) {
	env := newPostEnv(t)

	resp, err := http.Post(env.server.URL+"/api/posts/", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

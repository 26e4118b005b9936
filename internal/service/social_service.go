package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/repository"
	"github.com/tripmate/tripmate-api/pkg/events"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotPostOwner    = errors.New("post belongs to another user")
	ErrNotCommentOwner = errors.New("comment belongs to another user")
)

type SocialService interface {
	CreatePost(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error)
	GetPost(ctx context.Context, id, viewerID string) (*domain.Post, error)
	ListPosts(ctx context.Context, viewerID string, query *domain.PostQuery) (*domain.Page[domain.Post], error)
	UpdatePost(ctx context.Context, id, userID, role string, req *domain.UpdatePostRequest) (*domain.Post, error)
	DeletePost(ctx context.Context, id, userID, role string) error
	ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error)
	CreateComment(ctx context.Context, postID, userID string, req *domain.CreateCommentRequest) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string, page, limit int) (*domain.Page[domain.Comment], error)
	DeleteComment(ctx context.Context, id, userID, role string) error
}

type socialService struct {
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	eventBus         events.EventBus
}

func NewSocialService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	eventBus events.EventBus,
) SocialService {
	return &socialService{
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		eventBus:         eventBus,
	}
}

func (s *socialService) CreatePost(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	post, err := s.postRepo.Create(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

func (s *socialService) GetPost(ctx context.Context, id, viewerID string) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *socialService) ListPosts(ctx context.Context, viewerID string, query *domain.PostQuery) (*domain.Page[domain.Post], error) {
	posts, total, err := s.postRepo.List(ctx, viewerID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return domain.NewPage(posts, total, query.Page, query.Limit), nil
}

func (s *socialService) UpdatePost(ctx context.Context, id, userID, role string, req *domain.UpdatePostRequest) (*domain.Post, error) {
	current, err := s.postRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if current == nil {
		return nil, ErrPostNotFound
	}
	if current.UserID != userID && role != domain.RoleAdmin {
		return nil, ErrNotPostOwner
	}

	post, err := s.postRepo.Update(ctx, id, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *socialService) DeletePost(ctx context.Context, id, userID, role string) error {
	current, err := s.postRepo.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to find post: %w", err)
	}
	if current == nil {
		return ErrPostNotFound
	}
	if current.UserID != userID && role != domain.RoleAdmin {
		return ErrNotPostOwner
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (s *socialService) ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	result, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}
	if result == nil {
		return nil, ErrPostNotFound
	}

	// Liking your own post does not generate a notification
	if result.Liked && post.UserID != userID {
		liker := s.displayName(ctx, userID)
		if _, err := s.notificationRepo.Create(ctx, post.UserID, domain.NotificationPostLiked,
			"New like on your post",
			fmt.Sprintf("%s liked your post \"%s\".", liker, post.Title),
			map[string]any{"postId": post.ID, "likerId": userID},
		); err != nil {
			logger.WarnContext(ctx, "Failed to create like notification", "error", err, "post_id", post.ID)
		}
	}

	if err := s.eventBus.Publish(ctx, events.PostLiked, events.PostLikedEvent{
		PostID:   post.ID,
		AuthorID: post.UserID,
		LikerID:  userID,
		Likes:    result.Likes,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish post liked event", "error", err, "post_id", post.ID)
	}

	return result, nil
}

func (s *socialService) CreateComment(ctx context.Context, postID, userID string, req *domain.CreateCommentRequest) (*domain.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	comment, err := s.postRepo.CreateComment(ctx, postID, userID, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	// Commenting on your own post does not generate a notification
	if post.UserID != userID {
		commenter := s.displayName(ctx, userID)
		if _, err := s.notificationRepo.Create(ctx, post.UserID, domain.NotificationPostCommented,
			"New comment on your post",
			fmt.Sprintf("%s commented on your post \"%s\".", commenter, post.Title),
			map[string]any{"postId": post.ID, "commentId": comment.ID},
		); err != nil {
			logger.WarnContext(ctx, "Failed to create comment notification", "error", err, "post_id", post.ID)
		}
	}

	if err := s.eventBus.Publish(ctx, events.PostCommented, events.PostCommentedEvent{
		PostID:      post.ID,
		CommentID:   comment.ID,
		AuthorID:    post.UserID,
		CommenterID: userID,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish post commented event", "error", err, "post_id", post.ID)
	}

	return comment, nil
}

func (s *socialService) ListComments(ctx context.Context, postID string, page, limit int) (*domain.Page[domain.Comment], error) {
	post, err := s.postRepo.GetByID(ctx, postID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	comments, total, err := s.postRepo.ListComments(ctx, postID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return domain.NewPage(comments, total, page, limit), nil
}

func (s *socialService) DeleteComment(ctx context.Context, id, userID, role string) error {
	comment, err := s.postRepo.GetCommentByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if comment.UserID != userID && role != domain.RoleAdmin {
		return ErrNotCommentOwner
	}

	if err := s.postRepo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *socialService) displayName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		return "Someone"
	}
	return user.Name
}

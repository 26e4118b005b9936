package domain

import (
	"fmt"
	"strings"
	"time"
)

type Post struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	Likes        int       `json:"likes"`
	CommentCount int       `json:"commentCount"`
	LikedByMe    bool      `json:"likedByMe"`
	User         *UserInfo `json:"user,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	User      *UserInfo `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

func (r *CreatePostRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

func (r *CreateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

type PostQuery struct {
	Search    string
	UserID    string
	Page      int
	Limit     int
	SortBy    string // createdAt, likes
	SortOrder string
}

func (q *PostQuery) SortColumn() string {
	if q.SortBy == "likes" {
		return "likes"
	}
	return "created_at"
}

func (q *PostQuery) SortDirection() string {
	if strings.EqualFold(q.SortOrder, "asc") {
		return "ASC"
	}
	return "DESC"
}

type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

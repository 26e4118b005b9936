package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error)
	GetByID(ctx context.Context, id, viewerID string) (*domain.Post, error)
	List(ctx context.Context, viewerID string, query *domain.PostQuery) ([]domain.Post, int64, error)
	Update(ctx context.Context, id string, patch domain.UpdatePostRequest) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error)
	CreateComment(ctx context.Context, postID, userID, content string) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string, page, limit int) ([]domain.Comment, int64, error)
	DeleteComment(ctx context.Context, id string) error
}

type postRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

const postCols = `p.id, p.user_id, p.title, p.content, p.image_url, p.likes,
p.created_at, p.updated_at`

func (r *postRepository) Create(ctx context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	const q = `INSERT INTO posts AS p (id, user_id, title, content, image_url)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + postCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Post
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), userID, req.Title, req.Content, req.ImageURL).Scan(
		&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &p.Likes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID loads a post with its author, comment count and whether the
// viewer has liked it. viewerID may be empty for unauthenticated reads.
func (r *postRepository) GetByID(ctx context.Context, id, viewerID string) (*domain.Post, error) {
	const q = `SELECT ` + postCols + `,
		(SELECT count(*) FROM comments c WHERE c.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = $2),
		u.id, u.email, u.name, u.avatar, u.role, u.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id
	WHERE p.id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Post
	var u domain.UserInfo
	err := r.pool.QueryRow(ctx, q, id, viewerID).Scan(
		&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &p.Likes,
		&p.CreatedAt, &p.UpdatedAt,
		&p.CommentCount, &p.LikedByMe,
		&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.User = &u
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, viewerID string, query *domain.PostQuery) ([]domain.Post, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if query.Search != "" {
		p := next()
		where += ` AND (p.title ILIKE ` + p + ` OR p.content ILIKE ` + p + `)`
		args = append(args, "%"+query.Search+"%")
	}
	if query.UserID != "" {
		where += ` AND p.user_id = ` + next()
		args = append(args, query.UserID)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	viewer := next()
	args = append(args, viewerID)

	offset := (query.Page - 1) * query.Limit
	q := `SELECT ` + postCols + `,
		(SELECT count(*) FROM comments c WHERE c.post_id = p.id),
		EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id = ` + viewer + `),
		u.id, u.email, u.name, u.avatar, u.role, u.created_at
	FROM posts p
	JOIN users u ON u.id = p.user_id` + where +
		` ORDER BY p.` + query.SortColumn() + ` ` + query.SortDirection() +
		` LIMIT ` + next()
	args = append(args, query.Limit)
	q += ` OFFSET ` + next()
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		var u domain.UserInfo
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &p.Likes,
			&p.CreatedAt, &p.UpdatedAt,
			&p.CommentCount, &p.LikedByMe,
			&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		p.User = &u
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, id string, patch domain.UpdatePostRequest) (*domain.Post, error) {
	const q = `UPDATE posts AS p
		SET title = COALESCE($2, title),
		    content = COALESCE($3, content),
		    image_url = COALESCE($4, image_url),
		    updated_at = now()
		WHERE id=$1
		RETURNING ` + postCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Post
	err := r.pool.QueryRow(ctx, q, id, patch.Title, patch.Content, patch.ImageURL).Scan(
		&p.ID, &p.UserID, &p.Title, &p.Content, &p.ImageURL, &p.Likes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM posts WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// ToggleLike inserts or removes the like row and adjusts the counter in a
// single transaction, keeping count and rows in step.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2`, postID, userID)
	if err != nil {
		return nil, err
	}

	liked := result.RowsAffected() == 0
	var delta int
	if liked {
		_, err = tx.Exec(ctx,
			`INSERT INTO post_likes (id, post_id, user_id) VALUES ($1,$2,$3)`,
			uuid.NewString(), postID, userID)
		if err != nil {
			return nil, err
		}
		delta = 1
	} else {
		delta = -1
	}

	var likes int
	err = tx.QueryRow(ctx,
		`UPDATE posts SET likes = likes + $2, updated_at=now() WHERE id=$1 RETURNING likes`,
		postID, delta,
	).Scan(&likes)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &domain.LikeResult{Liked: liked, Likes: likes}, nil
}

const commentCols = `c.id, c.post_id, c.user_id, c.content, c.created_at`

func (r *postRepository) CreateComment(ctx context.Context, postID, userID, content string) (*domain.Comment, error) {
	const q = `INSERT INTO comments AS c (id, post_id, user_id, content)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + commentCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Comment
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), postID, userID, content).Scan(
		&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postRepository) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	const q = `SELECT ` + commentCols + ` FROM comments c WHERE c.id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Comment
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postRepository) ListComments(ctx context.Context, postID string, page, limit int) ([]domain.Comment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE post_id=$1`, postID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT ` + commentCols + `,
		u.id, u.email, u.name, u.avatar, u.role, u.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	WHERE c.post_id=$1
	ORDER BY c.created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, q, postID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		var u domain.UserInfo
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		c.User = &u
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

func (r *postRepository) DeleteComment(ctx context.Context, id string) error {
	const q = `DELETE FROM comments WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

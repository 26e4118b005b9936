package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/domain"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error)
	GetByUserAndToken(ctx context.Context, userID, token string) (*domain.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserAndToken(ctx context.Context, userID, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) RefreshTokenRepository {
	return &refreshTokenRepository{pool: pool}
}

const refreshTokenCols = `id, user_id, token, expires_at, created_at`

func (r *refreshTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	const q = `INSERT INTO refresh_tokens (id, user_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + refreshTokenCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.RefreshToken
	err := r.pool.QueryRow(ctx, q, uuid.NewString(), userID, token, expiresAt).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *refreshTokenRepository) GetByUserAndToken(ctx context.Context, userID, token string) (*domain.RefreshToken, error) {
	const q = `SELECT ` + refreshTokenCols + ` FROM refresh_tokens WHERE user_id=$1 AND token=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.RefreshToken
	err := r.pool.QueryRow(ctx, q, userID, token).Scan(
		&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *refreshTokenRepository) DeleteByID(ctx context.Context, id string) error {
	const q = `DELETE FROM refresh_tokens WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *refreshTokenRepository) DeleteByUserAndToken(ctx context.Context, userID, token string) error {
	const q = `DELETE FROM refresh_tokens WHERE user_id=$1 AND token=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, token)
	return err
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < now()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

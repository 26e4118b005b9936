package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/domain"
)

type UserRepository interface {
	CreateUnverified(ctx context.Context, email, name, passwordHash, otpHash string, otpExpiresAt time.Time) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	IncrementOTPAttempts(ctx context.Context, id string) (int, error)
	MarkVerified(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, patch domain.UpdateUserRequest) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, email, name, password_hash, avatar, role, is_verified,
otp_hash, otp_expires_at, otp_attempts, otp_last_sent,
created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Avatar, &u.Role, &u.IsVerified,
		&u.OTP, &u.OTPExpiresAt, &u.OTPAttempts, &u.OTPLastSent,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) CreateUnverified(ctx context.Context, email, name, passwordHash, otpHash string, otpExpiresAt time.Time) (*domain.User, error) {
	const q = `INSERT INTO users (
		id, email, name, password_hash, role, is_verified,
		otp_hash, otp_expires_at, otp_attempts, otp_last_sent
	) VALUES ($1,$2,$3,$4,'USER',false,$5,$6,0,now())
	RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, uuid.NewString(), email, name, passwordHash, otpHash, otpExpiresAt))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *userRepository) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	const q = `UPDATE users
		SET otp_hash=$2, otp_expires_at=$3, otp_attempts=0, otp_last_sent=now(), updated_at=now()
		WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, otpHash, expiresAt)
	return err
}

func (r *userRepository) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	const q = `UPDATE users SET otp_attempts = otp_attempts + 1, updated_at=now()
		WHERE id=$1 RETURNING otp_attempts`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var attempts int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	const q = `UPDATE users
		SET is_verified=true, otp_hash=NULL, otp_expires_at=NULL, otp_attempts=0, updated_at=now()
		WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, patch domain.UpdateUserRequest) (*domain.User, error) {
	const q = `UPDATE users
		SET name = COALESCE($2, name),
		    avatar = COALESCE($3, avatar),
		    updated_at = now()
		WHERE id=$1
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, q, id, patch.Name, patch.Avatar))
}

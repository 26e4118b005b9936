package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, userID string, typ domain.NotificationType, title, message string, data map[string]any) (*domain.Notification, error)
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, userID string, query *domain.NotificationQuery) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	MarkUnread(ctx context.Context, userID, id string) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	ClearAll(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Stats(ctx context.Context, userID string) (*domain.NotificationStats, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationCols = `id, user_id, type, title, message, data, is_read, created_at`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var data []byte
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, userID string, typ domain.NotificationType, title, message string, data map[string]any) (*domain.Notification, error) {
	const q = `INSERT INTO notifications (id, user_id, type, title, message, data)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING ` + notificationCols

	var payload []byte
	if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanNotification(r.pool.QueryRow(ctx, q, uuid.NewString(), userID, typ, title, message, payload))
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const q = `SELECT ` + notificationCols + ` FROM notifications WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanNotification(r.pool.QueryRow(ctx, q, id))
}

func (r *notificationRepository) List(ctx context.Context, userID string, query *domain.NotificationQuery) ([]domain.Notification, int64, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	n := 1

	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if query.Type != "" {
		where += ` AND type = ` + next()
		args = append(args, query.Type)
	}
	if query.IsRead != nil {
		where += ` AND is_read = ` + next()
		args = append(args, *query.IsRead)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	q := `SELECT ` + notificationCols + ` FROM notifications` + where +
		` ORDER BY created_at DESC LIMIT ` + next()
	args = append(args, query.Limit)
	q += ` OFFSET ` + next()
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		item, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *item)
	}
	return notifications, total, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	const q = `UPDATE notifications SET is_read=true WHERE user_id=$1 AND id = ANY($2) AND is_read=false`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const q = `UPDATE notifications SET is_read=true WHERE user_id=$1 AND is_read=false`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *notificationRepository) MarkUnread(ctx context.Context, userID, id string) (bool, error) {
	const q = `UPDATE notifications SET is_read=false WHERE id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	const q = `DELETE FROM notifications WHERE id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *notificationRepository) ClearAll(ctx context.Context, userID string) (int64, error) {
	const q = `DELETE FROM notifications WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const q = `SELECT count(*) FROM notifications WHERE user_id=$1 AND is_read=false`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) Stats(ctx context.Context, userID string) (*domain.NotificationStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stats domain.NotificationStats
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE is_read=false) FROM notifications WHERE user_id=$1`,
		userID,
	).Scan(&stats.Total, &stats.Unread)
	if err != nil {
		return nil, err
	}
	stats.Read = stats.Total - stats.Unread

	stats.ByType = map[string]int{}
	rows, err := r.pool.Query(ctx,
		`SELECT type, count(*) FROM notifications WHERE user_id=$1 GROUP BY type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		stats.ByType[typ] = count
	}
	return &stats, rows.Err()
}

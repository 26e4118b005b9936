package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripmate/tripmate-api/internal/domain"
)

var (
	ErrTourNotFound     = errors.New("tour not found")
	ErrTourStarted      = errors.New("tour already started")
	ErrTourFull         = errors.New("tour fully booked")
	ErrDuplicateBooking = errors.New("active booking for tour already exists")
	ErrAlreadyPaid      = errors.New("payment already confirmed")
)

type BookingRepository interface {
	Create(ctx context.Context, userID string, req *domain.CreateBookingRequest) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, userID string, query *domain.BookingQuery) ([]domain.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, paymentStatus *domain.PaymentStatus) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error)
	Statistics(ctx context.Context, userID string) (*domain.BookingStatistics, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `b.id, b.user_id, b.tour_id, b.booking_date, b.amount,
b.status, b.payment_status, b.special_requests, b.created_at, b.updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.TourID, &b.BookingDate, &b.Amount,
		&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking while holding a row lock on the tour, so
// concurrent requests against the last seat serialize and only one wins.
func (r *bookingRepository) Create(ctx context.Context, userID string, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var price float64
	var capacity int
	var startDate time.Time
	err = tx.QueryRow(ctx,
		`SELECT price, capacity, start_date FROM tours WHERE id=$1 FOR UPDATE`,
		req.TourID,
	).Scan(&price, &capacity, &startDate)
	if err == pgx.ErrNoRows {
		return nil, ErrTourNotFound
	}
	if err != nil {
		return nil, err
	}
	if !startDate.After(time.Now()) {
		return nil, ErrTourStarted
	}

	var existing int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE user_id=$1 AND tour_id=$2 AND status <> 'CANCELLED'`,
		userID, req.TourID,
	).Scan(&existing)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateBooking
	}

	var confirmed int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE tour_id=$1 AND status='CONFIRMED'`,
		req.TourID,
	).Scan(&confirmed)
	if err != nil {
		return nil, err
	}
	if confirmed >= capacity {
		return nil, ErrTourFull
	}

	const q = `INSERT INTO bookings AS b (
		id, user_id, tour_id, booking_date, amount,
		status, payment_status, special_requests
	) VALUES ($1,$2,$3,now(),$4,'PENDING','PENDING',$5)
	RETURNING ` + bookingCols

	b, err := scanBooking(tx.QueryRow(ctx, q, uuid.NewString(), userID, req.TourID, price, req.SpecialRequests))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + `,
		t.id, t.title, t.description, t.location, t.price,
		t.start_date, t.end_date, t.capacity, t.image_url, t.category, t.guide_id,
		t.created_at, t.updated_at,
		u.id, u.email, u.name, u.avatar, u.role, u.created_at
	FROM bookings b
	JOIN tours t ON t.id = b.tour_id
	JOIN users u ON u.id = b.user_id
	WHERE b.id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var b domain.Booking
	var t domain.Tour
	var u domain.UserInfo
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.TourID, &b.BookingDate, &b.Amount,
		&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
		&t.ID, &t.Title, &t.Description, &t.Location, &t.Price,
		&t.StartDate, &t.EndDate, &t.Capacity, &t.ImageURL, &t.Category, &t.GuideID,
		&t.CreatedAt, &t.UpdatedAt,
		&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Tour = &t
	b.User = &u
	return &b, nil
}

// List returns bookings matching the query; an empty userID lists across
// all users.
func (r *bookingRepository) List(ctx context.Context, userID string, query *domain.BookingQuery) ([]domain.Booking, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if userID != "" {
		where += ` AND b.user_id = ` + next()
		args = append(args, userID)
	}
	if query.Status != nil {
		where += ` AND b.status = ` + next()
		args = append(args, *query.Status)
	}
	if query.PaymentStatus != nil {
		where += ` AND b.payment_status = ` + next()
		args = append(args, *query.PaymentStatus)
	}
	if query.FromDate != nil {
		where += ` AND b.booking_date >= ` + next()
		args = append(args, *query.FromDate)
	}
	if query.ToDate != nil {
		where += ` AND b.booking_date <= ` + next()
		args = append(args, *query.ToDate)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	q := `SELECT ` + bookingCols + `,
		t.id, t.title, t.description, t.location, t.price,
		t.start_date, t.end_date, t.capacity, t.image_url, t.category, t.guide_id,
		t.created_at, t.updated_at
	FROM bookings b
	JOIN tours t ON t.id = b.tour_id` + where +
		` ORDER BY b.created_at DESC LIMIT ` + next()
	args = append(args, query.Limit)
	q += ` OFFSET ` + next()
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		var t domain.Tour
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.TourID, &b.BookingDate, &b.Amount,
			&b.Status, &b.PaymentStatus, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
			&t.ID, &t.Title, &t.Description, &t.Location, &t.Price,
			&t.StartDate, &t.EndDate, &t.Capacity, &t.ImageURL, &t.Category, &t.GuideID,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		b.Tour = &t
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, paymentStatus *domain.PaymentStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings AS b
		SET status=$2, payment_status=COALESCE($3, payment_status), updated_at=now()
		WHERE id=$1
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q, id, status, paymentStatus))
}

// ConfirmPayment marks a booking paid and confirmed. It re-checks tour
// capacity under the same row lock used by Create, so a pending booking is
// never confirmed into a seat another booking already took.
func (r *bookingRepository) ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var tourID string
	var paymentStatus domain.PaymentStatus
	err = tx.QueryRow(ctx,
		`SELECT tour_id, payment_status FROM bookings WHERE id=$1 FOR UPDATE`,
		id,
	).Scan(&tourID, &paymentStatus)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if paymentStatus == domain.PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	var capacity int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM tours WHERE id=$1 FOR UPDATE`, tourID,
	).Scan(&capacity)
	if err != nil {
		return nil, err
	}

	var confirmed int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE tour_id=$1 AND status='CONFIRMED' AND id <> $2`,
		tourID, id,
	).Scan(&confirmed)
	if err != nil {
		return nil, err
	}
	if confirmed >= capacity {
		return nil, ErrTourFull
	}

	const q = `UPDATE bookings AS b
		SET status='CONFIRMED', payment_status='PAID', updated_at=now()
		WHERE id=$1
		RETURNING ` + bookingCols

	b, err := scanBooking(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Statistics aggregates all bookings, or a single user's when userID is set.
func (r *bookingRepository) Statistics(ctx context.Context, userID string) (*domain.BookingStatistics, error) {
	q := `SELECT
		count(*),
		count(*) FILTER (WHERE status='CONFIRMED'),
		count(*) FILTER (WHERE status='PENDING'),
		count(*) FILTER (WHERE status='CANCELLED'),
		COALESCE(sum(amount) FILTER (WHERE payment_status='PAID'), 0),
		count(*) FILTER (WHERE payment_status='PENDING'),
		count(*) FILTER (WHERE payment_status='PAID')
	FROM bookings`

	args := []any{}
	if userID != "" {
		q += ` WHERE user_id=$1`
		args = append(args, userID)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stats domain.BookingStatistics
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&stats.TotalBookings, &stats.ConfirmedBookings, &stats.PendingBookings,
		&stats.CancelledBookings, &stats.TotalRevenue,
		&stats.PendingPayments, &stats.CompletedPayments,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

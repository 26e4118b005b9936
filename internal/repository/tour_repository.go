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

type TourRepository interface {
	Create(ctx context.Context, guideID *string, req *domain.CreateTourRequest) (*domain.Tour, error)
	GetByID(ctx context.Context, id string) (*domain.Tour, error)
	List(ctx context.Context, query *domain.TourQuery) ([]domain.Tour, int64, error)
	Update(ctx context.Context, id string, patch domain.UpdateTourRequest) (*domain.Tour, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
	Suggestions(ctx context.Context, prefix string, limit int) (*domain.SearchSuggestions, error)
	Statistics(ctx context.Context) (*domain.TourStatistics, error)
	CountConfirmed(ctx context.Context, tourID string) (int, error)
	CountActiveBookings(ctx context.Context, tourID string) (int, error)
}

type tourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) TourRepository {
	return &tourRepository{pool: pool}
}

const tourCols = `t.id, t.title, t.description, t.location, t.price,
t.start_date, t.end_date, t.capacity, t.image_url, t.category, t.guide_id,
t.created_at, t.updated_at`

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Location, &t.Price,
		&t.StartDate, &t.EndDate, &t.Capacity, &t.ImageURL, &t.Category, &t.GuideID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tourRepository) Create(ctx context.Context, guideID *string, req *domain.CreateTourRequest) (*domain.Tour, error) {
	const q = `INSERT INTO tours AS t (
		id, title, description, location, price,
		start_date, end_date, capacity, image_url, category, guide_id
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTour(r.pool.QueryRow(ctx, q,
		uuid.NewString(), req.Title, req.Description, req.Location, req.Price,
		req.StartDate, req.EndDate, req.Capacity, req.ImageURL, req.Category, guideID,
	))
}

func (r *tourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	const q = `SELECT ` + tourCols + ` FROM tours t WHERE t.id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTour(r.pool.QueryRow(ctx, q, id))
}

func (r *tourRepository) List(ctx context.Context, query *domain.TourQuery) ([]domain.Tour, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if query.Search != "" {
		p := next()
		where += ` AND (t.title ILIKE ` + p + ` OR t.description ILIKE ` + p + ` OR t.location ILIKE ` + p + `)`
		args = append(args, "%"+query.Search+"%")
	}
	if query.Category != "" {
		where += ` AND t.category = ` + next()
		args = append(args, query.Category)
	}
	if query.Location != "" {
		where += ` AND t.location ILIKE ` + next()
		args = append(args, "%"+query.Location+"%")
	}
	if query.MinPrice != nil {
		where += ` AND t.price >= ` + next()
		args = append(args, *query.MinPrice)
	}
	if query.MaxPrice != nil {
		where += ` AND t.price <= ` + next()
		args = append(args, *query.MaxPrice)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tours t`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	q := `SELECT ` + tourCols + ` FROM tours t` + where +
		` ORDER BY t.` + query.SortColumn() + ` ` + query.SortDirection() +
		` LIMIT ` + next()
	args = append(args, query.Limit)
	q += ` OFFSET ` + next()
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tours []domain.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, err
		}
		tours = append(tours, *t)
	}
	return tours, total, rows.Err()
}

func (r *tourRepository) Update(ctx context.Context, id string, patch domain.UpdateTourRequest) (*domain.Tour, error) {
	const q = `UPDATE tours AS t
		SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			location    = COALESCE($4, location),
			price       = COALESCE($5, price),
			start_date  = COALESCE($6, start_date),
			end_date    = COALESCE($7, end_date),
			capacity    = COALESCE($8, capacity),
			image_url   = COALESCE($9, image_url),
			category    = COALESCE($10, category),
			updated_at  = now()
		WHERE id=$1
		RETURNING ` + tourCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanTour(r.pool.QueryRow(ctx, q, id,
		patch.Title, patch.Description, patch.Location, patch.Price,
		patch.StartDate, patch.EndDate, patch.Capacity, patch.ImageURL, patch.Category,
	))
}

func (r *tourRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM tours WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *tourRepository) Categories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT category FROM tours ORDER BY category`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *tourRepository) Suggestions(ctx context.Context, prefix string, limit int) (*domain.SearchSuggestions, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pattern := prefix + "%"
	s := &domain.SearchSuggestions{Locations: []string{}, Titles: []string{}}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT location FROM tours WHERE location ILIKE $1 ORDER BY location LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		s.Locations = append(s.Locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT DISTINCT title FROM tours WHERE title ILIKE $1 ORDER BY title LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		s.Titles = append(s.Titles, title)
	}
	return s, rows.Err()
}

func (r *tourRepository) Statistics(ctx context.Context) (*domain.TourStatistics, error) {
	const q = `SELECT
		count(*),
		count(DISTINCT category),
		COALESCE(avg(price), 0),
		count(*) FILTER (WHERE start_date > now()),
		count(*) FILTER (WHERE start_date <= now() AND end_date >= now()),
		count(*) FILTER (WHERE end_date < now())
	FROM tours`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stats domain.TourStatistics
	err := r.pool.QueryRow(ctx, q).Scan(
		&stats.TotalTours, &stats.TotalCategories, &stats.AveragePrice,
		&stats.UpcomingTours, &stats.OngoingTours, &stats.CompletedTours,
	)
	if err != nil {
		return nil, err
	}

	stats.ToursByCategory = map[string]int{}
	rows, err := r.pool.Query(ctx, `SELECT category, count(*) FROM tours GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ToursByCategory[category] = count
	}
	return &stats, rows.Err()
}

func (r *tourRepository) CountConfirmed(ctx context.Context, tourID string) (int, error) {
	const q = `SELECT count(*) FROM bookings WHERE tour_id=$1 AND status='CONFIRMED'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, q, tourID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *tourRepository) CountActiveBookings(ctx context.Context, tourID string) (int, error) {
	const q = `SELECT count(*) FROM bookings WHERE tour_id=$1 AND status IN ('PENDING','CONFIRMED')`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	if err := r.pool.QueryRow(ctx, q, tourID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

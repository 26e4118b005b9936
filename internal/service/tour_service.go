package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/repository"
)

var (
	ErrTourNotFound       = errors.New("tour not found")
	ErrTourHasBookings    = errors.New("tour has active bookings and cannot be deleted")
	ErrNotTourOwner       = errors.New("only the tour guide or an admin can modify this tour")
	ErrSuggestionTooShort = errors.New("search query must be at least 2 characters")
)

const suggestionLimit = 5

type TourAvailability struct {
	TourID    string `json:"tourId"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

type TourService interface {
	Create(ctx context.Context, userID, role string, req *domain.CreateTourRequest) (*domain.Tour, error)
	Get(ctx context.Context, id string) (*domain.Tour, error)
	List(ctx context.Context, query *domain.TourQuery) (*domain.Page[domain.Tour], error)
	Update(ctx context.Context, id, userID, role string, req *domain.UpdateTourRequest) (*domain.Tour, error)
	Delete(ctx context.Context, id, userID, role string) error
	Categories(ctx context.Context) ([]string, error)
	Suggestions(ctx context.Context, q string) (*domain.SearchSuggestions, error)
	Statistics(ctx context.Context) (*domain.TourStatistics, error)
	Availability(ctx context.Context, id string) (*TourAvailability, error)
}

type tourService struct {
	tourRepo repository.TourRepository
}

func NewTourService(tourRepo repository.TourRepository) TourService {
	return &tourService{tourRepo: tourRepo}
}

func (s *tourService) Create(ctx context.Context, userID, role string, req *domain.CreateTourRequest) (*domain.Tour, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Guides own the tours they create, admin tours have no guide
	var guideID *string
	if role == domain.RoleGuide {
		guideID = &userID
	}

	tour, err := s.tourRepo.Create(ctx, guideID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	return tour, nil
}

func (s *tourService) Get(ctx context.Context, id string) (*domain.Tour, error) {
	tour, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	if tour == nil {
		return nil, ErrTourNotFound
	}
	return tour, nil
}

func (s *tourService) List(ctx context.Context, query *domain.TourQuery) (*domain.Page[domain.Tour], error) {
	tours, total, err := s.tourRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	return domain.NewPage(tours, total, query.Page, query.Limit), nil
}

func (s *tourService) Update(ctx context.Context, id, userID, role string, req *domain.UpdateTourRequest) (*domain.Tour, error) {
	current, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	if current == nil {
		return nil, ErrTourNotFound
	}
	if err := s.authorize(current, userID, role); err != nil {
		return nil, err
	}
	if err := req.Validate(current); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tour, err := s.tourRepo.Update(ctx, id, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	if tour == nil {
		return nil, ErrTourNotFound
	}
	return tour, nil
}

func (s *tourService) Delete(ctx context.Context, id, userID, role string) error {
	current, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find tour: %w", err)
	}
	if current == nil {
		return ErrTourNotFound
	}
	if err := s.authorize(current, userID, role); err != nil {
		return err
	}

	active, err := s.tourRepo.CountActiveBookings(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count bookings: %w", err)
	}
	if active > 0 {
		return ErrTourHasBookings
	}

	if err := s.tourRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	return nil
}

func (s *tourService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.tourRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *tourService) Suggestions(ctx context.Context, q string) (*domain.SearchSuggestions, error) {
	q = strings.TrimSpace(q)
	if len(q) < 2 {
		return nil, ErrSuggestionTooShort
	}
	suggestions, err := s.tourRepo.Suggestions(ctx, q, suggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", err)
	}
	return suggestions, nil
}

func (s *tourService) Statistics(ctx context.Context) (*domain.TourStatistics, error) {
	stats, err := s.tourRepo.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour statistics: %w", err)
	}
	return stats, nil
}

func (s *tourService) Availability(ctx context.Context, id string) (*TourAvailability, error) {
	tour, err := s.tourRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}
	if tour == nil {
		return nil, ErrTourNotFound
	}

	booked, err := s.tourRepo.CountConfirmed(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	available := tour.Capacity - booked
	if available < 0 {
		available = 0
	}
	return &TourAvailability{
		TourID:    tour.ID,
		Capacity:  tour.Capacity,
		Booked:    booked,
		Available: available,
	}, nil
}

func (s *tourService) authorize(tour *domain.Tour, userID, role string) error {
	if role == domain.RoleAdmin {
		return nil
	}
	if role == domain.RoleGuide && tour.GuideID != nil && *tour.GuideID == userID {
		return nil
	}
	return ErrNotTourOwner
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/payments"
	"github.com/tripmate/tripmate-api/internal/repository"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/events"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrNotBookingOwner    = errors.New("booking belongs to another user")
	ErrTourFullyBooked    = errors.New("tour is fully booked")
	ErrDuplicateBooking   = errors.New("you already have an active booking for this tour")
	ErrTourAlreadyStarted = errors.New("tour has already started")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrBookingCompleted   = errors.New("completed bookings cannot be cancelled")
	ErrPaymentConfirmed   = errors.New("payment already confirmed")
	ErrBookingNotPayable  = errors.New("booking is not awaiting payment")
)

type BookingService interface {
	Create(ctx context.Context, userID string, req *domain.CreateBookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, id, userID, role string) (*domain.Booking, error)
	List(ctx context.Context, query *domain.BookingQuery) (*domain.Page[domain.Booking], error)
	ListMine(ctx context.Context, userID string, query *domain.BookingQuery) (*domain.Page[domain.Booking], error)
	UpdateStatus(ctx context.Context, id, userID, role string, req *domain.UpdateBookingStatusRequest) (*domain.Booking, error)
	Cancel(ctx context.Context, id, userID, role string) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error)
	CreatePaymentIntent(ctx context.Context, id, userID string) (*payments.Intent, error)
	Statistics(ctx context.Context, userID, role string) (*domain.BookingStatistics, error)
}

type bookingService struct {
	bookingRepo      repository.BookingRepository
	tourRepo         repository.TourRepository
	notificationRepo repository.NotificationRepository
	provider         payments.Provider
	eventBus         events.EventBus
	config           *config.Config
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	tourRepo repository.TourRepository,
	notificationRepo repository.NotificationRepository,
	provider payments.Provider,
	eventBus events.EventBus,
	config *config.Config,
) BookingService {
	return &bookingService{
		bookingRepo:      bookingRepo,
		tourRepo:         tourRepo,
		notificationRepo: notificationRepo,
		provider:         provider,
		eventBus:         eventBus,
		config:           config,
	}
}

func (s *bookingService) Create(ctx context.Context, userID string, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	booking, err := s.bookingRepo.Create(ctx, userID, req)
	switch {
	case errors.Is(err, repository.ErrTourNotFound):
		return nil, ErrTourNotFound
	case errors.Is(err, repository.ErrTourStarted):
		return nil, ErrTourAlreadyStarted
	case errors.Is(err, repository.ErrTourFull):
		return nil, ErrTourFullyBooked
	case errors.Is(err, repository.ErrDuplicateBooking):
		return nil, ErrDuplicateBooking
	case err != nil:
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	tour, err := s.tourRepo.GetByID(ctx, booking.TourID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load tour for booking", "error", err, "booking_id", booking.ID)
	} else {
		booking.Tour = tour
	}

	var title string
	if tour != nil {
		title = tour.Title
	}

	s.createNotification(ctx, booking.UserID, domain.NotificationBookingConfirmed,
		"Booking Created",
		fmt.Sprintf("Your booking for %s has been created and is awaiting payment.", title),
		map[string]any{"bookingId": booking.ID, "tourId": booking.TourID})

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: booking.ID,
		TourID:    booking.TourID,
		UserID:    booking.UserID,
		TourTitle: title,
		Amount:    booking.Amount,
		CreatedAt: booking.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id, userID, role string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != userID && role != domain.RoleAdmin {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, query *domain.BookingQuery) (*domain.Page[domain.Booking], error) {
	bookings, total, err := s.bookingRepo.List(ctx, "", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return domain.NewPage(bookings, total, query.Page, query.Limit), nil
}

func (s *bookingService) ListMine(ctx context.Context, userID string, query *domain.BookingQuery) (*domain.Page[domain.Booking], error) {
	bookings, total, err := s.bookingRepo.List(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return domain.NewPage(bookings, total, query.Page, query.Limit), nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id, userID, role string, req *domain.UpdateBookingStatusRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	current, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	if current == nil {
		return nil, ErrBookingNotFound
	}
	if current.UserID != userID && role != domain.RoleAdmin {
		return nil, ErrNotBookingOwner
	}
	// Owners may only cancel; everything else is an admin action.
	if role != domain.RoleAdmin && (req.Status != domain.BookingCancelled || req.PaymentStatus != nil) {
		return nil, ErrNotBookingOwner
	}

	paymentStatus := req.PaymentStatus
	if req.Status == domain.BookingCancelled {
		if current.Status == domain.BookingCancelled {
			return nil, ErrAlreadyCancelled
		}
		if current.Status == domain.BookingCompleted {
			return nil, ErrBookingCompleted
		}
		if current.Tour != nil && !current.Tour.StartDate.After(time.Now()) {
			return nil, ErrTourAlreadyStarted
		}
		if paymentStatus == nil {
			// Paid bookings are refunded on cancellation
			ps := current.PaymentStatus
			if ps == domain.PaymentPaid {
				ps = domain.PaymentRefunded
			}
			paymentStatus = &ps
		}
	}

	booking, err := s.bookingRepo.UpdateStatus(ctx, id, req.Status, paymentStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	booking.Tour = current.Tour
	booking.User = current.User

	if booking.Status != current.Status {
		s.notifyStatusChange(ctx, booking)
	}

	if booking.Status == domain.BookingCancelled && current.Status != domain.BookingCancelled {
		if err := s.eventBus.Publish(ctx, events.BookingCanceled, events.BookingCanceledEvent{
			BookingID:  booking.ID,
			TourID:     booking.TourID,
			UserID:     booking.UserID,
			CanceledAt: time.Now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", booking.ID)
		}
	}

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, id, userID, role string) (*domain.Booking, error) {
	return s.UpdateStatus(ctx, id, userID, role, &domain.UpdateBookingStatusRequest{
		Status: domain.BookingCancelled,
	})
}

func (s *bookingService) ConfirmPayment(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.ConfirmPayment(ctx, id)
	switch {
	case errors.Is(err, repository.ErrAlreadyPaid):
		return nil, ErrPaymentConfirmed
	case errors.Is(err, repository.ErrTourFull):
		return nil, ErrTourFullyBooked
	case err != nil:
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	case booking == nil:
		return nil, ErrBookingNotFound
	}

	s.createNotification(ctx, booking.UserID, domain.NotificationPaymentSuccess,
		"Payment received",
		fmt.Sprintf("Your payment of %.2f was received and your booking is confirmed.", booking.Amount),
		map[string]any{"bookingId": booking.ID, "tourId": booking.TourID})
	s.notifyStatusChange(ctx, booking)

	if err := s.eventBus.Publish(ctx, events.PaymentConfirmed, events.PaymentConfirmedEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		Amount:      booking.Amount,
		ConfirmedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment confirmed event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, id, userID string) (*payments.Intent, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if booking.Status == domain.BookingCancelled || booking.PaymentStatus != domain.PaymentPending {
		return nil, ErrBookingNotPayable
	}

	intent, err := s.provider.CreateIntent(booking.ID, booking.Amount, s.config.Stripe.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

// Statistics aggregates the caller's own bookings; admins see the whole table.
func (s *bookingService) Statistics(ctx context.Context, userID, role string) (*domain.BookingStatistics, error) {
	if role == domain.RoleAdmin {
		userID = ""
	}
	stats, err := s.bookingRepo.Statistics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking statistics: %w", err)
	}
	return stats, nil
}

func (s *bookingService) notifyStatusChange(ctx context.Context, booking *domain.Booking) {
	data := map[string]any{"bookingId": booking.ID, "tourId": booking.TourID}

	switch booking.Status {
	case domain.BookingConfirmed:
		s.createNotification(ctx, booking.UserID, domain.NotificationBookingConfirmed,
			"Booking confirmed", "Your booking has been confirmed. Get ready for your trip!", data)
	case domain.BookingCancelled:
		s.createNotification(ctx, booking.UserID, domain.NotificationBookingCancelled,
			"Booking cancelled", "Your booking has been cancelled.", data)
	}
}

func (s *bookingService) createNotification(ctx context.Context, userID string, typ domain.NotificationType, title, message string, data map[string]any) {
	if _, err := s.notificationRepo.Create(ctx, userID, typ, title, message, data); err != nil {
		logger.WarnContext(ctx, "Failed to create notification", "error", err, "user_id", userID, "type", typ)
	}
}

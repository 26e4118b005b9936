package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/repository"
	"github.com/tripmate/tripmate-api/internal/service"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/events"
)

type bookingFixture struct {
	svc           service.BookingService
	bookingRepo   *fakeBookingRepo
	tourRepo      *fakeTourRepo
	notifications *fakeNotificationRepo
	provider      *fakeProvider
	bus           *fakeEventBus
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookingRepo:   newFakeBookingRepo(),
		tourRepo:      newFakeTourRepo(),
		notifications: newFakeNotificationRepo(),
		provider:      &fakeProvider{},
		bus:           &fakeEventBus{},
	}
	cfg := testConfig()
	cfg.Stripe = config.StripeConfig{Currency: "usd"}
	f.svc = service.NewBookingService(f.bookingRepo, f.tourRepo, f.notifications, f.provider, f.bus, cfg)
	return f
}

func (f *bookingFixture) seedTour(t *testing.T) *domain.Tour {
	t.Helper()
	tour, err := f.tourRepo.Create(context.Background(), nil, &domain.CreateTourRequest{
		Title:     "Fjord Kayaking",
		Location:  "Norway",
		Price:     199,
		StartDate: time.Now().Add(72 * time.Hour),
		EndDate:   time.Now().Add(96 * time.Hour),
		Capacity:  8,
		Category:  "Adventure",
	})
	require.NoError(t, err)
	return tour
}

func (f *bookingFixture) seedBooking(t *testing.T, userID, tourID string) *domain.Booking {
	t.Helper()
	b, err := f.bookingRepo.Create(context.Background(), userID, &domain.CreateBookingRequest{TourID: tourID})
	require.NoError(t, err)
	return b
}

func TestCreateBooking_PublishesEvent(t *testing.T) {
	f := newBookingFixture()
	tour := f.seedTour(t)

	booking, err := f.svc.Create(context.Background(), "user-1", &domain.CreateBookingRequest{TourID: tour.ID})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, booking.Status)
	assert.Equal(t, domain.PaymentPending, booking.PaymentStatus)
	require.NotNil(t, booking.Tour)
	assert.Equal(t, "Fjord Kayaking", booking.Tour.Title)
	assert.Contains(t, f.bus.published, events.BookingCreated)
}

func TestCreateBooking_NotifiesBooker(t *testing.T) {
	f := newBookingFixture()
	tour := f.seedTour(t)

	_, err := f.svc.Create(context.Background(), "user-1", &domain.CreateBookingRequest{TourID: tour.ID})

	require.NoError(t, err)
	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, "user-1", f.notifications.created[0].userID)
	assert.Equal(t, domain.NotificationBookingConfirmed, f.notifications.created[0].typ)
}

func TestCreateBooking_MapsRepositoryErrors(t *testing.T) {
	cases := []struct {
		repoErr error
		want    error
	}{
		{repository.ErrTourNotFound, service.ErrTourNotFound},
		{repository.ErrTourStarted, service.ErrTourAlreadyStarted},
		{repository.ErrTourFull, service.ErrTourFullyBooked},
		{repository.ErrDuplicateBooking, service.ErrDuplicateBooking},
	}
	for _, tc := range cases {
		f := newBookingFixture()
		f.bookingRepo.createErr = tc.repoErr

		_, err := f.svc.Create(context.Background(), "user-1", &domain.CreateBookingRequest{TourID: "tour-1"})
		assert.ErrorIs(t, err, tc.want)
	}
}

func TestCreateBooking_RequiresTourID(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.Create(context.Background(), "user-1", &domain.CreateBookingRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestGetBooking_OwnershipCheck(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")

	_, err := f.svc.Get(context.Background(), b.ID, "user-2", domain.RoleUser)
	assert.ErrorIs(t, err, service.ErrNotBookingOwner)

	got, err := f.svc.Get(context.Background(), b.ID, "user-2", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestCancelBooking_RefundsPaid(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")
	b.PaymentStatus = domain.PaymentPaid
	b.Status = domain.BookingConfirmed

	cancelled, err := f.svc.Cancel(context.Background(), b.ID, "user-1", domain.RoleUser)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, domain.PaymentRefunded, cancelled.PaymentStatus)
	assert.Contains(t, f.bus.published, events.BookingCanceled)

	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, domain.NotificationBookingCancelled, f.notifications.created[0].typ)
}

func TestCancelBooking_Rules(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")

		_, err := f.svc.Cancel(context.Background(), b.ID, "user-2", domain.RoleUser)
		assert.ErrorIs(t, err, service.ErrNotBookingOwner)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")
		b.Status = domain.BookingCancelled

		_, err := f.svc.Cancel(context.Background(), b.ID, "user-1", domain.RoleUser)
		assert.ErrorIs(t, err, service.ErrAlreadyCancelled)
	})

	t.Run("tour already started", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")
		b.Tour = &domain.Tour{ID: "tour-1", StartDate: time.Now().Add(-time.Hour)}

		_, err := f.svc.Cancel(context.Background(), b.ID, "user-1", domain.RoleUser)
		assert.ErrorIs(t, err, service.ErrTourAlreadyStarted)
	})

	t.Run("not found", func(t *testing.T) {
		f := newBookingFixture()

		_, err := f.svc.Cancel(context.Background(), "missing", "user-1", domain.RoleUser)
		assert.ErrorIs(t, err, service.ErrBookingNotFound)
	})
}

func TestConfirmPayment_NotifiesAndPublishes(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")

	confirmed, err := f.svc.ConfirmPayment(context.Background(), b.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
	assert.Equal(t, domain.PaymentPaid, confirmed.PaymentStatus)
	assert.Contains(t, f.bus.published, events.PaymentConfirmed)

	require.Len(t, f.notifications.created, 2)
	assert.Equal(t, domain.NotificationPaymentSuccess, f.notifications.created[0].typ)
	assert.Equal(t, domain.NotificationBookingConfirmed, f.notifications.created[1].typ)
}

func TestConfirmPayment_MapsRepositoryErrors(t *testing.T) {
	f := newBookingFixture()
	f.bookingRepo.confirmErr = repository.ErrAlreadyPaid

	_, err := f.svc.ConfirmPayment(context.Background(), "booking-1")
	assert.ErrorIs(t, err, service.ErrPaymentConfirmed)

	f.bookingRepo.confirmErr = repository.ErrTourFull
	_, err = f.svc.ConfirmPayment(context.Background(), "booking-1")
	assert.ErrorIs(t, err, service.ErrTourFullyBooked)
}

func TestCreatePaymentIntent(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")
	b.Amount = 199

	intent, err := f.svc.CreatePaymentIntent(context.Background(), b.ID, "user-1")

	require.NoError(t, err)
	assert.Equal(t, "pi_"+b.ID, intent.ID)
	assert.Equal(t, "secret_"+b.ID, intent.ClientSecret)
	assert.Equal(t, 199.0, intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
}

func TestCreatePaymentIntent_Rules(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")

		_, err := f.svc.CreatePaymentIntent(context.Background(), b.ID, "user-2")
		assert.ErrorIs(t, err, service.ErrNotBookingOwner)
	})

	t.Run("already paid", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")
		b.PaymentStatus = domain.PaymentPaid

		_, err := f.svc.CreatePaymentIntent(context.Background(), b.ID, "user-1")
		assert.ErrorIs(t, err, service.ErrBookingNotPayable)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")
		b.Status = domain.BookingCancelled

		_, err := f.svc.CreatePaymentIntent(context.Background(), b.ID, "user-1")
		assert.ErrorIs(t, err, service.ErrBookingNotPayable)
	})
}

func TestUpdateBookingStatus_NotifiesOnChange(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")

	updated, err := f.svc.UpdateStatus(context.Background(), b.ID, "admin-1", domain.RoleAdmin, &domain.UpdateBookingStatusRequest{
		Status: domain.BookingConfirmed,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, updated.Status)
	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, domain.NotificationBookingConfirmed, f.notifications.created[0].typ)
}

func TestUpdateBookingStatus_SameStatusSkipsNotification(t *testing.T) {
	f := newBookingFixture()
	b := f.seedBooking(t, "user-1", "tour-1")

	_, err := f.svc.UpdateStatus(context.Background(), b.ID, "admin-1", domain.RoleAdmin, &domain.UpdateBookingStatusRequest{
		Status: domain.BookingPending,
	})

	require.NoError(t, err)
	assert.Empty(t, f.notifications.created)
}

func TestUpdateBookingStatus_RejectsUnknownStatus(t *testing.T) {
	f := newBookingFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "booking-1", "admin-1", domain.RoleAdmin, &domain.UpdateBookingStatusRequest{
		Status: "SHIPPED",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestUpdateBookingStatus_OwnerPermissions(t *testing.T) {
	t.Run("owner can cancel their booking", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")

		updated, err := f.svc.UpdateStatus(context.Background(), b.ID, "user-1", domain.RoleUser, &domain.UpdateBookingStatusRequest{
			Status: domain.BookingCancelled,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, updated.Status)
	})

	t.Run("owner cannot confirm their booking", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")

		_, err := f.svc.UpdateStatus(context.Background(), b.ID, "user-1", domain.RoleUser, &domain.UpdateBookingStatusRequest{
			Status: domain.BookingConfirmed,
		})
		assert.ErrorIs(t, err, service.ErrNotBookingOwner)
	})

	t.Run("other user cannot touch the booking", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")

		_, err := f.svc.UpdateStatus(context.Background(), b.ID, "user-2", domain.RoleUser, &domain.UpdateBookingStatusRequest{
			Status: domain.BookingCancelled,
		})
		assert.ErrorIs(t, err, service.ErrNotBookingOwner)
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		f := newBookingFixture()
		b := f.seedBooking(t, "user-1", "tour-1")
		b.Status = domain.BookingCompleted

		_, err := f.svc.UpdateStatus(context.Background(), b.ID, "admin-1", domain.RoleAdmin, &domain.UpdateBookingStatusRequest{
			Status: domain.BookingCancelled,
		})
		assert.ErrorIs(t, err, service.ErrBookingCompleted)
	})
}

func TestBookingStatistics_ScopedToCaller(t *testing.T) {
	f := newBookingFixture()
	mine := f.seedBooking(t, "user-1", "tour-1")
	mine.PaymentStatus = domain.PaymentPaid
	f.seedBooking(t, "user-2", "tour-2")

	stats, err := f.svc.Statistics(context.Background(), "user-1", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBookings)
	assert.Equal(t, mine.Amount, stats.TotalRevenue)

	all, err := f.svc.Statistics(context.Background(), "admin-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalBookings)
}

func TestListMine_FiltersByUser(t *testing.T) {
	f := newBookingFixture()
	f.seedBooking(t, "user-1", "tour-1")
	f.seedBooking(t, "user-2", "tour-2")

	page, err := f.svc.ListMine(context.Background(), "user-1", &domain.BookingQuery{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "user-1", page.Data[0].UserID)
}

package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

var validBookingStatuses = map[BookingStatus]bool{
	BookingPending:   true,
	BookingConfirmed: true,
	BookingCancelled: true,
	BookingCompleted: true,
}

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentPending:  true,
	PaymentPaid:     true,
	PaymentRefunded: true,
}

type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	TourID          string        `json:"tourId"`
	BookingDate     time.Time     `json:"bookingDate"`
	Amount          float64       `json:"amount"`
	Status          BookingStatus `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	SpecialRequests *string       `json:"specialRequests,omitempty"`
	Tour            *Tour         `json:"tour,omitempty"`
	User            *UserInfo     `json:"user,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type CreateBookingRequest struct {
	TourID          string  `json:"tourId"`
	SpecialRequests *string `json:"specialRequests,omitempty"`
}

func (r *CreateBookingRequest) Validate() error {
	if r.TourID == "" {
		return fmt.Errorf("tourId is required")
	}
	return nil
}

type UpdateBookingStatusRequest struct {
	Status        BookingStatus  `json:"status"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
}

func (r *UpdateBookingStatusRequest) Validate() error {
	if !validBookingStatuses[r.Status] {
		return fmt.Errorf("invalid booking status: %s", r.Status)
	}
	if r.PaymentStatus != nil && !validPaymentStatuses[*r.PaymentStatus] {
		return fmt.Errorf("invalid payment status: %s", *r.PaymentStatus)
	}
	return nil
}

type BookingQuery struct {
	Status        *BookingStatus
	PaymentStatus *PaymentStatus
	FromDate      *time.Time
	ToDate        *time.Time
	Page          int
	Limit         int
}

type BookingStatistics struct {
	TotalBookings     int     `json:"totalBookings"`
	ConfirmedBookings int     `json:"confirmedBookings"`
	PendingBookings   int     `json:"pendingBookings"`
	CancelledBookings int     `json:"cancelledBookings"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PendingPayments   int     `json:"pendingPayments"`
	CompletedPayments int     `json:"completedPayments"`
}

package domain

import "time"

type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationPaymentSuccess   NotificationType = "PAYMENT_SUCCESS"
	NotificationPostLiked        NotificationType = "POST_LIKED"
	NotificationPostCommented    NotificationType = "POST_COMMENTED"
	NotificationSystem           NotificationType = "SYSTEM"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      map[string]any   `json:"data,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

type NotificationQuery struct {
	Type   NotificationType
	IsRead *bool
	Page   int
	Limit  int
}

type MarkReadRequest struct {
	IDs []string `json:"ids,omitempty"`
	All bool     `json:"all,omitempty"`
}

type NotificationStats struct {
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
	Read   int            `json:"read"`
	ByType map[string]int `json:"byType"`
}

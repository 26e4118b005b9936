package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tripmate/tripmate-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	UserRegistered = "user.registered"
	UserVerified   = "user.verified"

	BookingCreated   = "booking.created"
	BookingCanceled  = "booking.canceled"
	PaymentConfirmed = "payment.confirmed"

	PostLiked     = "post.liked"
	PostCommented = "post.commented"
)

// Event payloads
type UserRegisteredEvent struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	SentAt time.Time `json:"sent_at"`
}

type UserVerifiedEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type BookingCreatedEvent struct {
	BookingID string    `json:"booking_id"`
	TourID    string    `json:"tour_id"`
	UserID    string    `json:"user_id"`
	TourTitle string    `json:"tour_title"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingCanceledEvent struct {
	BookingID  string    `json:"booking_id"`
	TourID     string    `json:"tour_id"`
	UserID     string    `json:"user_id"`
	CanceledAt time.Time `json:"canceled_at"`
}

type PaymentConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type PostLikedEvent struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	LikerID  string `json:"liker_id"`
	Likes    int    `json:"likes"`
}

type PostCommentedEvent struct {
	PostID      string `json:"post_id"`
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	CommenterID string `json:"commenter_id"`
}

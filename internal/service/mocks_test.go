package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/payments"
	"github.com/tripmate/tripmate-api/pkg/events"
)

// ---------- Mocks ----------

type fakeUserRepo struct {
	users   map[string]*domain.User
	deleted []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) CreateUnverified(_ context.Context, email, name, passwordHash, otpHash string, otpExpiresAt time.Time) (*domain.User, error) {
	now := time.Now()
	sent := now
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		OTP:          &otpHash,
		OTPExpiresAt: &otpExpiresAt,
		OTPLastSent:  &sent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserRepo) SetOTP(_ context.Context, id, otpHash string, expiresAt time.Time) error {
	u := f.users[id]
	now := time.Now()
	u.OTP = &otpHash
	u.OTPExpiresAt = &expiresAt
	u.OTPAttempts = 0
	u.OTPLastSent = &now
	return nil
}

func (f *fakeUserRepo) IncrementOTPAttempts(_ context.Context, id string) (int, error) {
	u := f.users[id]
	u.OTPAttempts++
	return u.OTPAttempts, nil
}

func (f *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
	u := f.users[id]
	u.IsVerified = true
	u.OTP = nil
	u.OTPExpiresAt = nil
	u.OTPAttempts = 0
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id string, patch domain.UpdateUserRequest) (*domain.User, error) {
	u := f.users[id]
	if u == nil {
		return nil, nil
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = patch.Avatar
	}
	return u, nil
}

type fakeTokenRepo struct {
	tokens map[string]*domain.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (f *fakeTokenRepo) Create(_ context.Context, userID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	t := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.tokens[t.ID] = t
	return t, nil
}

func (f *fakeTokenRepo) GetByUserAndToken(_ context.Context, userID, token string) (*domain.RefreshToken, error) {
	for _, t := range f.tokens {
		if t.UserID == userID && t.Token == token {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenRepo) DeleteByID(_ context.Context, id string) error {
	delete(f.tokens, id)
	return nil
}

func (f *fakeTokenRepo) DeleteByUserAndToken(_ context.Context, userID, token string) error {
	for id, t := range f.tokens {
		if t.UserID == userID && t.Token == token {
			delete(f.tokens, id)
		}
	}
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

type sentMail struct {
	to   string
	otp  string
	kind string
}

// fakeMailer is safe for concurrent sends; the welcome email goes out on a
// separate goroutine.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (f *fakeMailer) SendOTPEmail(toEmail, toName, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to: toEmail, otp: otp, kind: "otp"})
	return nil
}

func (f *fakeMailer) SendWelcomeEmail(toEmail, toName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: toEmail, kind: "welcome"})
	return nil
}

func (f *fakeMailer) lastOTP() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == "otp" {
			return f.sent[i].otp
		}
	}
	return ""
}

func (f *fakeMailer) otpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.sent {
		if m.kind == "otp" {
			count++
		}
	}
	return count
}

type fakeEventBus struct {
	published []string
}

func (f *fakeEventBus) Publish(_ context.Context, subject string, _ interface{}) error {
	f.published = append(f.published, subject)
	return nil
}

func (f *fakeEventBus) Subscribe(string, func(*events.Message)) error           { return nil }
func (f *fakeEventBus) QueueSubscribe(string, string, func(*events.Message)) error { return nil }
func (f *fakeEventBus) Close() error                                            { return nil }

type createdNotification struct {
	userID string
	typ    domain.NotificationType
}

type fakeNotificationRepo struct {
	items   map[string]*domain.Notification
	created []createdNotification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]*domain.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, userID string, typ domain.NotificationType, title, message string, data map[string]any) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}
	f.items[n.ID] = n
	f.created = append(f.created, createdNotification{userID: userID, typ: typ})
	return n, nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	return f.items[id], nil
}

func (f *fakeNotificationRepo) List(_ context.Context, userID string, query *domain.NotificationQuery) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	for _, n := range f.items {
		if n.UserID != userID {
			continue
		}
		if query.Type != "" && n.Type != query.Type {
			continue
		}
		if query.IsRead != nil && n.IsRead != *query.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	var count int64
	for _, id := range ids {
		if n := f.items[id]; n != nil && n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkUnread(_ context.Context, userID, id string) (bool, error) {
	if n := f.items[id]; n != nil && n.UserID == userID {
		n.IsRead = false
		return true, nil
	}
	return false, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	if n := f.items[id]; n != nil && n.UserID == userID {
		delete(f.items, id)
		return true, nil
	}
	return false, nil
}

func (f *fakeNotificationRepo) ClearAll(_ context.Context, userID string) (int64, error) {
	var count int64
	for id, n := range f.items {
		if n.UserID == userID {
			delete(f.items, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) Stats(_ context.Context, userID string) (*domain.NotificationStats, error) {
	stats := &domain.NotificationStats{ByType: map[string]int{}}
	for _, n := range f.items {
		if n.UserID != userID {
			continue
		}
		stats.Total++
		if n.IsRead {
			stats.Read++
		} else {
			stats.Unread++
		}
		stats.ByType[string(n.Type)]++
	}
	return stats, nil
}

type fakeTourRepo struct {
	tours          map[string]*domain.Tour
	confirmedCount map[string]int
	activeCount    map[string]int
	deleted        []string
}

func newFakeTourRepo() *fakeTourRepo {
	return &fakeTourRepo{
		tours:          make(map[string]*domain.Tour),
		confirmedCount: make(map[string]int),
		activeCount:    make(map[string]int),
	}
}

func (f *fakeTourRepo) Create(_ context.Context, guideID *string, req *domain.CreateTourRequest) (*domain.Tour, error) {
	t := &domain.Tour{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		GuideID:     guideID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.tours[t.ID] = t
	return t, nil
}

func (f *fakeTourRepo) GetByID(_ context.Context, id string) (*domain.Tour, error) {
	return f.tours[id], nil
}

func (f *fakeTourRepo) List(_ context.Context, query *domain.TourQuery) ([]domain.Tour, int64, error) {
	var out []domain.Tour
	for _, t := range f.tours {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTourRepo) Update(_ context.Context, id string, patch domain.UpdateTourRequest) (*domain.Tour, error) {
	t := f.tours[id]
	if t == nil {
		return nil, nil
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Price != nil {
		t.Price = *patch.Price
	}
	if patch.StartDate != nil {
		t.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		t.EndDate = *patch.EndDate
	}
	if patch.Capacity != nil {
		t.Capacity = *patch.Capacity
	}
	return t, nil
}

func (f *fakeTourRepo) Delete(_ context.Context, id string) error {
	delete(f.tours, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTourRepo) Categories(context.Context) ([]string, error) {
	return []string{"Adventure", "Beach"}, nil
}

func (f *fakeTourRepo) Suggestions(_ context.Context, prefix string, limit int) (*domain.SearchSuggestions, error) {
	return &domain.SearchSuggestions{Locations: []string{}, Titles: []string{}}, nil
}

func (f *fakeTourRepo) Statistics(context.Context) (*domain.TourStatistics, error) {
	return &domain.TourStatistics{TotalTours: len(f.tours)}, nil
}

func (f *fakeTourRepo) CountConfirmed(_ context.Context, tourID string) (int, error) {
	return f.confirmedCount[tourID], nil
}

func (f *fakeTourRepo) CountActiveBookings(_ context.Context, tourID string) (int, error) {
	return f.activeCount[tourID], nil
}

type fakeBookingRepo struct {
	bookings   map[string]*domain.Booking
	createErr  error
	confirmErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*domain.Booking)}
}

func (f *fakeBookingRepo) Create(_ context.Context, userID string, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	b := &domain.Booking{
		ID:              uuid.NewString(),
		UserID:          userID,
		TourID:          req.TourID,
		BookingDate:     time.Now(),
		Status:          domain.BookingPending,
		PaymentStatus:   domain.PaymentPending,
		SpecialRequests: req.SpecialRequests,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	b := f.bookings[id]
	if b == nil {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) List(_ context.Context, userID string, query *domain.BookingQuery) ([]domain.Booking, int64, error) {
	var out []domain.Booking
	for _, b := range f.bookings {
		if userID != "" && b.UserID != userID {
			continue
		}
		if query.Status != nil && b.Status != *query.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id string, status domain.BookingStatus, paymentStatus *domain.PaymentStatus) (*domain.Booking, error) {
	b := f.bookings[id]
	if b == nil {
		return nil, nil
	}
	b.Status = status
	if paymentStatus != nil {
		b.PaymentStatus = *paymentStatus
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) ConfirmPayment(_ context.Context, id string) (*domain.Booking, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	b := f.bookings[id]
	if b == nil {
		return nil, nil
	}
	b.Status = domain.BookingConfirmed
	b.PaymentStatus = domain.PaymentPaid
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) Statistics(_ context.Context, userID string) (*domain.BookingStatistics, error) {
	stats := &domain.BookingStatistics{}
	for _, b := range f.bookings {
		if userID != "" && b.UserID != userID {
			continue
		}
		stats.TotalBookings++
		if b.PaymentStatus == domain.PaymentPaid {
			stats.TotalRevenue += b.Amount
		}
	}
	return stats, nil
}

type fakePostRepo struct {
	posts      map[string]*domain.Post
	comments   map[string]*domain.Comment
	likeResult *domain.LikeResult
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:    make(map[string]*domain.Post),
		comments: make(map[string]*domain.Comment),
	}
}

func (f *fakePostRepo) Create(_ context.Context, userID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	p := &domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakePostRepo) GetByID(_ context.Context, id, _ string) (*domain.Post, error) {
	return f.posts[id], nil
}

func (f *fakePostRepo) List(_ context.Context, _ string, query *domain.PostQuery) ([]domain.Post, int64, error) {
	var out []domain.Post
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePostRepo) Update(_ context.Context, id string, patch domain.UpdatePostRequest) (*domain.Post, error) {
	p := f.posts[id]
	if p == nil {
		return nil, nil
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	return p, nil
}

func (f *fakePostRepo) Delete(_ context.Context, id string) error {
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) ToggleLike(_ context.Context, postID, userID string) (*domain.LikeResult, error) {
	if f.likeResult != nil {
		return f.likeResult, nil
	}
	p := f.posts[postID]
	if p == nil {
		return nil, nil
	}
	p.Likes++
	return &domain.LikeResult{Liked: true, Likes: p.Likes}, nil
}

func (f *fakePostRepo) CreateComment(_ context.Context, postID, userID, content string) (*domain.Comment, error) {
	c := &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.comments[c.ID] = c
	return c, nil
}

func (f *fakePostRepo) GetCommentByID(_ context.Context, id string) (*domain.Comment, error) {
	return f.comments[id], nil
}

func (f *fakePostRepo) ListComments(_ context.Context, postID string, page, limit int) ([]domain.Comment, int64, error) {
	var out []domain.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePostRepo) DeleteComment(_ context.Context, id string) error {
	delete(f.comments, id)
	return nil
}

type fakeProvider struct {
	intents []string
}

func (f *fakeProvider) CreateIntent(bookingID string, amount float64, currency string) (*payments.Intent, error) {
	f.intents = append(f.intents, bookingID)
	return &payments.Intent{
		ID:           "pi_" + bookingID,
		ClientSecret: "secret_" + bookingID,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	return &payments.WebhookEvent{}, nil
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/tripmate/tripmate-api/internal/domain"
	"github.com/tripmate/tripmate-api/internal/mailer"
	"github.com/tripmate/tripmate-api/internal/repository"
	"github.com/tripmate/tripmate-api/pkg/auth"
	"github.com/tripmate/tripmate-api/pkg/config"
	"github.com/tripmate/tripmate-api/pkg/events"
	"github.com/tripmate/tripmate-api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyVerified     = errors.New("email is already verified")
	ErrOTPExpired          = errors.New("verification code has expired, please request a new one")
	ErrTooManyOTPAttempts  = errors.New("too many failed attempts, please request a new code")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// EmailNotVerifiedError carries the user id so the client can jump straight
// to the verification step.
type EmailNotVerifiedError struct {
	UserID string
}

func (e *EmailNotVerifiedError) Error() string {
	return "email not verified"
}

// OTPMismatchError reports how many attempts remain before the code locks.
type OTPMismatchError struct {
	AttemptsLeft int
}

func (e *OTPMismatchError) Error() string {
	return fmt.Sprintf("invalid verification code, %d attempts remaining", e.AttemptsLeft)
}

// ResendCooldownError reports how long the client must wait before the next
// code can be issued.
type ResendCooldownError struct {
	RetryAfter time.Duration
}

func (e *ResendCooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", int(e.RetryAfter.Seconds()))
}

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error)
	VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.AuthResponse, error)
	ResendOTP(ctx context.Context, req *domain.ResendOTPRequest) (*domain.RegisterResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	mailer    mailer.Service
	eventBus  events.EventBus
	config    *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	mailer mailer.Service,
	eventBus events.EventBus,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		eventBus:  eventBus,
		config:    config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, ErrEmailTaken
		}
		// An unverified account with this email is abandoned, replace it
		if err := s.userRepo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to replace unverified user: %w", err)
		}
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	otp, otpHash, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	user, err := s.userRepo.CreateUnverified(ctx, req.Email, req.Name, passwordHash, otpHash,
		time.Now().Add(s.config.Auth.OTPTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.mailer.SendOTPEmail(user.Email, user.Name, otp); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		// Without the code the account is unusable, roll it back
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back user after email failure", "error", delErr, "user_id", user.ID)
		}
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
		SentAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user registered event", "error", err, "user_id", user.ID)
	}

	return &domain.RegisterResponse{
		Message:   "Registration successful. Please check your email for the verification code.",
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresIn: fmt.Sprintf("%d minutes", int(s.config.Auth.OTPTTL.Minutes())),
	}, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *domain.VerifyOTPRequest) (*domain.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}
	if user.OTP == nil || user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if user.OTPAttempts >= s.config.Auth.OTPMaxAttempts {
		return nil, ErrTooManyOTPAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(*user.OTP), []byte(req.OTP)) != nil {
		attempts, err := s.userRepo.IncrementOTPAttempts(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to record attempt: %w", err)
		}
		left := s.config.Auth.OTPMaxAttempts - attempts
		if left <= 0 {
			return nil, ErrTooManyOTPAttempts
		}
		return nil, &OTPMismatchError{AttemptsLeft: left}
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}
	user.IsVerified = true

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Welcome email is best effort, never blocks verification
	go func(email, name string) {
		if err := s.mailer.SendWelcomeEmail(email, name); err != nil {
			logger.Error("Failed to send welcome email", "error", err, "email", email)
		}
	}(user.Email, user.Name)

	if err := s.eventBus.Publish(ctx, events.UserVerified, events.UserVerifiedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish user verified event", "error", err, "user_id", user.ID)
	}

	return resp, nil
}

func (s *authService) ResendOTP(ctx context.Context, req *domain.ResendOTPRequest) (*domain.RegisterResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("validation failed: userId is required")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	if user.OTPLastSent != nil {
		elapsed := time.Since(*user.OTPLastSent)
		if elapsed < s.config.Auth.OTPResendCooldown {
			return nil, &ResendCooldownError{RetryAfter: s.config.Auth.OTPResendCooldown - elapsed}
		}
	}

	otp, otpHash, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.userRepo.SetOTP(ctx, user.ID, otpHash, time.Now().Add(s.config.Auth.OTPTTL)); err != nil {
		return nil, fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mailer.SendOTPEmail(user.Email, user.Name, otp); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	return &domain.RegisterResponse{
		Message:   "A new verification code has been sent to your email.",
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresIn: fmt.Sprintf("%d minutes", int(s.config.Auth.OTPTTL.Minutes())),
	}, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		// Reissue the code when the previous one has lapsed, so the client
		// can go straight to the verify step
		if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
			otp, otpHash, genErr := generateOTP()
			if genErr == nil {
				genErr = s.userRepo.SetOTP(ctx, user.ID, otpHash, time.Now().Add(s.config.Auth.OTPTTL))
			}
			if genErr == nil {
				genErr = s.mailer.SendOTPEmail(user.Email, user.Name, otp)
			}
			if genErr != nil {
				logger.ErrorContext(ctx, "Failed to reissue verification code", "error", genErr, "user_id", user.ID)
			}
		}
		return nil, &EmailNotVerifiedError{UserID: user.ID}
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	claims, err := auth.Parse(refreshToken, s.config.Auth.JWTRefreshSecret)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.tokenRepo.GetByUserAndToken(ctx, claims.Sub, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}
	if time.Now().After(stored.ExpiresAt) {
		if err := s.tokenRepo.DeleteByID(ctx, stored.ID); err != nil {
			logger.WarnContext(ctx, "Failed to delete expired refresh token", "error", err, "token_id", stored.ID)
		}
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	// Rotation: the presented token is single use
	if err := s.tokenRepo.DeleteByID(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID, refreshToken string) error {
	if err := s.tokenRepo.DeleteByUserAndToken(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepo.UpdateProfile(ctx, id, *req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResponse, error) {
	accessToken, err := auth.NewToken(user.ID, user.Email, user.Role,
		s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := auth.NewToken(user.ID, user.Email, user.Role,
		s.config.Auth.JWTRefreshSecret, s.config.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if _, err := s.tokenRepo.Create(ctx, user.ID, refreshToken,
		time.Now().Add(s.config.Auth.RefreshTokenTTL)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &domain.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToUserInfo(),
	}, nil
}

// generateOTP returns a 6 digit code and its bcrypt hash.
func generateOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	otp := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return otp, string(hash), nil
}

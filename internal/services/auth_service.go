package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"event-tickets/internal/auth"
	"event-tickets/internal/logger"
	"event-tickets/internal/models"
)

// ErrInvalidChallenge is returned for an unknown, expired or already used login nonce
var ErrInvalidChallenge = errors.New("login challenge is invalid or expired")

// AuthService handles authentication business logic
type AuthService struct {
	db     *gorm.DB
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new AuthService. prefix starts every login
// message and ttl bounds how long an issued challenge can be signed.
func NewAuthService(db *gorm.DB, prefix string, ttl time.Duration) *AuthService {
	return &AuthService{
		db:     db,
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IssueChallenge stores a fresh nonce for walletAddress and returns the
// challenge whose Message the wallet must sign.
func (s *AuthService) IssueChallenge(ctx context.Context, walletAddress string) (*models.LoginChallenge, error) {
	now := s.now()
	nonce := uuid.New()
	expiresAt := now.Add(s.ttl)

	challenge := models.LoginChallenge{
		Nonce:         nonce,
		WalletAddress: walletAddress,
		Message: fmt.Sprintf("%s\n\nWallet: %s\nNonce: %s\nExpires: %s",
			s.prefix, walletAddress, nonce, expiresAt.Format(time.RFC3339)),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	db := s.db.WithContext(ctx)
	if err := db.Where("expires_at < ?", now).Delete(&models.LoginChallenge{}).Error; err != nil {
		return nil, fmt.Errorf("failed to purge challenges: %w", err)
	}
	if err := db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return &challenge, nil
}

// Login checks signature against the challenge issued as nonce, consumes
// the challenge and returns the wallet's user. A challenge logs in at most once.
func (s *AuthService) Login(ctx context.Context, walletAddress string, nonce uuid.UUID, signature string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var challenge models.LoginChallenge
	err := db.Where("nonce = ? AND wallet_address = ?", nonce, walletAddress).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if !s.now().Before(challenge.ExpiresAt) {
		return nil, ErrInvalidChallenge
	}

	if err := auth.VerifyWalletSignature(walletAddress, challenge.Message, signature); err != nil {
		return nil, err
	}

	// a concurrent login with the same nonce deletes nothing
	res := db.Where("nonce = ?", nonce).Delete(&models.LoginChallenge{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, ErrInvalidChallenge
	}

	return s.ProcessWalletLogin(ctx, walletAddress)
}

// ProcessWalletLogin finds or creates a user by wallet address
func (s *AuthService) ProcessWalletLogin(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	now := s.now()

	err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{WalletAddress: walletAddress, LastLoginAt: now}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		logger.WithContext(ctx).Info("New user created", "wallet_address", walletAddress, "user_id", user.ID)
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	default:
		if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
			return nil, fmt.Errorf("failed to update login time: %w", err)
		}
		logger.WithContext(ctx).Info("User logged in", "wallet_address", walletAddress, "user_id", user.ID)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/crypto"
	"github.com/panelkit/panelkit/pkg/metrics"
)

// Session errors returned by SessionService operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrSessionExpired  = errors.New("session expired")
)

// DefaultRefreshTokenTTL defines the fallback validity period for refresh tokens.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

const refreshTokenLength = 48

// SessionMetadata captures request details recorded alongside a session.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair bundles the credentials returned to a freshly authenticated client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionConfig bundles the configuration required to build a SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	Clock           func() time.Time
}

// SessionService manages the lifecycle of authenticated sessions. Only one
// session per user is kept alive: issuing a new session revokes every
// other session belonging to that user.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	now        func() time.Time
}

// NewSessionService constructs a SessionService backed by the given database.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session: database handle is required")
	}
	if jwtService == nil {
		return nil, errors.New("session: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		now:        now,
	}, nil
}

// CreateSession revokes any existing sessions for the user and issues a new
// token pair bound to a fresh session record.
func (s *SessionService) CreateSession(ctx context.Context, userID uint, meta SessionMetadata) (*TokenPair, *models.Session, error) {
	if userID == 0 {
		return nil, nil, errors.New("session: user id is required")
	}

	if err := s.RevokeUserSessions(ctx, userID); err != nil {
		return nil, nil, err
	}

	refreshToken, err := crypto.GenerateToken(refreshTokenLength)
	if err != nil {
		return nil, nil, fmt.Errorf("session: generate refresh token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, nil, fmt.Errorf("session: create: %w", err)
	}
	metrics.ActiveSessions.Inc()

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: userID, SessionID: session.ID})
	if err != nil {
		return nil, nil, err
	}

	pair := &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    session.ExpiresAt,
	}
	return pair, session, nil
}

// RefreshSession exchanges a refresh token for a new token pair. The
// presented session must still be live; the exchange rotates both tokens
// and revokes the old session.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string, meta SessionMetadata) (*TokenPair, *models.Session, error) {
	if refreshToken == "" {
		return nil, nil, ErrSessionNotFound
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("session: lookup: %w", err)
	}

	if session.RevokedAt != nil {
		return nil, nil, ErrSessionRevoked
	}
	if s.now().After(session.ExpiresAt) {
		return nil, nil, ErrSessionExpired
	}

	return s.CreateSession(ctx, session.UserID, meta)
}

// ValidateSession confirms a session is live. Used by the authentication
// middleware so that revocation takes effect before the access token expires.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: lookup: %w", err)
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionRevoked
	}
	if s.now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// TouchSession records the last time a session was used.
func (s *SessionService) TouchSession(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("last_used_at", s.now()).Error
}

// RevokeSession marks a single session as revoked.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session: revoke: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	metrics.ActiveSessions.Dec()
	return nil
}

// RevokeUserSessions revokes every live session belonging to a user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID uint) error {
	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session: revoke user sessions: %w", result.Error)
	}
	metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	return nil
}

// CleanupExpired deletes sessions that are expired or were revoked before the
// given retention window. Returns the number of rows removed.
func (s *SessionService) CleanupExpired(ctx context.Context, revokedRetention time.Duration) (int64, error) {
	now := s.now()
	cutoff := now.Add(-revokedRetention)

	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", now, cutoff).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}

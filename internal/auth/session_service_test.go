package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
)

func newTestSessionService(t *testing.T, db *gorm.DB) *SessionService {
	t.Helper()
	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "panelkit-test"})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, SessionConfig{RefreshTokenTTL: time.Hour})
	require.NoError(t, err)
	return svc
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: "Test User", Email: email, Password: "irrelevant"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateSessionIssuesTokenPair(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestSessionService(t, db)
	user := createTestUser(t, db, "sessions@example.com")

	pair, session, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{IPAddress: "10.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.NotNil(t, session)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "10.0.0.1", session.IPAddress)
	assert.Nil(t, session.RevokedAt)
}

func TestCreateSessionRevokesPreviousSessions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestSessionService(t, db)
	user := createTestUser(t, db, "single@example.com")

	_, first, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	_, second, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	_, err = svc.ValidateSession(context.Background(), first.ID)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	live, err := svc.ValidateSession(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, live.ID)
}

func TestRefreshSessionRotatesTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestSessionService(t, db)
	user := createTestUser(t, db, "refresh@example.com")

	pair, session, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	newPair, newSession, err := svc.RefreshSession(context.Background(), pair.RefreshToken, SessionMetadata{})
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	assert.NotEqual(t, session.ID, newSession.ID)

	_, err = svc.ValidateSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	_, _, err = svc.RefreshSession(context.Background(), pair.RefreshToken, SessionMetadata{})
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRefreshSessionUnknownToken(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestSessionService(t, db)

	_, _, err := svc.RefreshSession(context.Background(), "no-such-token", SessionMetadata{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefreshSessionExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	current := time.Now()
	svc, err := NewSessionService(db, jwtSvc, SessionConfig{
		RefreshTokenTTL: time.Minute,
		Clock:           func() time.Time { return current },
	})
	require.NoError(t, err)

	user := createTestUser(t, db, "expired@example.com")
	pair, _, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, _, err = svc.RefreshSession(context.Background(), pair.RefreshToken, SessionMetadata{})
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeSession(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newTestSessionService(t, db)
	user := createTestUser(t, db, "revoke@example.com")

	_, session, err := svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(context.Background(), session.ID))

	_, err = svc.ValidateSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	err = svc.RevokeSession(context.Background(), session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCleanupExpiredRemovesStaleSessions(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	current := time.Now()
	svc, err := NewSessionService(db, jwtSvc, SessionConfig{
		RefreshTokenTTL: time.Minute,
		Clock:           func() time.Time { return current },
	})
	require.NoError(t, err)

	user := createTestUser(t, db, "cleanup@example.com")
	_, _, err = svc.CreateSession(context.Background(), user.ID, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(time.Hour)
	removed, err := svc.CleanupExpired(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	assert.Zero(t, count)
}

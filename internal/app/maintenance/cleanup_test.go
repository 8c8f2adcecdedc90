package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iauth "github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/internal/services"
)

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)
	auditSvc := services.NewAuditService(db)

	user := &models.User{Name: "A", Email: "cleaner@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)

	stale := models.Session{
		UserID:       user.ID,
		RefreshToken: "stale-token",
		ExpiresAt:    time.Now().Add(-time.Hour),
		LastUsedAt:   time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	oldAudit := models.AuditLog{Action: "ancient", Result: services.AuditResultSuccess, CreatedAt: time.Now().Add(-100 * 24 * time.Hour)}
	require.NoError(t, db.Create(&oldAudit).Error)
	freshAudit := models.AuditLog{Action: "fresh", Result: services.AuditResultSuccess}
	require.NoError(t, db.Create(&freshAudit).Error)

	cleaner := NewCleaner(sessionSvc, auditSvc, WithAuditRetentionDays(90))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var sessionCount int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	assert.Zero(t, sessionCount)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	assert.Equal(t, int64(1), auditCount)
}

func TestCleanerStartWithBadScheduleFails(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)

	cleaner := NewCleaner(sessionSvc, nil, WithSessionSchedule("not-a-spec"))
	require.Error(t, cleaner.Start())
}

func TestCleanerStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{})
	require.NoError(t, err)
	auditSvc := services.NewAuditService(db)

	cleaner := NewCleaner(sessionSvc, auditSvc)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}

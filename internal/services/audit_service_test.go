package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/database/testutil"
	"github.com/panelkit/panelkit/internal/models"
)

func TestAuditServiceRecordAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAuditService(db)

	userID := uint(7)
	svc.Record(context.Background(), AuditEntry{
		UserID:    &userID,
		Action:    "user.create",
		Resource:  "user:12",
		Result:    AuditResultSuccess,
		IPAddress: "10.0.0.1",
		Metadata:  map[string]interface{}{"email": "new@example.com"},
	})

	rows, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "user.create", rows[0].Action)
	assert.Equal(t, AuditResultSuccess, rows[0].Result)
	assert.Contains(t, string(rows[0].Metadata), "new@example.com")
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := NewAuditService(db)

	old := models.AuditLog{Action: "old", Result: AuditResultSuccess, CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	svc.Record(context.Background(), AuditEntry{Action: "fresh", Result: AuditResultSuccess})

	removed, err := svc.CleanupOlderThan(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].Action)
}

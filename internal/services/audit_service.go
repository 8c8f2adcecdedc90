package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/models"
	"github.com/panelkit/panelkit/pkg/logger"
)

// Audit action result values.
const (
	AuditResultSuccess = "success"
	AuditResultFailure = "failure"
)

// AuditEntry describes one recordable event.
type AuditEntry struct {
	UserID    *uint
	Action    string
	Resource  string
	Result    string
	IPAddress string
	UserAgent string
	Metadata  map[string]interface{}
}

// AuditService persists an append-only trail of administrative actions.
type AuditService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db, log: logger.WithModule("audit")}
}

// Record writes an audit row. Failures are logged, never propagated:
// auditing must not break the action being audited.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	log := models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		Resource:  entry.Resource,
		Result:    entry.Result,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
	}

	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.log.Error("marshal metadata", zap.String("action", entry.Action), zap.Error(err))
		} else {
			log.Metadata = datatypes.JSON(raw)
		}
	}

	if err := s.db.WithContext(ctx).Create(&log).Error; err != nil {
		s.log.Error("record", zap.String("action", entry.Action), zap.Error(err))
	}
}

// List returns the newest audit rows up to limit.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var rows []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return rows, nil
}

// CleanupOlderThan deletes audit rows past the retention window.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup audit logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

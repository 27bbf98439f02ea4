// Package audit provides the append-only audit trail sink.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vantapay/compliance/pkg/models"
)

// Recorder is the append-only audit sink port.
type Recorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, actionType, entityType, entityID, description string, metadata map[string]interface{}) error
}

// Service writes audit events to the relational store. Events are inserted
// once and never updated.
type Service struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewService creates a database-backed audit recorder.
func NewService(db *gorm.DB, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, logger: logger}
}

// Record appends one audit event.
func (s *Service) Record(ctx context.Context, tenantID uuid.UUID, actionType, entityType, entityID, description string, metadata map[string]interface{}) error {
	event := &models.AuditEvent{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ActionType:  actionType,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		s.logger.Errorw("failed to record audit event",
			"tenant_id", tenantID, "action_type", actionType, "error", err)
		return err
	}
	return nil
}

// NopRecorder discards audit events. Useful in tests.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, uuid.UUID, string, string, string, string, map[string]interface{}) error {
	return nil
}

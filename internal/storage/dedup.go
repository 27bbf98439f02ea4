package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/vantapay/compliance/pkg/models"
)

// Dedup markers expire well after the calendar day they guard; 48h covers
// clock skew between the scheduler and the store.
const dedupTTL = 48 * time.Hour

const dedupKeyPattern = "compliance:alert:dedup:%s:%s:%s"

// RedisDedupStore keeps day-level alert dedup markers in Redis.
type RedisDedupStore struct {
	client *redis.Client
}

// NewRedisDedupStore creates a Redis-backed dedup store.
func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

func dedupKey(tenantID uuid.UUID, reportType models.ReportType, day string) string {
	return fmt.Sprintf(dedupKeyPattern, tenantID, strings.ToLower(string(reportType)), day)
}

// Seen reports whether an alert marker exists for the tenant, type and day.
func (s *RedisDedupStore) Seen(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) (bool, error) {
	n, err := s.client.Exists(ctx, dedupKey(tenantID, reportType, day)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return n > 0, nil
}

// Mark records that an alert went out today.
func (s *RedisDedupStore) Mark(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) error {
	if err := s.client.SetNX(ctx, dedupKey(tenantID, reportType, day), 1, dedupTTL).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

// GormDedupStore keeps dedup markers in the relational store. Used when no
// Redis is configured; the unique index on (tenant, type, day) makes Mark
// idempotent.
type GormDedupStore struct {
	db *gorm.DB
}

// NewGormDedupStore creates a database-backed dedup store.
func NewGormDedupStore(db *gorm.DB) *GormDedupStore {
	return &GormDedupStore{db: db}
}

func (s *GormDedupStore) Seen(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AlertDedupMarker{}).
		Where("tenant_id = ? AND report_type = ? AND day = ?", tenantID, reportType, day).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return count > 0, nil
}

func (s *GormDedupStore) Mark(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) error {
	marker := &models.AlertDedupMarker{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ReportType: reportType,
		Day:        day,
		CreatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(marker).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

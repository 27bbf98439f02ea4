package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vantapay/compliance/pkg/models"
)

// GormStore implements Store on top of a relational database via GORM.
type GormStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewGormStore creates a store over the given database handle.
func NewGormStore(db *gorm.DB, logger *zap.SugaredLogger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

// AutoMigrate creates or updates the schema for all compliance entities.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Tenant{},
		&models.Customer{},
		&models.Transaction{},
		&models.RiskAssessment{},
		&models.PendingReport{},
		&models.ScreeningRecord{},
		&models.OCDDSchedule{},
		&models.OCDDExecution{},
		&models.AlertDedupMarker{},
		&models.AuditEvent{},
	)
}

func (s *GormStore) ActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&tenants).Error
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return tenants, nil
}

func (s *GormStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}
	return &tenant, nil
}

func (s *GormStore) GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, customerID).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", customerID, err)
	}
	return &customer, nil
}

func (s *GormStore) UpdateCustomerRisk(ctx context.Context, tenantID, customerID uuid.UUID, score float64, level models.RiskLevel) error {
	err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("tenant_id = ? AND id = ?", tenantID, customerID).
		Updates(map[string]interface{}{
			"risk_score": score,
			"risk_level": level,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("update customer risk %s: %w", customerID, err)
	}
	return nil
}

func (s *GormStore) UpdateCustomerReview(ctx context.Context, tenantID, customerID uuid.UUID, lastReviewed, nextReview time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("tenant_id = ? AND id = ?", tenantID, customerID).
		Updates(map[string]interface{}{
			"last_reviewed_at": lastReviewed,
			"next_review_at":   nextReview,
			"updated_at":       time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("update customer review %s: %w", customerID, err)
	}
	return nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *GormStore) TransactionsSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND created_at >= ?", tenantID, customerID, since).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions since %s: %w", since, err)
	}
	return txs, nil
}

func (s *GormStore) CountTransactionsSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("tenant_id = ? AND customer_id = ? AND created_at >= ?", tenantID, customerID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count transactions since %s: %w", since, err)
	}
	return count, nil
}

func (s *GormStore) SaveAssessment(ctx context.Context, assessment *models.RiskAssessment) error {
	if err := s.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("save risk assessment: %w", err)
	}
	return nil
}

func (s *GormStore) CreatePendingReport(ctx context.Context, report *models.PendingReport) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("create pending report: %w", err)
	}
	return nil
}

func (s *GormStore) PendingReports(ctx context.Context, tenantID uuid.UUID) ([]models.PendingReport, error) {
	var reports []models.PendingReport
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.ReportStatusPending).
		Order("deadline ASC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	return reports, nil
}

func (s *GormStore) FindReportByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*models.PendingReport, error) {
	var report models.PendingReport
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report %s: %w", reference, err)
	}
	return &report, nil
}

func (s *GormStore) DueSchedules(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]models.OCDDSchedule, error) {
	var schedules []models.OCDDSchedule
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND next_scheduled_at <= ?", tenantID, models.ScheduleStatusActive, now).
		Order("next_scheduled_at ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	return schedules, nil
}

func (s *GormStore) UpdateSchedule(ctx context.Context, schedule *models.OCDDSchedule) error {
	if err := s.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return fmt.Errorf("update schedule %s: %w", schedule.ID, err)
	}
	return nil
}

func (s *GormStore) SaveExecution(ctx context.Context, execution *models.OCDDExecution) error {
	if err := s.db.WithContext(ctx).Create(execution).Error; err != nil {
		return fmt.Errorf("save execution: %w", err)
	}
	return nil
}

// CountOverdueSchedules counts active schedules whose due date passed more
// than one day ago with no execution since.
func (s *GormStore) CountOverdueSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error) {
	var count int64
	cutoff := asOf.AddDate(0, 0, -1)
	err := s.db.WithContext(ctx).Model(&models.OCDDSchedule{}).
		Where("tenant_id = ? AND status = ? AND next_scheduled_at < ?", tenantID, models.ScheduleStatusActive, cutoff).
		Where("last_executed_at IS NULL OR last_executed_at < next_scheduled_at").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count overdue schedules: %w", err)
	}
	return count, nil
}

func (s *GormStore) CountUpcomingSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time, horizonDays int) (int64, error) {
	var count int64
	horizon := asOf.AddDate(0, 0, horizonDays)
	err := s.db.WithContext(ctx).Model(&models.OCDDSchedule{}).
		Where("tenant_id = ? AND status = ? AND next_scheduled_at > ? AND next_scheduled_at <= ?",
			tenantID, models.ScheduleStatusActive, asOf, horizon).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count upcoming schedules: %w", err)
	}
	return count, nil
}

func (s *GormStore) LatestScreening(ctx context.Context, tenantID, customerID uuid.UUID, kind string) (*models.ScreeningRecord, error) {
	var record models.ScreeningRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND kind = ?", tenantID, customerID, kind).
		Order("screened_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s screening for %s: %w", kind, customerID, err)
	}
	return &record, nil
}

func (s *GormStore) SaveScreening(ctx context.Context, record *models.ScreeningRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save screening record: %w", err)
	}
	return nil
}

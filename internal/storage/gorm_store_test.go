package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vantapay/compliance/pkg/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	store := NewGormStore(db, zap.NewNop().Sugar())
	require.NoError(t, store.AutoMigrate())
	return store
}

func seedTenant(t *testing.T, store *GormStore, active bool) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		ID:         uuid.New(),
		Name:       "Test Tenant",
		RegionCode: "AU",
		IsActive:   active,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.db.Create(tenant).Error)
	return tenant
}

func seedCustomer(t *testing.T, store *GormStore, tenantID uuid.UUID) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		FullName:           "Alex Doe",
		RiskLevel:          models.RiskLevelLow,
		VerificationStatus: models.VerificationVerified,
		CreatedAt:          time.Now().UTC().AddDate(0, -6, 0),
	}
	require.NoError(t, store.db.Create(customer).Error)
	return customer
}

func TestActiveTenants(t *testing.T) {
	store := newTestStore(t)
	seedTenant(t, store, true)
	seedTenant(t, store, true)
	seedTenant(t, store, false)

	tenants, err := store.ActiveTenants(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestCreateInactiveTenantStaysInactive(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, false)

	got, err := store.GetTenant(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	tenants, err := store.ActiveTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestGetTenantNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetTenant(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCustomerScopedToTenant(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	other := seedTenant(t, store, true)
	customer := seedCustomer(t, store, tenant.ID)

	got, err := store.GetCustomer(context.Background(), tenant.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	_, err = store.GetCustomer(context.Background(), other.ID, customer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCustomerRisk(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	customer := seedCustomer(t, store, tenant.ID)

	err := store.UpdateCustomerRisk(context.Background(), tenant.ID, customer.ID, 75, models.RiskLevelHigh)
	require.NoError(t, err)

	got, err := store.GetCustomer(context.Background(), tenant.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.RiskScore)
	assert.Equal(t, models.RiskLevelHigh, got.RiskLevel)
}

func TestTransactionsSinceWindow(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	customer := seedCustomer(t, store, tenant.ID)
	now := time.Now().UTC()

	for _, age := range []int{1, 3, 10} {
		tx := &models.Transaction{
			ID:         uuid.New(),
			TenantID:   tenant.ID,
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(8000),
			Currency:   "AUD",
			CreatedAt:  now.AddDate(0, 0, -age),
		}
		require.NoError(t, store.CreateTransaction(context.Background(), tx))
	}

	txs, err := store.TransactionsSince(context.Background(), tenant.ID, customer.ID, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	count, err := store.CountTransactionsSince(context.Background(), tenant.ID, customer.ID, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPendingReportsLifecycle(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	now := time.Now().UTC()

	report := &models.PendingReport{
		ID:         uuid.New(),
		TenantID:   tenant.ID,
		ReportType: models.ReportTypeTTR,
		Reference:  "TTR-AABBCCDDEEFF",
		Status:     models.ReportStatusPending,
		Deadline:   now.AddDate(0, 0, 10),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.CreatePendingReport(context.Background(), report))

	submitted := &models.PendingReport{
		ID:         uuid.New(),
		TenantID:   tenant.ID,
		ReportType: models.ReportTypeSMR,
		Reference:  "SMR-112233445566",
		Status:     models.ReportStatusSubmitted,
		Deadline:   now.AddDate(0, 0, 3),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.CreatePendingReport(context.Background(), submitted))

	pending, err := store.PendingReports(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, report.Reference, pending[0].Reference)

	found, err := store.FindReportByReference(context.Background(), tenant.ID, report.Reference)
	require.NoError(t, err)
	assert.Equal(t, report.ID, found.ID)

	_, err = store.FindReportByReference(context.Background(), tenant.ID, "TTR-DOESNOTEXIST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRiskAssessmentRoundTripsFactors(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)

	assessment := &models.RiskAssessment{
		ID:            uuid.New(),
		TenantID:      tenant.ID,
		TransactionID: uuid.New(),
		Score:         65,
		Level:         models.RiskLevelMedium,
		Factors: []models.RiskFactor{
			{Code: "AMOUNT_ABOVE_TTR", Weight: 25},
			{Code: "PEP", Weight: 20},
		},
		StructuredSum: decimal.NewFromInt(25800),
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.SaveAssessment(context.Background(), assessment))

	var got models.RiskAssessment
	require.NoError(t, store.db.First(&got, "id = ?", assessment.ID).Error)
	require.Len(t, got.Factors, 2)
	assert.Equal(t, "AMOUNT_ABOVE_TTR", got.Factors[0].Code)
}

func TestDueSchedules(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	now := time.Now().UTC()

	due := &models.OCDDSchedule{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		CustomerID:      uuid.New(),
		Status:          models.ScheduleStatusActive,
		NextScheduledAt: now.AddDate(0, 0, -1),
	}
	future := &models.OCDDSchedule{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		CustomerID:      uuid.New(),
		Status:          models.ScheduleStatusActive,
		NextScheduledAt: now.AddDate(0, 0, 30),
	}
	paused := &models.OCDDSchedule{
		ID:              uuid.New(),
		TenantID:        tenant.ID,
		CustomerID:      uuid.New(),
		Status:          models.ScheduleStatusPaused,
		NextScheduledAt: now.AddDate(0, 0, -1),
	}
	for _, s := range []*models.OCDDSchedule{due, future, paused} {
		require.NoError(t, store.db.Create(s).Error)
	}

	schedules, err := store.DueSchedules(context.Background(), tenant.ID, now)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, due.ID, schedules[0].ID)
}

func TestCountOverdueAndUpcomingSchedules(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	now := time.Now().UTC()

	executed := now.AddDate(0, 0, -2)
	rows := []*models.OCDDSchedule{
		// Overdue: three days past, never executed.
		{ID: uuid.New(), TenantID: tenant.ID, CustomerID: uuid.New(),
			Status: models.ScheduleStatusActive, NextScheduledAt: now.AddDate(0, 0, -3)},
		// Not overdue: past due but executed since.
		{ID: uuid.New(), TenantID: tenant.ID, CustomerID: uuid.New(),
			Status: models.ScheduleStatusActive, NextScheduledAt: now.AddDate(0, 0, -3),
			LastExecutedAt: &now},
		// Upcoming within the horizon.
		{ID: uuid.New(), TenantID: tenant.ID, CustomerID: uuid.New(),
			Status: models.ScheduleStatusActive, NextScheduledAt: now.AddDate(0, 0, 3),
			LastExecutedAt: &executed},
		// Beyond the horizon.
		{ID: uuid.New(), TenantID: tenant.ID, CustomerID: uuid.New(),
			Status: models.ScheduleStatusActive, NextScheduledAt: now.AddDate(0, 0, 30)},
	}
	for _, s := range rows {
		require.NoError(t, store.db.Create(s).Error)
	}

	overdue, err := store.CountOverdueSchedules(context.Background(), tenant.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overdue)

	upcoming, err := store.CountUpcomingSchedules(context.Background(), tenant.ID, now, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upcoming)
}

func TestLatestScreeningOrdering(t *testing.T) {
	store := newTestStore(t)
	tenant := seedTenant(t, store, true)
	customerID := uuid.New()
	now := time.Now().UTC()

	older := &models.ScreeningRecord{
		ID: uuid.New(), TenantID: tenant.ID, CustomerID: customerID,
		Kind: "pep", IsMatch: true, ScreenedAt: now.AddDate(0, -2, 0),
	}
	newer := &models.ScreeningRecord{
		ID: uuid.New(), TenantID: tenant.ID, CustomerID: customerID,
		Kind: "pep", IsMatch: false, ScreenedAt: now.AddDate(0, -1, 0),
	}
	require.NoError(t, store.SaveScreening(context.Background(), older))
	require.NoError(t, store.SaveScreening(context.Background(), newer))

	got, err := store.LatestScreening(context.Background(), tenant.ID, customerID, "pep")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	assert.False(t, got.IsMatch)

	_, err = store.LatestScreening(context.Background(), tenant.ID, customerID, "sanctions")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormDedupStore(t *testing.T) {
	store := newTestStore(t)
	dedup := NewGormDedupStore(store.db)
	tenantID := uuid.New()
	day := "2026-03-02"

	seen, err := dedup.Seen(context.Background(), tenantID, models.ReportTypeTTR, day)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, dedup.Mark(context.Background(), tenantID, models.ReportTypeTTR, day))

	seen, err = dedup.Seen(context.Background(), tenantID, models.ReportTypeTTR, day)
	require.NoError(t, err)
	assert.True(t, seen)

	// A different day or report type is independent.
	seen, err = dedup.Seen(context.Background(), tenantID, models.ReportTypeSMR, day)
	require.NoError(t, err)
	assert.False(t, seen)
}

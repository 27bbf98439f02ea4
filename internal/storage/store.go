// Package storage implements the relational store behind the compliance
// core. Entities are modeled as explicit structs in pkg/models; all
// translation to database rows happens at this boundary.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vantapay/compliance/pkg/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the full persistence surface used by the compliance service. The
// worker packages each depend on narrower slices of it.
type Store interface {
	ActiveTenants(ctx context.Context) ([]models.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error)
	UpdateCustomerRisk(ctx context.Context, tenantID, customerID uuid.UUID, score float64, level models.RiskLevel) error
	UpdateCustomerReview(ctx context.Context, tenantID, customerID uuid.UUID, lastReviewed, nextReview time.Time) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	TransactionsSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) ([]models.Transaction, error)
	CountTransactionsSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) (int64, error)

	SaveAssessment(ctx context.Context, assessment *models.RiskAssessment) error
	CreatePendingReport(ctx context.Context, report *models.PendingReport) error
	PendingReports(ctx context.Context, tenantID uuid.UUID) ([]models.PendingReport, error)
	FindReportByReference(ctx context.Context, tenantID uuid.UUID, reference string) (*models.PendingReport, error)

	DueSchedules(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]models.OCDDSchedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.OCDDSchedule) error
	SaveExecution(ctx context.Context, execution *models.OCDDExecution) error
	CountOverdueSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error)
	CountUpcomingSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time, horizonDays int) (int64, error)

	LatestScreening(ctx context.Context, tenantID, customerID uuid.UUID, kind string) (*models.ScreeningRecord, error)
	SaveScreening(ctx context.Context, record *models.ScreeningRecord) error
}

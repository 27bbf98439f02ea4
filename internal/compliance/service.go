// Package compliance wires the risk, detection, reporting and review
// components into the two entry points the platform calls: synchronous
// transaction evaluation and the periodic per-tenant batch.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vantapay/compliance/internal/audit"
	"github.com/vantapay/compliance/internal/compliance/detection"
	"github.com/vantapay/compliance/internal/compliance/ocdd"
	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/internal/compliance/reporting"
	"github.com/vantapay/compliance/internal/compliance/scoring"
	"github.com/vantapay/compliance/internal/infrastructure/metrics"
	"github.com/vantapay/compliance/internal/notification"
	"github.com/vantapay/compliance/internal/storage"
	"github.com/vantapay/compliance/pkg/models"
)

// TransactionInput carries one incoming transaction for evaluation
type TransactionInput struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Direction   string          `json:"direction"`
	Description string          `json:"description"`
}

// EvaluationResult is the outcome of a synchronous transaction evaluation
type EvaluationResult struct {
	Transaction  *models.Transaction     `json:"transaction"`
	Assessment   *models.RiskAssessment  `json:"assessment"`
	Structuring  *detection.Result       `json:"structuring"`
	Requirements reporting.Requirements  `json:"requirements"`
	Reports      []*models.PendingReport `json:"reports,omitempty"`
}

// TenantCheckResult summarizes one tenant's periodic run
type TenantCheckResult struct {
	TenantID  uuid.UUID             `json:"tenant_id"`
	Deadlines reporting.CheckResult `json:"deadlines"`
	Reviews   *ocdd.Summary         `json:"reviews"`
}

// PeriodicSummary aggregates a full periodic sweep across tenants. The
// batch is best effort, fully attempted: per-tenant failures land in Errors
// and never stop the sweep.
type PeriodicSummary struct {
	TenantsChecked int                 `json:"tenants_checked"`
	Results        []TenantCheckResult `json:"results"`
	Errors         []string            `json:"errors,omitempty"`
}

// Service is the compliance engine facade.
type Service interface {
	EvaluateTransaction(ctx context.Context, tenantID uuid.UUID, input TransactionInput) (*EvaluationResult, error)
	RunTenantChecks(ctx context.Context, tenantID uuid.UUID) (*TenantCheckResult, error)
	RunPeriodicChecks(ctx context.Context) (*PeriodicSummary, error)
}

type service struct {
	store            storage.Store
	engine           *scoring.Engine
	detector         *detection.Detector
	tracker          *reporting.Tracker
	scheduler        *ocdd.Scheduler
	auditor          audit.Recorder
	notifier         notification.Notifier
	metrics          *metrics.Metrics
	logger           *zap.SugaredLogger
	perTenantTimeout time.Duration

	now func() time.Time
}

// NewService assembles the compliance engine.
func NewService(store storage.Store, engine *scoring.Engine, detector *detection.Detector, tracker *reporting.Tracker, scheduler *ocdd.Scheduler, auditor audit.Recorder, notifier notification.Notifier, m *metrics.Metrics, perTenantTimeout time.Duration, logger *zap.SugaredLogger) Service {
	return &service{
		store:            store,
		engine:           engine,
		detector:         detector,
		tracker:          tracker,
		scheduler:        scheduler,
		auditor:          auditor,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		perTenantTimeout: perTenantTimeout,
		now:              time.Now,
	}
}

// EvaluateTransaction runs the full synchronous pipeline for one incoming
// transaction: effective config, structuring detection, risk scoring,
// reporting obligations, persistence and alerting. Scoring or detection
// failure fails the whole call; the caller cannot proceed without a risk
// decision.
func (s *service) EvaluateTransaction(ctx context.Context, tenantID uuid.UUID, input TransactionInput) (*EvaluationResult, error) {
	started := s.now()
	now := started.UTC()

	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}
	cfg, err := regional.Resolve(tenant.RegionCode, tenant.Overrides)
	if err != nil {
		return nil, fmt.Errorf("resolve config for tenant %s: %w", tenantID, err)
	}
	customer, err := s.store.GetCustomer(ctx, tenantID, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer %s: %w", input.CustomerID, err)
	}

	structuring, err := s.detector.Detect(ctx, tenantID, customer.ID, input.Amount, cfg.Structuring, now)
	if err != nil {
		return nil, fmt.Errorf("structuring detection: %w", err)
	}

	recentCount, err := s.store.CountTransactionsSince(ctx, tenantID, customer.ID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("count recent transactions: %w", err)
	}

	riskResult := s.engine.Score(scoring.Context{
		Amount:             input.Amount,
		Currency:           input.Currency,
		CustomerAgeDays:    customer.AgeDays(now),
		RecentTxCount:      int(recentCount) + 1,
		IsStructuring:      structuring.IsStructuring,
		RequiresEDD:        customer.RequiresEDD,
		IsPEP:              customer.IsPEP,
		IsSanctioned:       customer.IsSanctioned,
		VerificationStatus: customer.VerificationStatus,
		Thresholds:         cfg.Thresholds,
		Bands:              cfg.RiskBands,
		Velocity:           cfg.Velocity,
	})

	requirements := reporting.ResolveRequirements(input.Amount, cfg.Thresholds, customer, structuring.IsStructuring)

	tx := &models.Transaction{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CustomerID:  customer.ID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Direction:   input.Direction,
		Description: input.Description,
		CreatedAt:   now,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}

	assessment := &models.RiskAssessment{
		ID:            uuid.New(),
		TenantID:      tenantID,
		TransactionID: tx.ID,
		CustomerID:    customer.ID,
		Score:         riskResult.Score,
		Level:         riskResult.Level,
		Factors:       riskResult.Factors,
		IsStructuring: structuring.IsStructuring,
		StructuredSum: structuring.TotalAmount,
		RequiresTTR:   requirements.RequiresTTR,
		RequiresKYC:   requirements.RequiresKYC,
		RequiresEDD:   requirements.RequiresEnhancedDD,
		CreatedAt:     now,
	}

	result := &EvaluationResult{
		Transaction:  tx,
		Structuring:  structuring,
		Requirements: requirements,
	}

	if requirements.RequiresTTR {
		report, err := s.ensurePendingReport(ctx, tenantID, tx.ID, models.ReportTypeTTR, cfg, now)
		if err != nil {
			return nil, err
		}
		assessment.TTRReference = report.Reference
		result.Reports = append(result.Reports, report)
	}
	if structuring.IsStructuring {
		report, err := s.ensurePendingReport(ctx, tenantID, tx.ID, models.ReportTypeSMR, cfg, now)
		if err != nil {
			return nil, err
		}
		result.Reports = append(result.Reports, report)
	}

	if err := s.store.SaveAssessment(ctx, assessment); err != nil {
		return nil, fmt.Errorf("persist assessment: %w", err)
	}
	result.Assessment = assessment

	if err := s.store.UpdateCustomerRisk(ctx, tenantID, customer.ID, riskResult.Score, riskResult.Level); err != nil {
		s.logger.Warnw("failed to update customer risk profile",
			"tenant_id", tenantID, "customer_id", customer.ID, "error", err)
	}

	if err := s.auditor.Record(ctx, tenantID, "transaction.evaluated", "transaction", tx.ID.String(),
		fmt.Sprintf("risk %s (%.0f), structuring=%t", riskResult.Level, riskResult.Score, structuring.IsStructuring),
		map[string]interface{}{
			"score":         riskResult.Score,
			"level":         string(riskResult.Level),
			"requires_ttr":  requirements.RequiresTTR,
			"ttr_reference": assessment.TTRReference,
		}); err != nil {
		s.logger.Warnw("audit record failed", "transaction_id", tx.ID, "error", err)
	}

	if riskResult.Level == models.RiskLevelHigh || structuring.IsStructuring {
		if err := s.notifier.Notify(ctx, tenantID, notification.EventTransactionFlagged, map[string]interface{}{
			"transaction_id": tx.ID.String(),
			"customer_id":    customer.ID.String(),
			"level":          string(riskResult.Level),
			"score":          riskResult.Score,
			"structuring":    structuring.IsStructuring,
		}); err != nil {
			s.logger.Errorw("flagged transaction notification failed",
				"transaction_id", tx.ID, "error", err)
		}
	}

	s.metrics.EvaluationsTotal.WithLabelValues(string(riskResult.Level)).Inc()
	s.metrics.EvaluationDuration.Observe(time.Since(started).Seconds())
	if structuring.IsStructuring {
		s.metrics.StructuringHits.Inc()
	}

	return result, nil
}

// ensurePendingReport creates a pending report with a deterministic
// reference, reusing an existing row when the same transaction was already
// filed for the same report type.
func (s *service) ensurePendingReport(ctx context.Context, tenantID, transactionID uuid.UUID, rt models.ReportType, cfg *regional.Config, now time.Time) (*models.PendingReport, error) {
	reference := reporting.GenerateReportReference(rt, transactionID)

	existing, err := s.store.FindReportByReference(ctx, tenantID, reference)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup report %s: %w", reference, err)
	}

	report := &models.PendingReport{
		ID:            uuid.New(),
		TenantID:      tenantID,
		TransactionID: transactionID,
		ReportType:    rt,
		Reference:     reference,
		Status:        models.ReportStatusPending,
		Deadline:      cfg.Calendar().AddBusinessDays(now, cfg.ReportingDeadlineDays(rt)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreatePendingReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create %s report: %w", rt, err)
	}
	return report, nil
}

// RunTenantChecks runs the deadline tracker and the OCDD scheduler for one
// tenant.
func (s *service) RunTenantChecks(ctx context.Context, tenantID uuid.UUID) (*TenantCheckResult, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}
	cfg, err := regional.Resolve(tenant.RegionCode, tenant.Overrides)
	if err != nil {
		return nil, fmt.Errorf("resolve config for tenant %s: %w", tenantID, err)
	}

	now := s.now().UTC()
	result := &TenantCheckResult{TenantID: tenantID}

	deadlines, err := s.tracker.CheckPending(ctx, tenantID, cfg, now)
	if err != nil {
		return nil, fmt.Errorf("deadline check: %w", err)
	}
	result.Deadlines = deadlines
	if deadlines.AlertsSent > 0 {
		s.metrics.DeadlineAlerts.Add(float64(deadlines.AlertsSent))
	}

	reviews, err := s.scheduler.RunDueSchedules(ctx, tenantID, cfg, now)
	if err != nil {
		return nil, fmt.Errorf("review batch: %w", err)
	}
	result.Reviews = reviews
	s.metrics.OCDDExecutions.WithLabelValues("passed").Add(float64(reviews.Passed))
	s.metrics.OCDDExecutions.WithLabelValues("requires_action").Add(float64(reviews.RequiresAction))
	s.metrics.OCDDExecutions.WithLabelValues("escalated").Add(float64(reviews.Escalated))
	s.metrics.OCDDExecutions.WithLabelValues("error").Add(float64(reviews.Errored))

	return result, nil
}

// RunPeriodicChecks sweeps every active tenant. Tenants are processed
// independently under a per-tenant timeout; failures are collected and the
// sweep always runs to completion.
func (s *service) RunPeriodicChecks(ctx context.Context) (*PeriodicSummary, error) {
	tenants, err := s.store.ActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	summary := &PeriodicSummary{}
	for _, tenant := range tenants {
		summary.TenantsChecked++

		tenantCtx := ctx
		cancel := context.CancelFunc(func() {})
		if s.perTenantTimeout > 0 {
			tenantCtx, cancel = context.WithTimeout(ctx, s.perTenantTimeout)
		}
		result, err := s.RunTenantChecks(tenantCtx, tenant.ID)
		cancel()

		if err != nil {
			s.metrics.BatchTenantErrors.Inc()
			s.logger.Errorw("tenant periodic check failed", "tenant_id", tenant.ID, "error", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("tenant %s: %v", tenant.ID, err))
			continue
		}
		summary.Results = append(summary.Results, *result)
	}

	s.logger.Infow("periodic sweep completed",
		"tenants", summary.TenantsChecked,
		"failures", len(summary.Errors),
	)

	return summary, nil
}

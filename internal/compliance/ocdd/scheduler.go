// Package ocdd implements the recurring customer due-diligence engine:
// finding due review schedules, executing their automated checks, recording
// immutable execution records and recomputing the next due date.
package ocdd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantapay/compliance/internal/audit"
	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/internal/compliance/reporting"
	"github.com/vantapay/compliance/internal/compliance/screening"
	"github.com/vantapay/compliance/internal/notification"
	"github.com/vantapay/compliance/internal/storage"
	"github.com/vantapay/compliance/pkg/models"
)

// Check type names recorded on execution entries.
const (
	CheckSanctions = "sanctions"
	CheckPEP       = "pep"
	CheckDocuments = "documents"
)

// UpcomingHorizonDays is the lookahead window for the upcoming-review count.
const UpcomingHorizonDays = 7

// dedupKindOCDD keys day-level dedup for OCDD batch notifications,
// alongside the per-report-type deadline markers.
const dedupKindOCDD = models.ReportType("OCDD")

// Store is the persistence slice the scheduler needs.
type Store interface {
	DueSchedules(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]models.OCDDSchedule, error)
	UpdateSchedule(ctx context.Context, schedule *models.OCDDSchedule) error
	SaveExecution(ctx context.Context, execution *models.OCDDExecution) error
	GetCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error)
	UpdateCustomerReview(ctx context.Context, tenantID, customerID uuid.UUID, lastReviewed, nextReview time.Time) error
	LatestScreening(ctx context.Context, tenantID, customerID uuid.UUID, kind string) (*models.ScreeningRecord, error)
	SaveScreening(ctx context.Context, record *models.ScreeningRecord) error
	CountOverdueSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error)
	CountUpcomingSchedules(ctx context.Context, tenantID uuid.UUID, asOf time.Time, horizonDays int) (int64, error)
}

// DocumentChecker verifies a customer's identity documents have not expired.
// External collaborator; StubDocumentChecker stands in where no document
// store is wired.
type DocumentChecker interface {
	CheckExpiry(ctx context.Context, tenantID, customerID uuid.UUID) (expired bool, detail string, err error)
}

// StubDocumentChecker always reports documents as current.
type StubDocumentChecker struct{}

// CheckExpiry implements DocumentChecker.
func (StubDocumentChecker) CheckExpiry(context.Context, uuid.UUID, uuid.UUID) (bool, string, error) {
	return false, "documents current", nil
}

// Summary reports the outcome of one tenant's review batch
type Summary struct {
	Processed      int      `json:"processed"`
	Passed         int      `json:"passed"`
	RequiresAction int      `json:"requires_action"`
	Escalated      int      `json:"escalated"`
	Errored        int      `json:"errored"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors,omitempty"`
	Overdue        int64    `json:"overdue"`
	Upcoming       int64    `json:"upcoming"`
}

// Scheduler executes due OCDD schedules for a tenant.
type Scheduler struct {
	store    Store
	screener screening.Provider
	docs     DocumentChecker
	notifier notification.Notifier
	auditor  audit.Recorder
	dedup    reporting.DedupStore
	logger   *zap.SugaredLogger
}

// NewScheduler creates an OCDD scheduler.
func NewScheduler(store Store, screener screening.Provider, docs DocumentChecker, notifier notification.Notifier, auditor audit.Recorder, dedup reporting.DedupStore, logger *zap.SugaredLogger) *Scheduler {
	if docs == nil {
		docs = StubDocumentChecker{}
	}
	return &Scheduler{
		store:    store,
		screener: screener,
		docs:     docs,
		notifier: notifier,
		auditor:  auditor,
		dedup:    dedup,
		logger:   logger,
	}
}

// RunDueSchedules executes every due, active schedule for the tenant,
// serially. A failing schedule is recorded (as an execution with result
// ERROR where possible) and never aborts the rest of the batch.
func (s *Scheduler) RunDueSchedules(ctx context.Context, tenantID uuid.UUID, cfg *regional.Config, now time.Time) (*Summary, error) {
	schedules, err := s.store.DueSchedules(ctx, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("load due schedules for tenant %s: %w", tenantID, err)
	}

	summary := &Summary{}
	for i := range schedules {
		schedule := &schedules[i]

		customer, err := s.store.GetCustomer(ctx, tenantID, schedule.CustomerID)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warnw("schedule references missing customer, skipping",
				"tenant_id", tenantID, "schedule_id", schedule.ID, "customer_id", schedule.CustomerID)
			summary.Skipped++
			continue
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("schedule %s: %v", schedule.ID, err))
			continue
		}

		execution := s.executeSchedule(ctx, tenantID, schedule, customer, cfg, now)
		summary.Processed++
		switch execution.Result {
		case models.ExecutionResultPassed:
			summary.Passed++
		case models.ExecutionResultRequiresAction:
			summary.RequiresAction++
		case models.ExecutionResultEscalated:
			summary.Escalated++
		case models.ExecutionResultError:
			summary.Errored++
		}

		if err := s.store.SaveExecution(ctx, execution); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("schedule %s: save execution: %v", schedule.ID, err))
		}

		if err := s.advanceSchedule(ctx, schedule, customer, cfg, execution, now); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("schedule %s: %v", schedule.ID, err))
		}

		if err := s.auditor.Record(ctx, tenantID, "ocdd.execution", "ocdd_schedule", schedule.ID.String(),
			fmt.Sprintf("recurring review executed with result %s", execution.Result),
			map[string]interface{}{
				"execution_id": execution.ID.String(),
				"customer_id":  customer.ID.String(),
				"result":       string(execution.Result),
				"findings":     len(execution.Findings),
			}); err != nil {
			s.logger.Warnw("audit record failed", "schedule_id", schedule.ID, "error", err)
		}
	}

	s.reportScheduleCounts(ctx, tenantID, summary, now)

	s.logger.Infow("review batch completed",
		"tenant_id", tenantID,
		"processed", summary.Processed,
		"escalated", summary.Escalated,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
	)

	return summary, nil
}

// executeSchedule runs the enabled checks and assembles the immutable
// execution record. It always returns a record, with result ERROR when a
// check infrastructure failure occurred.
func (s *Scheduler) executeSchedule(ctx context.Context, tenantID uuid.UUID, schedule *models.OCDDSchedule, customer *models.Customer, cfg *regional.Config, now time.Time) *models.OCDDExecution {
	execution := &models.OCDDExecution{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ScheduleID: schedule.ID,
		CustomerID: customer.ID,
		Checks:     []models.CheckEntry{},
		Findings:   []models.Finding{},
		Result:     models.ExecutionResultPassed,
		ExecutedAt: now,
	}

	if schedule.SanctionsCheck {
		s.runSanctionsCheck(ctx, tenantID, customer, execution, now)
	}
	if schedule.PEPCheck {
		s.runPEPCheck(ctx, tenantID, customer, cfg, execution, now)
	}
	if schedule.DocumentCheck {
		s.runDocumentCheck(ctx, tenantID, customer, execution)
	}

	return execution
}

func (s *Scheduler) runSanctionsCheck(ctx context.Context, tenantID uuid.UUID, customer *models.Customer, execution *models.OCDDExecution, now time.Time) {
	result, err := s.screener.Screen(ctx, screening.Query{
		Name:    customer.FullName,
		DOB:     customer.DateOfBirth,
		Country: customer.CountryCode,
		Sources: []string{"sanctions"},
	})
	if err != nil {
		execution.Checks = append(execution.Checks, models.CheckEntry{
			Type: CheckSanctions, Result: "error", Detail: err.Error(),
		})
		execution.Findings = append(execution.Findings, models.Finding{
			Type: "provider_error", Severity: models.RiskLevelMedium, ActionRequired: false,
		})
		execution.Result = escalate(execution.Result, models.ExecutionResultError)
		return
	}

	detail := "no sanctions match"
	checkResult := "clear"
	if result.IsMatch {
		checkResult = "match"
		detail = fmt.Sprintf("matched %d watchlist entries, top score %.2f", len(result.Matches), result.MatchScore)
		execution.Findings = append(execution.Findings, models.Finding{
			Type: "sanctions_match", Severity: models.RiskLevelHigh, ActionRequired: true,
		})
		execution.Result = escalate(execution.Result, models.ExecutionResultEscalated)

		if err := s.notifier.Notify(ctx, tenantID, notification.EventOCDDEscalated, map[string]interface{}{
			"customer_id": customer.ID.String(),
			"match_score": result.MatchScore,
			"matches":     len(result.Matches),
		}); err != nil {
			s.logger.Errorw("escalation notification failed",
				"tenant_id", tenantID, "customer_id", customer.ID, "error", err)
		}
	}
	execution.Checks = append(execution.Checks, models.CheckEntry{
		Type: CheckSanctions, Result: checkResult, Detail: detail,
	})

	if err := s.store.SaveScreening(ctx, &models.ScreeningRecord{
		ID:         uuid.New(),
		TenantID:   tenantID,
		CustomerID: customer.ID,
		Kind:       CheckSanctions,
		IsMatch:    result.IsMatch,
		MatchScore: result.MatchScore,
		Detail:     detail,
		ScreenedAt: now,
	}); err != nil {
		s.logger.Warnw("failed to persist sanctions screening record",
			"customer_id", customer.ID, "error", err)
	}
}

// runPEPCheck consults the latest stored PEP screening, or re-screens live
// when the jurisdiction config asks for it. A positive raises the result to
// at least REQUIRES_ACTION without downgrading an ESCALATED outcome.
func (s *Scheduler) runPEPCheck(ctx context.Context, tenantID uuid.UUID, customer *models.Customer, cfg *regional.Config, execution *models.OCDDExecution, now time.Time) {
	var (
		isMatch bool
		detail  string
	)

	if cfg.PEPRescreenOnReview {
		result, err := s.screener.Screen(ctx, screening.Query{
			Name:    customer.FullName,
			DOB:     customer.DateOfBirth,
			Country: customer.CountryCode,
			Sources: []string{"pep"},
		})
		if err != nil {
			execution.Checks = append(execution.Checks, models.CheckEntry{
				Type: CheckPEP, Result: "error", Detail: err.Error(),
			})
			execution.Result = escalate(execution.Result, models.ExecutionResultError)
			return
		}
		isMatch = result.IsMatch
		detail = fmt.Sprintf("live re-screen, score %.2f", result.MatchScore)

		if err := s.store.SaveScreening(ctx, &models.ScreeningRecord{
			ID:         uuid.New(),
			TenantID:   tenantID,
			CustomerID: customer.ID,
			Kind:       CheckPEP,
			IsMatch:    result.IsMatch,
			MatchScore: result.MatchScore,
			Detail:     detail,
			ScreenedAt: now,
		}); err != nil {
			s.logger.Warnw("failed to persist pep screening record",
				"customer_id", customer.ID, "error", err)
		}
	} else {
		record, err := s.store.LatestScreening(ctx, tenantID, customer.ID, CheckPEP)
		if errors.Is(err, storage.ErrNotFound) {
			// Fall back on the customer's standing PEP flag when no
			// screening history exists.
			isMatch = customer.IsPEP
			detail = "no screening history, using customer flag"
		} else if err != nil {
			execution.Checks = append(execution.Checks, models.CheckEntry{
				Type: CheckPEP, Result: "error", Detail: err.Error(),
			})
			execution.Result = escalate(execution.Result, models.ExecutionResultError)
			return
		} else {
			isMatch = record.IsMatch
			detail = fmt.Sprintf("stored screening from %s", record.ScreenedAt.Format("2006-01-02"))
		}
	}

	checkResult := "clear"
	if isMatch {
		checkResult = "match"
		execution.Findings = append(execution.Findings, models.Finding{
			Type: "pep_match", Severity: models.RiskLevelMedium, ActionRequired: true,
		})
		execution.Result = escalate(execution.Result, models.ExecutionResultRequiresAction)
	}
	execution.Checks = append(execution.Checks, models.CheckEntry{
		Type: CheckPEP, Result: checkResult, Detail: detail,
	})
}

func (s *Scheduler) runDocumentCheck(ctx context.Context, tenantID uuid.UUID, customer *models.Customer, execution *models.OCDDExecution) {
	expired, detail, err := s.docs.CheckExpiry(ctx, tenantID, customer.ID)
	if err != nil {
		execution.Checks = append(execution.Checks, models.CheckEntry{
			Type: CheckDocuments, Result: "error", Detail: err.Error(),
		})
		execution.Result = escalate(execution.Result, models.ExecutionResultError)
		return
	}

	checkResult := "clear"
	if expired {
		checkResult = "expired"
		execution.Findings = append(execution.Findings, models.Finding{
			Type: "document_expired", Severity: models.RiskLevelMedium, ActionRequired: true,
		})
		execution.Result = escalate(execution.Result, models.ExecutionResultRequiresAction)
	}
	execution.Checks = append(execution.Checks, models.CheckEntry{
		Type: CheckDocuments, Result: checkResult, Detail: detail,
	})
}

// advanceSchedule records the execution on the schedule and moves the next
// due date out by the customer's risk-tier frequency. Schedule-level
// frequency overrides win over the jurisdiction config.
func (s *Scheduler) advanceSchedule(ctx context.Context, schedule *models.OCDDSchedule, customer *models.Customer, cfg *regional.Config, execution *models.OCDDExecution, now time.Time) error {
	frequencyDays := cfg.OCDDFrequencyDays(customer.RiskLevel)
	if override, ok := schedule.FrequencyOverrides[string(customer.RiskLevel)]; ok && override > 0 {
		frequencyDays = override
	}

	executedAt := execution.ExecutedAt
	next := now.AddDate(0, 0, frequencyDays)

	schedule.LastExecutedAt = &executedAt
	schedule.LastResult = execution.Result
	schedule.NextScheduledAt = next
	schedule.UpdatedAt = now
	if err := s.store.UpdateSchedule(ctx, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}

	if err := s.store.UpdateCustomerReview(ctx, schedule.TenantID, customer.ID, executedAt, next); err != nil {
		return fmt.Errorf("update customer review timestamps: %w", err)
	}
	return nil
}

// reportScheduleCounts computes overdue/upcoming counts and sends one
// summary notification per tenant per day when anything needs attention.
func (s *Scheduler) reportScheduleCounts(ctx context.Context, tenantID uuid.UUID, summary *Summary, now time.Time) {
	overdue, err := s.store.CountOverdueSchedules(ctx, tenantID, now)
	if err != nil {
		s.logger.Warnw("overdue schedule count failed", "tenant_id", tenantID, "error", err)
	}
	upcoming, err := s.store.CountUpcomingSchedules(ctx, tenantID, now, UpcomingHorizonDays)
	if err != nil {
		s.logger.Warnw("upcoming schedule count failed", "tenant_id", tenantID, "error", err)
	}
	summary.Overdue = overdue
	summary.Upcoming = upcoming

	if overdue == 0 && upcoming == 0 {
		return
	}

	day := now.UTC().Format("2006-01-02")
	seen, err := s.dedup.Seen(ctx, tenantID, dedupKindOCDD, day)
	if err != nil {
		s.logger.Warnw("ocdd dedup lookup failed, proceeding", "tenant_id", tenantID, "error", err)
	}
	if seen {
		return
	}

	eventType := notification.EventOCDDOverdue
	if overdue == 0 {
		eventType = notification.EventOCDDUpcoming
	}
	if err := s.notifier.Notify(ctx, tenantID, eventType, map[string]interface{}{
		"overdue":      overdue,
		"upcoming":     upcoming,
		"horizon_days": UpcomingHorizonDays,
	}); err != nil {
		s.logger.Errorw("schedule count notification failed", "tenant_id", tenantID, "error", err)
		return
	}

	if err := s.dedup.Mark(ctx, tenantID, dedupKindOCDD, day); err != nil {
		s.logger.Warnw("failed to write ocdd dedup marker", "tenant_id", tenantID, "error", err)
	}
}

// escalate returns the more severe of two execution results.
func escalate(current, candidate models.ExecutionResult) models.ExecutionResult {
	if severity(candidate) > severity(current) {
		return candidate
	}
	return current
}

func severity(r models.ExecutionResult) int {
	switch r {
	case models.ExecutionResultPassed:
		return 0
	case models.ExecutionResultRequiresAction:
		return 1
	case models.ExecutionResultFailed:
		return 2
	case models.ExecutionResultEscalated:
		return 3
	case models.ExecutionResultError:
		return 4
	default:
		return 0
	}
}

package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/internal/notification"
	"github.com/vantapay/compliance/pkg/models"
)

// Urgency buckets, in descending order of priority. Deadlines whose
// remaining business days match no bucket are silent.
var alertBuckets = []struct {
	Name string
	Days int
}{
	{"overdue", 0},
	{"due_tomorrow", 1},
	{"due_in_two", 2},
	{"due_in_five", 5},
}

// PendingReportReader loads a tenant's unsubmitted reports.
type PendingReportReader interface {
	PendingReports(ctx context.Context, tenantID uuid.UUID) ([]models.PendingReport, error)
}

// DedupStore records which (tenant, report type, day) alerts went out.
type DedupStore interface {
	Seen(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) (bool, error)
	Mark(ctx context.Context, tenantID uuid.UUID, reportType models.ReportType, day string) error
}

// CheckResult summarizes one deadline sweep for a tenant
type CheckResult struct {
	Checked    int `json:"checked"`
	AlertsSent int `json:"alerts_sent"`
}

// Tracker classifies pending report deadlines into urgency buckets and sends
// at most one deduplicated escalation alert per run.
type Tracker struct {
	store    PendingReportReader
	dedup    DedupStore
	notifier notification.Notifier
	logger   *zap.SugaredLogger
}

// NewTracker creates a deadline tracker.
func NewTracker(store PendingReportReader, dedup DedupStore, notifier notification.Notifier, logger *zap.SugaredLogger) *Tracker {
	return &Tracker{store: store, dedup: dedup, notifier: notifier, logger: logger}
}

// CheckPending sweeps the tenant's pending reports, picks the most urgent
// non-empty bucket, and sends one alert unless one already went out today
// for that report type. A failed dedup write is logged but never blocks the
// alert; duplicate delivery across retried runs is tolerated.
func (t *Tracker) CheckPending(ctx context.Context, tenantID uuid.UUID, cfg *regional.Config, now time.Time) (CheckResult, error) {
	reports, err := t.store.PendingReports(ctx, tenantID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load pending reports for tenant %s: %w", tenantID, err)
	}

	result := CheckResult{Checked: len(reports)}

	var (
		best       *models.PendingReport
		bestBucket = -1
		bestDays   int
	)
	for i := range reports {
		report := &reports[i]
		remaining := cfg.Calendar().BusinessDaysRemaining(report.Deadline, now)
		bucket := bucketIndex(remaining)
		if bucket < 0 {
			continue
		}
		if best == nil || bucket < bestBucket {
			best, bestBucket, bestDays = report, bucket, remaining
		}
	}
	if best == nil {
		return result, nil
	}

	day := now.UTC().Format("2006-01-02")
	seen, err := t.dedup.Seen(ctx, tenantID, best.ReportType, day)
	if err != nil {
		t.logger.Warnw("dedup lookup failed, proceeding with alert",
			"tenant_id", tenantID, "report_type", best.ReportType, "error", err)
	}
	if seen {
		t.logger.Debugw("deadline alert already sent today",
			"tenant_id", tenantID, "report_type", best.ReportType, "day", day)
		return result, nil
	}

	payload := map[string]interface{}{
		"report_id":      best.ID.String(),
		"report_type":    string(best.ReportType),
		"reference":      best.Reference,
		"bucket":         alertBuckets[bestBucket].Name,
		"days_remaining": bestDays,
		"deadline":       best.Deadline.Format(time.RFC3339),
	}
	if err := t.notifier.Notify(ctx, tenantID, notification.EventDeadlineAlert, payload); err != nil {
		t.logger.Errorw("deadline alert delivery failed",
			"tenant_id", tenantID, "report_type", best.ReportType, "error", err)
		return result, nil
	}
	result.AlertsSent++

	if err := t.dedup.Mark(ctx, tenantID, best.ReportType, day); err != nil {
		// Tolerated: a retried run may re-alert today, which beats losing
		// the alert entirely.
		t.logger.Warnw("failed to write alert dedup marker",
			"tenant_id", tenantID, "report_type", best.ReportType, "error", err)
	}

	t.logger.Infow("deadline escalation sent",
		"tenant_id", tenantID,
		"report_type", best.ReportType,
		"bucket", alertBuckets[bestBucket].Name,
		"reference", best.Reference,
	)

	return result, nil
}

// bucketIndex maps remaining business days onto an alert bucket, -1 when no
// bucket applies. Anything at or past the deadline counts as overdue.
func bucketIndex(remaining int) int {
	if remaining <= 0 {
		return 0
	}
	for i, b := range alertBuckets[1:] {
		if remaining == b.Days {
			return i + 1
		}
	}
	return -1
}

// Package detection evaluates transaction histories for structuring, the
// splitting of transfers to stay under a reporting threshold. Detection is
// read-only against the store; window and band bounds come from the
// tenant's jurisdiction config.
package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/pkg/models"
)

// TransactionReader provides the read-only history access the detector needs.
type TransactionReader interface {
	TransactionsSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) ([]models.Transaction, error)
}

// Result describes the outcome of one structuring evaluation
type Result struct {
	IsStructuring bool            `json:"is_structuring"`
	Count         int             `json:"count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Indicators    []string        `json:"indicators"`
}

// Detector flags clusters of sub-threshold transactions
type Detector struct {
	store  TransactionReader
	logger *zap.SugaredLogger
}

// NewDetector creates a structuring detector.
func NewDetector(store TransactionReader, logger *zap.SugaredLogger) *Detector {
	return &Detector{store: store, logger: logger}
}

// Detect reads the customer's transactions within the trailing window,
// conceptually adds the candidate amount, and flags structuring when the
// count of in-band transactions meets the configured minimum.
func (d *Detector) Detect(ctx context.Context, tenantID, customerID uuid.UUID, candidate decimal.Decimal, params regional.StructuringParams, now time.Time) (*Result, error) {
	since := now.AddDate(0, 0, -params.WindowDays)
	history, err := d.store.TransactionsSince(ctx, tenantID, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("load transactions for customer %s: %w", customerID, err)
	}

	count := 0
	total := decimal.Zero
	for _, tx := range history {
		if inBand(tx.Amount, params.AmountRange) {
			count++
			total = total.Add(tx.Amount)
		}
	}
	if inBand(candidate, params.AmountRange) {
		count++
		total = total.Add(candidate)
	}

	result := &Result{
		Count:       count,
		TotalAmount: total,
	}

	if params.MinTransactionCount > 0 && count >= params.MinTransactionCount {
		result.IsStructuring = true
		result.Indicators = append(result.Indicators, fmt.Sprintf(
			"%d transactions between %s and %s within %d days, total %s",
			count,
			params.AmountRange.Min.StringFixed(2),
			params.AmountRange.Max.StringFixed(2),
			params.WindowDays,
			total.StringFixed(2),
		))
		d.logger.Infow("structuring pattern detected",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"count", count,
			"total", total.StringFixed(2),
			"window_days", params.WindowDays,
		)
	}

	return result, nil
}

func inBand(amount decimal.Decimal, band regional.AmountRange) bool {
	return amount.GreaterThanOrEqual(band.Min) && amount.LessThanOrEqual(band.Max)
}

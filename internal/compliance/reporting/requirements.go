// Package reporting resolves regulatory reporting obligations and tracks
// submission deadlines for pending reports.
package reporting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/pkg/models"
)

// Requirements lists the obligations triggered by one transaction
type Requirements struct {
	RequiresKYC        bool `json:"requires_kyc"`
	RequiresTTR        bool `json:"requires_ttr"`
	RequiresEnhancedDD bool `json:"requires_enhanced_dd"`
}

// ResolveRequirements compares the amount against the jurisdiction's
// thresholds and folds in customer state and the structuring verdict. Pure;
// no I/O.
func ResolveRequirements(amount decimal.Decimal, t regional.Thresholds, customer *models.Customer, isStructuring bool) Requirements {
	req := Requirements{
		RequiresKYC: t.KYCRequired.IsPositive() && amount.GreaterThanOrEqual(t.KYCRequired),
		RequiresTTR: t.TTRRequired.IsPositive() && amount.GreaterThanOrEqual(t.TTRRequired),
	}
	if t.EnhancedDDRequired.IsPositive() && amount.GreaterThanOrEqual(t.EnhancedDDRequired) {
		req.RequiresEnhancedDD = true
	}
	if customer != nil && customer.RequiresEDD {
		req.RequiresEnhancedDD = true
	}
	if isStructuring {
		// Structuring always escalates to enhanced due diligence.
		req.RequiresEnhancedDD = true
	}
	return req
}

// GenerateReportReference derives a stable, collision-resistant reference
// for a report on the given transaction. The same transaction id always
// yields the same reference, so re-submission routines can recognize an
// existing report instead of filing a duplicate.
func GenerateReportReference(reportType models.ReportType, transactionID uuid.UUID) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("report:%s:%s", reportType, transactionID)))
	return fmt.Sprintf("%s-%s", reportType, strings.ToUpper(hex.EncodeToString(sum[:6])))
}

// Package scoring implements the additive weighted risk model applied to
// every transaction. Scoring is a pure function of the supplied context so
// identical inputs always produce identical, fully auditable results.
package scoring

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vantapay/compliance/internal/compliance/regional"
	"github.com/vantapay/compliance/pkg/models"
)

// Factor reason codes. Every non-zero contribution to a score is recorded
// under one of these so the result can be audited.
const (
	FactorAmountAboveKYC = "AMOUNT_ABOVE_KYC"
	FactorAmountAboveTTR = "AMOUNT_ABOVE_TTR"
	FactorAmountAboveEDD = "AMOUNT_ABOVE_EDD"
	FactorNewCustomer    = "NEW_CUSTOMER"
	FactorHighVelocity   = "HIGH_VELOCITY"
	FactorPEP            = "PEP"
	FactorSanctioned     = "SANCTIONED"
	FactorUnverified     = "UNVERIFIED"
	FactorEDDRequired    = "EDD_REQUIRED"
	FactorStructuring    = "STRUCTURING"
)

// Context carries everything the scoring model needs for one evaluation.
// It is constructed fresh per call and never persisted.
type Context struct {
	Amount             decimal.Decimal
	Currency           string
	CustomerAgeDays    int
	RecentTxCount      int // trailing window, typically 7 days
	IsStructuring      bool
	RequiresEDD        bool
	IsPEP              bool
	IsSanctioned       bool
	VerificationStatus models.VerificationStatus
	Thresholds         regional.Thresholds
	Bands              regional.RiskBands
	Velocity           regional.VelocityParams
}

// Result is the outcome of scoring one context
type Result struct {
	Score   float64
	Level   models.RiskLevel
	Factors []models.RiskFactor
}

// Weights defines the contribution of each factor. Amount tier weights must
// be non-decreasing so the score stays monotonic in the transaction amount.
type Weights struct {
	AmountAboveKYC float64
	AmountAboveTTR float64
	AmountAboveEDD float64
	NewCustomer    float64
	HighVelocity   float64
	PEP            float64
	Sanctioned     float64
	Unverified     float64
	EDDRequired    float64
	Structuring    float64

	NewCustomerAgeDays int
}

// DefaultWeights returns the standard model weights.
func DefaultWeights() Weights {
	return Weights{
		AmountAboveKYC:     10,
		AmountAboveTTR:     25,
		AmountAboveEDD:     35,
		NewCustomer:        15,
		HighVelocity:       15,
		PEP:                20,
		Sanctioned:         40,
		Unverified:         10,
		EDDRequired:        10,
		Structuring:        25,
		NewCustomerAgeDays: 30,
	}
}

// Engine is a stateless risk scorer
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine with the given weights.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w}
}

// Score evaluates the context against the weighted model. The sum of factor
// weights is clipped to [0, 100] and mapped onto the configured level bands.
func (e *Engine) Score(ctx Context) Result {
	var factors []models.RiskFactor
	add := func(code string, weight float64) {
		if weight != 0 {
			factors = append(factors, models.RiskFactor{Code: code, Weight: weight})
		}
	}

	// Amount tier relative to configured thresholds. Only the highest tier
	// reached contributes.
	switch {
	case ctx.Thresholds.EnhancedDDRequired.IsPositive() && ctx.Amount.GreaterThanOrEqual(ctx.Thresholds.EnhancedDDRequired):
		add(FactorAmountAboveEDD, e.weights.AmountAboveEDD)
	case ctx.Thresholds.TTRRequired.IsPositive() && ctx.Amount.GreaterThanOrEqual(ctx.Thresholds.TTRRequired):
		add(FactorAmountAboveTTR, e.weights.AmountAboveTTR)
	case ctx.Thresholds.KYCRequired.IsPositive() && ctx.Amount.GreaterThanOrEqual(ctx.Thresholds.KYCRequired):
		add(FactorAmountAboveKYC, e.weights.AmountAboveKYC)
	}

	if ctx.CustomerAgeDays < e.weights.NewCustomerAgeDays {
		add(FactorNewCustomer, e.weights.NewCustomer)
	}

	if baseline := ctx.Velocity.BaselineWeeklyCount; baseline > 0 && ctx.Velocity.Multiplier > 0 {
		if float64(ctx.RecentTxCount) >= float64(baseline)*ctx.Velocity.Multiplier {
			add(FactorHighVelocity, e.weights.HighVelocity)
		}
	}

	if ctx.IsPEP {
		add(FactorPEP, e.weights.PEP)
	}
	if ctx.IsSanctioned {
		add(FactorSanctioned, e.weights.Sanctioned)
	}
	if ctx.VerificationStatus != models.VerificationVerified {
		add(FactorUnverified, e.weights.Unverified)
	}
	if ctx.RequiresEDD {
		add(FactorEDDRequired, e.weights.EDDRequired)
	}
	if ctx.IsStructuring {
		add(FactorStructuring, e.weights.Structuring)
	}

	total := 0.0
	for _, f := range factors {
		total += f.Weight
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Weight > factors[j].Weight
	})

	return Result{
		Score:   total,
		Level:   levelFor(total, ctx.Bands),
		Factors: factors,
	}
}

func levelFor(score float64, bands regional.RiskBands) models.RiskLevel {
	high, medium := bands.High, bands.Medium
	if high <= 0 {
		high = 70
	}
	if medium <= 0 {
		medium = 40
	}
	switch {
	case score >= high:
		return models.RiskLevelHigh
	case score >= medium:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

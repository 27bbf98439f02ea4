// Package regional resolves jurisdiction-specific compliance configuration.
// Built-in defaults per region are deep-merged with tenant overrides into an
// effective Config; the shared default table is never mutated.
package regional

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"

	"github.com/vantapay/compliance/internal/compliance/calendar"
	"github.com/vantapay/compliance/pkg/models"
)

// DefaultRegion is used when a tenant's region code has no built-in defaults.
const DefaultRegion = "AU"

// Fallbacks used when a merged config is missing an entry entirely.
const (
	fallbackDeadlineDays  = 10
	fallbackFrequencyDays = 365
)

// Thresholds holds the monetary reporting thresholds for a jurisdiction
type Thresholds struct {
	TTRRequired        decimal.Decimal `json:"ttr_required" mapstructure:"ttr_required"`
	KYCRequired        decimal.Decimal `json:"kyc_required" mapstructure:"kyc_required"`
	EnhancedDDRequired decimal.Decimal `json:"enhanced_dd_required" mapstructure:"enhanced_dd_required"`
}

// AmountRange bounds the sub-threshold band used by structuring detection
type AmountRange struct {
	Min decimal.Decimal `json:"min" mapstructure:"min"`
	Max decimal.Decimal `json:"max" mapstructure:"max"`
}

// StructuringParams configures the structuring detector for a jurisdiction
type StructuringParams struct {
	WindowDays          int         `json:"window_days" mapstructure:"window_days"`
	MinTransactionCount int         `json:"min_transaction_count" mapstructure:"min_transaction_count"`
	AmountRange         AmountRange `json:"amount_range" mapstructure:"amount_range"`
}

// RiskBands holds the score cut points between risk levels
type RiskBands struct {
	Medium float64 `json:"medium" mapstructure:"medium"`
	High   float64 `json:"high" mapstructure:"high"`
}

// VelocityParams configures the transaction velocity risk factor
type VelocityParams struct {
	BaselineWeeklyCount int     `json:"baseline_weekly_count" mapstructure:"baseline_weekly_count"`
	Multiplier          float64 `json:"multiplier" mapstructure:"multiplier"`
}

// Config is the effective compliance configuration for one tenant, derived
// from jurisdiction defaults merged with tenant overrides.
type Config struct {
	Jurisdiction        string                 `json:"jurisdiction" mapstructure:"jurisdiction"`
	Currency            string                 `json:"currency" mapstructure:"currency"`
	Thresholds          Thresholds             `json:"thresholds" mapstructure:"thresholds"`
	Structuring         StructuringParams      `json:"structuring" mapstructure:"structuring"`
	DeadlineDays        map[string]int         `json:"reporting_deadline_days" mapstructure:"reporting_deadline_days"`
	OCDDFrequencies     map[string]int         `json:"ocdd_frequency_days" mapstructure:"ocdd_frequency_days"`
	RiskBands           RiskBands              `json:"risk_bands" mapstructure:"risk_bands"`
	Velocity            VelocityParams         `json:"velocity" mapstructure:"velocity"`
	HighRiskCountries   []string               `json:"high_risk_countries" mapstructure:"high_risk_countries"`
	Holidays            []calendar.HolidaySpec `json:"holidays" mapstructure:"holidays"`
	Workweek            []int                  `json:"workweek" mapstructure:"workweek"`
	PEPRescreenOnReview bool                   `json:"pep_rescreen_on_review" mapstructure:"pep_rescreen_on_review"`

	cal *calendar.Calendar
}

// Calendar returns the business calendar for this jurisdiction.
func (c *Config) Calendar() *calendar.Calendar {
	return c.cal
}

// OCDDFrequencyDays returns how many days separate recurring reviews for a
// customer at the given risk tier.
func (c *Config) OCDDFrequencyDays(tier models.RiskLevel) int {
	if days, ok := c.OCDDFrequencies[string(tier)]; ok && days > 0 {
		return days
	}
	return fallbackFrequencyDays
}

// ReportingDeadlineDays returns the submission deadline in business days for
// the given report type.
func (c *Config) ReportingDeadlineDays(rt models.ReportType) int {
	if days, ok := c.DeadlineDays[string(rt)]; ok && days > 0 {
		return days
	}
	return fallbackDeadlineDays
}

// IsHighRiskCountry reports whether the country code is on the jurisdiction's
// high-risk list.
func (c *Config) IsHighRiskCountry(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, hr := range c.HighRiskCountries {
		if strings.ToUpper(hr) == code {
			return true
		}
	}
	return false
}

// Resolve looks up defaults for regionCode, falling back to DefaultRegion
// for unknown codes, and deep-merges tenant overrides on top: nested maps
// merge recursively, scalars and arrays replace outright.
func Resolve(regionCode string, overrides map[string]interface{}) (*Config, error) {
	base, ok := defaults[strings.ToUpper(regionCode)]
	if !ok {
		base = defaults[DefaultRegion]
	}

	merged := deepCopy(base)
	deepMerge(merged, overrides)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalHook,
		Result:     cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("decode config for region %s: %w", regionCode, err)
	}

	cal, err := calendar.New(cfg.Workweek, cfg.Holidays)
	if err != nil {
		return nil, fmt.Errorf("build calendar for region %s: %w", regionCode, err)
	}
	cfg.cal = cal

	return cfg, nil
}

// deepMerge merges src into dst in place. When both sides hold maps the
// merge recurses; any other value in src replaces the dst value.
func deepMerge(dst, src map[string]interface{}) {
	for key, sv := range src {
		if dv, ok := dst[key]; ok {
			dm, dok := toStringMap(dv)
			sm, sok := toStringMap(sv)
			if dok && sok {
				deepMerge(dm, sm)
				dst[key] = dm
				continue
			}
		}
		dst[key] = sv
	}
}

func toStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out, true
	}
	return nil, false
}

func deepCopy(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := toStringMap(v); ok {
			dst[k] = deepCopy(m)
			continue
		}
		if s, ok := v.([]interface{}); ok {
			cp := make([]interface{}, len(s))
			for i, item := range s {
				if m, ok := toStringMap(item); ok {
					cp[i] = deepCopy(m)
				} else {
					cp[i] = item
				}
			}
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
	return dst
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook lets plain numbers and strings in config maps decode into
// decimal.Decimal fields.
func decimalHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	}
	return data, nil
}

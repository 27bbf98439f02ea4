package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel represents the categorical risk level of a customer or transaction
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// ReportType represents the type of regulatory report
type ReportType string

const (
	ReportTypeTTR ReportType = "TTR" // Threshold Transaction Report
	ReportTypeSMR ReportType = "SMR" // Suspicious Matter Report
)

// ReportStatus represents the lifecycle status of a regulatory report
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusSubmitted ReportStatus = "SUBMITTED"
)

// VerificationStatus represents a customer's identity verification state
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "UNVERIFIED"
	VerificationPending    VerificationStatus = "PENDING"
	VerificationVerified   VerificationStatus = "VERIFIED"
)

// ScheduleStatus represents the lifecycle status of an OCDD schedule
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"
	ScheduleStatusPaused    ScheduleStatus = "PAUSED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

// ExecutionResult represents the overall outcome of an OCDD execution
type ExecutionResult string

const (
	ExecutionResultPassed         ExecutionResult = "PASSED"
	ExecutionResultFailed         ExecutionResult = "FAILED"
	ExecutionResultRequiresAction ExecutionResult = "REQUIRES_ACTION"
	ExecutionResultEscalated      ExecutionResult = "ESCALATED"
	ExecutionResultError          ExecutionResult = "ERROR"
)

// Tenant represents an onboarded reporting entity
type Tenant struct {
	ID         uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string                 `json:"name" gorm:"not null"`
	RegionCode string                 `json:"region_code" gorm:"not null"`
	Overrides  map[string]interface{} `json:"overrides" gorm:"serializer:json"`
	IsActive   bool                   `json:"is_active" gorm:"index"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// Customer represents a customer of a tenant subject to due diligence
type Customer struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID          `json:"tenant_id" gorm:"type:uuid;index;not null"`
	FullName           string             `json:"full_name"`
	DateOfBirth        *time.Time         `json:"date_of_birth"`
	CountryCode        string             `json:"country_code"`
	RiskLevel          RiskLevel          `json:"risk_level" gorm:"default:LOW"`
	RiskScore          float64            `json:"risk_score"`
	VerificationStatus VerificationStatus `json:"verification_status" gorm:"default:UNVERIFIED"`
	IsPEP              bool               `json:"is_pep"`
	IsSanctioned       bool               `json:"is_sanctioned"`
	RequiresEDD        bool               `json:"requires_edd"`
	LastReviewedAt     *time.Time         `json:"last_reviewed_at"`
	NextReviewAt       *time.Time         `json:"next_review_at"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// AgeDays returns the customer's account age in whole days at the given time.
func (c *Customer) AgeDays(now time.Time) int {
	return int(now.Sub(c.CreatedAt).Hours() / 24)
}

// Transaction represents a monetary transaction under compliance analysis
type Transaction struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CustomerID  uuid.UUID       `json:"customer_id" gorm:"type:uuid;index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,2)"`
	Currency    string          `json:"currency"`
	Direction   string          `json:"direction"` // "inbound" or "outbound"
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// RiskFactor is a single auditable contribution to a risk score
type RiskFactor struct {
	Code   string  `json:"code"`
	Weight float64 `json:"weight"`
}

// RiskAssessment is the persisted outcome of evaluating one transaction
type RiskAssessment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `json:"tenant_id" gorm:"type:uuid;index;not null"`
	TransactionID uuid.UUID       `json:"transaction_id" gorm:"type:uuid;uniqueIndex;not null"`
	CustomerID    uuid.UUID       `json:"customer_id" gorm:"type:uuid;index"`
	Score         float64         `json:"score"`
	Level         RiskLevel       `json:"level"`
	Factors       []RiskFactor    `json:"factors" gorm:"serializer:json"`
	IsStructuring bool            `json:"is_structuring"`
	StructuredSum decimal.Decimal `json:"structured_sum" gorm:"type:decimal(20,2)"`
	RequiresTTR   bool            `json:"requires_ttr"`
	RequiresKYC   bool            `json:"requires_kyc"`
	RequiresEDD   bool            `json:"requires_edd"`
	TTRReference  string          `json:"ttr_reference"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PendingReport represents a regulatory report awaiting submission
type PendingReport struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	TransactionID uuid.UUID    `json:"transaction_id" gorm:"type:uuid;index"`
	ReportType    ReportType   `json:"report_type" gorm:"not null"`
	Reference     string       `json:"reference" gorm:"uniqueIndex"`
	Status        ReportStatus `json:"status" gorm:"default:PENDING;index"`
	Deadline      time.Time    `json:"deadline" gorm:"index"`
	SubmittedAt   *time.Time   `json:"submitted_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ScreeningRecord stores the result of a sanctions or PEP screening run
type ScreeningRecord struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `json:"customer_id" gorm:"type:uuid;index;not null"`
	Kind       string    `json:"kind" gorm:"index"` // "sanctions" or "pep"
	IsMatch    bool      `json:"is_match"`
	MatchScore float64   `json:"match_score"`
	Detail     string    `json:"detail"`
	ScreenedAt time.Time `json:"screened_at" gorm:"index"`
}

// CheckEntry records one automated check performed during an OCDD execution
type CheckEntry struct {
	Type   string `json:"type"`
	Result string `json:"result"`
	Detail string `json:"detail"`
}

// Finding records an issue surfaced by an OCDD execution
type Finding struct {
	Type           string    `json:"type"`
	Severity       RiskLevel `json:"severity"`
	ActionRequired bool      `json:"action_required"`
}

// OCDDSchedule represents a recurring due-diligence review for one customer.
// Mutated only by the review scheduler after an execution.
type OCDDSchedule struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID           uuid.UUID       `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CustomerID         uuid.UUID       `json:"customer_id" gorm:"type:uuid;index;not null"`
	ScheduleType       string          `json:"schedule_type"`
	Status             ScheduleStatus  `json:"status" gorm:"default:ACTIVE;index"`
	SanctionsCheck     bool            `json:"sanctions_check"`
	PEPCheck           bool            `json:"pep_check"`
	DocumentCheck      bool            `json:"document_check"`
	FrequencyOverrides map[string]int  `json:"frequency_overrides" gorm:"serializer:json"` // risk tier -> days
	NextScheduledAt    time.Time       `json:"next_scheduled_at" gorm:"index"`
	LastExecutedAt     *time.Time      `json:"last_executed_at"`
	LastResult         ExecutionResult `json:"last_result"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OCDDExecution is the immutable record of one schedule run. Append-only;
// never updated after creation.
type OCDDExecution struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID       `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ScheduleID uuid.UUID       `json:"schedule_id" gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID       `json:"customer_id" gorm:"type:uuid;index"`
	Checks     []CheckEntry    `json:"checks" gorm:"serializer:json"`
	Findings   []Finding       `json:"findings" gorm:"serializer:json"`
	Result     ExecutionResult `json:"result" gorm:"index"`
	ExecutedAt time.Time       `json:"executed_at" gorm:"index"`
}

// AlertDedupMarker records that an escalation alert has already been sent for
// (tenant, report type, calendar day). At-least-once periodic triggers rely
// on it to avoid re-alerting within the same day.
type AlertDedupMarker struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `json:"tenant_id" gorm:"type:uuid;index:idx_alert_dedup,unique;not null"`
	ReportType ReportType `json:"report_type" gorm:"index:idx_alert_dedup,unique"`
	Day        string     `json:"day" gorm:"index:idx_alert_dedup,unique"` // YYYY-MM-DD
	CreatedAt  time.Time  `json:"created_at"`
}

// AuditEvent is an append-only audit trail entry
type AuditEvent struct {
	ID          uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID              `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ActionType  string                 `json:"action_type" gorm:"index"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id" gorm:"index"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata" gorm:"serializer:json"`
	CreatedAt   time.Time              `json:"created_at" gorm:"index"`
}

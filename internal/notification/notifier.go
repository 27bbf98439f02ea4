// Package notification defines the fire-and-forget notification sink used
// for compliance alerting. Delivery failures are logged by callers and never
// interrupt core logic.
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Event types published by the compliance core.
const (
	EventDeadlineAlert      = "report.deadline.alert"
	EventOCDDEscalated      = "ocdd.review.escalated"
	EventOCDDOverdue        = "ocdd.schedules.overdue"
	EventOCDDUpcoming       = "ocdd.schedules.upcoming"
	EventTransactionFlagged = "transaction.flagged"
)

// Notifier is the notification sink port.
type Notifier interface {
	Notify(ctx context.Context, tenantID uuid.UUID, eventType string, payload map[string]interface{}) error
}

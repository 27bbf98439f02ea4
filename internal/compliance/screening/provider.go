// Package screening defines the screening provider port used by OCDD
// reviews and ships an in-process list-based implementation suitable for
// tests and self-hosted watchlists.
package screening

import (
	"context"
	"time"
)

// Query identifies the person being screened
type Query struct {
	Name    string     `json:"name"`
	DOB     *time.Time `json:"dob,omitempty"`
	Country string     `json:"country,omitempty"`
	Sources []string   `json:"sources,omitempty"`
}

// Match is one watchlist hit
type Match struct {
	ListID     string  `json:"list_id"`
	EntryID    string  `json:"entry_id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"` // "sanctions" or "pep"
	MatchScore float64 `json:"match_score"`
}

// Result is the explicit, fixed-shape outcome of a screening call
type Result struct {
	IsMatch    bool     `json:"is_match"`
	MatchScore float64  `json:"match_score"`
	Matches    []Match  `json:"matches"`
	Sources    []string `json:"sources"`
	Status     string   `json:"status"` // "completed" or "error"
}

// Provider is the pluggable screening collaborator. Implementations may call
// out to a vendor; failures are surfaced as errors and handled by callers.
type Provider interface {
	Screen(ctx context.Context, q Query) (*Result, error)
}

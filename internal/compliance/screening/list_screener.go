package screening

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// ListEntry is one row of a watchlist
type ListEntry struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	Country        string   `json:"country,omitempty"`
	Kind           string   `json:"kind"` // "sanctions" or "pep"
}

// List is a named watchlist
type List struct {
	ID      string      `json:"id"`
	Source  string      `json:"source"`
	Entries []ListEntry `json:"entries"`
}

// ListScreenerConfig tunes name matching
type ListScreenerConfig struct {
	MatchThreshold float64 `json:"match_threshold" mapstructure:"match_threshold"`
}

// ListScreener screens names against in-memory watchlists using normalized
// edit-distance similarity. It implements Provider.
type ListScreener struct {
	logger *zap.SugaredLogger
	config ListScreenerConfig
	lists  []List
}

// NewListScreener creates a list screener over the given watchlists.
func NewListScreener(lists []List, cfg ListScreenerConfig, logger *zap.SugaredLogger) *ListScreener {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = 0.85
	}
	return &ListScreener{logger: logger, config: cfg, lists: lists}
}

// Screen compares the query name against every active list entry and its
// alternate names, keeping hits at or above the match threshold.
func (s *ListScreener) Screen(ctx context.Context, q Query) (*Result, error) {
	result := &Result{
		Matches: []Match{},
		Status:  "completed",
	}

	queryName := normalizeName(q.Name)
	if queryName == "" {
		return result, nil
	}

	for _, list := range s.lists {
		result.Sources = append(result.Sources, list.Source)
		for _, entry := range list.Entries {
			if len(q.Sources) > 0 && !containsFold(q.Sources, entry.Kind) {
				continue
			}
			score := s.entryScore(queryName, entry)
			if score < s.config.MatchThreshold {
				continue
			}
			result.Matches = append(result.Matches, Match{
				ListID:     list.ID,
				EntryID:    entry.ID,
				Name:       entry.Name,
				Kind:       entry.Kind,
				MatchScore: score,
			})
		}
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		return result.Matches[i].MatchScore > result.Matches[j].MatchScore
	})

	result.IsMatch = len(result.Matches) > 0
	if result.IsMatch {
		result.MatchScore = result.Matches[0].MatchScore
		s.logger.Infow("screening hit",
			"matches", len(result.Matches),
			"top_score", result.MatchScore,
			"top_list", result.Matches[0].ListID,
		)
	}

	return result, nil
}

// entryScore returns the best similarity between the query and the entry's
// primary and alternate names.
func (s *ListScreener) entryScore(queryName string, entry ListEntry) float64 {
	best := similarity(queryName, normalizeName(entry.Name))
	for _, alt := range entry.AlternateNames {
		if score := similarity(queryName, normalizeName(alt)); score > best {
			best = score
		}
	}
	return best
}

// similarity maps Levenshtein distance onto [0,1], 1 being an exact match.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// Package tracking records estimated token usage of tool calls.
package tracking

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// Usage is the token usage of one operation.
type Usage struct {
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	Timestamp    time.Time `json:"timestamp"`
	Operation    string    `json:"operation"`
}

// Totals is the cumulative usage across all tracked operations.
type Totals struct {
	InputTokens  int `json:"total_input_tokens"`
	OutputTokens int `json:"total_output_tokens"`
	TotalTokens  int `json:"total_tokens"`
	Sessions     int `json:"session_count"`
}

// Comparison reports the savings of one scenario over another.
type Comparison struct {
	Operation         string  `json:"operation,omitempty"`
	WithoutFiltering  int     `json:"without_filtering"`
	WithFiltering     int     `json:"with_filtering"`
	TokensSaved       int     `json:"tokens_saved"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

func (c Comparison) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Token savings %s\n", c.Operation)
	b.WriteString(rule)
	fmt.Fprintf(&b, "Without filtering: %s tokens\n", humanize.Comma(int64(c.WithoutFiltering)))
	fmt.Fprintf(&b, "With filtering:    %s tokens\n", humanize.Comma(int64(c.WithFiltering)))
	fmt.Fprintf(&b, "Tokens saved:      %s tokens (%.1f%% reduction)\n", humanize.Comma(int64(c.TokensSaved)), c.SavingsPercentage)
	b.WriteString(rule)
	return b.String()
}

var rule = strings.Repeat("=", 60) + "\n"

// Tracker accumulates Usage records. The zero value is ready to use and safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions []Usage
	now      func() time.Time
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track records one operation. TotalTokens is input plus output.
func (t *Tracker) Track(input, output int, operation string) Usage {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	u := Usage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
		Timestamp:    now(),
		Operation:    operation,
	}
	t.mu.Lock()
	t.sessions = append(t.sessions, u)
	t.mu.Unlock()
	return u
}

// Sessions returns a copy of the recorded usages in tracking order.
func (t *Tracker) Sessions() []Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Usage(nil), t.sessions...)
}

// Totals sums every recorded usage.
func (t *Tracker) Totals() Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	tot := Totals{Sessions: len(t.sessions)}
	for _, s := range t.sessions {
		tot.InputTokens += s.InputTokens
		tot.OutputTokens += s.OutputTokens
		tot.TotalTokens += s.TotalTokens
	}
	return tot
}

// Summary renders Totals for terminal output.
func (t *Tracker) Summary() string {
	tot := t.Totals()
	var b strings.Builder
	b.WriteString("Token Usage Summary\n")
	b.WriteString(rule)
	fmt.Fprintf(&b, "Total Sessions: %d\n", tot.Sessions)
	fmt.Fprintf(&b, "Input Tokens:   %s\n", humanize.Comma(int64(tot.InputTokens)))
	fmt.Fprintf(&b, "Output Tokens:  %s\n", humanize.Comma(int64(tot.OutputTokens)))
	fmt.Fprintf(&b, "Total Tokens:   %s\n", humanize.Comma(int64(tot.TotalTokens)))
	b.WriteString(rule)
	return b.String()
}

// Reset drops every recorded usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.sessions = nil
	t.mu.Unlock()
}

// Compare computes the savings of withFiltering over withoutFiltering. The percentage is 0
// when withoutFiltering is not positive.
func Compare(withoutFiltering, withFiltering int, operation string) Comparison {
	saved := withoutFiltering - withFiltering
	var pct float64
	if withoutFiltering > 0 {
		pct = float64(saved) / float64(withoutFiltering) * 100
	}
	return Comparison{
		Operation:         operation,
		WithoutFiltering:  withoutFiltering,
		WithFiltering:     withFiltering,
		TokensSaved:       saved,
		SavingsPercentage: pct,
	}
}

// EstimateTokens is a rough token count: one token per four characters.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

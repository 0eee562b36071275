// Package draft composes human-readable remediation messages for extracted
// error records.
//
// A small rule ladder handles the well-known upstream error shapes; anything
// unrecognized falls back to the LLM summarizer. Composition never fails:
// every summarizer error path degrades to fixed fallback text.
package draft

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/extract"
)

// Draft is a composed remediation message for one record. Immutable; an
// approver edit produces a new value.
type Draft struct {
	Record extract.Record `json:"record"`
	Body   string         `json:"body"`
}

// Summarizer explains an error message in plain English. May be slow and
// may fail; the composer absorbs both.
type Summarizer interface {
	Summarize(ctx context.Context, message string) (string, error)
}

// rule maps message substrings to a suggestion. First matching rule wins.
type rule struct {
	name       string
	substrings []string
	suggest    func(message string) string
}

// defaultRules is the heuristic ladder, checked in order against the
// lowercased message.
var defaultRules = []rule{
	{
		name:       "duplicate",
		substrings: []string{"already exists"},
		suggest: func(string) string {
			return "a record with this data already exists."
		},
	},
	{
		name:       "validation",
		substrings: []string{"must be", "validation"},
		suggest: func(message string) string {
			return fmt.Sprintf("Please correct this field: %s", message)
		},
	},
	{
		name:       "missing",
		substrings: []string{"not found"},
		suggest: func(string) string {
			return "the requested record doesn't exist."
		},
	},
}

// Composer maps error records to remediation drafts.
type Composer struct {
	rules      []rule
	summarizer Summarizer
	logger     *zap.Logger
}

// NewComposer creates a composer. The summarizer handles messages no rule
// recognizes.
func NewComposer(summarizer Summarizer, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{
		rules:      defaultRules,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Compose builds the remediation draft for one record.
//
// The first matching rule provides the suggestion; otherwise the summarizer
// is consulted. Summarizer failures are folded into the draft body rather
// than surfaced, so Compose has no error return.
func (c *Composer) Compose(ctx context.Context, rec extract.Record) Draft {
	suggestion := c.suggest(ctx, rec.Message)
	return Draft{
		Record: rec,
		Body:   fmt.Sprintf("Hi %s, %s", rec.Email, suggestion),
	}
}

// suggest resolves the remediation suggestion for a message.
func (c *Composer) suggest(ctx context.Context, message string) string {
	lower := strings.ToLower(message)

	for _, r := range c.rules {
		for _, sub := range r.substrings {
			if strings.Contains(lower, sub) {
				c.logger.Debug("rule matched",
					zap.String("rule", r.name))
				return r.suggest(message)
			}
		}
	}

	summary, err := c.summarizer.Summarize(ctx, message)
	if err != nil {
		c.logger.Warn("summarizer failed, using fallback text",
			zap.Error(err))
		return fmt.Sprintf("Could not summarize error: %v", err)
	}
	return summary
}

package analyzer

import (
	"github.com/mohamedkhairy/stock-advisor/internal/models"
	"github.com/mohamedkhairy/stock-advisor/pkg/indicator"
)

// RuleContext is the read-only data a rule scores against. Any section may be
// missing; rules must degrade to a neutral score rather than fail when the
// data they want is absent.
type RuleContext struct {
	Symbol       string
	Name         string
	Market       string
	Quote        *models.Quote
	Technical    *indicator.TechnicalSummary
	Fundamentals *models.Fundamentals
	Sentiment    *models.Sentiment
}

// Outcome is the result of one rule evaluation. Score is in [0, 100];
// Details is a short human-readable explanation of how the score came about.
type Outcome struct {
	Score   float64
	Details string
}

// Rule scores one aspect of an instrument. Rules with a positive weight feed
// the comprehensive score; weight-zero rules are informational overlays
// reported alongside it.
type Rule interface {
	// ID is the stable identifier rules are selected and reported by.
	ID() string

	// Name is the display name.
	Name() string

	// Description explains what the rule measures.
	Description() string

	// Weight is the rule's share of the comprehensive score. Must be >= 0.
	Weight() float64

	// Evaluate scores the instrument. An error marks the rule faulted for
	// this instrument only; other rules still run.
	Evaluate(ctx *RuleContext) (Outcome, error)
}

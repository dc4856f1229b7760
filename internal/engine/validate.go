package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validator cross-checks a built group sequence for arithmetic consistency
// and suspicious values, then scores overall confidence. Validation never
// rejects a result; it annotates one.
type Validator struct {
	cfg *EngineConfig
}

// NewValidator creates a validator with the default configuration.
func NewValidator() *Validator {
	return NewValidatorWithConfig(DefaultEngineConfig())
}

// NewValidatorWithConfig creates a validator with a custom configuration.
func NewValidatorWithConfig(cfg *EngineConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks every item and group invariant, collects issues, and
// computes confidence plus the manual-review flag.
func (v *Validator) Validate(groups []QuoteGroup) Validation {
	var issues []ValidationIssue
	add := func(kind IssueKind, severity Severity, format string, args ...any) {
		issues = append(issues, ValidationIssue{
			Kind:     kind,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	if len(groups) == 0 {
		add(IssueNoLineItems, SeverityError, "no line items could be extracted")
	}

	totalItems := 0
	highConfidenceItems := 0
	groupsInAgreement := 0

	prev := decimal.Decimal{}
	for gi, g := range groups {
		if gi > 0 && !g.Quantity.GreaterThan(prev) {
			add(IssueQuantityOrder, SeverityError,
				"group quantities not strictly ascending at quantity %s", g.Quantity)
		}
		prev = g.Quantity

		if g.Quantity.GreaterThan(v.cfg.SuspiciousQuantityThreshold) {
			add(IssueSuspiciousQuantity, SeverityWarning,
				"quantity %s exceeds %s", g.Quantity, v.cfg.SuspiciousQuantityThreshold)
		}

		sum := decimal.Zero
		for _, it := range g.LineItems {
			totalItems++
			if it.Strategy == StrategyCurrencyTagged || it.Strategy == StrategyPositionalTriple {
				highConfidenceItems++
			}
			sum = sum.Add(it.Cost)

			if diff := it.Quantity.Mul(it.UnitPrice).Sub(it.Cost).Abs(); diff.GreaterThan(v.cfg.Tolerance(it.Cost)) {
				add(IssueItemMathMismatch, SeverityError,
					"item %q: %s x %s != %s", it.Description, it.Quantity, it.UnitPrice, it.Cost)
			}
			v.flagSuspiciousValues(&issues, it)
		}

		agree := true
		if diff := sum.Sub(g.TotalPrice).Abs(); diff.GreaterThan(v.cfg.Tolerance(g.TotalPrice)) {
			add(IssueGroupMathMismatch, SeverityError,
				"group quantity %s: item costs sum to %s, total is %s", g.Quantity, sum, g.TotalPrice)
			agree = false
		}
		if !v.cfg.WithinTolerance(g.Quantity, g.UnitPrice, g.TotalPrice) {
			add(IssueGroupMathMismatch, SeverityError,
				"group quantity %s: %s x %s != %s", g.Quantity, g.Quantity, g.UnitPrice, g.TotalPrice)
			agree = false
		}
		if agree {
			groupsInAgreement++
		}
	}

	confidence := v.score(groups, issues, totalItems, highConfidenceItems, groupsInAgreement)
	return Validation{
		Issues:            issues,
		Confidence:        confidence,
		NeedsManualReview: confidence < v.cfg.ReviewConfidenceThreshold || hasError(issues),
	}
}

// flagSuspiciousValues emits warnings for values that parse fine but rarely
// appear in genuine quotes: very large figures, integer prices over the
// missing-decimal threshold alongside a currency symbol, huge quantities.
func (v *Validator) flagSuspiciousValues(issues *[]ValidationIssue, it LineItem) {
	for _, val := range []decimal.Decimal{it.Quantity, it.UnitPrice, it.Cost} {
		if val.GreaterThan(v.cfg.LargeNumberThreshold) {
			*issues = append(*issues, ValidationIssue{
				Kind:     IssueSuspiciouslyLargeNumber,
				Message:  fmt.Sprintf("item %q carries value %s above %s", it.Description, val, v.cfg.LargeNumberThreshold),
				Severity: SeverityWarning,
			})
		}
	}
	if it.CurrencyTagged {
		for _, val := range []decimal.Decimal{it.UnitPrice, it.Cost} {
			if val.IsInteger() && val.GreaterThan(v.cfg.MissingDecimalThreshold) {
				*issues = append(*issues, ValidationIssue{
					Kind:     IssuePossibleMissingDecimal,
					Message:  fmt.Sprintf("item %q: %s may be missing its decimal point", it.Description, val),
					Severity: SeverityWarning,
				})
			}
		}
	}
	if it.Quantity.GreaterThan(v.cfg.SuspiciousQuantityThreshold) {
		*issues = append(*issues, ValidationIssue{
			Kind:     IssueSuspiciousQuantity,
			Message:  fmt.Sprintf("item %q: quantity %s exceeds %s", it.Description, it.Quantity, v.cfg.SuspiciousQuantityThreshold),
			Severity: SeverityWarning,
		})
	}
}

// score combines the high-confidence strategy fraction, the absence of
// error issues, and group math agreement into a weighted average.
func (v *Validator) score(groups []QuoteGroup, issues []ValidationIssue, totalItems, highConfidenceItems, groupsInAgreement int) float64 {
	if len(groups) == 0 || totalItems == 0 {
		return 0
	}

	strategyScore := float64(highConfidenceItems) / float64(totalItems)

	issueScore := 1.0
	if hasError(issues) {
		issueScore = 0
	}

	mathScore := float64(groupsInAgreement) / float64(len(groups))

	return v.cfg.StrategyWeight*strategyScore +
		v.cfg.IssueWeight*issueScore +
		v.cfg.MathWeight*mathScore
}

func hasError(issues []ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

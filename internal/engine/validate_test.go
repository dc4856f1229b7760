package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func buildGroups(t *testing.T, items ...LineItem) []QuoteGroup {
	t.Helper()
	return NewQuoteGroupBuilder().Build(items)
}

func hasIssue(v Validation, kind IssueKind) bool {
	for _, is := range v.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidateCleanResult(t *testing.T) {
	validator := NewValidator()

	groups := buildGroups(t,
		testItem(t, "Body", "3", "395.00", "1185.00"),
		testItem(t, "Cover", "3", "120.00", "360.00"),
	)
	v := validator.Validate(groups)

	if len(v.Issues) != 0 {
		t.Errorf("Expected no issues, got %v", v.Issues)
	}
	if v.Confidence < 0.9 {
		t.Errorf("Expected high confidence, got %v", v.Confidence)
	}
	if v.NeedsManualReview {
		t.Error("Clean result must not need manual review")
	}
}

func TestValidateItemMathMismatch(t *testing.T) {
	validator := NewValidator()

	bad := LineItem{
		Description: "Broken",
		Quantity:    mustDecimal(t, "3"),
		UnitPrice:   mustDecimal(t, "100.00"),
		Cost:        mustDecimal(t, "999.00"),
		Strategy:    StrategyPositionalTriple,
	}
	v := validator.Validate(buildGroups(t, bad))

	if !hasIssue(v, IssueItemMathMismatch) {
		t.Error("Expected an item math mismatch issue")
	}
	if !v.NeedsManualReview {
		t.Error("Error-severity issues must force manual review")
	}
}

func TestValidateSuspiciouslyLargeNumber(t *testing.T) {
	validator := NewValidator()

	big := testItem(t, "Mega", "2", "900000.00", "1800000.00")
	v := validator.Validate(buildGroups(t, big))

	if !hasIssue(v, IssueSuspiciouslyLargeNumber) {
		t.Error("Expected a suspiciously large number warning")
	}
	for _, is := range v.Issues {
		if is.Kind == IssueSuspiciouslyLargeNumber && is.Severity != SeverityWarning {
			t.Errorf("Expected warning severity, got %s", is.Severity)
		}
	}
}

func TestValidatePossibleMissingDecimal(t *testing.T) {
	validator := NewValidator()

	item := testItem(t, "Plate", "1", "450", "450")
	item.CurrencyTagged = true
	v := validator.Validate(buildGroups(t, item))

	if !hasIssue(v, IssuePossibleMissingDecimal) {
		t.Error("Expected a possible missing decimal warning")
	}

	// Without a currency symbol the same integer raises nothing.
	plain := testItem(t, "Plate", "1", "450", "450")
	v = validator.Validate(buildGroups(t, plain))
	if hasIssue(v, IssuePossibleMissingDecimal) {
		t.Error("Integer without currency symbol must not be flagged")
	}
}

func TestValidateSuspiciousQuantity(t *testing.T) {
	validator := NewValidatorWithConfig(DefaultEngineConfig())

	// Quantities above the ceiling never come out of the extractor, but
	// grouped-table input can still carry them.
	item := LineItem{
		Description: "Washer",
		Quantity:    decimal.NewFromInt(50000),
		UnitPrice:   mustDecimal(t, "0.01"),
		Cost:        mustDecimal(t, "500.00"),
		Strategy:    StrategyCurrencyTagged,
	}
	v := validator.Validate(buildGroups(t, item))

	if !hasIssue(v, IssueSuspiciousQuantity) {
		t.Error("Expected a suspicious quantity warning")
	}
}

func TestValidateQuantityOrder(t *testing.T) {
	validator := NewValidator()

	// Hand-built groups out of order; the builder never emits this.
	groups := []QuoteGroup{
		{Quantity: mustDecimal(t, "5"), UnitPrice: mustDecimal(t, "10"), TotalPrice: mustDecimal(t, "50")},
		{Quantity: mustDecimal(t, "2"), UnitPrice: mustDecimal(t, "10"), TotalPrice: mustDecimal(t, "20")},
	}
	v := validator.Validate(groups)

	if !hasIssue(v, IssueQuantityOrder) {
		t.Error("Expected a quantity order issue")
	}
	if !v.NeedsManualReview {
		t.Error("Out-of-order groups must force manual review")
	}
}

func TestValidateEmptyGroups(t *testing.T) {
	validator := NewValidator()

	v := validator.Validate(nil)
	if !hasIssue(v, IssueNoLineItems) {
		t.Error("Expected a no line items issue")
	}
	if v.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %v", v.Confidence)
	}
	if !v.NeedsManualReview {
		t.Error("Empty results must need manual review")
	}
}

func TestConfidenceWeighting(t *testing.T) {
	validator := NewValidator()

	// All items from the low-confidence permutation strategy: the
	// strategy component contributes nothing, leaving 0.6.
	item := testItem(t, "Rod", "2", "50.00", "100.00")
	item.Strategy = StrategyPermutationSearch
	v := validator.Validate(buildGroups(t, item))

	if v.Confidence < 0.59 || v.Confidence > 0.61 {
		t.Errorf("Expected confidence near 0.6, got %v", v.Confidence)
	}
	if !v.NeedsManualReview {
		t.Error("Confidence below the threshold must flag review")
	}
}

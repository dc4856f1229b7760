package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestExtractCurrencyTaggedLine(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("Qty: 3 ESTOP_BODY-GEN2_4 $395.00 $1,185.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategyCurrencyTagged {
		t.Errorf("Expected currency_tagged strategy, got %s", item.Strategy)
	}
	if item.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %v", item.Confidence)
	}
	if !item.Quantity.Equal(mustDecimal(t, "3")) {
		t.Errorf("Expected quantity 3, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "395")) {
		t.Errorf("Expected unit price 395, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "1185")) {
		t.Errorf("Expected cost 1185, got %s", item.Cost)
	}
}

func TestExtractPositionalTriple(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("3 ESTOP_BODY-GEN2_4 $395.00 $1,185.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategyPositionalTriple {
		t.Errorf("Expected positional_triple strategy, got %s", item.Strategy)
	}
	if item.Confidence < 0.9 {
		t.Errorf("Expected confidence >= 0.9, got %v", item.Confidence)
	}
	if item.Description != "ESTOP_BODY-GEN2_4" {
		t.Errorf("Expected the part number as description, got %q", item.Description)
	}
	if !item.Quantity.Equal(mustDecimal(t, "3")) {
		t.Errorf("Expected quantity 3, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "395")) {
		t.Errorf("Expected unit price 395, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "1185")) {
		t.Errorf("Expected cost 1185, got %s", item.Cost)
	}
}

func TestExtractWithoutCurrencySymbols(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("Motor Assembly 2 125.50 251.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategyPositionalTriple && item.Strategy != StrategyPermutationSearch {
		t.Errorf("Expected positional or permutation strategy, got %s", item.Strategy)
	}
	if item.Description != "Motor Assembly" {
		t.Errorf("Expected description 'Motor Assembly', got %q", item.Description)
	}
	if !item.Quantity.Equal(mustDecimal(t, "2")) {
		t.Errorf("Expected quantity 2, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "125.5")) {
		t.Errorf("Expected unit price 125.50, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "251")) {
		t.Errorf("Expected cost 251.00, got %s", item.Cost)
	}
}

func TestExtractPermutationSearchOutOfOrder(t *testing.T) {
	extractor := NewLineItemExtractor()

	// Total appears before unit price, so the positional read fails and
	// the permutation search has to find the valid assignment.
	item, err := extractor.Extract("Bracket 500.00 5 100.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategyPermutationSearch {
		t.Errorf("Expected permutation_search strategy, got %s", item.Strategy)
	}
	if !item.Quantity.Equal(mustDecimal(t, "5")) {
		t.Errorf("Expected quantity 5, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "100")) {
		t.Errorf("Expected unit price 100, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "500")) {
		t.Errorf("Expected cost 500, got %s", item.Cost)
	}
}

func TestExtractPermutationPrefersKnownQuantity(t *testing.T) {
	extractor := NewLineItemExtractor()

	// Both 2*50=100 and 50*2=100 validate; the known quantity decides.
	known := []decimal.Decimal{mustDecimal(t, "2")}
	item, err := extractor.Extract("Spacer 100.00 50 2", known)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}
	if item.Strategy != StrategyPermutationSearch {
		t.Fatalf("Expected permutation_search strategy, got %s", item.Strategy)
	}
	if !item.Quantity.Equal(mustDecimal(t, "2")) {
		t.Errorf("Expected the known quantity 2 to win the tie, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "50")) {
		t.Errorf("Expected unit price 50, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "100")) {
		t.Errorf("Expected cost 100, got %s", item.Cost)
	}
}

func TestExtractNinePlusTokensSkipsPermutationSearch(t *testing.T) {
	extractor := NewLineItemExtractor()

	// 9 numeric tokens: the bounded search must not run. The line falls
	// through to the fallbacks, which cannot apply either, so extraction
	// fails rather than burning time on permutations.
	line := "10 20 30 40 50 60 70 80 90"
	_, err := extractor.Extract(line, nil)
	if err == nil {
		t.Fatal("Expected extraction to fail for a 9-token line")
	}
	if !IsNoViableExtraction(err) {
		t.Errorf("Expected NoViableExtractionError, got %v", err)
	}
}

func TestExtractTwoNumberIntegerRatio(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("Gasket 25.00 100.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategyTwoNumber {
		t.Errorf("Expected two_number strategy, got %s", item.Strategy)
	}
	if !item.Quantity.Equal(mustDecimal(t, "4")) {
		t.Errorf("Expected derived quantity 4, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "25")) {
		t.Errorf("Expected unit price 25, got %s", item.UnitPrice)
	}
	if !item.Cost.Equal(mustDecimal(t, "100")) {
		t.Errorf("Expected cost 100, got %s", item.Cost)
	}
}

func TestExtractTwoNumberNonIntegerRatio(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("Shipping 19.99 47.30", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if !item.Quantity.Equal(mustDecimal(t, "1")) {
		t.Errorf("Expected quantity to fall back to 1, got %s", item.Quantity)
	}
	if !item.Cost.Equal(mustDecimal(t, "47.3")) {
		t.Errorf("Expected the larger figure as cost, got %s", item.Cost)
	}
	if !item.UnitPrice.Equal(item.Cost) {
		t.Error("Expected unit price to equal cost when quantity is 1")
	}
}

func TestExtractSingleNumberFallback(t *testing.T) {
	extractor := NewLineItemExtractor()

	item, err := extractor.Extract("$2,000.00", nil)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}

	if item.Strategy != StrategySingleNumber {
		t.Errorf("Expected single_number strategy, got %s", item.Strategy)
	}
	if item.Description != "TOTAL" {
		t.Errorf("Expected description TOTAL, got %q", item.Description)
	}
	if !item.Quantity.Equal(mustDecimal(t, "1")) {
		t.Errorf("Expected quantity 1, got %s", item.Quantity)
	}
	if !item.UnitPrice.Equal(mustDecimal(t, "2000")) {
		t.Errorf("Expected unit price 2000, got %s", item.UnitPrice)
	}
}

func TestExtractFailsWithNoNumbers(t *testing.T) {
	extractor := NewLineItemExtractor()

	_, err := extractor.Extract("Thank you for your business", nil)
	if err == nil {
		t.Fatal("Expected extraction to fail for a line with no numbers")
	}
	if !IsNoViableExtraction(err) {
		t.Errorf("Expected NoViableExtractionError, got %v", err)
	}
}

func TestExtractedItemsSatisfyMathInvariant(t *testing.T) {
	extractor := NewLineItemExtractor()
	cfg := DefaultEngineConfig()

	lines := []string{
		"3 ESTOP_BODY-GEN2_4 $395.00 $1,185.00",
		"Motor Assembly 2 125.50 251.00",
		"Gasket 25.00 100.00",
		"$2,000.00",
		"Bracket 500.00 5 100.00",
	}
	for _, line := range lines {
		item, err := extractor.Extract(line, nil)
		if err != nil {
			t.Errorf("Extraction failed for %q: %v", line, err)
			continue
		}
		if !item.Quantity.IsPositive() {
			t.Errorf("Line %q: quantity must be positive, got %s", line, item.Quantity)
		}
		if !cfg.WithinTolerance(item.Quantity, item.UnitPrice, item.Cost) {
			t.Errorf("Line %q: %s x %s does not match %s within tolerance",
				line, item.Quantity, item.UnitPrice, item.Cost)
		}
	}
}

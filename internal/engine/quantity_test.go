package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDetectFromText(t *testing.T) {
	detector := NewQuantityDetector()

	text := `Quote for machined parts
Qty: 100 at $4.50 each
Qty: 250 at $3.80 each
500 pcs at $3.10 each`

	got := detector.DetectFromText(text)
	want := []string{"100", "250", "500"}

	if len(got) != len(want) {
		t.Fatalf("Expected %d quantities, got %d (%v)", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].String() != w {
			t.Errorf("Quantity %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestDetectFromTextIgnoresImplausibleValues(t *testing.T) {
	detector := NewQuantityDetector()

	// 50000 exceeds the quantity ceiling and must not register.
	got := detector.DetectFromText("Qty: 50000 special run")
	if len(got) != 0 {
		t.Errorf("Expected no quantities, got %v", got)
	}
}

func TestDetectFromHeaders(t *testing.T) {
	detector := NewQuantityDetector()

	headers := []string{"Part", "Description", "Qty 100", "Qty 250", "Qty 500"}
	got := detector.DetectFromHeaders(headers)

	want := []string{"100", "250", "500"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d quantities, got %d (%v)", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].String() != w {
			t.Errorf("Quantity %d: expected %s, got %s", i, w, got[i])
		}
	}
}

func TestDetectFromHeadersRequiresKeyword(t *testing.T) {
	detector := NewQuantityDetector()

	// A bare numeric header is not a quantity column on its own.
	got := detector.DetectFromHeaders([]string{"Part", "100", "250"})
	if len(got) != 0 {
		t.Errorf("Expected no quantities from unlabelled headers, got %v", got)
	}
}

func TestDetectFallsBackToOne(t *testing.T) {
	detector := NewQuantityDetector()

	got := detector.Detect("Machined bracket, anodized finish", nil, nil)
	if len(got) != 1 {
		t.Fatalf("Expected the single-element fallback, got %v", got)
	}
	if !got[0].Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected fallback quantity 1, got %s", got[0])
	}
}

func TestDetectMergesItemQuantities(t *testing.T) {
	detector := NewQuantityDetector()

	items := []LineItem{
		{Quantity: decimal.NewFromInt(5)},
		{Quantity: decimal.NewFromInt(2)},
		{Quantity: decimal.NewFromInt(5)},
	}
	got := detector.Detect("", nil, items)

	want := []string{"2", "5"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d quantities, got %d (%v)", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].String() != w {
			t.Errorf("Quantity %d: expected %s, got %s", i, w, got[i])
		}
	}
}

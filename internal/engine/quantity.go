package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityDetector discovers the order quantities a document quotes. It
// looks for explicit quantity tokens in text, quantity-per-column headers in
// grouped tables, and quantities carried by already-extracted items. When
// nothing is found it falls back to a single implicit quantity of 1.
type QuantityDetector struct {
	cfg *EngineConfig
}

// NewQuantityDetector creates a detector with the default configuration.
func NewQuantityDetector() *QuantityDetector {
	return NewQuantityDetectorWithConfig(DefaultEngineConfig())
}

// NewQuantityDetectorWithConfig creates a detector with a custom configuration.
func NewQuantityDetectorWithConfig(cfg *EngineConfig) *QuantityDetector {
	return &QuantityDetector{cfg: cfg}
}

// DetectFromText scans text for numeric tokens adjacent to explicit quantity
// keywords ("qty 3", "5 pcs", "Qty: 100") and returns the distinct plausible
// quantities found, ascending.
func (d *QuantityDetector) DetectFromText(text string) []decimal.Decimal {
	seen := make(map[string]decimal.Decimal)
	for _, line := range strings.Split(text, "\n") {
		for _, tok := range ScanTokens(line, d.cfg) {
			if tok.Kind != TokenKindQuantity {
				continue
			}
			if !d.Plausible(tok.Value) {
				continue
			}
			seen[tok.Value.String()] = tok.Value
		}
	}
	return sortedQuantities(seen)
}

// DetectFromHeaders reads grouped-table header cells such as "Qty 100" or
// "250 pcs", where each column quotes one order quantity. Header cells that
// are purely numeric under a quantity-labelled table are accepted too.
func (d *QuantityDetector) DetectFromHeaders(headers []string) []decimal.Decimal {
	seen := make(map[string]decimal.Decimal)
	for _, h := range headers {
		lower := strings.ToLower(h)
		hasKeyword := false
		for _, kw := range d.cfg.QuantityKeywords {
			if strings.Contains(lower, kw) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}
		for _, tok := range ScanTokens(h, d.cfg) {
			if d.Plausible(tok.Value) {
				seen[tok.Value.String()] = tok.Value
			}
		}
	}
	return sortedQuantities(seen)
}

// FromItems collects the distinct quantities carried by extracted items.
func (d *QuantityDetector) FromItems(items []LineItem) []decimal.Decimal {
	seen := make(map[string]decimal.Decimal)
	for _, it := range items {
		if d.Plausible(it.Quantity) {
			seen[it.Quantity.String()] = it.Quantity
		}
	}
	return sortedQuantities(seen)
}

// Detect merges all sources in priority order and falls back to {1} when no
// quantity can be found anywhere. The result is never empty.
func (d *QuantityDetector) Detect(text string, headers []string, items []LineItem) []decimal.Decimal {
	seen := make(map[string]decimal.Decimal)
	for _, src := range [][]decimal.Decimal{
		d.DetectFromHeaders(headers),
		d.DetectFromText(text),
		d.FromItems(items),
	} {
		for _, q := range src {
			seen[q.String()] = q
		}
	}
	if len(seen) == 0 {
		return []decimal.Decimal{decimal.NewFromInt(1)}
	}
	return sortedQuantities(seen)
}

// Plausible reports whether a value can serve as an order quantity.
func (d *QuantityDetector) Plausible(q decimal.Decimal) bool {
	return q.GreaterThanOrEqual(d.cfg.MinQuantity) && q.LessThanOrEqual(d.cfg.MaxQuantity)
}

func sortedQuantities(seen map[string]decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(seen))
	for _, q := range seen {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	return out
}

package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Strategy confidence levels, fixed by extraction order.
const (
	confidenceCurrencyTagged    = 1.0
	confidencePositionalTriple  = 0.9
	confidencePermutationSearch = 0.7
	confidenceTwoNumber         = 0.5
	confidenceSingleNumber      = 0.2
)

// LineItemExtractor converts one line of quote text into a validated line
// item. Strategies are tried in fixed priority order; each either produces
// an item whose arithmetic checks out or passes to the next. Failures never
// escape as panics, only as NoViableExtractionError.
type LineItemExtractor struct {
	cfg *EngineConfig
}

// NewLineItemExtractor creates an extractor with the default configuration.
func NewLineItemExtractor() *LineItemExtractor {
	return NewLineItemExtractorWithConfig(DefaultEngineConfig())
}

// NewLineItemExtractorWithConfig creates an extractor with a custom configuration.
func NewLineItemExtractorWithConfig(cfg *EngineConfig) *LineItemExtractor {
	return &LineItemExtractor{cfg: cfg}
}

// Extract runs the ordered strategies over a line. knownQuantities, when
// supplied, break ties in the permutation search in favor of quantities the
// document is already known to quote.
func (e *LineItemExtractor) Extract(line string, knownQuantities []decimal.Decimal) (LineItem, error) {
	scan := ScanLine(line, e.cfg)

	// Percent tokens (discounts, tax rates) never serve as quantity,
	// price or total.
	tokens := make([]NumericToken, 0, len(scan.Tokens))
	for _, t := range scan.Tokens {
		if t.Kind == TokenKindPercent {
			continue
		}
		tokens = append(tokens, t)
	}

	type attempt func() (LineItem, bool)
	attempts := []attempt{
		func() (LineItem, bool) { return e.currencyTagged(tokens) },
		func() (LineItem, bool) { return e.positionalTriple(tokens) },
		func() (LineItem, bool) { return e.permutationSearch(tokens, knownQuantities) },
		func() (LineItem, bool) { return e.twoNumber(tokens) },
		func() (LineItem, bool) { return e.singleNumber(tokens) },
	}

	for _, try := range attempts {
		if item, ok := try(); ok {
			if item.Description == "" {
				item.Description = e.describeLine(scan)
			}
			item.UnitPrice = RoundMoney(item.UnitPrice)
			item.Cost = RoundMoney(item.Cost)
			return item, nil
		}
	}
	return LineItem{}, &NoViableExtractionError{Line: line}
}

// currencyTagged (strategy A) applies when an explicit quantity token and at
// least two currency-marked numbers appear: the tagged roles are taken
// directly and cross-checked.
func (e *LineItemExtractor) currencyTagged(tokens []NumericToken) (LineItem, bool) {
	var qty *NumericToken
	var prices []NumericToken
	for i := range tokens {
		switch {
		case tokens[i].Kind == TokenKindQuantity && qty == nil:
			qty = &tokens[i]
		case tokens[i].Currency:
			prices = append(prices, tokens[i])
		}
	}
	if qty == nil || len(prices) < 2 {
		return LineItem{}, false
	}
	unit, total := prices[0].Value, prices[len(prices)-1].Value
	if !e.cfg.WithinTolerance(qty.Value, unit, total) {
		// Columns may arrive total-first.
		unit, total = total, unit
		if !e.cfg.WithinTolerance(qty.Value, unit, total) {
			return LineItem{}, false
		}
	}
	return LineItem{
		Quantity:       qty.Value,
		UnitPrice:      unit,
		Cost:           total,
		Strategy:       StrategyCurrencyTagged,
		Confidence:     confidenceCurrencyTagged,
		CurrencyTagged: true,
	}, true
}

// positionalTriple (strategy B) applies to exactly three numeric tokens read
// in line order as quantity, unit price, total.
func (e *LineItemExtractor) positionalTriple(tokens []NumericToken) (LineItem, bool) {
	if len(tokens) != 3 {
		return LineItem{}, false
	}
	qty, unit, total := tokens[0].Value, tokens[1].Value, tokens[2].Value
	if !qty.IsPositive() || !e.plausibleQuantity(qty) {
		return LineItem{}, false
	}
	if !e.cfg.WithinTolerance(qty, unit, total) {
		return LineItem{}, false
	}
	return LineItem{
		Quantity:       qty,
		UnitPrice:      unit,
		Cost:           total,
		Strategy:       StrategyPositionalTriple,
		Confidence:     confidencePositionalTriple,
		CurrencyTagged: tokens[1].Currency || tokens[2].Currency,
	}, true
}

// permutationSearch (strategy C) tries every ordered assignment of three
// distinct tokens to (quantity, unitPrice, total), keeping assignments whose
// arithmetic validates. The search is bounded at MaxPermutationTokens; lines
// with more tokens fall through to the simpler fallbacks.
func (e *LineItemExtractor) permutationSearch(tokens []NumericToken, knownQuantities []decimal.Decimal) (LineItem, bool) {
	if len(tokens) < 3 || len(tokens) > e.cfg.MaxPermutationTokens {
		return LineItem{}, false
	}

	type candidate struct {
		qty, unit, total NumericToken
		knownQty         bool
		inLineOrder      bool
	}
	var best *candidate

	better := func(a, b *candidate) bool {
		if a.knownQty != b.knownQty {
			return a.knownQty
		}
		if a.inLineOrder != b.inLineOrder {
			return a.inLineOrder
		}
		return false // earlier discovery wins
	}

	for i := range tokens {
		if !tokens[i].Value.IsPositive() || !e.plausibleQuantity(tokens[i].Value) {
			continue
		}
		for j := range tokens {
			if j == i {
				continue
			}
			for k := range tokens {
				if k == i || k == j {
					continue
				}
				if !e.cfg.WithinTolerance(tokens[i].Value, tokens[j].Value, tokens[k].Value) {
					continue
				}
				c := &candidate{
					qty:         tokens[i],
					unit:        tokens[j],
					total:       tokens[k],
					knownQty:    matchesKnownQuantity(tokens[i].Value, knownQuantities),
					inLineOrder: tokens[i].Position < tokens[j].Position && tokens[j].Position < tokens[k].Position,
				}
				if best == nil || better(c, best) {
					best = c
				}
			}
		}
	}
	if best == nil {
		return LineItem{}, false
	}
	return LineItem{
		Quantity:       best.qty.Value,
		UnitPrice:      best.unit.Value,
		Cost:           best.total.Value,
		Strategy:       StrategyPermutationSearch,
		Confidence:     confidencePermutationSearch,
		CurrencyTagged: best.unit.Currency || best.total.Currency,
	}, true
}

// twoNumber (strategy D) reads exactly two numeric tokens as unit price and
// total. The quantity is the price-to-total ratio when that lands on an
// integer; otherwise the larger figure is taken as a one-off total.
func (e *LineItemExtractor) twoNumber(tokens []NumericToken) (LineItem, bool) {
	if len(tokens) != 2 {
		return LineItem{}, false
	}
	unit, total := tokens[0].Value, tokens[1].Value
	if unit.IsZero() || total.IsZero() {
		return LineItem{}, false
	}
	if unit.GreaterThan(total) {
		unit, total = total, unit
	}

	ratio := total.Div(unit)
	rounded := ratio.Round(0)
	if rounded.IsPositive() &&
		e.plausibleQuantity(rounded) &&
		e.cfg.WithinTolerance(rounded, unit, total) {
		return LineItem{
			Quantity:       rounded,
			UnitPrice:      unit,
			Cost:           total,
			Strategy:       StrategyTwoNumber,
			Confidence:     confidenceTwoNumber,
			CurrencyTagged: tokens[0].Currency || tokens[1].Currency,
		}, true
	}

	// Ratio is not integer-like. Keep the larger figure as the line total
	// so the item invariant still holds.
	return LineItem{
		Quantity:       decimal.NewFromInt(1),
		UnitPrice:      total,
		Cost:           total,
		Strategy:       StrategyTwoNumber,
		Confidence:     confidenceTwoNumber,
		CurrencyTagged: tokens[0].Currency || tokens[1].Currency,
	}, true
}

// singleNumber (strategy E) takes the lone numeric token as a document total.
func (e *LineItemExtractor) singleNumber(tokens []NumericToken) (LineItem, bool) {
	if len(tokens) != 1 || !tokens[0].Value.IsPositive() {
		return LineItem{}, false
	}
	return LineItem{
		Description:    "TOTAL",
		Quantity:       decimal.NewFromInt(1),
		UnitPrice:      tokens[0].Value,
		Cost:           tokens[0].Value,
		Strategy:       StrategySingleNumber,
		Confidence:     confidenceSingleNumber,
		CurrencyTagged: tokens[0].Currency,
	}, true
}

// describeLine picks the longest contiguous run of non-numeric fields as the
// item description. Part numbers mixing letters and digits count as text and
// stay in the description.
func (e *LineItemExtractor) describeLine(scan lineScan) string {
	var best []string
	var run []string
	flush := func() {
		if len(run) > len(best) {
			best = run
		}
		run = nil
	}
	for i, f := range scan.Fields {
		if scan.isNumericAt(i) {
			flush()
			continue
		}
		if isQuantityKeywordField(f, e.cfg) {
			flush()
			continue
		}
		run = append(run, f)
	}
	flush()
	if len(best) == 0 {
		return "ITEM"
	}
	return strings.Join(best, " ")
}

func (e *LineItemExtractor) plausibleQuantity(q decimal.Decimal) bool {
	return q.GreaterThanOrEqual(e.cfg.MinQuantity) && q.LessThanOrEqual(e.cfg.MaxQuantity)
}

// isQuantityKeywordField reports whether a field is a bare quantity label
// ("Qty:", "pcs"). Labels never belong in the description.
func isQuantityKeywordField(f string, cfg *EngineConfig) bool {
	word := strings.ToLower(strings.Trim(f, ":.,"))
	for _, kw := range cfg.QuantityKeywords {
		if word == kw {
			return true
		}
	}
	return false
}

func matchesKnownQuantity(q decimal.Decimal, known []decimal.Decimal) bool {
	for _, k := range known {
		if q.Equal(k) {
			return true
		}
	}
	return false
}

package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// QuoteGroupBuilder aggregates extracted line items into per-quantity quote
// groups. Groups come out sorted ascending by quantity, duplicate quantities
// merged into one group.
type QuoteGroupBuilder struct {
	cfg *EngineConfig
}

// NewQuoteGroupBuilder creates a builder with the default configuration.
func NewQuoteGroupBuilder() *QuoteGroupBuilder {
	return NewQuoteGroupBuilderWithConfig(DefaultEngineConfig())
}

// NewQuoteGroupBuilderWithConfig creates a builder with a custom configuration.
func NewQuoteGroupBuilderWithConfig(cfg *EngineConfig) *QuoteGroupBuilder {
	return &QuoteGroupBuilder{cfg: cfg}
}

// Build partitions line items by their own quantity field into groups.
// Group totals are computed from the member items: totalPrice is the sum of
// member costs and unitPrice is totalPrice divided by the group quantity.
func (b *QuoteGroupBuilder) Build(items []LineItem) []QuoteGroup {
	byQty := make(map[string]*QuoteGroup)
	var order []string

	for _, it := range items {
		key := it.Quantity.String()
		g, ok := byQty[key]
		if !ok {
			g = &QuoteGroup{Quantity: it.Quantity}
			byQty[key] = g
			order = append(order, key)
		}
		g.LineItems = append(g.LineItems, it)
	}

	groups := make([]QuoteGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, b.finalize(*byQty[key]))
	}
	sortGroups(groups)
	return groups
}

// BuildGrouped handles grouped tables where every detected quantity has its
// own price column: one group is built per quantity, sharing the description
// set and taking that quantity's price column. pricesPerQuantity maps a
// quantity (by its decimal string) to the per-item unit prices in item order.
func (b *QuoteGroupBuilder) BuildGrouped(descriptions []string, quantities []decimal.Decimal, pricesPerQuantity map[string][]decimal.Decimal) []QuoteGroup {
	groups := make([]QuoteGroup, 0, len(quantities))
	for _, qty := range quantities {
		prices, ok := pricesPerQuantity[qty.String()]
		if !ok || len(prices) == 0 {
			continue
		}
		g := QuoteGroup{Quantity: qty}
		for i, unit := range prices {
			desc := "ITEM"
			if i < len(descriptions) && descriptions[i] != "" {
				desc = descriptions[i]
			}
			g.LineItems = append(g.LineItems, LineItem{
				Description: desc,
				Quantity:    qty,
				UnitPrice:   RoundMoney(unit),
				Cost:        RoundMoney(qty.Mul(unit)),
				Strategy:    StrategyCurrencyTagged,
				Confidence:  confidenceCurrencyTagged,
			})
		}
		groups = append(groups, b.finalize(g))
	}
	groups = mergeDuplicateQuantities(groups)
	sortGroups(groups)
	return groups
}

// finalize computes the group totals from its members.
func (b *QuoteGroupBuilder) finalize(g QuoteGroup) QuoteGroup {
	total := decimal.Zero
	for _, it := range g.LineItems {
		total = total.Add(it.Cost)
	}
	g.TotalPrice = RoundMoney(total)
	if g.Quantity.IsPositive() {
		g.UnitPrice = RoundMoney(total.Div(g.Quantity))
	}
	return g
}

func mergeDuplicateQuantities(groups []QuoteGroup) []QuoteGroup {
	byQty := make(map[string]int)
	out := groups[:0]
	for _, g := range groups {
		key := g.Quantity.String()
		if idx, ok := byQty[key]; ok {
			merged := out[idx]
			merged.LineItems = append(merged.LineItems, g.LineItems...)
			total := decimal.Zero
			for _, it := range merged.LineItems {
				total = total.Add(it.Cost)
			}
			merged.TotalPrice = RoundMoney(total)
			if merged.Quantity.IsPositive() {
				merged.UnitPrice = RoundMoney(total.Div(merged.Quantity))
			}
			out[idx] = merged
			continue
		}
		byQty[key] = len(out)
		out = append(out, g)
	}
	return out
}

func sortGroups(groups []QuoteGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Quantity.LessThan(groups[j].Quantity)
	})
}

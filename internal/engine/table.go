package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TableExtractor turns pre-segmented table rows into quote groups. It
// recognizes grouped tables, where each detected order quantity has its own
// price column, and plain item tables, where each row is one line item.
type TableExtractor struct {
	cfg       *EngineConfig
	extractor *LineItemExtractor
	detector  *QuantityDetector
	builder   *QuoteGroupBuilder
	analyzer  *StructureAnalyzer
}

// NewTableExtractor creates a table extractor with the default configuration.
func NewTableExtractor() *TableExtractor {
	return NewTableExtractorWithConfig(DefaultEngineConfig())
}

// NewTableExtractorWithConfig creates a table extractor with a custom configuration.
func NewTableExtractorWithConfig(cfg *EngineConfig) *TableExtractor {
	return &TableExtractor{
		cfg:       cfg,
		extractor: NewLineItemExtractorWithConfig(cfg),
		detector:  NewQuantityDetectorWithConfig(cfg),
		builder:   NewQuoteGroupBuilderWithConfig(cfg),
		analyzer:  NewStructureAnalyzerWithConfig(cfg),
	}
}

// Extract builds quote groups from table rows. knownQuantities seed the
// permutation tie-break for rows that need the generic extractor.
func (t *TableExtractor) Extract(rows [][]string, knownQuantities []decimal.Decimal) []QuoteGroup {
	if len(rows) == 0 {
		return nil
	}

	headers, dataRows := t.splitHeader(rows)

	if quantityColumns := t.groupedQuantityColumns(headers); len(quantityColumns) >= 2 {
		return t.extractGrouped(headers, dataRows, quantityColumns)
	}

	known := append(t.detector.DetectFromHeaders(headers), knownQuantities...)

	var items []LineItem
	for _, row := range dataRows {
		line := strings.TrimSpace(strings.Join(row, "  "))
		if line == "" || t.analyzer.IsNoiseLine(line) {
			continue
		}
		region := t.analyzer.AnalyzeLine(line)
		if region.NumericTokenCount < 2 {
			continue
		}
		item, err := t.extractor.Extract(line, known)
		if err != nil {
			continue // rows that defeat every strategy are dropped
		}
		items = append(items, item)
	}
	return t.builder.Build(items)
}

// splitHeader peels a leading header row off the table when the first row
// reads as column labels rather than data.
func (t *TableExtractor) splitHeader(rows [][]string) (headers []string, dataRows [][]string) {
	first := rows[0]
	joined := strings.ToLower(strings.Join(first, " "))

	keywordHits := 0
	for _, kw := range t.cfg.ColumnKeywords {
		if strings.Contains(joined, kw) {
			keywordHits++
		}
	}
	if keywordHits >= 2 {
		return first, rows[1:]
	}
	return nil, rows
}

// groupedQuantityColumns finds header cells embedding an order quantity
// ("Qty 100", "250 pcs"), keyed by column index.
func (t *TableExtractor) groupedQuantityColumns(headers []string) map[int]decimal.Decimal {
	cols := make(map[int]decimal.Decimal)
	for i, h := range headers {
		found := t.detector.DetectFromHeaders([]string{h})
		if len(found) == 1 {
			cols[i] = found[0]
		}
	}
	return cols
}

// extractGrouped handles one-price-column-per-quantity tables: every data
// row contributes its description to all groups, with the unit price taken
// from each quantity's own column.
func (t *TableExtractor) extractGrouped(headers []string, dataRows [][]string, quantityColumns map[int]decimal.Decimal) []QuoteGroup {
	var descriptions []string
	prices := make(map[string][]decimal.Decimal)
	var quantities []decimal.Decimal
	for _, qty := range quantityColumns {
		quantities = append(quantities, qty)
	}

	for _, row := range dataRows {
		desc := t.rowDescription(row, quantityColumns)
		rowPrices := make(map[string]decimal.Decimal, len(quantityColumns))
		complete := true
		for col, qty := range quantityColumns {
			if col >= len(row) {
				complete = false
				break
			}
			val, err := Normalize(row[col])
			if err != nil || !val.IsPositive() {
				complete = false
				break
			}
			rowPrices[qty.String()] = val
		}
		if !complete {
			continue
		}
		descriptions = append(descriptions, desc)
		for key, val := range rowPrices {
			prices[key] = append(prices[key], val)
		}
	}
	if len(descriptions) == 0 {
		return nil
	}
	return t.builder.BuildGrouped(descriptions, quantities, prices)
}

// rowDescription picks the first non-price cell with text content.
func (t *TableExtractor) rowDescription(row []string, quantityColumns map[int]decimal.Decimal) string {
	for i, cell := range row {
		if _, isPriceCol := quantityColumns[i]; isPriceCol {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if containsLetter(cell) {
			return cell
		}
	}
	return "ITEM"
}

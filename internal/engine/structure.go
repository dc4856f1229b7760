package engine

import (
	"strings"
)

// StructureAnalyzer segments raw page text into classified regions so the
// extractor can focus on probable line-item lines while still keeping
// unknown regions available as a fallback.
type StructureAnalyzer struct {
	cfg *EngineConfig
}

// NewStructureAnalyzer creates an analyzer with the default configuration.
func NewStructureAnalyzer() *StructureAnalyzer {
	return NewStructureAnalyzerWithConfig(DefaultEngineConfig())
}

// NewStructureAnalyzerWithConfig creates an analyzer with a custom configuration.
func NewStructureAnalyzerWithConfig(cfg *EngineConfig) *StructureAnalyzer {
	return &StructureAnalyzer{cfg: cfg}
}

// AnalyzeLine builds the TextRegion for a single line: its numeric token
// count, currency presence and keyword hits, plus the classification derived
// from them.
func (a *StructureAnalyzer) AnalyzeLine(line string) TextRegion {
	scan := ScanLine(line, a.cfg)

	region := TextRegion{
		Text:              line,
		NumericTokenCount: len(scan.Tokens),
		HasCurrencySymbol: hasCurrencySymbol(line, a.cfg),
		KeywordHits:       a.countKeywordHits(line),
	}
	region.Classification = a.Classify(region)
	return region
}

// Classify assigns a region class from the measured signals. Totals are
// checked before line items so that a lone "Total $5,000" line is not
// mistaken for an item row.
func (a *StructureAnalyzer) Classify(region TextRegion) RegionClass {
	lower := strings.ToLower(region.Text)

	if region.NumericTokenCount == 1 && a.hasTotalKeyword(lower) {
		return RegionTotals
	}
	if region.NumericTokenCount >= 2 {
		return RegionLineItems
	}
	if region.NumericTokenCount >= 1 && region.HasCurrencySymbol && region.KeywordHits >= 1 {
		return RegionLineItems
	}
	if region.NumericTokenCount == 0 && region.KeywordHits >= 2 {
		return RegionHeader
	}
	return RegionUnknown
}

// SegmentPage splits page text into per-line regions, dropping blank lines
// and lines recognized as document noise (addresses, contact details, page
// footers). Unknown regions survive segmentation; classification narrows
// focus but never discards content outright.
func (a *StructureAnalyzer) SegmentPage(text string) []TextRegion {
	var regions []TextRegion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if a.IsNoiseLine(line) {
			continue
		}
		regions = append(regions, a.AnalyzeLine(line))
	}
	return regions
}

// IsNoiseLine reports whether a line is document metadata rather than quote
// content: contact details, addresses, footers, and similar boilerplate.
// Lines carrying a totals keyword are never noise, whatever else they match.
func (a *StructureAnalyzer) IsNoiseLine(line string) bool {
	lower := strings.ToLower(line)

	if a.hasTotalKeyword(lower) {
		return false
	}
	for _, kw := range a.cfg.NoiseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// Emails and URLs mark contact blocks.
	if strings.Contains(lower, "@") || strings.Contains(lower, "www.") || strings.Contains(lower, "http") {
		return true
	}
	return false
}

// countKeywordHits counts column-vocabulary words appearing in the line.
func (a *StructureAnalyzer) countKeywordHits(line string) int {
	lower := strings.ToLower(line)
	hits := 0
	for _, kw := range a.cfg.ColumnKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

func (a *StructureAnalyzer) hasTotalKeyword(lower string) bool {
	for _, kw := range a.cfg.TotalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

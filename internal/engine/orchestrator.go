package engine

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Orchestrator runs the extraction pipeline over every candidate source in
// tier order: tables first, then structured page text, then OCR-derived
// texts, then the minimal document-total fallback. The first tier yielding a
// clean result wins; otherwise the highest-confidence result across all
// tiers is returned. The caller always receives a structured result, never
// an error.
type Orchestrator struct {
	cfg       *EngineConfig
	table     *TableExtractor
	analyzer  *StructureAnalyzer
	extractor *LineItemExtractor
	detector  *QuantityDetector
	builder   *QuoteGroupBuilder
	validator *Validator
}

// NewOrchestrator creates an orchestrator with the default configuration.
func NewOrchestrator() *Orchestrator {
	return NewOrchestratorWithConfig(DefaultEngineConfig())
}

// NewOrchestratorWithConfig creates an orchestrator with a custom
// configuration. The configuration is read-only; one orchestrator may serve
// many documents concurrently.
func NewOrchestratorWithConfig(cfg *EngineConfig) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		table:     NewTableExtractorWithConfig(cfg),
		analyzer:  NewStructureAnalyzerWithConfig(cfg),
		extractor: NewLineItemExtractorWithConfig(cfg),
		detector:  NewQuantityDetectorWithConfig(cfg),
		builder:   NewQuoteGroupBuilderWithConfig(cfg),
		validator: NewValidatorWithConfig(cfg),
	}
}

// Extract processes all candidates and returns the best result. A deadline
// or cancellation on ctx stops tier processing and returns the best result
// obtained so far, flagged for manual review.
func (o *Orchestrator) Extract(ctx context.Context, candidates []Candidate) *ExtractionResult {
	if len(candidates) == 0 {
		return emptyResult(IssueEmptyInput, ErrInputEmpty.Error())
	}

	tables, texts, ocrTexts := partitionCandidates(candidates)
	known := o.knownQuantities(texts)

	type tier struct {
		method  string
		results func() []*ExtractionResult
	}
	tiers := []tier{
		{SourceMethodTable, func() []*ExtractionResult {
			var out []*ExtractionResult
			for _, c := range tables {
				groups := o.table.Extract(c.Rows, known)
				out = append(out, o.assemble(groups, SourceMethodTable))
			}
			return out
		}},
		{SourceMethodStructuredText, func() []*ExtractionResult {
			var out []*ExtractionResult
			for _, c := range texts {
				out = append(out, o.extractText(c.Text, SourceMethodStructuredText))
			}
			return out
		}},
		{SourceMethodOCR, func() []*ExtractionResult {
			var out []*ExtractionResult
			for _, c := range ocrTexts {
				out = append(out, o.extractText(c.Text, SourceMethodOCR))
			}
			return out
		}},
	}

	var best *ExtractionResult
	for _, t := range tiers {
		if ctx.Err() != nil {
			return o.deadlineResult(best)
		}
		for _, res := range t.results() {
			best = pickBetter(best, res)
		}
		if best != nil && !best.Validation.NeedsManualReview && len(best.QuoteGroups) > 0 {
			return best
		}
	}

	// Tier 4: no tier produced any line items. Synthesize a single total
	// from the first plausible total-like figure in the document.
	if best == nil || len(best.QuoteGroups) == 0 {
		if res := o.minimalFallback(candidates); res != nil {
			best = pickBetter(best, res)
		}
	}

	if best == nil {
		return emptyResult(IssueNoLineItems, "no extractable content in any candidate")
	}
	return best
}

// extractText runs the structured-text pipeline over one page of text:
// segmentation, per-line extraction, dedup, grouping, validation.
func (o *Orchestrator) extractText(text, method string) *ExtractionResult {
	regions := o.analyzer.SegmentPage(text)
	known := o.detector.DetectFromText(text)

	var items []LineItem
	for _, region := range regions {
		switch region.Classification {
		case RegionLineItems:
			// proceed
		case RegionUnknown:
			// Unknown regions still get a try, but only with enough
			// numeric substance to form an item.
			if region.NumericTokenCount < 2 {
				continue
			}
		default:
			continue
		}
		item, err := o.extractor.Extract(region.Text, known)
		if err != nil {
			continue
		}
		items = append(items, item)
	}

	items = o.dedupe(items)
	groups := o.builder.Build(items)
	return o.assemble(groups, method)
}

// dedupe drops repeated line items: same description (case-insensitive) with
// unit prices within one percent of each other. OCR passes often read the
// same physical row twice.
func (o *Orchestrator) dedupe(items []LineItem) []LineItem {
	var kept []LineItem
	for _, it := range items {
		dup := false
		for _, k := range kept {
			if !strings.EqualFold(it.Description, k.Description) {
				continue
			}
			larger := decimal.Max(it.UnitPrice.Abs(), k.UnitPrice.Abs())
			if it.UnitPrice.Sub(k.UnitPrice).Abs().LessThanOrEqual(larger.Mul(o.cfg.RelativeTolerance)) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, it)
		}
	}
	return kept
}

// minimalFallback scans all candidates for the first plausible total-like
// number, preferring totals-region lines, then currency-tagged figures, then
// any positive number at all.
func (o *Orchestrator) minimalFallback(candidates []Candidate) *ExtractionResult {
	var currencyFallback, anyFallback *decimal.Decimal

	for _, c := range candidates {
		text := c.Text
		if c.IsTable() {
			var lines []string
			for _, row := range c.Rows {
				lines = append(lines, strings.Join(row, "  "))
			}
			text = strings.Join(lines, "\n")
		}
		for _, line := range strings.Split(text, "\n") {
			region := o.analyzer.AnalyzeLine(line)
			for _, tok := range ScanTokens(line, o.cfg) {
				if !tok.Value.IsPositive() || tok.Kind == TokenKindPercent {
					continue
				}
				v := tok.Value
				if region.Classification == RegionTotals {
					return o.assembleTotal(v)
				}
				if tok.Currency && currencyFallback == nil {
					currencyFallback = &v
				}
				if anyFallback == nil {
					anyFallback = &v
				}
			}
		}
	}
	if currencyFallback != nil {
		return o.assembleTotal(*currencyFallback)
	}
	if anyFallback != nil {
		return o.assembleTotal(*anyFallback)
	}
	return nil
}

func (o *Orchestrator) assembleTotal(total decimal.Decimal) *ExtractionResult {
	item := LineItem{
		Description: "TOTAL",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   RoundMoney(total),
		Cost:        RoundMoney(total),
		Strategy:    StrategySingleNumber,
		Confidence:  confidenceSingleNumber,
	}
	return o.assemble(o.builder.Build([]LineItem{item}), SourceMethodMinimal)
}

// assemble validates built groups and attaches the summary.
func (o *Orchestrator) assemble(groups []QuoteGroup, method string) *ExtractionResult {
	validation := o.validator.Validate(groups)
	return &ExtractionResult{
		QuoteGroups:  groups,
		Validation:   validation,
		Summary:      summarize(groups),
		SourceMethod: method,
	}
}

// deadlineResult returns the best result so far, flagged for review.
func (o *Orchestrator) deadlineResult(best *ExtractionResult) *ExtractionResult {
	if best == nil {
		best = emptyResult(IssueNoLineItems, "no extractable content in any candidate")
	}
	best.Validation.Issues = append(best.Validation.Issues, ValidationIssue{
		Kind:     IssueDeadlineExceeded,
		Message:  "processing deadline expired before all tiers completed",
		Severity: SeverityWarning,
	})
	best.Validation.NeedsManualReview = true
	return best
}

func (o *Orchestrator) knownQuantities(texts []Candidate) []decimal.Decimal {
	var all []string
	for _, c := range texts {
		all = append(all, c.Text)
	}
	return o.detector.DetectFromText(strings.Join(all, "\n"))
}

// pickBetter keeps the higher-confidence result; earlier tiers win ties.
func pickBetter(best, next *ExtractionResult) *ExtractionResult {
	if next == nil {
		return best
	}
	if best == nil {
		return next
	}
	// Results without groups never beat results with groups.
	if len(best.QuoteGroups) == 0 && len(next.QuoteGroups) > 0 {
		return next
	}
	if len(next.QuoteGroups) == 0 && len(best.QuoteGroups) > 0 {
		return best
	}
	if next.Validation.Confidence > best.Validation.Confidence {
		return next
	}
	return best
}

func partitionCandidates(candidates []Candidate) (tables, texts, ocrTexts []Candidate) {
	for _, c := range candidates {
		switch {
		case c.IsTable():
			tables = append(tables, c)
		case strings.HasPrefix(c.SourceLabel, "ocr:"):
			ocrTexts = append(ocrTexts, c)
		default:
			texts = append(texts, c)
		}
	}
	return tables, texts, ocrTexts
}

func summarize(groups []QuoteGroup) Summary {
	s := Summary{NumberOfGroups: len(groups)}
	s.TotalQuantity = decimal.Zero
	s.TotalCost = decimal.Zero
	for _, g := range groups {
		s.TotalQuantity = s.TotalQuantity.Add(g.Quantity)
		s.TotalCost = s.TotalCost.Add(g.TotalPrice)
	}
	return s
}

func emptyResult(kind IssueKind, message string) *ExtractionResult {
	return &ExtractionResult{
		QuoteGroups: []QuoteGroup{},
		Validation: Validation{
			Issues: []ValidationIssue{{
				Kind:     kind,
				Message:  message,
				Severity: SeverityError,
			}},
			Confidence:        0,
			NeedsManualReview: true,
		},
		Summary:      Summary{TotalQuantity: decimal.Zero, TotalCost: decimal.Zero},
		SourceMethod: SourceMethodNone,
	}
}

package engine

import (
	"github.com/shopspring/decimal"
)

// TokenKind classifies what role a numeric token plays in quote text.
type TokenKind string

const (
	TokenKindPrice    TokenKind = "price"
	TokenKindQuantity TokenKind = "quantity"
	TokenKindPercent  TokenKind = "percent"
	TokenKindUnknown  TokenKind = "unknown"
)

// NumericToken is a parsed numeric value found in a line of text.
// Tokens are derived during scanning and never mutated afterwards.
type NumericToken struct {
	Raw      string          `json:"raw"`
	Value    decimal.Decimal `json:"value"`
	Kind     TokenKind       `json:"kind"`
	Position int             `json:"position"` // field index within the line
	Currency bool            `json:"currency"` // carried an explicit currency symbol
}

// RegionClass is the structural classification of a text region.
type RegionClass string

const (
	RegionHeader    RegionClass = "header"
	RegionLineItems RegionClass = "line_items"
	RegionTotals    RegionClass = "totals"
	RegionUnknown   RegionClass = "unknown"
)

// TextRegion is one structural unit of a page, typically a single line.
// Regions are built once per analysis pass and treated as immutable.
type TextRegion struct {
	Text              string      `json:"text"`
	Classification    RegionClass `json:"classification"`
	NumericTokenCount int         `json:"numeric_token_count"`
	HasCurrencySymbol bool        `json:"has_currency_symbol"`
	KeywordHits       int         `json:"keyword_hits"`
}

// Strategy identifies which extraction strategy produced a line item.
type Strategy string

const (
	StrategyCurrencyTagged    Strategy = "currency_tagged"
	StrategyPositionalTriple  Strategy = "positional_triple"
	StrategyPermutationSearch Strategy = "permutation_search"
	StrategyTwoNumber         Strategy = "two_number"
	StrategySingleNumber      Strategy = "single_number"
)

// LineItem is one extracted cost component of a quote.
// Invariant: Quantity > 0 and |Quantity*UnitPrice - Cost| <= tolerance(Cost).
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Cost        decimal.Decimal `json:"cost"`
	Strategy    Strategy        `json:"strategyUsed,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`

	// CurrencyTagged records whether a currency symbol accompanied the
	// chosen price tokens. Used by the validator, not serialized.
	CurrencyTagged bool `json:"-"`
}

// QuoteGroup is the set of line items quoted at one order quantity.
// Invariant: TotalPrice == sum of member costs and
// UnitPrice == TotalPrice/Quantity, both within tolerance.
type QuoteGroup struct {
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	LineItems  []LineItem      `json:"lineItems"`
}

// Severity grades a validation issue.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IssueKind names a class of validation problem.
type IssueKind string

const (
	IssueItemMathMismatch        IssueKind = "item_math_mismatch"
	IssueGroupMathMismatch       IssueKind = "group_math_mismatch"
	IssueQuantityOrder           IssueKind = "quantity_order"
	IssueSuspiciouslyLargeNumber IssueKind = "suspiciously_large_number"
	IssuePossibleMissingDecimal  IssueKind = "possible_missing_decimal"
	IssueSuspiciousQuantity      IssueKind = "suspicious_quantity"
	IssueNoLineItems             IssueKind = "no_line_items"
	IssueEmptyInput              IssueKind = "empty_input"
	IssueDeadlineExceeded        IssueKind = "deadline_exceeded"
)

// ValidationIssue is one problem found while cross-checking a result.
type ValidationIssue struct {
	Kind     IssueKind `json:"kind"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Validation summarizes the consistency checks over a full result.
type Validation struct {
	Issues            []ValidationIssue `json:"issues"`
	Confidence        float64           `json:"confidence"`
	NeedsManualReview bool              `json:"needsManualReview"`
}

// Summary carries document-level totals across all quote groups.
type Summary struct {
	TotalQuantity  decimal.Decimal `json:"totalQuantity"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	NumberOfGroups int             `json:"numberOfGroups"`
}

// ExtractionResult is the final artifact returned to the caller.
// Quote groups are sorted by ascending quantity with no duplicates.
// The result is immutable once constructed.
type ExtractionResult struct {
	QuoteGroups  []QuoteGroup `json:"quoteGroups"`
	Validation   Validation   `json:"validation"`
	Summary      Summary      `json:"summary"`
	SourceMethod string       `json:"sourceMethod"`
}

// Candidate is one extraction input supplied by a collaborator: either raw
// page text or a pre-segmented table (rows of cell strings). Multiple OCR
// engine outputs for the same page arrive as separate candidates whose
// labels carry the "ocr:" prefix.
type Candidate struct {
	SourceLabel string     `json:"sourceLabel"`
	Text        string     `json:"text,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
}

// IsTable reports whether the candidate carries pre-segmented table rows.
func (c Candidate) IsTable() bool {
	return len(c.Rows) > 0
}

// Source method labels reported on results.
const (
	SourceMethodTable          = "table"
	SourceMethodStructuredText = "structured_text"
	SourceMethodOCR            = "ocr"
	SourceMethodMinimal        = "minimal_fallback"
	SourceMethodNone           = "none"
)

// EngineConfig holds the immutable pattern tables, vocabularies and
// tolerances shared by every engine component. It is constructed once and
// passed explicitly; documents processed concurrently may share it freely.
type EngineConfig struct {
	// Vocabularies
	CurrencySymbols  []string `json:"currency_symbols"`
	QuantityKeywords []string `json:"quantity_keywords"`
	TotalKeywords    []string `json:"total_keywords"`
	ColumnKeywords   []string `json:"column_keywords"`
	NoiseKeywords    []string `json:"noise_keywords"`

	// Arithmetic tolerance: max(AbsoluteTolerance, RelativeTolerance*total)
	AbsoluteTolerance decimal.Decimal `json:"absolute_tolerance"`
	RelativeTolerance decimal.Decimal `json:"relative_tolerance"`

	// Bounds
	MaxPermutationTokens int             `json:"max_permutation_tokens"`
	MinQuantity          decimal.Decimal `json:"min_quantity"`
	MaxQuantity          decimal.Decimal `json:"max_quantity"`

	// Validation thresholds
	LargeNumberThreshold        decimal.Decimal `json:"large_number_threshold"`
	MissingDecimalThreshold     decimal.Decimal `json:"missing_decimal_threshold"`
	SuspiciousQuantityThreshold decimal.Decimal `json:"suspicious_quantity_threshold"`
	ReviewConfidenceThreshold   float64         `json:"review_confidence_threshold"`

	// Confidence weights: high-confidence strategy fraction, absence of
	// error issues, group-level math agreement. Should sum to 1.
	StrategyWeight float64 `json:"strategy_weight"`
	IssueWeight    float64 `json:"issue_weight"`
	MathWeight     float64 `json:"math_weight"`
}

// DefaultEngineConfig returns the configuration used in production.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		CurrencySymbols:  []string{"$", "€", "£", "¥"},
		QuantityKeywords: []string{"qty", "quantity", "pcs", "pieces", "units", "ea"},
		TotalKeywords:    []string{"grand total", "subtotal", "total", "amount"},
		ColumnKeywords:   []string{"description", "qty", "quantity", "price", "unit", "total"},
		NoiseKeywords: []string{
			"bill to", "ship to", "quote no", "valid until", "due date",
			"phone", "fax", "email", "address", "terms", "conditions",
			"thank you", "signature", "page",
		},
		AbsoluteTolerance:           decimal.NewFromFloat(0.01),
		RelativeTolerance:           decimal.NewFromFloat(0.01),
		MaxPermutationTokens:        8,
		MinQuantity:                 decimal.NewFromFloat(0.1),
		MaxQuantity:                 decimal.NewFromInt(10000),
		LargeNumberThreshold:        decimal.NewFromInt(1000000),
		MissingDecimalThreshold:     decimal.NewFromInt(100),
		SuspiciousQuantityThreshold: decimal.NewFromInt(10000),
		ReviewConfidenceThreshold:   0.7,
		StrategyWeight:              0.4,
		IssueWeight:                 0.3,
		MathWeight:                  0.3,
	}
}

// Tolerance returns the arithmetic slack allowed when validating
// quantity*unitPrice against a stated total.
func (c *EngineConfig) Tolerance(total decimal.Decimal) decimal.Decimal {
	rel := c.RelativeTolerance.Mul(total.Abs())
	if rel.GreaterThan(c.AbsoluteTolerance) {
		return rel
	}
	return c.AbsoluteTolerance
}

// WithinTolerance reports whether quantity*unitPrice matches total within
// the configured absolute-or-relative slack.
func (c *EngineConfig) WithinTolerance(quantity, unitPrice, total decimal.Decimal) bool {
	diff := quantity.Mul(unitPrice).Sub(total).Abs()
	return diff.LessThanOrEqual(c.Tolerance(total))
}

// RoundMoney rounds a decimal to two places for money output. Full
// precision is preserved internally until a value is surfaced.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

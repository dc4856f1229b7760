package engine

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Normalize parses a raw numeric substring into an exact decimal, resolving
// currency and locale ambiguity:
//
//   - currency symbols and whitespace are stripped (internal spaces are
//     accepted as thousands grouping);
//   - when both "," and "." appear, the rightmost separator is the decimal
//     point and the other groups thousands (groups must be exactly 3 digits);
//   - a lone "," is a decimal separator when followed by exactly 1-2 digits
//     at the end of the string, otherwise a thousands separator.
//
// Full precision is preserved; callers round with RoundMoney when a value
// is surfaced as money.
func Normalize(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.Zero, &NumberFormatError{Raw: raw, Reason: "empty"}
	}

	neg := false
	if strings.HasPrefix(cleaned, "-") {
		neg = true
		cleaned = cleaned[1:]
	} else if strings.HasPrefix(cleaned, "+") {
		cleaned = cleaned[1:]
	}

	cleaned = stripCurrencyAndNoise(cleaned)
	if !containsDigit(cleaned) {
		return decimal.Zero, &NumberFormatError{Raw: raw, Reason: "no digits"}
	}

	// Internal spaces group thousands ("1 234,56").
	if strings.ContainsAny(cleaned, " \u00a0") {
		cleaned = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\u00a0' {
				return -1
			}
			return r
		}, cleaned)
	}

	normalized, err := resolveSeparators(cleaned, raw)
	if err != nil {
		return decimal.Zero, err
	}

	if strings.Count(normalized, ".") > 1 {
		return decimal.Zero, &NumberFormatError{Raw: raw, Reason: "multiple decimal points"}
	}

	d, derr := decimal.NewFromString(normalized)
	if derr != nil {
		return decimal.Zero, &NumberFormatError{Raw: raw, Reason: derr.Error()}
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// resolveSeparators rewrites locale separators so the string parses with a
// "." decimal point.
func resolveSeparators(s, raw string) (string, error) {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		lastComma := strings.LastIndex(s, ",")
		lastDot := strings.LastIndex(s, ".")
		if lastComma > lastDot {
			// European: "." groups thousands, "," is the decimal point.
			if !validGrouping(s[:lastComma], '.') {
				return "", &NumberFormatError{Raw: raw, Reason: "invalid thousands grouping"}
			}
			s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
		} else {
			if !validGrouping(s[:lastDot], ',') {
				return "", &NumberFormatError{Raw: raw, Reason: "invalid thousands grouping"}
			}
			s = strings.ReplaceAll(s[:lastDot], ",", "") + s[lastDot:]
		}
		return s, nil

	case hasComma:
		lastComma := strings.LastIndex(s, ",")
		frac := s[lastComma+1:]
		if strings.Count(s, ",") == 1 && len(frac) >= 1 && len(frac) <= 2 {
			// Decimal comma: "150,75".
			return s[:lastComma] + "." + frac, nil
		}
		// Thousands commas: every group after the first must be 3 digits.
		if !validGrouping(s, ',') {
			return "", &NumberFormatError{Raw: raw, Reason: "invalid thousands grouping"}
		}
		return strings.ReplaceAll(s, ",", ""), nil

	default:
		if strings.Count(s, ".") > 1 {
			// "1.234.567" is a European integer with dot grouping.
			if !validGrouping(s, '.') {
				return "", &NumberFormatError{Raw: raw, Reason: "multiple decimal points"}
			}
			return strings.ReplaceAll(s, ".", ""), nil
		}
		return s, nil
	}
}

// validGrouping checks that sep splits s into a leading group of 1+ digits
// followed by groups of exactly 3 digits.
func validGrouping(s string, sep rune) bool {
	groups := strings.Split(s, string(sep))
	if len(groups) < 2 {
		return true
	}
	if len(groups[0]) == 0 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func stripCurrencyAndNoise(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '$', '€', '£', '¥', '%':
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// lineScan is the tokenized view of one line of text: its whitespace fields
// plus the numeric tokens recognized among them.
type lineScan struct {
	Fields  []string
	Tokens  []NumericToken
	numeric map[int]bool
}

// isNumericAt reports whether the field at index i was recognized as a
// numeric token.
func (ls lineScan) isNumericAt(i int) bool {
	return ls.numeric[i]
}

// ScanLine tokenizes a line, recognizing numeric tokens and classifying
// their kind from local context. A field containing both letters and digits
// (a part number such as "ESTOP_BODY-GEN2_4") is text, never a number.
func ScanLine(line string, cfg *EngineConfig) lineScan {
	fields := strings.Fields(line)
	scan := lineScan{Fields: fields, numeric: make(map[int]bool, len(fields))}

	for i, f := range fields {
		trimmed := strings.Trim(f, "()[]")
		trimmed = strings.TrimRight(trimmed, ",.;:")
		if trimmed == "" {
			continue
		}
		if containsLetter(trimmed) {
			continue // part numbers and words stay in the description
		}
		if !containsDigit(trimmed) {
			continue
		}

		value, err := Normalize(trimmed)
		if err != nil {
			continue // discard unparseable tokens, keep scanning
		}

		tok := NumericToken{
			Raw:      f,
			Value:    value,
			Kind:     TokenKindUnknown,
			Position: i,
			Currency: hasCurrencySymbol(f, cfg),
		}
		switch {
		case strings.Contains(f, "%"):
			tok.Kind = TokenKindPercent
		case tok.Currency:
			tok.Kind = TokenKindPrice
		case isQuantityContext(fields, i, cfg):
			tok.Kind = TokenKindQuantity
		}

		scan.Tokens = append(scan.Tokens, tok)
		scan.numeric[i] = true
	}
	return scan
}

// ScanTokens extracts the numeric tokens from a line of quote text.
func ScanTokens(line string, cfg *EngineConfig) []NumericToken {
	return ScanLine(line, cfg).Tokens
}

func hasCurrencySymbol(s string, cfg *EngineConfig) bool {
	for _, sym := range cfg.CurrencySymbols {
		if strings.Contains(s, sym) {
			return true
		}
	}
	return false
}

// isQuantityContext reports whether the field at index i sits next to an
// explicit quantity keyword ("qty 3", "3 pcs", "Qty: 3").
func isQuantityContext(fields []string, i int, cfg *EngineConfig) bool {
	check := func(idx int) bool {
		if idx < 0 || idx >= len(fields) {
			return false
		}
		word := strings.ToLower(strings.Trim(fields[idx], ":.,"))
		for _, kw := range cfg.QuantityKeywords {
			if word == kw {
				return true
			}
		}
		return false
	}
	return check(i-1) || check(i+1)
}

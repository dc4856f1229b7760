package descriptions

// Tool descriptions with practical examples and use cases

const (
	QuoteExtractFileDescription = `Extract structured quote groups and line items from a supplier quote PDF.

**When to use:** You have a quote, RFQ response, or pricing sheet as a PDF and need its line items, quantities, unit prices, and totals as structured data.

**Why it's useful:** Handles the messy reality of supplier quotes: mixed currency formats, locale-dependent decimals, part numbers that look like numbers, multi-quantity price tables, and scanned documents needing OCR.

**Examples:**
• Process an RFQ response: "Extract line items from machining-quote.pdf"
• Review pricing tiers: "Get the per-quantity price breaks from bulk-quote.pdf"
• Export for sourcing: "Extract quote.pdf and write the result to quote.xlsx"

**Common workflows:**
1. Quote intake: extract → check needsManualReview → store or escalate
2. Price comparison: extract several quotes → compare unit prices per quantity
3. Review handoff: extract with xlsx output → send workbook to sourcing team

**Best practices:** Always check validation.needsManualReview and validation.issues before trusting the numbers; low-confidence results carry the figures that were found but still need a human check.`

	QuoteExtractTextDescription = `Extract structured quote groups and line items from raw quote text.

**When to use:** Quote content is already text: an email body, a prior PDF extraction, or output from a separate OCR pass.

**Why it's useful:** Runs the same adaptive multi-strategy extraction as the file tool without touching disk, so upstream systems can feed text from any source.

**Examples:**
• Parse a pasted email quote: "Extract line items from this quoted email text"
• Re-run extraction: "Re-extract this corrected OCR text"

**Common workflows:**
1. Email intake: capture body text → extract → route by confidence
2. Correction loop: fix OCR text manually → re-extract → compare results

**Best practices:** Keep line breaks intact; the extractor reads line structure, and flattened text loses the row boundaries it relies on.`

	QuoteServerInfoDescription = `Get server information, available tools, and usage guidance.

**When to use:** Starting a session with the quote extractor or debugging tool availability.

**Why it's useful:** Reports the server version, each tool's parameters, and how to interpret extraction results.`
)

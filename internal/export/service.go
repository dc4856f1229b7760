// Package export writes extraction results to XLSX workbooks for review by
// sourcing teams.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vendra/quote-extractor/internal/engine"
)

const (
	groupsSheet     = "Quote Groups"
	validationSheet = "Validation"
)

// Service produces XLSX workbooks from extraction results.
type Service struct{}

// NewService creates an export service.
func NewService() *Service {
	return &Service{}
}

// WriteXLSX writes the result to a workbook at path: one sheet of quote
// groups with their line items, one sheet of validation issues.
func (s *Service) WriteXLSX(result *engine.ExtractionResult, path string) error {
	f, err := s.workbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Bytes renders the workbook in memory, for callers that stream it onward.
func (s *Service) Bytes(result *engine.ExtractionResult) ([]byte, error) {
	f, err := s.workbook(result)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) workbook(result *engine.ExtractionResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := s.writeGroupsSheet(f, result); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := s.writeValidationSheet(f, result); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Drop the default sheet left behind by excelize.
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(groupsSheet); err == nil {
		f.SetActiveSheet(index)
	}
	return f, nil
}

func (s *Service) writeGroupsSheet(f *excelize.File, result *engine.ExtractionResult) error {
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{
		"Group Quantity",
		"Group Unit Price",
		"Group Total",
		"Description",
		"Item Quantity",
		"Item Unit Price",
		"Item Cost",
		"Strategy",
		"Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(groupsSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, g := range result.QuoteGroups {
		for _, it := range g.LineItems {
			values := []any{
				g.Quantity.String(),
				g.UnitPrice.String(),
				g.TotalPrice.String(),
				it.Description,
				it.Quantity.String(),
				it.UnitPrice.String(),
				it.Cost.String(),
				string(it.Strategy),
				it.Confidence,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(groupsSheet, cell, v); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
			row++
		}
	}

	// Summary block under the items.
	row++
	summary := [][]any{
		{"Total Quantity", result.Summary.TotalQuantity.String()},
		{"Total Cost", result.Summary.TotalCost.String()},
		{"Number of Groups", result.Summary.NumberOfGroups},
		{"Source Method", result.SourceMethod},
	}
	for _, pair := range summary {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(groupsSheet, cell, v); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
		}
		row++
	}
	return nil
}

func (s *Service) writeValidationSheet(f *excelize.File, result *engine.ExtractionResult) error {
	if _, err := f.NewSheet(validationSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headers := []string{"Kind", "Severity", "Message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(validationSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	row := 2
	for _, issue := range result.Validation.Issues {
		values := []any{string(issue.Kind), string(issue.Severity), issue.Message}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(validationSheet, cell, v); err != nil {
				return fmt.Errorf("write issue: %w", err)
			}
		}
		row++
	}

	row++
	footer := [][]any{
		{"Confidence", result.Validation.Confidence},
		{"Needs Manual Review", result.Validation.NeedsManualReview},
	}
	for _, pair := range footer {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(validationSheet, cell, v); err != nil {
				return fmt.Errorf("write footer: %w", err)
			}
		}
		row++
	}
	return nil
}

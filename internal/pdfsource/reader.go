// Package pdfsource turns PDF files into extraction candidates: one text
// candidate per page, plus table candidates when column-aligned rows can be
// inferred from the page text.
package pdfsource

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/vendra/quote-extractor/internal/engine"
)

// Reader extracts candidates from PDF files on disk.
type Reader struct {
	maxFileSize int64
}

// NewReader creates a PDF reader enforcing the given file size ceiling.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{maxFileSize: maxFileSize}
}

// ReadDocument validates the file and returns its extraction candidates in
// document order. Table candidates for a page precede its text candidate so
// the orchestrator's table tier sees them first.
func (r *Reader) ReadDocument(path string) ([]engine.Candidate, error) {
	if err := r.validateFile(path); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var candidates []engine.Candidate
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails.
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}

		if rows := InferTableRows(content); len(rows) >= 2 {
			candidates = append(candidates, engine.Candidate{
				SourceLabel: fmt.Sprintf("table:page-%d", pageNum),
				Rows:        rows,
			})
		}
		candidates = append(candidates, engine.Candidate{
			SourceLabel: fmt.Sprintf("text:page-%d", pageNum),
			Text:        content,
		})
	}
	return candidates, nil
}

// PageCount reports the number of pages without extracting content.
func (r *Reader) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// validateFile performs the structural and size checks before extraction.
func (r *Reader) validateFile(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), r.maxFileSize)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	return nil
}

var cellGap = regexp.MustCompile(`\s{2,}|\t`)

// InferTableRows recovers table rows from column-aligned page text: lines
// splitting into the same number of cells on wide whitespace gaps form a
// table. The most common cell count wins; shorter runs are left to the text
// tier.
func InferTableRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := cellGap.Split(strings.TrimSpace(line), -1)
		if len(cells) < 2 {
			continue
		}
		rows = append(rows, cells)
	}
	if len(rows) < 2 {
		return nil
	}

	// Keep only rows matching the dominant column count.
	counts := make(map[int]int)
	for _, row := range rows {
		counts[len(row)]++
	}
	dominant, dominantCount := 0, 0
	for width, n := range counts {
		if n > dominantCount || (n == dominantCount && width > dominant) {
			dominant, dominantCount = width, n
		}
	}
	if dominantCount < 2 {
		return nil
	}

	var out [][]string
	for _, row := range rows {
		if len(row) == dominant {
			out = append(out, row)
		}
	}
	return out
}

package pdfsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferTableRows(t *testing.T) {
	text := `Acme Machining Quote
Description        Qty    Unit Price    Total
Motor Assembly     2      125.50        251.00
Mounting Bracket   4      15.25         61.00
Thank you for your business`

	rows := InferTableRows(text)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Description", "Qty", "Unit Price", "Total"}, rows[0])
	assert.Equal(t, []string{"Motor Assembly", "2", "125.50", "251.00"}, rows[1])
	assert.Equal(t, []string{"Mounting Bracket", "4", "15.25", "61.00"}, rows[2])
}

func TestInferTableRowsNeedsConsistentColumns(t *testing.T) {
	// One aligned line is not a table.
	text := `Quote for parts
Motor Assembly     2      125.50        251.00
All prices in USD`

	rows := InferTableRows(text)
	assert.Nil(t, rows)
}

func TestInferTableRowsEmptyText(t *testing.T) {
	assert.Nil(t, InferTableRows(""))
	assert.Nil(t, InferTableRows("single line of prose"))
}

func TestReadDocumentRejectsMissingFile(t *testing.T) {
	reader := NewReader(1024 * 1024)

	_, err := reader.ReadDocument("/nonexistent/quote.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestReadDocumentRejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quote.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	reader := NewReader(1024 * 1024)
	_, err := reader.ReadDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")
}

func TestReadDocumentRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quote.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o600))

	reader := NewReader(1024)
	_, err := reader.ReadDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestReadDocumentRejectsEmptyPath(t *testing.T) {
	reader := NewReader(1024)
	_, err := reader.ReadDocument("")
	require.Error(t, err)
}

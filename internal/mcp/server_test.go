package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendra/quote-extractor/internal/config"
	"github.com/vendra/quote-extractor/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(config.DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.orchestrator)
}

func TestNewServerRequiresConfig(t *testing.T) {
	_, err := NewServer(nil)
	require.Error(t, err)
}

func TestExtractText(t *testing.T) {
	s := newTestServer(t)

	result := s.ExtractText(context.Background(), `Description Qty Unit Price Total
Motor Assembly 2 125.50 251.00
Mounting Bracket 4 15.25 61.00`)

	require.NotNil(t, result)
	assert.Len(t, result.QuoteGroups, 2)
	assert.False(t, result.Validation.NeedsManualReview)
	assert.Equal(t, engine.SourceMethodStructuredText, result.SourceMethod)
}

func TestExtractTextEmptyInputFlagsReview(t *testing.T) {
	s := newTestServer(t)

	result := s.ExtractText(context.Background(), "")
	require.NotNil(t, result)
	assert.Empty(t, result.QuoteGroups)
	assert.True(t, result.Validation.NeedsManualReview)
}

func TestExtractFileRejectsMissingFile(t *testing.T) {
	s := newTestServer(t)

	_, err := s.ExtractFile(context.Background(), "/nonexistent/quote.pdf")
	require.Error(t, err)
}

func TestResultSerializesWithWireFieldNames(t *testing.T) {
	s := newTestServer(t)

	result := s.ExtractText(context.Background(), "Motor Assembly 2 125.50 251.00")
	payload, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Contains(t, decoded, "quoteGroups")
	assert.Contains(t, decoded, "validation")
	assert.Contains(t, decoded, "summary")
	assert.Contains(t, decoded, "sourceMethod")

	groups := decoded["quoteGroups"].([]any)
	require.NotEmpty(t, groups)
	group := groups[0].(map[string]any)
	assert.Contains(t, group, "quantity")
	assert.Contains(t, group, "unitPrice")
	assert.Contains(t, group, "totalPrice")
	assert.Contains(t, group, "lineItems")

	validation := decoded["validation"].(map[string]any)
	assert.Contains(t, validation, "confidence")
	assert.Contains(t, validation, "needsManualReview")
}

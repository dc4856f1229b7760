// Package mcp exposes the quote extraction pipeline as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vendra/quote-extractor/internal/config"
	"github.com/vendra/quote-extractor/internal/descriptions"
	"github.com/vendra/quote-extractor/internal/engine"
	"github.com/vendra/quote-extractor/internal/export"
	"github.com/vendra/quote-extractor/internal/ocr"
	"github.com/vendra/quote-extractor/internal/pdfsource"
)

// ocrTextThreshold is the extracted-text length below which a document is
// treated as scanned and handed to the OCR fallback.
const ocrTextThreshold = 200

// Server represents the MCP server instance.
type Server struct {
	config       *config.Config
	reader       *pdfsource.Reader
	ocrEngine    *ocr.Engine
	exporter     *export.Service
	orchestrator *engine.Orchestrator
	mcpServer    *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // tool set is static
	)

	s := &Server{
		config:       cfg,
		reader:       pdfsource.NewReader(cfg.MaxFileSize),
		ocrEngine:    ocr.NewEngine(ocr.DefaultConfig()),
		exporter:     export.NewService(),
		orchestrator: engine.NewOrchestrator(),
		mcpServer:    mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	quoteExtractFileTool := mcp.NewTool(
		"quote_extract_file",
		mcp.WithDescription(descriptions.QuoteExtractFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("xlsx",
			mcp.Description("Optional path to write the result as an XLSX workbook"),
		),
	)
	s.mcpServer.AddTool(quoteExtractFileTool, s.handleQuoteExtractFile)

	quoteExtractTextTool := mcp.NewTool(
		"quote_extract_text",
		mcp.WithDescription(descriptions.QuoteExtractTextDescription),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Quote text, for example from a prior PDF or OCR pass"),
		),
	)
	s.mcpServer.AddTool(quoteExtractTextTool, s.handleQuoteExtractText)

	quoteServerInfoTool := mcp.NewTool(
		"quote_server_info",
		mcp.WithDescription(descriptions.QuoteServerInfoDescription),
	)
	s.mcpServer.AddTool(quoteServerInfoTool, s.handleQuoteServerInfo)
}

// ExtractFile runs the full pipeline over a PDF: candidate gathering,
// optional OCR fallback for scanned documents, and orchestrated extraction
// under the configured deadline.
func (s *Server) ExtractFile(ctx context.Context, path string) (*engine.ExtractionResult, error) {
	candidates, err := s.reader.ReadDocument(path)
	if err != nil {
		return nil, err
	}

	if s.config.OCREnabled && textLength(candidates) < ocrTextThreshold {
		candidates = append(candidates, s.ocrEngine.Candidates(ctx, path)...)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutSeconds)*time.Second)
	defer cancel()

	return s.orchestrator.Extract(ctx, candidates), nil
}

// ExtractText runs the pipeline over raw quote text.
func (s *Server) ExtractText(ctx context.Context, text string) *engine.ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutSeconds)*time.Second)
	defer cancel()

	return s.orchestrator.Extract(ctx, []engine.Candidate{{
		SourceLabel: "text:input",
		Text:        text,
	}})
}

// ExportXLSX writes a result to a workbook.
func (s *Server) ExportXLSX(result *engine.ExtractionResult, path string) error {
	return s.exporter.WriteXLSX(result, path)
}

func textLength(candidates []engine.Candidate) int {
	total := 0
	for _, c := range candidates {
		total += len(c.Text)
	}
	return total
}

// Handler functions

func (s *Server) handleQuoteExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.ExtractFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if xlsxPath := request.GetString("xlsx", ""); xlsxPath != "" {
		if err := s.ExportXLSX(result, xlsxPath); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extraction succeeded but XLSX export failed: %v", err)), nil
		}
	}

	return resultToolText(result)
}

func (s *Server) handleQuoteExtractText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return resultToolText(s.ExtractText(ctx, text))
}

func (s *Server) handleQuoteServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s\n\n", s.config.ServerName, s.config.Version)
	text += "Converts supplier quote PDFs into validated line items and quote groups.\n\n"
	text += "Available Tools:\n"
	text += "\n• quote_extract_file\n"
	text += "  Description: Extract quote groups from a supplier quote PDF\n"
	text += "  Parameters: path (required), xlsx (optional workbook output)\n"
	text += "\n• quote_extract_text\n"
	text += "  Description: Extract quote groups from raw quote text\n"
	text += "  Parameters: text (required)\n"
	text += "\n• quote_server_info\n"
	text += "  Description: This information\n"
	text += "\nResults are JSON with quoteGroups, validation (issues, confidence,\n"
	text += "needsManualReview) and a summary block. Results flagged for manual\n"
	text += "review should be checked against the source document before use.\n"

	return mcp.NewToolResultText(text), nil
}

func resultToolText(result *engine.ExtractionResult) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// Run starts the MCP server over stdio.
func (s *Server) Run(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting quote extractor MCP server in stdio mode")
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

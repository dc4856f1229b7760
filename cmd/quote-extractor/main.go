package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/vendra/quote-extractor/internal/config"
	"github.com/vendra/quote-extractor/internal/mcp"
)

var (
	version   = "dev"     // set by build flags
	buildTime = "unknown" // set by build flags
	gitCommit = "unknown" // set by build flags
)

// setupLogging configures logging based on the execution mode.
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, redirect log output to stderr to avoid
		// interfering with the MCP protocol.
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// runStdioMode serves MCP over stdio until the parent closes the stream.
func runStdioMode(ctx context.Context, server *mcp.Server) {
	if err := server.Run(ctx); err != nil {
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

// runCLIMode extracts a single file and prints the result as JSON.
func runCLIMode(ctx context.Context, cfg *config.Config, server *mcp.Server) {
	result, err := server.ExtractFile(ctx, cfg.File)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}

	if cfg.XLSXOutput != "" {
		if err := server.ExportXLSX(result, cfg.XLSXOutput); err != nil {
			log.Fatalf("XLSX export failed: %v", err)
		}
		log.Printf("Wrote workbook: %s", cfg.XLSXOutput)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(payload))

	if result.Validation.NeedsManualReview {
		log.Printf("Result flagged for manual review (confidence %.2f)", result.Validation.Confidence)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsCLIMode() {
		runCLIMode(ctx, cfg, server)
	} else {
		runStdioMode(ctx, server)
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("Quote Extractor\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeCLI   = "cli"

	// Default values
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultTimeoutSeconds = 60
)

// Config holds all configuration for the quote extractor.
type Config struct {
	// Execution mode: "stdio" runs the MCP server, "cli" runs the
	// pipeline once over a single file.
	Mode string

	// CLI mode inputs
	File       string // PDF to extract (cli mode only)
	XLSXOutput string // optional workbook path for the result

	// Pipeline configuration
	MaxFileSize    int64 // maximum PDF file size in bytes
	TimeoutSeconds int   // per-document processing deadline
	OCREnabled     bool  // rasterize and OCR pages when text extraction is thin

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeStdio, // default to stdio mode for MCP compatibility
		MaxFileSize:    DefaultMaxFileSize,
		TimeoutSeconds: DefaultTimeoutSeconds,
		OCREnabled:     true,
		Version:        "1.0.0",
		ServerName:     "quote-extractor",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.File != "" {
		if expandedPath, err := filepath.Abs(cfg.File); err == nil {
			cfg.File = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("QUOTE")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("file", cfg.File)
	viper.SetDefault("xlsx", cfg.XLSXOutput)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("timeout", cfg.TimeoutSeconds)
	viper.SetDefault("ocr", cfg.OCREnabled)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Execution mode: 'stdio' for the MCP server, 'cli' for one-shot extraction")
	pflag.String("file", cfg.File, "PDF file to extract (cli mode only)")
	pflag.String("xlsx", cfg.XLSXOutput, "Write the extraction result to an XLSX workbook at this path")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("timeout", cfg.TimeoutSeconds, "Per-document processing deadline in seconds")
	pflag.Bool("ocr", cfg.OCREnabled, "Enable OCR fallback for scanned documents")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("file", pflag.Lookup("file"))
	_ = viper.BindPFlag("xlsx", pflag.Lookup("xlsx"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("timeout", pflag.Lookup("timeout"))
	_ = viper.BindPFlag("ocr", pflag.Lookup("ocr"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nQuote Extractor - converts supplier quote PDFs into structured line items\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                      # stdio MCP server (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=cli --file=quote.pdf          # one-shot extraction, JSON to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=cli --file=quote.pdf --xlsx=quote.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_MODE         Execution mode\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_FILE         PDF file (cli mode)\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_XLSX         XLSX output path\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_TIMEOUT      Processing deadline in seconds\n")
		fmt.Fprintf(os.Stderr, "  QUOTE_OCR          OCR fallback toggle\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.File = viper.GetString("file")
	cfg.XLSXOutput = viper.GetString("xlsx")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.TimeoutSeconds = viper.GetInt("timeout")
	cfg.OCREnabled = viper.GetBool("ocr")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeCLI {
		return errors.New("mode must be either 'stdio' or 'cli'")
	}

	if c.Mode == ModeCLI && c.File == "" {
		return errors.New("cli mode requires --file")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.TimeoutSeconds <= 0 {
		return errors.New("timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, File: %s, XLSXOutput: %s, LogLevel: %s, MaxFileSize: %d, TimeoutSeconds: %d, OCREnabled: %t}",
		c.Mode, c.File, c.XLSXOutput, c.LogLevel, c.MaxFileSize, c.TimeoutSeconds, c.OCREnabled)
}

// IsCLIMode returns true if the extractor runs once and exits.
func (c *Config) IsCLIMode() bool {
	return c.Mode == ModeCLI
}

// IsStdioMode returns true if the extractor serves MCP over stdio.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

// Package ocr produces extraction candidates for scanned quote PDFs. Pages
// are rasterized with pdftoppm and recognized with Tesseract under multiple
// page segmentation modes, one candidate per mode, so the orchestrator can
// pick the reading that extracts best.
//
// Tesseract must be installed on the system. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr poppler-utils
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/vendra/quote-extractor/internal/engine"
)

// Config controls rasterization and recognition.
type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // render resolution; if zero -> 300
	MaxPages int    // cap on rasterized pages; if zero -> 20
	Language string // tesseract language; if empty -> "eng"
}

// DefaultConfig returns the production OCR configuration.
func DefaultConfig() Config {
	return Config{
		Pdftoppm: "pdftoppm",
		DPI:      300,
		MaxPages: 20,
		Language: "eng",
	}
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	return c
}

// segmentation modes tried per page, in candidate order. Block mode reads
// dense quote bodies well; column mode recovers wide table layouts.
var segModes = []struct {
	label string
	mode  gosseract.PageSegMode
}{
	{"ocr:psm6", gosseract.PSM_SINGLE_BLOCK},
	{"ocr:psm4", gosseract.PSM_SINGLE_COLUMN},
}

// recognizeFunc performs OCR of one image file under one segmentation mode.
// Swappable in tests, where no Tesseract install is available.
type recognizeFunc func(imagePath, language string, mode gosseract.PageSegMode) (string, error)

// Engine rasterizes PDFs and recognizes their pages.
type Engine struct {
	cfg       Config
	runner    Runner
	recognize recognizeFunc
}

// NewEngine creates an OCR engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg.withDefaults(),
		runner:    execRunner{},
		recognize: gosseractRecognize,
	}
}

// Candidates rasterizes the document and OCRs every page under each
// segmentation mode. All failures are soft: a missing pdftoppm, a failed
// render, or an OCR error yields fewer (possibly zero) candidates, never an
// error. Scanned-document recovery is best effort by design.
func (e *Engine) Candidates(ctx context.Context, path string) []engine.Candidate {
	images, cleanup, err := e.rasterize(ctx, path)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil || len(images) == 0 {
		return nil
	}

	var candidates []engine.Candidate
	for _, sm := range segModes {
		var pages []string
		for _, img := range images {
			if ctx.Err() != nil {
				return candidates
			}
			text, err := e.recognize(img, e.cfg.Language, sm.mode)
			if err != nil {
				continue
			}
			text = strings.TrimSpace(text)
			if text != "" {
				pages = append(pages, text)
			}
		}
		if len(pages) == 0 {
			continue
		}
		candidates = append(candidates, engine.Candidate{
			SourceLabel: sm.label,
			Text:        strings.Join(pages, "\n"),
		})
	}
	return candidates
}

// rasterize renders the PDF to per-page PNGs in a temp directory.
func (e *Engine) rasterize(ctx context.Context, path string) (images []string, cleanup func(), err error) {
	tmpDir, err := os.MkdirTemp("", "quote-ocr-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, _, err = e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, cleanup, err
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	return matches, cleanup, nil
}

// gosseractRecognize runs Tesseract over one page image.
func gosseractRecognize(imagePath, language string, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("failed to set segmentation mode: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

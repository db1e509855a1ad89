package extraction

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrNoText indicates that neither the document's text layer nor OCR
// produced any usable text.
var ErrNoText = errors.New("no text could be extracted from document")

// OCRConfig configures the tesseract fallback pass.
type OCRConfig struct {
	TesseractBin string // binary name or absolute path; if empty -> "tesseract"
	Language     string // default "por"
	PSM          int    // page segmentation mode; default 11 (sparse text)
	DPI          int    // rasterization DPI; default 300
}

// Acquirer turns raw document bytes into plain text. It reads the PDF text
// layer first and falls back to a tesseract OCR pass over rasterized pages
// when the text layer is empty.
type Acquirer struct {
	cfg    OCRConfig
	runner Runner

	// injectable for tests
	textLayer func(data []byte) (string, error)
	rasterize func(data []byte, dir string, dpi int) ([]string, error)
}

// NewAcquirer creates an Acquirer with defaults filled in.
func NewAcquirer(cfg OCRConfig) *Acquirer {
	if cfg.TesseractBin == "" {
		cfg.TesseractBin = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "por"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 11
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Acquirer{
		cfg:       cfg,
		runner:    execRunner{},
		textLayer: pdfTextLayer,
		rasterize: rasterizePDF,
	}
}

// ExtractText returns the plain-text content of the document. OCR runs at
// most once, and only when the text layer is empty or whitespace.
func (a *Acquirer) ExtractText(ctx context.Context, data []byte) (string, error) {
	text, err := a.textLayer(data)
	if err != nil {
		log.Printf("text layer read failed, falling back to OCR: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	text, err = a.ocr(ctx, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// ocr writes page images to a scoped temp directory and runs tesseract over
// each one. The directory is removed on every exit path.
func (a *Acquirer) ocr(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Printf("warning: failed to remove temp dir %q: %v", tmpDir, err)
		}
	}()

	pages, err := a.rasterize(data, tmpDir, a.cfg.DPI)
	if err != nil {
		return "", fmt.Errorf("failed to rasterize document: %w", err)
	}

	var b strings.Builder
	for _, img := range pages {
		out, errb, err := a.runner.Run(ctx, a.cfg.TesseractBin,
			img, "stdout", "-l", a.cfg.Language, "--psm", strconv.Itoa(a.cfg.PSM))
		if err != nil {
			return "", fmt.Errorf("tesseract failed on %s: %v: %s", filepath.Base(img), err, truncate(string(errb), 1<<10))
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.Write(out)
	}
	return b.String(), nil
}

// pdfTextLayer reads the native text layer of all pages.
func pdfTextLayer(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("reading text of page %d: %w", i+1, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// rasterizePDF renders each page to a PNG file under dir and returns the
// file paths in page order.
func rasterizePDF(data []byte, dir string, dpi int) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	paths := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating page image: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return nil, fmt.Errorf("encoding page image: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

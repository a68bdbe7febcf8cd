package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// PDF Generator: HTML → PDF via wkhtmltopdf / chromium headless
// ════════════════════════════════════════════════════════════════════

// PDFEngine specifies which engine to use for HTML→PDF conversion.
type PDFEngine string

const (
	EngineAuto     PDFEngine = "" // detect at conversion time
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none" // skip PDF, write HTML
)

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// PDFConfig holds configuration for PDF generation.
type PDFConfig struct {
	Engine       PDFEngine // default: auto-detect
	PageSize     string    // default: "Letter"
	Orientation  string    // "landscape" (default) or "portrait"
	MarginTop    string    // default: "12mm"
	MarginBottom string    // default: "12mm"
	MarginLeft   string    // default: "10mm"
	MarginRight  string    // default: "10mm"
	OutputPath   string    // required: output PDF file path
}

// DefaultPDFConfig returns defaults suited to the wide results table.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		Engine:       EngineAuto,
		PageSize:     "Letter",
		Orientation:  "landscape",
		MarginTop:    "12mm",
		MarginBottom: "12mm",
		MarginLeft:   "10mm",
		MarginRight:  "10mm",
	}
}

// DetectPDFEngine reports the first converter found on PATH.
func DetectPDFEngine() PDFEngine {
	engine, _ := findEngine()
	return engine
}

// IsPDFSupported returns true if a PDF engine is available.
func IsPDFSupported() bool {
	return DetectPDFEngine() != EngineNone
}

func findEngine() (PDFEngine, string) {
	if path, err := exec.LookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML, path
	}
	if path := chromiumPath(); path != "" {
		return EngineChromium, path
	}
	return EngineNone, ""
}

func chromiumPath() string {
	for _, name := range chromiumBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// GeneratePDF converts a rendered HTML report to a PDF at cfg.OutputPath and
// returns the path written. With no converter installed the HTML itself is
// saved next to the requested path with an .html extension. The converter is
// killed if ctx is cancelled.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", errors.New("output path is required")
	}

	engine, bin := cfg.Engine, ""
	switch engine {
	case EngineAuto:
		engine, bin = findEngine()
	case EngineWKHTML:
		bin = "wkhtmltopdf"
	case EngineChromium:
		if bin = chromiumPath(); bin == "" {
			return "", errors.New("chromium not found in PATH")
		}
	case EngineNone:
	default:
		return "", fmt.Errorf("unsupported PDF engine: %s", engine)
	}
	if engine == EngineNone {
		return writeHTMLFallback(html, cfg.OutputPath)
	}

	src, err := writeTempHTML(html)
	if err != nil {
		return "", err
	}
	defer os.Remove(src)

	out, err := filepath.Abs(cfg.OutputPath)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	var args []string
	if engine == EngineWKHTML {
		args = wkhtmlArgs(cfg, src, out)
	} else {
		args = chromiumArgs(cfg, src, out)
	}
	if output, err := exec.CommandContext(ctx, bin, args...).CombinedOutput(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", engine, err, strings.TrimSpace(string(output)))
	}
	return cfg.OutputPath, nil
}

func wkhtmlArgs(cfg PDFConfig, src, out string) []string {
	return []string{
		"--page-size", withDefault(cfg.PageSize, "Letter"),
		"--orientation", withDefault(cfg.Orientation, "landscape"),
		"--margin-top", withDefault(cfg.MarginTop, "12mm"),
		"--margin-bottom", withDefault(cfg.MarginBottom, "12mm"),
		"--margin-left", withDefault(cfg.MarginLeft, "10mm"),
		"--margin-right", withDefault(cfg.MarginRight, "10mm"),
		"--encoding", "UTF-8",
		"--enable-local-file-access",
		"--quiet",
		src, out,
	}
}

// chromiumArgs has no margin or page-size flags; Chromium takes those from
// the report's @page rule.
func chromiumArgs(cfg PDFConfig, src, out string) []string {
	args := []string{
		"--headless",
		"--disable-gpu",
		"--no-sandbox",
		"--print-to-pdf=" + out,
		"--print-to-pdf-no-header",
	}
	if !strings.EqualFold(cfg.Orientation, "portrait") {
		args = append(args, "--landscape")
	}
	return append(args, "file://"+src)
}

func writeTempHTML(html string) (string, error) {
	f, err := os.CreateTemp("", "investscout_report_*.html")
	if err != nil {
		return "", fmt.Errorf("create temp HTML: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(html); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp HTML: %w", err)
	}
	return f.Name(), nil
}

func writeHTMLFallback(html, outputPath string) (string, error) {
	if ext := filepath.Ext(outputPath); strings.EqualFold(ext, ".pdf") {
		outputPath = strings.TrimSuffix(outputPath, ext) + ".html"
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write HTML report: %w", err)
	}
	return outputPath, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

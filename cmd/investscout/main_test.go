package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/seenimoa/investscout/internal/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.LoadFromFile(writeTempConfig(t, "screening:\n  style: blend\n"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	return c
}

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/config.yaml"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyScreenFlags(t *testing.T) {
	c := defaultConfig(t)
	cmd := newScreenCmd()
	err := cmd.ParseFlags([]string{
		"--style", "dividend",
		"--top", "5",
		"--sector", "Energy", "--sector", "Utilities",
		"--min-upside", "0",
		"--buy-only",
		"--source", "auto",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := applyScreenFlags(cmd, c); err != nil {
		t.Fatalf("applyScreenFlags: %v", err)
	}

	if c.Screening.Style != "dividend" || c.Screening.TopN != 5 {
		t.Errorf("style/top: got %q/%d", c.Screening.Style, c.Screening.TopN)
	}
	if len(c.Screening.Sectors) != 2 || c.Screening.Sectors[1] != "Utilities" {
		t.Errorf("sectors: got %v", c.Screening.Sectors)
	}
	if c.Screening.MinUpside != 0 {
		t.Errorf("min upside: got %v, want explicit 0", c.Screening.MinUpside)
	}
	if !c.Screening.BuyRatingsOnly || c.Fetch.Source != "auto" {
		t.Errorf("buy-only/source: got %v/%q", c.Screening.BuyRatingsOnly, c.Fetch.Source)
	}
	if c.Screening.MinAnalysts != 5 || c.Screening.Risk != "mid" {
		t.Errorf("unset flags should keep defaults, got %+v", c.Screening)
	}
}

func TestApplyScreenFlagsRejectsInvalid(t *testing.T) {
	c := defaultConfig(t)
	cmd := newScreenCmd()
	if err := cmd.ParseFlags([]string{"--style", "momentum"}); err != nil {
		t.Fatal(err)
	}
	if err := applyScreenFlags(cmd, c); err == nil {
		t.Error("unknown style should fail validation")
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	for i := 1; i <= 25; i++ {
		p(i, 25)
	}
	got := buf.String()
	if strings.Count(got, "\r") != 3 {
		t.Errorf("expected updates at 10, 20 and 25, got %q", got)
	}
	if !strings.HasSuffix(got, "25/25") {
		t.Errorf("last update: got %q", got)
	}
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.csv")
	err := writeOutputFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "ticker,score\n")
		return err
	})
	if err != nil {
		t.Fatalf("writeOutputFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ticker,score\n" {
		t.Errorf("contents: got %q", data)
	}

	if err := writeOutputFile(filepath.Join(t.TempDir(), "missing", "x.csv"), func(io.Writer) error { return nil }); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestWriteOutputFileReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	orig := createOutput
	t.Cleanup(func() { createOutput = orig })
	createOutput = func(string) (io.WriteCloser, error) {
		return &failingCloser{closeErr: diskFull}, nil
	}

	err := writeOutputFile("out.csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "data")
		return err
	})
	if !errors.Is(err, diskFull) {
		t.Errorf("close error: got %v, want %v", err, diskFull)
	}

	// A render error takes precedence over the close error.
	renderErr := errors.New("render failed")
	err = writeOutputFile("out.csv", func(io.Writer) error { return renderErr })
	if !errors.Is(err, renderErr) {
		t.Errorf("render error: got %v, want %v", err, renderErr)
	}
}

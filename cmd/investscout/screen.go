package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/investscout/internal/config"
	"github.com/seenimoa/investscout/internal/datasource"
	"github.com/seenimoa/investscout/internal/report"
	"github.com/seenimoa/investscout/internal/screener"
	"github.com/seenimoa/investscout/internal/universe"
	"github.com/seenimoa/investscout/pkg/utils"
)

// --- Screen Command ---

var screenCmd = newScreenCmd()

func newScreenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screen [tickers...]",
		Short: "Fetch live metrics, filter and rank stocks",
		Long: `Screen a market (or an explicit ticker list) and print the top-ranked
candidates. Flags override the configured default screen.

Examples:
  investscout screen
  investscout screen --market ca --style dividend --top 10
  investscout screen --sector Technology --sector Healthcare --buy-only
  investscout screen AAPL MSFT SHOP.TO --min-upside 0 --format csv
  investscout screen --format html -o screen.html
  investscout screen --pdf screen.pdf`,
		RunE: runScreen,
	}

	f := cmd.Flags()
	f.String("market", "", "market: us, ca or both")
	f.String("style", "", "investing style: growth, value, dividend or blend")
	f.Int("top", 0, "number of ranked candidates to show")
	f.String("risk", "", "risk tolerance: large, mid or small (sets the minimum market cap)")
	f.StringSlice("sector", nil, "restrict to sector (repeatable)")
	f.Int("min-analysts", 0, "minimum analyst coverage")
	f.Float64("min-upside", 0, "minimum upside to target, percent (0 disables)")
	f.Float64("max-market-cap", 0, "maximum market cap (0 disables)")
	f.Bool("buy-only", false, "keep only buy and strong buy ratings")

	f.String("source", "", "data source: yahoo, financego or auto")
	f.Int("workers", 0, "concurrent fetches")

	f.String("format", "table", "output format: table, csv, json or html")
	f.StringP("output", "o", "", "write the report to a file instead of stdout")
	f.String("pdf", "", "also render the HTML report to this PDF path")
	f.Int("details", 0, "print a factor breakdown for the top N candidates (table format)")
	f.Bool("quiet", false, "suppress the progress line")
	return cmd
}

// applyScreenFlags copies explicitly set flags over the configured defaults
// and re-validates the result.
func applyScreenFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("market") {
		c.Screening.Market, _ = f.GetString("market")
	}
	if f.Changed("style") {
		c.Screening.Style, _ = f.GetString("style")
	}
	if f.Changed("top") {
		c.Screening.TopN, _ = f.GetInt("top")
	}
	if f.Changed("risk") {
		c.Screening.Risk, _ = f.GetString("risk")
	}
	if f.Changed("sector") {
		c.Screening.Sectors, _ = f.GetStringSlice("sector")
	}
	if f.Changed("min-analysts") {
		c.Screening.MinAnalysts, _ = f.GetInt("min-analysts")
	}
	if f.Changed("min-upside") {
		c.Screening.MinUpside, _ = f.GetFloat64("min-upside")
	}
	if f.Changed("max-market-cap") {
		c.Screening.MaxMarketCap, _ = f.GetFloat64("max-market-cap")
	}
	if f.Changed("buy-only") {
		c.Screening.BuyRatingsOnly, _ = f.GetBool("buy-only")
	}
	if f.Changed("source") {
		c.Fetch.Source, _ = f.GetString("source")
	}
	if f.Changed("workers") {
		c.Fetch.Workers, _ = f.GetInt("workers")
	}
	return c.Validate()
}

func runScreen(cmd *cobra.Command, args []string) error {
	if err := applyScreenFlags(cmd, cfg); err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	u, err := universe.Load()
	if err != nil {
		return err
	}
	tickers := make([]string, 0, len(args))
	for _, a := range args {
		tickers = append(tickers, utils.NormalizeTicker(a))
	}
	if len(tickers) == 0 {
		tickers = u.Tickers(universe.ParseMarket(cfg.Screening.Market))
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	opts := []datasource.FetcherOption{datasource.WithSectorLookup(u.SectorOf)}
	if !quiet {
		opts = append(opts, datasource.WithProgress(progressPrinter(cmd.ErrOrStderr())))
	}
	fetcher, err := datasource.NewFetcherFromConfig(cfg.Fetch, log, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, err := screener.New(fetcher, log).Run(ctx, tickers, cfg.Screening.Request())
	if !quiet {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if errors.Is(err, screener.ErrNoData) {
		return fmt.Errorf("no stock data could be fetched from %s; check your connection or try --source auto", fetcher.Source().Name())
	}
	if err != nil {
		return err
	}
	log.Debug().Str("elapsed", report.FormatDuration(time.Since(start))).Msg("Screen finished")

	rcfg := report.DefaultReportConfig()
	rcfg.Format = format
	rcfg.Details, _ = cmd.Flags().GetInt("details")
	render := func(w io.Writer) error { return report.Write(w, res, rcfg) }

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := writeOutputFile(path, render); err != nil {
			return err
		}
	} else if err := render(cmd.OutOrStdout()); err != nil {
		return err
	}

	if pdfPath, _ := cmd.Flags().GetString("pdf"); pdfPath != "" {
		html, err := report.GenerateHTML(res, rcfg)
		if err != nil {
			return err
		}
		pcfg := report.DefaultPDFConfig()
		pcfg.OutputPath = pdfPath
		written, err := report.GeneratePDF(ctx, html, pcfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", written)
	}
	return nil
}

// createOutput opens the -o destination.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutputFile renders into path. A failed close is returned unless
// rendering already failed.
func writeOutputFile(path string, render func(io.Writer) error) (err error) {
	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", path, cerr)
		}
	}()
	return render(f)
}

// progressPrinter returns a Fetcher progress callback that rewrites a single
// status line. It is safe for concurrent use.
func progressPrinter(w io.Writer) func(done, total int) {
	var mu sync.Mutex
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done%10 == 0 || done == total {
			fmt.Fprintf(w, "\rFetching metrics… %d/%d", done, total)
		}
	}
}

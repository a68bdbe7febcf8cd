// InvestScout is a stock screener for US and Canadian equities.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/investscout/api"
	"github.com/seenimoa/investscout/internal/config"
	"github.com/seenimoa/investscout/internal/logger"
	"github.com/seenimoa/investscout/internal/universe"
	"github.com/seenimoa/investscout/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root PersistentPreRunE.
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "investscout",
	Short: "InvestScout — screen and rank US and Canadian stocks",
	Long: `InvestScout screens the S&P 500 and TSX universes against analyst
coverage, upside to target, market cap and sector filters, then ranks the
survivors with a style-weighted score (growth, value, dividend or blend).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		logger.SetGlobalLogger(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(universeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("InvestScout %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Universe Command ---

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "List the tickers a screen draws from",
	RunE: func(cmd *cobra.Command, args []string) error {
		market, _ := cmd.Flags().GetString("market")
		u, err := universe.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, idx := range u.Indexes(universe.ParseMarket(market)) {
			fmt.Fprintf(out, "%s (%d tickers)\n", idx.Name, len(idx.Constituents))
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, c := range idx.Constituents {
				fmt.Fprintf(tw, "  %s\t%s\n", c.Ticker, c.Sector)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	universeCmd.Flags().String("market", "both", "market: us, ca or both")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		srv, err := api.NewServer(cfg, api.WithLogger(log), api.WithVersion(version))
		if err != nil {
			return err
		}
		addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
		fmt.Fprintf(cmd.ErrOrStderr(), "Starting InvestScout API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show market status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := utils.NowEastern()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  InvestScout — System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  NYSE:          %s\n", utils.MarketStatus(utils.NYSE, now))
		fmt.Fprintf(out, "  TSX:           %s\n", utils.MarketStatus(utils.TSX, now))
		fmt.Fprintf(out, "  Time (ET):     %s\n", now.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		file := cfg.File
		if file == "" {
			file = "(defaults)"
		}
		fmt.Fprintf(out, "    Config File:   %s\n", file)
		fmt.Fprintf(out, "    Default Screen: %s, %s style, top %d, %s risk\n",
			cfg.Screening.Market, cfg.Screening.Style, cfg.Screening.TopN, cfg.Screening.Risk)
		fmt.Fprintf(out, "    Data Source:   %s (%d workers, %.1f req/s)\n",
			cfg.Fetch.Source, cfg.Fetch.Workers, cfg.Fetch.RequestsPerSecond)
		fmt.Fprintf(out, "    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)

		if u, err := universe.Load(); err == nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  Universe:")
			for _, idx := range u.Indexes(universe.MarketBoth) {
				fmt.Fprintf(out, "    %-14s %d tickers\n", idx.Name+":", len(idx.Constituents))
			}
		}
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

// fetch resolves prices once from the command line and prints them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wealthprice/internal/aggregate"
	"wealthprice/internal/app"
	"wealthprice/internal/config"
	"wealthprice/internal/logging"
	"wealthprice/internal/provider"
	"wealthprice/internal/resolver"
)

type options struct {
	class       string
	format      string
	configPath  string
	equityKey   string
	brokerToken string
	timeout     int
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "fetch [symbols...]",
		Short: "Resolve current prices for one or more symbols",
		Long: `fetch resolves each symbol through the live price sources for its asset
class, falling back to an estimate when none answers. Symbols may also be
given as a comma-separated SYMBOLS environment variable.`,
		Example:      "  fetch AAPL MSFT\n  fetch --class crypto BTC ETH --format json\n  fetch --class broker IIPR_US_EQ",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.class, "class", "c", "equity", "Asset class: equity, crypto or broker")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "Path to config.json or config.yaml (optional)")
	cmd.Flags().StringVar(&opts.equityKey, "equity-key", "", "Equity vendor API key (defaults to FINNHUB_API_KEY)")
	cmd.Flags().StringVar(&opts.brokerToken, "broker-token", "", "Broker API token (defaults to TRADING212_API_KEY)")
	cmd.Flags().IntVar(&opts.timeout, "timeout", 0, "Request timeout in seconds (defaults to config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log provider activity to stderr")
	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	symbols := args
	if len(symbols) == 0 {
		symbols = config.SplitCSV(os.Getenv("SYMBOLS"))
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given")
	}
	class, ok := provider.ParseAssetClass(opts.class)
	if !ok {
		return fmt.Errorf("unknown asset class %q", opts.class)
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.timeout > 0 {
		cfg.Server.RequestTimeoutSec = opts.timeout
	}

	level := slog.LevelError
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewLoggerTo(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	a := app.New(cfg, logger, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.RequestTimeoutSec)*time.Second+5*time.Second)
	defer cancel()

	reqs := make([]resolver.Request, len(symbols))
	for i, s := range symbols {
		reqs[i] = resolver.Request{Symbol: s, Class: class}
	}
	creds := a.Credentials(provider.Credentials{EquityAPIKey: opts.equityKey, BrokerToken: opts.brokerToken})
	quotes := aggregate.Latest(a.Resolver.ResolveAll(ctx, reqs, creds))

	if opts.format == "json" {
		return writeJSON(cmd.OutOrStdout(), quotes)
	}
	return writeText(cmd.OutOrStdout(), quotes)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/RajaBabu15/market-data-aggregator-sql/config"
	"github.com/RajaBabu15/market-data-aggregator-sql/internal/pipeline"
	"github.com/RajaBabu15/market-data-aggregator-sql/logger"
)

func main() {
	var opts pipeline.VisualizeOptions
	pflag.IntVarP(&opts.Days, "days", "d", 180, "trailing days to plot when no start date is given")
	pflag.IntVarP(&opts.Window, "window", "w", 0, "SMA window in days (0 uses the configured default)")
	pflag.StringVarP(&opts.Start, "start", "s", "", "start date, YYYY-MM-DD, overrides --days")
	pflag.StringVarP(&opts.End, "end", "e", "", "end date, YYYY-MM-DD, defaults to today")
	pflag.Usage = usage
	pflag.Parse()

	if pflag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	opts.Ticker = pflag.Arg(0)

	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if err := pipeline.Visualize(cfg, log, opts); err != nil {
		log.Fatal("visualize failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] TICKER\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Renders a candlestick chart with an SMA overlay from stored data.")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	pflag.PrintDefaults()
}

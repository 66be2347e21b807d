package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajaBabu15/market-data-aggregator-sql/config"
	"github.com/RajaBabu15/market-data-aggregator-sql/internal/cleaner"
	"github.com/RajaBabu15/market-data-aggregator-sql/internal/indicator"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/chart"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
)

// VisualizeOptions is the command-line selection for one chart.
type VisualizeOptions struct {
	Ticker string
	Days   int    // trailing window when Start is empty
	Window int    // SMA window, 0 means the configured default
	Start  string // ISO date, overrides Days
	End    string // ISO date, empty means today
}

// Visualize loads a stored date range for one ticker, computes the moving
// average overlay and writes a candlestick chart PNG into the configured
// output directory. Unlike ingest, any failing stage aborts the run.
func Visualize(cfg *config.Config, logger *zap.Logger, opts VisualizeOptions) error {
	logger = logger.With(zap.String("run_id", uuid.New().String()))

	postgresClient, err := postgres.InitializeAndMigrateOHLCV(cfg.Postgres, false)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer postgresClient.Close()

	return visualize(cfg, logger, postgresClient, opts)
}

// visualize is the dependency-injected core of Visualize.
func visualize(cfg *config.Config, logger *zap.Logger, store Store, opts VisualizeOptions) error {
	ticker := cleaner.Normalize(opts.Ticker)
	if ticker == "" {
		return errors.New("ticker is required")
	}

	window := opts.Window
	if window <= 0 {
		window = cfg.SMA.Window
	}

	start, end, err := resolveRange(opts, time.Now().UTC())
	if err != nil {
		return err
	}

	logger.Info("rendering chart",
		zap.String("ticker", ticker),
		zap.String("start", start.Format(dateLayout)),
		zap.String("end", end.Format(dateLayout)),
		zap.Int("window", window),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := store.FetchRange(ctx, ticker, start, end)
	if err != nil {
		return fmt.Errorf("fetch range: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s between %s and %s",
			ErrEmptyRange, ticker, start.Format(dateLayout), end.Format(dateLayout))
	}

	overlay, err := indicator.SMA(indicator.Closes(records), window)
	if err != nil {
		return fmt.Errorf("compute sma: %w", err)
	}

	overlayName := fmt.Sprintf("SMA_%d", window)
	outPath := filepath.Join(cfg.Plot.OutputDir, fmt.Sprintf("%s_%s_%s_to_%s.png",
		ticker, overlayName, start.Format(dateLayout), end.Format(dateLayout)))
	title := fmt.Sprintf("%s OHLCV with %s", ticker, overlayName)

	if err := chart.Render(records, overlayName, overlay, title, outPath); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	logger.Info("chart written",
		zap.String("ticker", ticker),
		zap.String("path", outPath),
		zap.Int("rows", len(records)),
	)
	logSummary(logger, ticker, overlayName, records, overlay)
	return nil
}

// resolveRange turns the flag selection into an inclusive [start, end] pair.
// Explicit ISO dates win over the trailing-days form.
func resolveRange(opts VisualizeOptions, today time.Time) (time.Time, time.Time, error) {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if opts.End != "" {
		var err error
		end, err = time.ParseInLocation(dateLayout, opts.End, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", opts.End, err)
		}
	}

	if opts.Start != "" {
		start, err := time.ParseInLocation(dateLayout, opts.Start, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", opts.Start, err)
		}
		if start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("start %s is after end %s",
				start.Format(dateLayout), end.Format(dateLayout))
		}
		return start, end, nil
	}

	if opts.Days <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("either a start date or a positive day count is required")
	}
	return end.AddDate(0, 0, -opts.Days), end, nil
}

// logSummary reports the newest row of the plotted range.
func logSummary(logger *zap.Logger, ticker, overlayName string, records []postgres.OHLCVRecord, overlay []decimal.NullDecimal) {
	last := records[len(records)-1]
	fields := []zap.Field{
		zap.String("ticker", ticker),
		zap.String("date", last.Date.Format(dateLayout)),
	}
	if last.Close.Valid {
		fields = append(fields, zap.String("close", last.Close.Decimal.StringFixed(2)))
	}
	if last.Volume.Valid {
		fields = append(fields, zap.String("volume", last.Volume.Decimal.StringFixed(0)))
	}
	if sma := overlay[len(overlay)-1]; sma.Valid {
		fields = append(fields, zap.String(overlayName, sma.Decimal.StringFixed(2)))
	}
	logger.Info("latest stored values", fields...)
}

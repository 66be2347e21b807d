package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RajaBabu15/market-data-aggregator-sql/config"
	"github.com/RajaBabu15/market-data-aggregator-sql/internal/cleaner"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/yahoo"
)

const dateLayout = "2006-01-02"

// Per-ticker budget covering the fetch with its retries plus the upsert.
const tickerTimeout = 2 * time.Minute

// BarSource fetches raw daily bars for one symbol. *yahoo.Client satisfies
// it.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error)
}

// Store is the slice of the storage client the pipelines use.
type Store interface {
	UpsertOHLCV(ctx context.Context, records []postgres.OHLCVRecord) (int64, error)
	FetchRange(ctx context.Context, ticker string, start, end time.Time) ([]postgres.OHLCVRecord, error)
	LatestDate(ctx context.Context, ticker string) (time.Time, bool, error)
}

// FetchStore runs the batch ingest: for every configured ticker, fetch the
// recent daily bars, clean them and upsert them. One ticker failing is
// logged and does not stop the others; the returned error is non-nil when
// at least one ticker failed.
func FetchStore(cfg *config.Config, logger *zap.Logger) error {
	logger = logger.With(zap.String("run_id", uuid.New().String()))

	// Initialize PostgreSQL client, creating the database and table on
	// first run
	postgresClient, err := postgres.InitializeAndMigrateOHLCV(cfg.Postgres, true)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer postgresClient.Close()

	source := yahoo.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, cfg.Provider.UserAgent)

	return fetchStore(cfg, logger, source, postgresClient)
}

// fetchStore is the dependency-injected core of FetchStore.
func fetchStore(cfg *config.Config, logger *zap.Logger, source BarSource, store Store) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -cfg.Fetch.LookbackDays)

	logger.Info("starting fetch and store run",
		zap.Strings("tickers", cfg.Fetch.Tickers),
		zap.String("start", start.Format(dateLayout)),
		zap.String("end", end.Format(dateLayout)),
	)

	runStart := time.Now()
	failed := 0
	for i, ticker := range cfg.Fetch.Tickers {
		// Stay polite to the provider between symbols
		if i > 0 && cfg.Fetch.Pause > 0 {
			time.Sleep(cfg.Fetch.Pause)
		}

		tickerStart := time.Now()
		if err := processTicker(logger, source, store, ticker, start, end); err != nil {
			logger.Warn("finished with errors for ticker",
				zap.String("ticker", ticker),
				zap.Duration("took", time.Since(tickerStart)),
				zap.Error(err),
			)
			failed++
			continue
		}
		logger.Info("completed successfully for ticker",
			zap.String("ticker", ticker),
			zap.Duration("took", time.Since(tickerStart)),
		)
	}

	logger.Info("fetch and store run finished",
		zap.Int("tickers", len(cfg.Fetch.Tickers)),
		zap.Int("succeeded", len(cfg.Fetch.Tickers)-failed),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(runStart)),
	)

	if failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, len(cfg.Fetch.Tickers))
	}
	return nil
}

// processTicker moves one symbol through fetch, clean and upsert.
func processTicker(logger *zap.Logger, source BarSource, store Store, ticker string, start, end time.Time) error {
	ticker = cleaner.Normalize(ticker)

	ctx, cancel := context.WithTimeout(context.Background(), tickerTimeout)
	defer cancel()

	// Widen the window back to the day after the newest stored row, so a
	// pause in collection doesn't leave a gap.
	if latest, ok, err := store.LatestDate(ctx, ticker); err != nil {
		return fmt.Errorf("latest date: %w", err)
	} else if ok {
		if next := latest.AddDate(0, 0, 1); next.Before(start) {
			logger.Info("extending fetch window to cover a gap",
				zap.String("ticker", ticker),
				zap.String("from", next.Format(dateLayout)),
			)
			start = next
		}
	}

	bars, err := source.DailyBars(ctx, ticker, start, end)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("provider returned no bars between %s and %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	records := cleaner.Clean(logger, ticker, bars)
	if len(records) == 0 {
		return fmt.Errorf("no usable rows left from %d fetched bars", len(bars))
	}

	affected, err := store.UpsertOHLCV(ctx, records)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}

	logger.Info("rows upserted",
		zap.String("ticker", ticker),
		zap.Int("fetched", len(bars)),
		zap.Int("cleaned", len(records)),
		zap.Int64("affected", affected),
	)
	return nil
}

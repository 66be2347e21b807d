package pipeline

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/RajaBabu15/market-data-aggregator-sql/config"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/yahoo"
)

func testCfg(tickers ...string) *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{Timeout: 5 * time.Second},
		Fetch:    config.FetchConfig{Tickers: tickers, LookbackDays: 10},
		SMA:      config.SMAConfig{Window: 20},
		Plot:     config.PlotConfig{OutputDir: "out"},
	}
}

func fullBar(date time.Time, px float64) yahoo.Bar {
	vol := px * 1000
	return yahoo.Bar{Date: date, Open: &px, High: &px, Low: &px, Close: &px, Volume: &vol}
}

// go test -v --run TestFetchStoreHappyPath
func TestFetchStoreHappyPath(t *testing.T) {
	source := newFakeSource()
	store := newMemStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, ticker := range []string{"AAPL", "MSFT"} {
		source.bars[ticker] = []yahoo.Bar{
			fullBar(today.AddDate(0, 0, -2), 100),
			fullBar(today.AddDate(0, 0, -1), 101),
		}
	}

	err := fetchStore(testCfg("AAPL", "MSFT"), zap.NewNop(), source, store)
	if err != nil {
		t.Fatalf("expected a clean run, got %v", err)
	}

	if got := store.count("AAPL"); got != 2 {
		t.Errorf("expected 2 stored AAPL rows, got %d", got)
	}
	if got := store.count("MSFT"); got != 2 {
		t.Errorf("expected 2 stored MSFT rows, got %d", got)
	}
}

// go test -v --run TestFetchStoreIsolatesFailures
func TestFetchStoreIsolatesFailures(t *testing.T) {
	source := newFakeSource()
	store := newMemStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	source.bars["AAPL"] = []yahoo.Bar{fullBar(today.AddDate(0, 0, -1), 100)}
	source.errs["BADTICK"] = errBoom
	source.bars["MSFT"] = []yahoo.Bar{fullBar(today.AddDate(0, 0, -1), 200)}

	err := fetchStore(testCfg("AAPL", "BADTICK", "MSFT"), zap.NewNop(), source, store)
	if err == nil {
		t.Fatal("a failed ticker must surface as a run error")
	}

	// The failure must not have stopped the tickers after it
	if source.calls != 3 {
		t.Errorf("expected all 3 tickers attempted, got %d", source.calls)
	}
	if got := store.count("AAPL"); got != 1 {
		t.Errorf("AAPL rows missing: %d", got)
	}
	if got := store.count("MSFT"); got != 1 {
		t.Errorf("MSFT rows missing: %d", got)
	}
	if got := store.count("BADTICK"); got != 0 {
		t.Errorf("failed ticker should store nothing, got %d rows", got)
	}
}

// go test -v --run TestFetchStoreEmptyProviderResultFails
func TestFetchStoreEmptyProviderResultFails(t *testing.T) {
	source := newFakeSource()
	source.bars["AAPL"] = []yahoo.Bar{}

	err := fetchStore(testCfg("AAPL"), zap.NewNop(), source, newMemStore())
	if err == nil {
		t.Fatal("a ticker with no provider rows must count as failed")
	}
}

// go test -v --run TestFetchStoreStoreErrorFails
func TestFetchStoreStoreErrorFails(t *testing.T) {
	source := newFakeSource()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	source.bars["AAPL"] = []yahoo.Bar{fullBar(today, 100)}
	store := newMemStore()
	store.failAll = &postgres.DataRejectedError{Ticker: "AAPL", Count: 1, Err: errBoom}

	err := fetchStore(testCfg("AAPL"), zap.NewNop(), source, store)
	if err == nil {
		t.Fatal("a rejected batch must surface as a run error")
	}
}

// go test -v --run TestFetchStoreNormalizesTickers
func TestFetchStoreNormalizesTickers(t *testing.T) {
	source := newFakeSource()
	store := newMemStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	source.bars["AAPL"] = []yahoo.Bar{fullBar(today.AddDate(0, 0, -1), 100)}

	if err := fetchStore(testCfg(" aapl "), zap.NewNop(), source, store); err != nil {
		t.Fatalf("expected a clean run, got %v", err)
	}
	if _, ok := source.asked["AAPL"]; !ok {
		t.Errorf("provider should be asked for the normalized symbol, asked %v", source.asked)
	}
	if got := store.count("AAPL"); got != 1 {
		t.Errorf("expected 1 stored row under AAPL, got %d", got)
	}
}

// go test -v --run TestFetchStoreWidensWindowAfterGap
func TestFetchStoreWidensWindowAfterGap(t *testing.T) {
	source := newFakeSource()
	store := newMemStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	// Newest stored row is well before the default lookback window
	stale := today.AddDate(0, 0, -40)
	store.rows[key("AAPL", stale)] = postgres.OHLCVRecord{Ticker: "AAPL", Date: stale}

	source.bars["AAPL"] = []yahoo.Bar{fullBar(today.AddDate(0, 0, -1), 100)}

	if err := fetchStore(testCfg("AAPL"), zap.NewNop(), source, store); err != nil {
		t.Fatalf("expected a clean run, got %v", err)
	}

	asked := source.asked["AAPL"]
	wantStart := stale.AddDate(0, 0, 1)
	if !asked[0].Equal(wantStart) {
		t.Errorf("fetch window should start after the newest stored row: got %s, want %s",
			asked[0].Format(dateLayout), wantStart.Format(dateLayout))
	}
}

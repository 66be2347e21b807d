package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/yahoo"
)

// fakeSource serves canned bars per symbol and records the windows it was
// asked for.
type fakeSource struct {
	mu    sync.Mutex
	bars  map[string][]yahoo.Bar
	errs  map[string]error
	asked map[string][2]time.Time
	calls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		bars:  make(map[string][]yahoo.Bar),
		errs:  make(map[string]error),
		asked: make(map[string][2]time.Time),
	}
}

func (f *fakeSource) DailyBars(_ context.Context, symbol string, start, end time.Time) ([]yahoo.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.asked[symbol] = [2]time.Time{start, end}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

// memStore keeps records in a map keyed (ticker, date), mirroring the
// upsert contract of the real store.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]postgres.OHLCVRecord
	upserts int
	failAll error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]postgres.OHLCVRecord)}
}

func key(ticker string, date time.Time) string {
	return fmt.Sprintf("%s|%s", ticker, date.Format(dateLayout))
}

func (m *memStore) UpsertOHLCV(_ context.Context, records []postgres.OHLCVRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return 0, m.failAll
	}
	m.upserts++
	for _, r := range records {
		m.rows[key(r.Ticker, r.Date)] = r
	}
	return int64(len(records)), nil
}

func (m *memStore) FetchRange(_ context.Context, ticker string, start, end time.Time) ([]postgres.OHLCVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []postgres.OHLCVRecord
	for _, r := range m.rows {
		if r.Ticker == ticker && !r.Date.Before(start) && !r.Date.After(end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) LatestDate(_ context.Context, ticker string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return time.Time{}, false, m.failAll
	}
	var latest time.Time
	found := false
	for _, r := range m.rows {
		if r.Ticker == ticker && (!found || r.Date.After(latest)) {
			latest = r.Date
			found = true
		}
	}
	return latest, found, nil
}

func (m *memStore) count(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.Ticker == ticker {
			n++
		}
	}
	return n
}

var errBoom = errors.New("boom")

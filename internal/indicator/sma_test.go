package indicator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

var null = decimal.NullDecimal{}

// go test -v --run TestSMA
func TestSMA(t *testing.T) {
	cases := []struct {
		name   string
		closes []decimal.NullDecimal
		window int
		want   []decimal.NullDecimal
	}{
		{
			name:   "basic window of three",
			closes: []decimal.NullDecimal{dec("1"), dec("2"), dec("3"), dec("4"), dec("5")},
			window: 3,
			want:   []decimal.NullDecimal{null, null, dec("2"), dec("3"), dec("4")},
		},
		{
			name:   "window of one is identity",
			closes: []decimal.NullDecimal{dec("1.5"), dec("2.5")},
			window: 1,
			want:   []decimal.NullDecimal{dec("1.5"), dec("2.5")},
		},
		{
			name:   "window longer than series is all null",
			closes: []decimal.NullDecimal{dec("1"), dec("2")},
			window: 5,
			want:   []decimal.NullDecimal{null, null},
		},
		{
			name:   "null close poisons only windows containing it",
			closes: []decimal.NullDecimal{dec("1"), dec("2"), null, dec("4"), dec("5"), dec("6")},
			window: 2,
			want:   []decimal.NullDecimal{null, dec("1.5"), null, null, dec("4.5"), dec("5.5")},
		},
		{
			name:   "fractional mean stays exact",
			closes: []decimal.NullDecimal{dec("1"), dec("2")},
			window: 2,
			want:   []decimal.NullDecimal{null, dec("1.5")},
		},
		{
			name:   "empty input",
			closes: nil,
			window: 3,
			want:   []decimal.NullDecimal{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SMA(tc.closes, tc.window)
			if err != nil {
				t.Fatalf("SMA failed: %v", err)
			}
			if len(got) != len(tc.closes) {
				t.Fatalf("length mismatch: got %d, want %d", len(got), len(tc.closes))
			}
			for i := range got {
				if got[i].Valid != tc.want[i].Valid {
					t.Errorf("index %d: valid=%v, want %v", i, got[i].Valid, tc.want[i].Valid)
					continue
				}
				if got[i].Valid && !got[i].Decimal.Equal(tc.want[i].Decimal) {
					t.Errorf("index %d: got %s, want %s", i, got[i].Decimal, tc.want[i].Decimal)
				}
			}
		})
	}
}

// go test -v --run TestSMARejectsBadWindow
func TestSMARejectsBadWindow(t *testing.T) {
	for _, window := range []int{0, -1} {
		if _, err := SMA([]decimal.NullDecimal{dec("1")}, window); err == nil {
			t.Errorf("window %d should be rejected", window)
		}
	}
}

// go test -v --run TestCloses
func TestCloses(t *testing.T) {
	records := []postgres.OHLCVRecord{
		{Close: dec("10.5")},
		{},
		{Close: dec("11.25")},
	}

	closes := Closes(records)

	if len(closes) != 3 {
		t.Fatalf("expected 3 closes, got %d", len(closes))
	}
	if !closes[0].Valid || !closes[0].Decimal.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("close 0 wrong: %+v", closes[0])
	}
	if closes[1].Valid {
		t.Error("null close must stay null")
	}
}

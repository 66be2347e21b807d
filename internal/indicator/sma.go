package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
)

// SMA computes the trailing simple moving average over a window of n closes.
// The result is aligned with the input: entry i is null until a full window
// exists (i < n-1) and whenever any close inside the window is null. Sums
// and means are exact decimal arithmetic, no float round trip.
func SMA(closes []decimal.NullDecimal, window int) ([]decimal.NullDecimal, error) {
	if window <= 0 {
		return nil, fmt.Errorf("sma window must be positive, got %d", window)
	}

	out := make([]decimal.NullDecimal, len(closes))
	if window > len(closes) {
		return out, nil
	}

	n := decimal.NewFromInt(int64(window))
	sum := decimal.Zero
	missing := 0

	for i, c := range closes {
		if c.Valid {
			sum = sum.Add(c.Decimal)
		} else {
			missing++
		}

		// Slide the left edge out of the window
		if i >= window {
			if prev := closes[i-window]; prev.Valid {
				sum = sum.Sub(prev.Decimal)
			} else {
				missing--
			}
		}

		if i >= window-1 && missing == 0 {
			out[i] = decimal.NullDecimal{Decimal: sum.Div(n), Valid: true}
		}
	}

	return out, nil
}

// Closes projects the close column out of stored records, nulls included.
func Closes(records []postgres.OHLCVRecord) []decimal.NullDecimal {
	closes := make([]decimal.NullDecimal, len(records))
	for i, r := range records {
		closes[i] = r.Close
	}
	return closes
}

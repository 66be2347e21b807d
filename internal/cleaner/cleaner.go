package cleaner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/yahoo"
)

// Column scales match the table definition: prices are decimal(19,8),
// volume is decimal(25,4).
const (
	priceScale  = 8
	volumeScale = 4
)

// Clean coerces raw provider bars into database records for one ticker.
// Floats become fixed-precision decimals, missing values stay null, and
// bars with every price field missing are dropped. Suspicious rows (high
// below low, open or close outside the high-low band, negative volume) are
// logged and kept.
func Clean(log *zap.Logger, ticker string, bars []yahoo.Bar) []postgres.OHLCVRecord {
	ticker = Normalize(ticker)

	records := make([]postgres.OHLCVRecord, 0, len(bars))
	dropped := 0
	for _, bar := range bars {
		rec := postgres.OHLCVRecord{
			Ticker: ticker,
			Date:   midnightUTC(bar.Date),
			Open:   toDecimal(bar.Open, priceScale),
			High:   toDecimal(bar.High, priceScale),
			Low:    toDecimal(bar.Low, priceScale),
			Close:  toDecimal(bar.Close, priceScale),
			Volume: toDecimal(bar.Volume, volumeScale),
		}

		if !rec.HasPrice() {
			dropped++
			continue
		}

		flagSuspect(log, ticker, &rec)
		records = append(records, rec)
	}

	if dropped > 0 {
		log.Info("dropped bars with no usable prices",
			zap.String("ticker", ticker),
			zap.Int("dropped", dropped),
		)
	}

	return records
}

// Normalize canonicalizes a ticker symbol: trimmed and upper-cased.
func Normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// flagSuspect warns about internally inconsistent rows. The row itself is
// stored as received.
func flagSuspect(log *zap.Logger, ticker string, rec *postgres.OHLCVRecord) {
	date := rec.Date.Format("2006-01-02")

	if rec.High.Valid && rec.Low.Valid && rec.High.Decimal.LessThan(rec.Low.Decimal) {
		log.Warn("high is below low",
			zap.String("ticker", ticker), zap.String("date", date),
			zap.String("high", rec.High.Decimal.String()),
			zap.String("low", rec.Low.Decimal.String()),
		)
	}

	if rec.High.Valid {
		if (rec.Open.Valid && rec.Open.Decimal.GreaterThan(rec.High.Decimal)) ||
			(rec.Close.Valid && rec.Close.Decimal.GreaterThan(rec.High.Decimal)) {
			log.Warn("open or close above high",
				zap.String("ticker", ticker), zap.String("date", date))
		}
	}
	if rec.Low.Valid {
		if (rec.Open.Valid && rec.Open.Decimal.LessThan(rec.Low.Decimal)) ||
			(rec.Close.Valid && rec.Close.Decimal.LessThan(rec.Low.Decimal)) {
			log.Warn("open or close below low",
				zap.String("ticker", ticker), zap.String("date", date))
		}
	}

	if rec.Volume.Valid && rec.Volume.Decimal.IsNegative() {
		log.Warn("negative volume",
			zap.String("ticker", ticker), zap.String("date", date),
			zap.String("volume", rec.Volume.Decimal.String()),
		)
	}
	if rec.Volume.Valid && rec.Volume.Decimal.IsZero() {
		log.Debug("zero volume",
			zap.String("ticker", ticker), zap.String("date", date))
	}
}

func toDecimal(v *float64, scale int32) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{
		Decimal: decimal.NewFromFloat(*v).Round(scale),
		Valid:   true,
	}
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

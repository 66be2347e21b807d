package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVRecord is one daily bar for one ticker as stored in the database.
// (ticker, date) is the composite primary key, so re-ingesting a day
// replaces the previous values instead of adding a row. Price and volume
// columns are nullable because the provider can be missing any field for a
// given day.
type OHLCVRecord struct {
	Ticker string    `gorm:"type:varchar(15);primaryKey;index:idx_ohlcv_ticker_date,priority:1"`
	Date   time.Time `gorm:"type:date;primaryKey;index:idx_ohlcv_ticker_date,priority:2;index:idx_ohlcv_date"`

	Open  decimal.NullDecimal `gorm:"type:decimal(19,8)"`
	High  decimal.NullDecimal `gorm:"type:decimal(19,8)"`
	Low   decimal.NullDecimal `gorm:"type:decimal(19,8)"`
	Close decimal.NullDecimal `gorm:"type:decimal(19,8)"`

	Volume decimal.NullDecimal `gorm:"type:decimal(25,4)"`
}

// TableName overrides the default table name for GORM.
func (OHLCVRecord) TableName() string {
	return "ohlcv_data"
}

// HasPrice reports whether at least one of the four price fields is set.
// Rows failing this are useless for both charting and indicators.
func (r *OHLCVRecord) HasPrice() bool {
	return r.Open.Valid || r.High.Valid || r.Low.Valid || r.Close.Valid
}

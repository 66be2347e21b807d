package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ohlcvValueColumns are the non-key columns overwritten when an upsert hits
// an existing (ticker, date) row.
var ohlcvValueColumns = []string{"open", "high", "low", "close", "volume"}

// UpsertOHLCV writes records as insert-or-update keyed on (ticker, date).
// The whole batch is a single INSERT ... ON CONFLICT statement, so it lands
// atomically: either every row is applied or none is. Returns the number of
// rows written.
func (p *PostgresClient) UpsertOHLCV(ctx context.Context, records []OHLCVRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "ticker"},
			{Name: "date"},
		},
		DoUpdates: clause.AssignmentColumns(ohlcvValueColumns),
	}).Create(&records)

	if tx.Error != nil {
		// A server-side error means the data itself was refused; anything
		// else is the connection going away under us.
		var pgErr *pgconn.PgError
		if errors.As(tx.Error, &pgErr) {
			return 0, &DataRejectedError{Ticker: records[0].Ticker, Count: len(records), Err: tx.Error}
		}
		return 0, fmt.Errorf("%w: upsert %d rows for %s: %v", ErrUnavailable, len(records), records[0].Ticker, tx.Error)
	}

	return tx.RowsAffected, nil
}

// FetchRange returns the stored bars for one ticker with date in
// [start, end] inclusive, ordered by date ascending. A range with no rows
// yields an empty slice, not an error.
func (p *PostgresClient) FetchRange(ctx context.Context, ticker string, start, end time.Time) ([]OHLCVRecord, error) {
	var records []OHLCVRecord
	err := p.DB.WithContext(ctx).
		Where("ticker = ? AND date >= ? AND date <= ?", ticker, start, end).
		Order("date ASC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("%w: fetch range for %s: %v", ErrUnavailable, ticker, err)
	}
	return records, nil
}

// LatestDate returns the most recent stored date for ticker. ok is false
// when the ticker has no rows at all.
func (p *PostgresClient) LatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	var record OHLCVRecord
	err := p.DB.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("date DESC").
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: latest date for %s: %v", ErrUnavailable, ticker, err)
	}
	return record.Date, true, nil
}

// CountBars returns the number of stored rows for ticker.
func (p *PostgresClient) CountBars(ctx context.Context, ticker string) (int64, error) {
	var count int64
	err := p.DB.WithContext(ctx).
		Model(&OHLCVRecord{}).
		Where("ticker = ?", ticker).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("%w: count bars for %s: %v", ErrUnavailable, ticker, err)
	}
	return count, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/RajaBabu15/market-data-aggregator-sql/config"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresClient struct {
	DB *gorm.DB
}

func NewClient(dsn string) (*PostgresClient, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// zap is the only voice; gorm's own logger stays quiet
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to postgres: %v", ErrUnavailable, err)
	}

	return &PostgresClient{DB: db}, nil
}

// InitializeAndMigrateOHLCV connects to Postgres, optionally creates the DB,
// applies the pool settings and runs AutoMigrate. Idempotent, safe to call
// on every startup.
func InitializeAndMigrateOHLCV(cfg config.PostgresConfig, createDB bool) (*PostgresClient, error) {
	// With a full connection URI the target database is assumed to exist.
	if createDB && cfg.URI == "" {
		if err := CreateDatabase(cfg); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN())
	if err != nil {
		return nil, err
	}

	db, err := client.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// gorm defers dialing until the first statement, so ping now to surface
	// an unreachable server here rather than mid-run.
	if err := db.Ping(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	if err := client.AutoMigrateOHLCV(); err != nil {
		client.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) AutoMigrateOHLCV() error {
	if err := p.DB.AutoMigrate(&OHLCVRecord{}); err != nil {
		return fmt.Errorf("auto-migrate ohlcv table: %w", err)
	}
	return nil
}

func (p *PostgresClient) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *PostgresClient) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}

package postgres_test

import (
	"testing"

	"github.com/RajaBabu15/market-data-aggregator-sql/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	cfg := testConfig()
	if cfg.URI != "" {
		t.Skip("TEST_DATABASE_URI points at a managed database, skipping create")
	}

	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Skipf("postgres not available: %v", err)
	}

	// The second call must find the database and do nothing
	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("create is not idempotent: %v", err)
	}
}

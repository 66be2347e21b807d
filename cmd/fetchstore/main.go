package main

import (
	"github.com/RajaBabu15/market-data-aggregator-sql/config"
	"github.com/RajaBabu15/market-data-aggregator-sql/internal/pipeline"
	"github.com/RajaBabu15/market-data-aggregator-sql/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// run the ingest pipeline; a nonzero exit when any ticker failed
	if err := pipeline.FetchStore(cfg, log); err != nil {
		log.Fatal("fetch and store failed", zap.Error(err))
	}
}

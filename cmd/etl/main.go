package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/propfolio/gl-etl/internal/buildium"
	"github.com/propfolio/gl-etl/internal/config"
	"github.com/propfolio/gl-etl/internal/logger"
	"github.com/propfolio/gl-etl/internal/pipeline"
	"github.com/propfolio/gl-etl/internal/transform"
	"github.com/propfolio/gl-etl/internal/warehouse"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	startDate := flag.String("start-date", "", "transaction query start date (YYYY-MM-DD), required for API mode")
	endDate := flag.String("end-date", "", "transaction query end date (YYYY-MM-DD), required for API mode")
	accountsFile := flag.String("accounts-file", "", "read the accounts payload from a local JSON file instead of the API")
	transactionsFile := flag.String("transactions-file", "", "read the transactions payload from a local JSON file instead of the API")
	flag.Parse()

	if err := run(context.Background(), log, *configPath, *startDate, *endDate, *accountsFile, *transactionsFile); err != nil {
		log.Fatal().Err(err).Msg("ETL run failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, configPath, startDate, endDate, accountsFile, transactionsFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().Msg("Starting ETL run")

	client := buildium.NewClient(buildium.ClientConfig{
		BaseURL:      cfg.Buildium.BaseURL,
		ClientID:     cfg.Buildium.ClientID,
		ClientSecret: cfg.Buildium.ClientSecret,
	})

	var accountSource pipeline.AccountSource = client
	if accountsFile != "" {
		accountSource = pipeline.AccountSourceFunc(func(context.Context) ([]byte, error) {
			return os.ReadFile(accountsFile)
		})
	}

	var transactionSource transform.TransactionSource
	if transactionsFile != "" {
		raw, err := os.ReadFile(transactionsFile)
		if err != nil {
			return fmt.Errorf("reading transactions file: %w", err)
		}
		transactionSource = buildium.NewOfflineSource(raw)
	} else {
		start, err := civil.ParseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid -start-date %q: %w", startDate, err)
		}
		end, err := civil.ParseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid -end-date %q: %w", endDate, err)
		}
		transactionSource = buildium.NewAPISource(client, start, end)
	}

	strategy, err := transform.ParseDedupStrategy(cfg.Run.DedupStrategy)
	if err != nil {
		return err
	}

	bqClient, err := bigquery.NewClient(ctx, cfg.Warehouse.ProjectID)
	if err != nil {
		return fmt.Errorf("creating BigQuery client: %w", err)
	}
	defer bqClient.Close()

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating storage client: %w", err)
	}
	defer storageClient.Close()

	session, err := warehouse.BeginSession(ctx, bqClient)
	if err != nil {
		return err
	}
	defer session.Close(ctx)

	stager := warehouse.NewGCSStager(storageClient, bqClient, cfg.Warehouse.StagingBucket, cfg.Warehouse.ProjectID, cfg.Warehouse.StagingDataset)
	loader := warehouse.NewLoader(session, stager, warehouse.Config{
		ProjectID:      cfg.Warehouse.ProjectID,
		TargetDataset:  cfg.Warehouse.TargetDataset,
		StagingDataset: cfg.Warehouse.StagingDataset,
		ExportDir:      cfg.Warehouse.ExportDir,
	})

	p := pipeline.NewRunPipeline(accountSource, transactionSource, loader, pipeline.Options{
		FlattenOptions: transform.FlattenOptions{MaxDepth: cfg.Run.FlattenDepth},
		DedupStrategy:  strategy,
	})

	started := time.Now()
	state := &pipeline.RunState{RunID: runID}
	if err := p.Execute(ctx, state); err != nil {
		return err
	}
	if err := session.Commit(ctx); err != nil {
		return err
	}

	for _, table := range []string{warehouse.AccountTable, warehouse.TransactionTable, warehouse.AccountTransactionsTable} {
		rows, err := warehouse.CountRowsForRun(ctx, bqClient, cfg.Warehouse.ProjectID, cfg.Warehouse.TargetDataset, table, runID)
		if err != nil {
			log.Warn().Err(err).Str("table", table).Msg("Could not count loaded rows")
			continue
		}
		log.Info().Str("table", table).Int64("rows", rows).Msg("Rows loaded for run")
	}

	log.Info().Dur("elapsed", time.Since(started)).Msg("ETL run completed successfully")
	return nil
}

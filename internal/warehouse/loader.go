package warehouse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
)

// Target table names within the general ledger datasets. Staging tables
// share the same names inside the staging dataset.
const (
	AccountTable             = "account"
	TransactionTable         = "transaction"
	AccountTransactionsTable = "account_transactions"
)

// provenanceColumns are appended to every export row and carried through the
// merge so the target keeps per-run lineage.
var provenanceColumns = []string{"run_id", "inserted_at"}

// LoadError wraps any failure in the export, stage or merge of one entity
// type. Fatal to the run.
type LoadError struct {
	Table string
	Op    string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s: %v", e.Table, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Config locates the warehouse datasets and the scratch directory for
// exports.
type Config struct {
	ProjectID      string
	TargetDataset  string
	StagingDataset string

	// ExportDir defaults to the OS temp directory.
	ExportDir string

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Loader runs the stage-and-merge protocol for the three entity types of a
// run: export to CSV, stage through the warehouse, insert-only merge into
// the target. Entity types load strictly in sequence — accounts, then
// transactions, then participations — all through one Executor so they share
// the run's transaction scope.
type Loader struct {
	exec   Executor
	stager Stager
	cfg    Config
}

// NewLoader wires a Loader. exec is typically the run's Session.
func NewLoader(exec Executor, stager Stager, cfg Config) *Loader {
	if cfg.ExportDir == "" {
		cfg.ExportDir = os.TempDir()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Loader{exec: exec, stager: stager, cfg: cfg}
}

// Run loads the three record sets in order. Any failure aborts immediately,
// leaving the run's transaction uncommitted.
func (l *Loader) Run(ctx context.Context, runID string, accounts []gl.FlatAccount, transactions []gl.FlatTransaction, participations []gl.AccountParticipation) error {
	log := logger.FromContext(ctx)

	accountRecords := make([]Record, len(accounts))
	for i, a := range accounts {
		accountRecords[i] = a
	}
	if err := l.load(ctx, runID, AccountTable, "general_ledger_accounts", accountRecords, nil); err != nil {
		return err
	}
	log.Info().Int("rows", len(accounts)).Msg("General ledger accounts loaded")

	transactionRecords := make([]Record, len(transactions))
	for i, t := range transactions {
		transactionRecords[i] = t
	}
	if err := l.load(ctx, runID, TransactionTable, "general_ledger_transactions", transactionRecords, nil); err != nil {
		return err
	}
	log.Info().Int("rows", len(transactions)).Msg("General ledger transactions loaded")

	participationRecords := make([]Record, len(participations))
	for i, p := range participations {
		participationRecords[i] = p
	}
	if err := l.load(ctx, runID, AccountTransactionsTable, "general_ledger_account_transactions", participationRecords, []string{"account_id", "transaction_id"}); err != nil {
		return err
	}
	log.Info().Int("rows", len(participations)).Msg("General ledger account-transaction relationships loaded")

	return nil
}

// load runs export → stage → merge for one entity type. An empty record set
// is skipped: there is nothing to stage and the merge would be a no-op.
func (l *Loader) load(ctx context.Context, runID, table, filePrefix string, records []Record, keyColumns []string) error {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		log.Warn().Str("table", table).Msg("No records to load, skipping")
		return nil
	}

	fileName := fmt.Sprintf("%s_%s.csv", filePrefix, runID)
	localPath := filepath.Join(l.cfg.ExportDir, fileName)

	if err := l.export(localPath, records, runID); err != nil {
		return &LoadError{Table: table, Op: "export", Err: err}
	}
	log.Info().Int("rows", len(records)).Str("file", localPath).Msg("Exported records to CSV")

	if err := l.stager.Stage(ctx, localPath, table); err != nil {
		return &LoadError{Table: table, Op: "stage", Err: err}
	}

	stagingTable := fmt.Sprintf("%s.%s.%s", l.cfg.ProjectID, l.cfg.StagingDataset, table)
	targetTable := fmt.Sprintf("%s.%s.%s", l.cfg.ProjectID, l.cfg.TargetDataset, table)
	columns := append(records[0].Columns(), provenanceColumns...)
	if err := MergeStagingIntoTarget(ctx, l.exec, stagingTable, targetTable, columns, runID, keyColumns); err != nil {
		return &LoadError{Table: table, Op: "merge", Err: err}
	}

	return nil
}

func (l *Loader) export(localPath string, records []Record, runID string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}

	if err := ExportCSV(f, records, runID, l.cfg.Now); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}

package warehouse

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/propfolio/gl-etl/internal/logger"
)

// defaultKeyColumns matches staged rows against the target by a single id
// column unless the caller specifies otherwise.
var defaultKeyColumns = []string{"id"}

// buildMergeQuery renders the insert-only merge statement: staged rows for
// the current run that have no key match in the target are inserted;
// existing target rows are never updated or deleted.
func buildMergeQuery(stagingTable, targetTable string, columns, keyColumns []string) string {
	matches := make([]string, len(keyColumns))
	for i, column := range keyColumns {
		matches[i] = fmt.Sprintf("target.%s = source.%s", column, column)
	}

	sourceColumns := make([]string, len(columns))
	for i, column := range columns {
		sourceColumns[i] = "source." + column
	}

	return fmt.Sprintf(
		"MERGE INTO `%s` AS target USING (SELECT * FROM `%s` WHERE run_id = @run_id) AS source ON %s WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		targetTable,
		stagingTable,
		strings.Join(matches, " AND "),
		strings.Join(columns, ", "),
		strings.Join(sourceColumns, ", "),
	)
}

// MergeStagingIntoTarget merges the current run's rows from stagingTable
// into targetTable, matching on keyColumns (default: id). Insert-only: a key
// match leaves the target row untouched.
func MergeStagingIntoTarget(ctx context.Context, exec Executor, stagingTable, targetTable string, columns []string, runID string, keyColumns []string) error {
	log := logger.FromContext(ctx)

	if len(keyColumns) == 0 {
		keyColumns = defaultKeyColumns
	}

	query := buildMergeQuery(stagingTable, targetTable, columns, keyColumns)
	log.Debug().Str("query", query).Str("run_id", runID).Msg("Executing merge")

	params := []bigquery.QueryParameter{{Name: "run_id", Value: runID}}
	if err := exec.Exec(ctx, query, params); err != nil {
		return fmt.Errorf("merging %s into %s: %w", stagingTable, targetTable, err)
	}

	log.Info().Str("target", targetTable).Msg("Merge completed")
	return nil
}

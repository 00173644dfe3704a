package warehouse

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// CountRowsForRun returns how many rows a run wrote to one target table.
// Used for post-commit run reporting; reads outside the run's session since
// the transaction has already committed by then.
func CountRowsForRun(ctx context.Context, client *bigquery.Client, projectID, dataset, table, runID string) (int64, error) {
	q := client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS row_count FROM `%s.%s.%s` WHERE run_id = @run_id",
		projectID, dataset, table,
	))
	q.Parameters = []bigquery.QueryParameter{{Name: "run_id", Value: runID}}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountRowsForRun: reading query: %w", err)
	}

	var row struct {
		RowCount int64 `bigquery:"row_count"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("CountRowsForRun: iterating: %w", err)
	}
	return row.RowCount, nil
}

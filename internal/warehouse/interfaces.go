package warehouse

import (
	"context"

	"cloud.google.com/go/bigquery"
)

// Record is one warehouse-bound row: its column names and the matching CSV
// cell values. Implemented by the flat domain records.
type Record interface {
	Columns() []string
	Values() ([]string, error)
}

// Executor runs one SQL statement against the warehouse. The concrete
// implementation is a Session, so every statement issued through it shares
// the run's transaction scope.
type Executor interface {
	Exec(ctx context.Context, query string, params []bigquery.QueryParameter) error
}

// Stager moves an exported file into the warehouse staging area and
// bulk-loads it into the named staging table.
type Stager interface {
	Stage(ctx context.Context, localPath, table string) error
}

package warehouse

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor captures every statement issued through it.
type fakeExecutor struct {
	queries []string
	params  [][]bigquery.QueryParameter
	err     error
}

func (f *fakeExecutor) Exec(_ context.Context, query string, params []bigquery.QueryParameter) error {
	f.queries = append(f.queries, query)
	f.params = append(f.params, params)
	return f.err
}

func TestBuildMergeQueryDefaultKey(t *testing.T) {
	query := buildMergeQuery("p.staging.account", "p.general_ledger.account", []string{"id", "name"}, []string{"id"})

	assert.Contains(t, query, "ON target.id = source.id")
	assert.Contains(t, query, "WHERE run_id = @run_id")
	assert.Contains(t, query, "WHEN NOT MATCHED THEN INSERT (id, name) VALUES (source.id, source.name)")
	// Insert-only: existing target rows are never touched.
	assert.NotContains(t, query, "WHEN MATCHED")
}

func TestBuildMergeQueryCompoundKey(t *testing.T) {
	query := buildMergeQuery(
		"p.staging.account_transactions",
		"p.general_ledger.account_transactions",
		[]string{"account_id", "transaction_id"},
		[]string{"account_id", "transaction_id"},
	)

	assert.Contains(t, query, "ON target.account_id = source.account_id AND target.transaction_id = source.transaction_id")
}

func TestMergeStagingIntoTargetBindsRunID(t *testing.T) {
	exec := &fakeExecutor{}

	err := MergeStagingIntoTarget(context.Background(), exec, "p.s.account", "p.t.account", []string{"id"}, "run-42", nil)
	require.NoError(t, err)
	require.Len(t, exec.queries, 1)
	require.Len(t, exec.params[0], 1)
	assert.Equal(t, "run_id", exec.params[0][0].Name)
	assert.Equal(t, "run-42", exec.params[0][0].Value)
	// Defaults to the single id key column.
	assert.Contains(t, exec.queries[0], "ON target.id = source.id")
}

func TestMergeStagingIntoTargetPropagatesError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("merge rejected")}

	err := MergeStagingIntoTarget(context.Background(), exec, "p.s.account", "p.t.account", []string{"id"}, "run-42", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge rejected")
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountsFixture = `[
	{
		"Id": 100,
		"Name": "Assets",
		"Type": "Asset",
		"SubType": "CurrentAsset",
		"IsActive": true,
		"SubAccounts": [
			{"Id": 101, "Name": "Cash", "Type": "Asset", "SubType": "CurrentAsset", "IsActive": true, "ParentGLAccountId": 100}
		]
	},
	{"Id": 200, "Name": "Rent Income", "Type": "Income", "SubType": "Income", "IsActive": true}
]`

// fakeTransactionSource serves canned transactions keyed by account id.
type fakeTransactionSource struct {
	byAccount map[int64][]gl.Transaction
	err       error
}

func (f *fakeTransactionSource) TransactionsForAccount(_ context.Context, accountID int64) ([]gl.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byAccount[accountID], nil
}

// fakeLoader records the record sets handed to it.
type fakeLoader struct {
	runID          string
	accounts       []gl.FlatAccount
	transactions   []gl.FlatTransaction
	participations []gl.AccountParticipation
	err            error
}

func (f *fakeLoader) Run(_ context.Context, runID string, accounts []gl.FlatAccount, transactions []gl.FlatTransaction, participations []gl.AccountParticipation) error {
	f.runID = runID
	f.accounts = accounts
	f.transactions = transactions
	f.participations = participations
	return f.err
}

func fixtureTransaction(id int64, accountIDs ...int64) gl.Transaction {
	lines := make([]gl.JournalLine, len(accountIDs))
	for i, accountID := range accountIDs {
		lines[i] = gl.JournalLine{
			GLAccount: gl.Account{ID: accountID, Name: "A", Type: "Asset", SubType: "CurrentAsset"},
		}
	}
	return gl.Transaction{
		ID:              id,
		TransactionType: "Charge",
		Journal:         gl.Journal{Memo: "m", Lines: lines},
	}
}

func accountSourceFromFixture() AccountSource {
	return AccountSourceFunc(func(context.Context) ([]byte, error) {
		return []byte(accountsFixture), nil
	})
}

func TestRunPipelineEndToEnd(t *testing.T) {
	source := &fakeTransactionSource{byAccount: map[int64][]gl.Transaction{
		100: {fixtureTransaction(5001, 100)},
		101: {fixtureTransaction(5002, 101, 200)},
		200: {fixtureTransaction(5002, 101, 200)},
	}}
	loader := &fakeLoader{}

	p := NewRunPipeline(accountSourceFromFixture(), source, loader, Options{})
	state := &RunState{RunID: "run-1"}
	require.NoError(t, p.Execute(context.Background(), state))

	assert.Equal(t, "run-1", loader.runID)

	// Hierarchy flattened: parent, its sub-account, then the sibling root.
	require.Len(t, loader.accounts, 3)
	assert.Equal(t, int64(100), loader.accounts[0].ID)
	assert.Equal(t, int64(101), loader.accounts[1].ID)
	assert.Equal(t, int64(200), loader.accounts[2].ID)

	// Transaction 5002 is reachable through both accounts 101 and 200 but
	// loads once.
	require.Len(t, loader.transactions, 2)
	assert.Equal(t, int64(5001), loader.transactions[0].ID)
	assert.Equal(t, int64(5002), loader.transactions[1].ID)

	// Participation keeps one row per account-transaction pair.
	assert.ElementsMatch(t, []gl.AccountParticipation{
		{AccountID: 100, TransactionID: 5001},
		{AccountID: 101, TransactionID: 5002},
		{AccountID: 200, TransactionID: 5002},
	}, loader.participations)
}

func TestRunPipelineValidationFailureAborts(t *testing.T) {
	badSource := AccountSourceFunc(func(context.Context) ([]byte, error) {
		return []byte(`[{"Id": 1}]`), nil
	})
	loader := &fakeLoader{}

	p := NewRunPipeline(badSource, &fakeTransactionSource{}, loader, Options{})
	err := p.Execute(context.Background(), &RunState{RunID: "run-1"})
	require.Error(t, err)

	var vErr *gl.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, loader.runID)
}

func TestRunPipelineSourceFailureAborts(t *testing.T) {
	source := &fakeTransactionSource{err: errors.New("upstream unavailable")}
	loader := &fakeLoader{}

	p := NewRunPipeline(accountSourceFromFixture(), source, loader, Options{})
	err := p.Execute(context.Background(), &RunState{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Empty(t, loader.runID)
}

func TestRunPipelineLoaderFailureWrapped(t *testing.T) {
	source := &fakeTransactionSource{byAccount: map[int64][]gl.Transaction{}}
	loader := &fakeLoader{err: errors.New("warehouse down")}

	p := NewRunPipeline(accountSourceFromFixture(), source, loader, Options{})
	err := p.Execute(context.Background(), &RunState{RunID: "run-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline step 6 failed")
	assert.Contains(t, err.Error(), "warehouse down")
}

func TestPipelineStepNumbering(t *testing.T) {
	failing := stepFunc(func(context.Context, *RunState) error {
		return errors.New("boom")
	})
	passing := stepFunc(func(context.Context, *RunState) error {
		return nil
	})

	p := NewPipeline(passing, failing)
	err := p.Execute(context.Background(), &RunState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline step 2 failed")
}

type stepFunc func(ctx context.Context, state *RunState) error

func (f stepFunc) Execute(ctx context.Context, state *RunState) error {
	return f(ctx, state)
}

var _ transform.TransactionSource = (*fakeTransactionSource)(nil)

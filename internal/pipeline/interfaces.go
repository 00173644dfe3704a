package pipeline

import (
	"context"

	"github.com/propfolio/gl-etl/internal/gl"
)

// AccountSource produces the raw general ledger accounts payload.
// Satisfied by *buildium.Client; offline runs use AccountSourceFunc over a
// file read.
type AccountSource interface {
	FetchAccounts(ctx context.Context) ([]byte, error)
}

// AccountSourceFunc adapts a function to the AccountSource interface.
type AccountSourceFunc func(ctx context.Context) ([]byte, error)

// FetchAccounts calls f.
func (f AccountSourceFunc) FetchAccounts(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// RunLoader loads a run's three record sets into the warehouse.
// Satisfied by *warehouse.Loader.
type RunLoader interface {
	Run(ctx context.Context, runID string, accounts []gl.FlatAccount, transactions []gl.FlatTransaction, participations []gl.AccountParticipation) error
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/transform"
)

// Step represents a single step in the ETL run pipeline.
type Step interface {
	Execute(ctx context.Context, state *RunState) error
}

// RunState holds the shared state across all pipeline steps. Each step owns
// the fields it produces; nothing is mutated after a later step has read it.
type RunState struct {
	RunID string

	RawAccounts      []byte
	Accounts         []gl.Account
	FlatAccounts     []gl.FlatAccount
	AccountIDs       map[int64]struct{}
	Participations   []gl.AccountParticipation
	Transactions     []gl.Transaction
	FlatTransactions []gl.FlatTransaction
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, failing fast on the first error.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Options configures the standard run pipeline.
type Options struct {
	FlattenOptions transform.FlattenOptions
	DedupStrategy  transform.DedupStrategy
}

// NewRunPipeline creates the standard six-step extract-transform-load
// pipeline for one general ledger run.
func NewRunPipeline(accounts AccountSource, transactions transform.TransactionSource, loader RunLoader, opts Options) *Pipeline {
	return NewPipeline(
		&FetchAccountsStep{Source: accounts},
		&ValidateAccountsStep{},
		&FlattenAccountsStep{Options: opts.FlattenOptions},
		&MapParticipationStep{Source: transactions},
		&TransformTransactionsStep{Strategy: opts.DedupStrategy},
		&LoadStep{Loader: loader},
	)
}

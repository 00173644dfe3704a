package pipeline

import (
	"context"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
	"github.com/propfolio/gl-etl/internal/transform"
)

// Step 1: FetchAccountsStep reads the raw accounts payload from the source.
type FetchAccountsStep struct {
	Source AccountSource
}

func (s *FetchAccountsStep) Execute(ctx context.Context, state *RunState) error {
	raw, err := s.Source.FetchAccounts(ctx)
	if err != nil {
		return err
	}
	state.RawAccounts = raw
	return nil
}

// Step 2: ValidateAccountsStep converts the raw payload into typed account
// records, all-or-nothing.
type ValidateAccountsStep struct{}

func (s *ValidateAccountsStep) Execute(ctx context.Context, state *RunState) error {
	accounts, err := gl.DecodeAccounts(state.RawAccounts)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("accounts", len(accounts)).Msg("Read general ledger accounts")
	state.Accounts = accounts
	return nil
}

// Step 3: FlattenAccountsStep flattens the account hierarchy and collects
// the id set used for participation mapping.
type FlattenAccountsStep struct {
	Options transform.FlattenOptions
}

func (s *FlattenAccountsStep) Execute(ctx context.Context, state *RunState) error {
	flattened, err := transform.FlattenAccounts(ctx, state.Accounts, s.Options)
	if err != nil {
		return err
	}
	state.FlatAccounts = flattened

	ids := make(map[int64]struct{}, len(flattened))
	for _, account := range flattened {
		ids[account.ID] = struct{}{}
	}
	state.AccountIDs = ids
	return nil
}

// Step 4: MapParticipationStep queries the transaction source per account id
// and builds the account-transaction association rows.
type MapParticipationStep struct {
	Source transform.TransactionSource
}

func (s *MapParticipationStep) Execute(ctx context.Context, state *RunState) error {
	participations, transactions, err := transform.MapAccountParticipation(ctx, state.AccountIDs, s.Source)
	if err != nil {
		return err
	}
	state.Participations = participations
	state.Transactions = transactions
	return nil
}

// Step 5: TransformTransactionsStep deduplicates and flattens the
// accumulated transactions.
type TransformTransactionsStep struct {
	Strategy transform.DedupStrategy
}

func (s *TransformTransactionsStep) Execute(ctx context.Context, state *RunState) error {
	flattened, err := transform.TransformTransactions(ctx, state.Transactions, s.Strategy)
	if err != nil {
		return err
	}
	state.FlatTransactions = flattened
	return nil
}

// Step 6: LoadStep stages and merges the three record sets into the
// warehouse, in sequence, inside the run's transaction scope.
type LoadStep struct {
	Loader RunLoader
}

func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	return s.Loader.Run(ctx, state.RunID, state.FlatAccounts, state.FlatTransactions, state.Participations)
}

package transform

import (
	"context"
	"sort"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
)

// TransactionSource answers "which transactions touch this account" queries.
// Implemented by the live API client and by the offline payload filter.
type TransactionSource interface {
	TransactionsForAccount(ctx context.Context, accountID int64) ([]gl.Transaction, error)
}

// MapAccountParticipation reconstructs the many-to-many account/transaction
// relationship that the source system only exposes as a one-sided filter.
// For every known account id, in ascending id order for reproducible output,
// it queries src and emits one participation row per matching transaction.
// All matched transactions are also accumulated into a single list;
// duplicates are possible there (a transaction touching two tracked accounts
// appears twice) and are resolved later by TransformTransactions.
//
// An account with no matching transactions contributes nothing and is not an
// error. A failed query aborts the whole mapping.
func MapAccountParticipation(ctx context.Context, accountIDs map[int64]struct{}, src TransactionSource) ([]gl.AccountParticipation, []gl.Transaction, error) {
	log := logger.FromContext(ctx)
	log.Info().Int("accounts", len(accountIDs)).Msg("Starting account participation mapping")

	sortedIDs := make([]int64, 0, len(accountIDs))
	for id := range accountIDs {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })

	var participations []gl.AccountParticipation
	var allTransactions []gl.Transaction

	for _, accountID := range sortedIDs {
		transactions, err := src.TransactionsForAccount(ctx, accountID)
		if err != nil {
			log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to read transactions for account")
			return nil, nil, err
		}
		if len(transactions) == 0 {
			log.Debug().Int64("account_id", accountID).Msg("No transactions for account")
			continue
		}

		allTransactions = append(allTransactions, transactions...)
		for _, transaction := range transactions {
			participations = append(participations, gl.AccountParticipation{
				AccountID:     accountID,
				TransactionID: transaction.ID,
			})
		}
	}

	log.Info().
		Int("participations", len(participations)).
		Int("transactions", len(allTransactions)).
		Msg("Account participation mapping completed")
	return participations, allTransactions, nil
}

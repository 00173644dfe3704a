package buildium

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
)

// OfflineSource answers per-account transaction queries by filtering a
// payload that was fetched (or read from disk) once, instead of issuing a
// fresh network call per account.
type OfflineSource struct {
	raw []byte
}

// NewOfflineSource wraps a raw JSON transactions payload.
func NewOfflineSource(raw []byte) *OfflineSource {
	return &OfflineSource{raw: raw}
}

// TransactionsForAccount returns the validated transactions touching
// accountID within the wrapped payload.
func (s *OfflineSource) TransactionsForAccount(ctx context.Context, accountID int64) ([]gl.Transaction, error) {
	log := logger.FromContext(ctx)

	filtered, err := FilterTransactionsByAccount(s.raw, accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := gl.DecodeTransactions(filtered)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("account_id", accountID).
		Int("transactions", len(transactions)).
		Msg("Filtered transactions from offline payload")
	return transactions, nil
}

// APISource answers per-account transaction queries against the live
// Buildium API over a fixed date range.
type APISource struct {
	client    *Client
	startDate civil.Date
	endDate   civil.Date
}

// NewAPISource builds a source that queries client for transactions between
// startDate and endDate inclusive.
func NewAPISource(client *Client, startDate, endDate civil.Date) *APISource {
	return &APISource{client: client, startDate: startDate, endDate: endDate}
}

// TransactionsForAccount fetches and validates the transactions touching
// accountID within the source's date range.
func (s *APISource) TransactionsForAccount(ctx context.Context, accountID int64) ([]gl.Transaction, error) {
	log := logger.FromContext(ctx)

	raw, err := s.client.FetchTransactions(ctx, accountID, s.startDate, s.endDate)
	if err != nil {
		return nil, err
	}

	transactions, err := gl.DecodeTransactions(raw)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("account_id", accountID).
		Int("transactions", len(transactions)).
		Msg("Read general ledger transactions")
	return transactions, nil
}

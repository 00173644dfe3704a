package transform

import (
	"context"
	"fmt"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
)

// DedupStrategy decides what happens when the same transaction id appears
// more than once in a batch, e.g. because one transaction matched several
// account filters.
type DedupStrategy int

const (
	// DedupFirstWins keeps the first occurrence and silently discards
	// later ones. Source-compatible default.
	DedupFirstWins DedupStrategy = iota

	// DedupLastWins keeps the position of the first occurrence but the
	// content of the last.
	DedupLastWins

	// DedupReject fails the batch on any repeated id.
	DedupReject
)

// ParseDedupStrategy maps a configuration string onto a DedupStrategy.
func ParseDedupStrategy(s string) (DedupStrategy, error) {
	switch s {
	case "", "first_wins":
		return DedupFirstWins, nil
	case "last_wins":
		return DedupLastWins, nil
	case "reject":
		return DedupReject, nil
	default:
		return 0, fmt.Errorf("unknown dedup strategy %q", s)
	}
}

// TransformTransactions removes duplicate transactions by id according to
// strategy and flattens each survivor's journal: the memo becomes a scalar
// field and every line trades its embedded account for the account id.
// First-seen order is preserved. Any failure aborts the whole batch.
func TransformTransactions(ctx context.Context, transactions []gl.Transaction, strategy DedupStrategy) ([]gl.FlatTransaction, error) {
	log := logger.FromContext(ctx)

	result := make([]gl.FlatTransaction, 0, len(transactions))
	position := make(map[int64]int)
	duplicates := 0

	for _, transaction := range transactions {
		if at, seen := position[transaction.ID]; seen {
			duplicates++
			switch strategy {
			case DedupFirstWins:
				continue
			case DedupLastWins:
				result[at] = flattenTransaction(transaction)
				continue
			case DedupReject:
				return nil, fmt.Errorf("duplicate transaction id %d in batch", transaction.ID)
			}
		}
		position[transaction.ID] = len(result)
		result = append(result, flattenTransaction(transaction))
	}

	log.Info().
		Int("transactions", len(result)).
		Int("duplicates_skipped", duplicates).
		Msg("Transformed general ledger transactions")
	return result, nil
}

func flattenTransaction(t gl.Transaction) gl.FlatTransaction {
	// An empty journal stays an empty line list, never nil and never an
	// error.
	lines := make([]gl.FlatJournalLine, 0, len(t.Journal.Lines))
	for _, line := range t.Journal.Lines {
		lines = append(lines, gl.FlatJournalLine{
			Amount:                 line.Amount,
			IsCashPosting:          line.IsCashPosting,
			ReferenceNumber:        line.ReferenceNumber,
			Memo:                   line.Memo,
			GeneralLedgerAccountID: line.GLAccount.ID,
			AccountingEntity:       line.AccountingEntity,
		})
	}

	return gl.FlatTransaction{
		ID:                  t.ID,
		Date:                t.Date,
		TransactionType:     t.TransactionType,
		TotalAmount:         t.TotalAmount,
		CheckNumber:         t.CheckNumber,
		UnitAgreement:       t.UnitAgreement,
		UnitID:              t.UnitID,
		UnitNumber:          t.UnitNumber,
		PaymentDetail:       t.PaymentDetail,
		DepositDetails:      t.DepositDetails,
		JournalMemo:         t.Journal.Memo,
		Lines:               lines,
		LastUpdatedDateTime: t.LastUpdatedDateTime,
	}
}

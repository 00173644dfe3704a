package transform

import (
	"context"
	"fmt"

	"github.com/propfolio/gl-etl/internal/gl"
	"github.com/propfolio/gl-etl/internal/logger"
)

// FlattenOptions controls how deep FlattenAccounts walks the sub-account
// hierarchy. MaxDepth 0 means the source-compatible default of 1: an account
// and its direct sub-accounts, anything deeper ignored.
type FlattenOptions struct {
	MaxDepth int
}

// FlattenAccounts converts a nested account hierarchy into a flat list of
// independent records. For each input account the account itself is emitted
// first, then its sub-accounts in their original order, before moving to the
// next top-level account. The parent relationship survives only through
// ParentGLAccountID. No deduplication happens here; duplicate ids pass
// through as-is.
//
// A parent/child id cycle within the walked depth fails the whole batch
// rather than recursing forever.
func FlattenAccounts(ctx context.Context, accounts []gl.Account, opts FlattenOptions) ([]gl.FlatAccount, error) {
	log := logger.FromContext(ctx)

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}

	flattened := make([]gl.FlatAccount, 0, len(accounts))
	path := make(map[int64]bool)
	for _, account := range accounts {
		var err error
		flattened, err = appendAccount(flattened, account, 0, maxDepth, path)
		if err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("accounts", len(accounts)).
		Int("flattened", len(flattened)).
		Msg("Flattened general ledger accounts")
	return flattened, nil
}

func appendAccount(out []gl.FlatAccount, account gl.Account, depth, maxDepth int, path map[int64]bool) ([]gl.FlatAccount, error) {
	if path[account.ID] {
		return nil, fmt.Errorf("account hierarchy cycle detected at account id %d", account.ID)
	}

	out = append(out, account.Flatten())
	if depth >= maxDepth {
		// Deeper nesting is dropped, matching the upstream guarantee of a
		// single sub-account level.
		return out, nil
	}

	path[account.ID] = true
	defer delete(path, account.ID)

	for _, sub := range account.SubAccounts {
		var err error
		out, err = appendAccount(out, sub, depth+1, maxDepth, path)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

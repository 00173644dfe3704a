package buildium

import (
	"encoding/json"
	"fmt"
)

// txProbe decodes only the journal structure needed to test whether a
// transaction touches a given account.
type txProbe struct {
	Journal struct {
		Lines []struct {
			GLAccount *struct {
				ID int64 `json:"Id"`
			} `json:"GLAccount"`
		} `json:"Lines"`
	} `json:"Journal"`
}

// FilterTransactionsByAccount selects, from a raw JSON array of
// transactions, those carrying at least one journal line posted against
// accountID, and returns them re-encoded as a JSON array with the original
// element bytes preserved. Transactions without a journal, lines, or line
// account are skipped, not rejected.
func FilterTransactionsByAccount(raw []byte, accountID int64) ([]byte, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("decoding transactions payload: %w", err)
	}

	matched := make([]json.RawMessage, 0, len(elements))
	for i, element := range elements {
		var probe txProbe
		if err := json.Unmarshal(element, &probe); err != nil {
			return nil, fmt.Errorf("decoding transaction %d: %w", i, err)
		}
		for _, line := range probe.Journal.Lines {
			if line.GLAccount != nil && line.GLAccount.ID == accountID {
				matched = append(matched, element)
				break
			}
		}
	}

	filtered, err := json.Marshal(matched)
	if err != nil {
		return nil, fmt.Errorf("encoding filtered transactions: %w", err)
	}
	return filtered, nil
}

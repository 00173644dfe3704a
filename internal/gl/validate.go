package gl

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports every field violation found in a payload.
// Validation is all-or-nothing: when any element of a payload fails, the
// whole payload is rejected and no records are returned.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("payload validation failed with %d violation(s): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAccounts decodes and validates a raw JSON array of general ledger
// accounts. Returns a *ValidationError when the payload is malformed or any
// account fails shape validation; no partial list is ever returned.
func DecodeAccounts(data []byte) ([]Account, error) {
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, &ValidationError{Violations: []string{fmt.Sprintf("decoding accounts payload: %v", err)}}
	}

	var violations []string
	for i, account := range accounts {
		violations = append(violations, structViolations(fmt.Sprintf("accounts[%d]", i), account)...)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return accounts, nil
}

// DecodeTransactions decodes and validates a raw JSON array of general
// ledger transactions, with the same all-or-nothing semantics as
// DecodeAccounts.
func DecodeTransactions(data []byte) ([]Transaction, error) {
	var transactions []Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, &ValidationError{Violations: []string{fmt.Sprintf("decoding transactions payload: %v", err)}}
	}

	var violations []string
	for i, transaction := range transactions {
		violations = append(violations, structViolations(fmt.Sprintf("transactions[%d]", i), transaction)...)
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return transactions, nil
}

func structViolations(prefix string, v interface{}) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}

	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations,
			fmt.Sprintf("%s: field %s failed %q validation", prefix, fe.Namespace(), fe.Tag()))
	}
	return violations
}

package gl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// FlatAccount is an Account with the nesting relationship dropped. The
// parent link survives only through ParentGLAccountID; sub-accounts become
// independent FlatAccount records of their own.
type FlatAccount struct {
	ID                      int64
	AccountNumber           *string
	Name                    string
	Description             *string
	Type                    string
	SubType                 string
	IsDefaultGLAccount      bool
	DefaultAccountName      *string
	IsContraAccount         bool
	IsBankAccount           bool
	CashFlowClassification  *string
	ExcludeFromCashBalances bool
	IsActive                bool
	ParentGLAccountID       *int64
}

// Flatten returns the account as a FlatAccount, dropping SubAccounts.
func (a Account) Flatten() FlatAccount {
	return FlatAccount{
		ID:                      a.ID,
		AccountNumber:           a.AccountNumber,
		Name:                    a.Name,
		Description:             a.Description,
		Type:                    a.Type,
		SubType:                 a.SubType,
		IsDefaultGLAccount:      a.IsDefaultGLAccount,
		DefaultAccountName:      a.DefaultAccountName,
		IsContraAccount:         a.IsContraAccount,
		IsBankAccount:           a.IsBankAccount,
		CashFlowClassification:  a.CashFlowClassification,
		ExcludeFromCashBalances: a.ExcludeFromCashBalances,
		IsActive:                a.IsActive,
		ParentGLAccountID:       a.ParentGLAccountID,
	}
}

// FlatJournalLine is a JournalLine with the embedded account replaced by its
// id. Serialized into the warehouse "lines" column as JSON.
type FlatJournalLine struct {
	Amount                 decimal.Decimal  `json:"amount"`
	IsCashPosting          bool             `json:"is_cash_posting"`
	ReferenceNumber        *string          `json:"reference_number"`
	Memo                   string           `json:"memo"`
	GeneralLedgerAccountID int64            `json:"general_ledger_account_id"`
	AccountingEntity       AccountingEntity `json:"accounting_entity"`
}

// FlatTransaction is a Transaction with the journal replaced by a scalar
// memo plus a line list that references accounts by id only. Transaction
// identity is unique across a flattened batch.
type FlatTransaction struct {
	ID                  int64
	Date                civil.Date
	TransactionType     string
	TotalAmount         decimal.Decimal
	CheckNumber         string
	UnitAgreement       UnitAgreement
	UnitID              int64
	UnitNumber          string
	PaymentDetail       PaymentDetail
	DepositDetails      DepositDetails
	JournalMemo         string
	Lines               []FlatJournalLine
	LastUpdatedDateTime time.Time
}

// AccountParticipation records that an account appears in at least one
// journal line of a transaction. Pure association row, append-only at the
// warehouse.
type AccountParticipation struct {
	AccountID     int64
	TransactionID int64
}

// Columns returns the warehouse column names for the account table, in
// export order.
func (a FlatAccount) Columns() []string {
	return []string{
		"id", "account_number", "name", "description", "type", "sub_type",
		"is_default_gl_account", "default_account_name", "is_contra_account",
		"is_bank_account", "cash_flow_classification",
		"exclude_from_cash_balances", "is_active", "parent_gl_account_id",
	}
}

// Values returns the CSV cell values matching Columns.
func (a FlatAccount) Values() ([]string, error) {
	return []string{
		strconv.FormatInt(a.ID, 10),
		optionalString(a.AccountNumber),
		a.Name,
		optionalString(a.Description),
		a.Type,
		a.SubType,
		strconv.FormatBool(a.IsDefaultGLAccount),
		optionalString(a.DefaultAccountName),
		strconv.FormatBool(a.IsContraAccount),
		strconv.FormatBool(a.IsBankAccount),
		optionalString(a.CashFlowClassification),
		strconv.FormatBool(a.ExcludeFromCashBalances),
		strconv.FormatBool(a.IsActive),
		optionalInt64(a.ParentGLAccountID),
	}, nil
}

// Columns returns the warehouse column names for the transaction table, in
// export order.
func (t FlatTransaction) Columns() []string {
	return []string{
		"id", "date", "transaction_type", "total_amount", "check_number",
		"unit_agreement", "unit_id", "unit_number", "payment_detail",
		"deposit_details", "journal_memo", "lines", "last_updated_date_time",
	}
}

// Values returns the CSV cell values matching Columns. Structured fields
// (unit agreement, payment detail, deposit details, lines) are serialized
// as JSON text rather than spread across columns.
func (t FlatTransaction) Values() ([]string, error) {
	unitAgreement, err := json.Marshal(t.UnitAgreement)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: encoding unit_agreement: %w", t.ID, err)
	}
	paymentDetail, err := json.Marshal(t.PaymentDetail)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: encoding payment_detail: %w", t.ID, err)
	}
	depositDetails, err := json.Marshal(t.DepositDetails)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: encoding deposit_details: %w", t.ID, err)
	}
	lines, err := json.Marshal(t.Lines)
	if err != nil {
		return nil, fmt.Errorf("transaction %d: encoding lines: %w", t.ID, err)
	}

	return []string{
		strconv.FormatInt(t.ID, 10),
		t.Date.String(),
		t.TransactionType,
		t.TotalAmount.String(),
		t.CheckNumber,
		string(unitAgreement),
		strconv.FormatInt(t.UnitID, 10),
		t.UnitNumber,
		string(paymentDetail),
		string(depositDetails),
		t.JournalMemo,
		string(lines),
		t.LastUpdatedDateTime.UTC().Format(time.RFC3339),
	}, nil
}

// Columns returns the warehouse column names for the account_transactions
// join table.
func (p AccountParticipation) Columns() []string {
	return []string{"account_id", "transaction_id"}
}

// Values returns the CSV cell values matching Columns.
func (p AccountParticipation) Values() ([]string, error) {
	return []string{
		strconv.FormatInt(p.AccountID, 10),
		strconv.FormatInt(p.TransactionID, 10),
	}, nil
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt64(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

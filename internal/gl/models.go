package gl

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Account is a general ledger account as returned by the Buildium API.
// The API nests sub-accounts inline; upstream data guarantees at most one
// level of nesting. Accounts are constructed once from a validated payload
// and never mutated afterwards.
type Account struct {
	ID                      int64     `json:"Id" validate:"required"`
	AccountNumber           *string   `json:"AccountNumber"`
	Name                    string    `json:"Name" validate:"required"`
	Description             *string   `json:"Description"`
	Type                    string    `json:"Type" validate:"required"`
	SubType                 string    `json:"SubType" validate:"required"`
	IsDefaultGLAccount      bool      `json:"IsDefaultGLAccount"`
	DefaultAccountName      *string   `json:"DefaultAccountName"`
	IsContraAccount         bool      `json:"IsContraAccount"`
	IsBankAccount           bool      `json:"IsBankAccount"`
	CashFlowClassification  *string   `json:"CashFlowClassification"`
	ExcludeFromCashBalances bool      `json:"ExcludeFromCashBalances"`
	SubAccounts             []Account `json:"SubAccounts" validate:"dive"`
	IsActive                bool      `json:"IsActive"`
	ParentGLAccountID       *int64    `json:"ParentGLAccountId"`
}

// UnitAgreement is the lease reference attached to a transaction.
type UnitAgreement struct {
	ID   int64  `json:"Id" validate:"required"`
	Type string `json:"Type" validate:"required"`
	Href string `json:"Href"`
}

// PaymentDetail describes how a transaction was paid.
type PaymentDetail struct {
	PaymentMethod             string  `json:"PaymentMethod" validate:"required"`
	Payee                     *string `json:"Payee"`
	IsInternalTransaction     bool    `json:"IsInternalTransaction"`
	InternalTransactionStatus *string `json:"InternalTransactionStatus"`
}

// DepositDetails carries the bank account reference and raw payment
// transactions for deposit-type entries. PaymentTransactions is kept as raw
// JSON since the API does not document its element shape.
type DepositDetails struct {
	BankGLAccountID     *int64            `json:"BankGLAccountId"`
	PaymentTransactions []json.RawMessage `json:"PaymentTransactions"`
}

// Unit is a minimal rental unit reference.
type Unit struct {
	ID   int64  `json:"Id" validate:"required"`
	Href string `json:"Href"`
}

// AccountingEntity identifies the property-management entity a journal line
// posts against.
type AccountingEntity struct {
	ID                   int64  `json:"Id" validate:"required"`
	AccountingEntityType string `json:"AccountingEntityType" validate:"required"`
	Href                 string `json:"Href"`
	Unit                 Unit   `json:"Unit"`
}

// JournalLine is one debit/credit line of a transaction's journal. The API
// embeds the full GL account rather than referencing it by id.
type JournalLine struct {
	GLAccount        Account          `json:"GLAccount"`
	Amount           decimal.Decimal  `json:"Amount"`
	IsCashPosting    bool             `json:"IsCashPosting"`
	ReferenceNumber  *string          `json:"ReferenceNumber"`
	Memo             string           `json:"Memo"`
	AccountingEntity AccountingEntity `json:"AccountingEntity"`
}

// Journal is the set of lines that record one transaction's financial effect.
type Journal struct {
	Memo  string        `json:"Memo"`
	Lines []JournalLine `json:"Lines" validate:"dive"`
}

// Transaction is a general ledger transaction as returned by the Buildium
// API. The journal lines are assumed to collectively explain TotalAmount;
// this is not enforced here.
type Transaction struct {
	ID                  int64           `json:"Id" validate:"required"`
	Date                civil.Date      `json:"Date"`
	TransactionType     string          `json:"TransactionType" validate:"required"`
	TotalAmount         decimal.Decimal `json:"TotalAmount"`
	CheckNumber         string          `json:"CheckNumber"`
	UnitAgreement       UnitAgreement   `json:"UnitAgreement"`
	UnitID              int64           `json:"UnitId"`
	UnitNumber          string          `json:"UnitNumber"`
	PaymentDetail       PaymentDetail   `json:"PaymentDetail"`
	DepositDetails      DepositDetails  `json:"DepositDetails"`
	Journal             Journal         `json:"Journal"`
	LastUpdatedDateTime time.Time       `json:"LastUpdatedDateTime"`
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger entry types.
const (
	EntryTypeExpense = "expense"
	EntryTypeRevenue = "revenue"
)

// Default entry descriptions, kept in pt-BR as the app presents them.
const (
	DescriptionInitialCapital     = "Capital Inicial"
	DescriptionProfitDistribution = "Distribuição de lucros"
)

// LedgerEntry is an immutable recorded expense or revenue. Seq is the
// company-ledger ordering sequence assigned at insert; entries are append-only
// and history is read newest-first.
type LedgerEntry struct {
	Seq         int64     `json:"seq"`
	CompanyID   uuid.UUID `json:"company_id"`
	EntryType   string    `json:"entry_type"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	EntryDate   time.Time `json:"entry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayAmount renders the signed human-readable amount for history views,
// e.g. "+R$ 50.00" for a revenue and "-R$ 20.00" for an expense.
func (e *LedgerEntry) DisplayAmount() string {
	sign := "+"
	if e.EntryType == EntryTypeExpense {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %d.%02d", sign, e.AmountCents/100, e.AmountCents%100)
}

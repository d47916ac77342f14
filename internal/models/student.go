package models

import (
	"time"

	"github.com/google/uuid"
)

// Student holds a personal cash balance in integer centavos.
// InitialBalanceCents is set once at enrollment. CurrentBalanceCents never
// goes negative; the conditional UPDATE in the repository is the single gate.
type Student struct {
	ID                  uuid.UUID `json:"id"`
	ClassID             uuid.UUID `json:"class_id"`
	Name                string    `json:"name"`
	InitialBalanceCents int64     `json:"initial_balance_cents"`
	CurrentBalanceCents int64     `json:"current_balance_cents"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

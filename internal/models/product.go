package models

import (
	"time"

	"github.com/google/uuid"
)

// Product belongs to a company. SalesCount and TotalCents accumulate over sale
// events at the price in effect when each sale was recorded; price edits affect
// future sales only.
type Product struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  uuid.UUID `json:"company_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	SalesCount int64     `json:"sales_count"`
	TotalCents int64     `json:"total_cents"`
	LaunchedAt time.Time `json:"launched_at"`
}

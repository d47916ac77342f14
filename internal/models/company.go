package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyMember records a student's membership and the capital they committed
// when the company was created. Members added later carry a zero contribution;
// membership edits are forward-looking only.
type CompanyMember struct {
	StudentID         uuid.UUID `json:"student_id"`
	ContributionCents int64     `json:"contribution_cents"`
}

// Company is a pooled-capital group of students with its own financial ledger.
// Cash on hand and profit are the same derived figure: total revenues minus
// total expenses since creation, seeded by the initial capital revenue entry.
type Company struct {
	ID        uuid.UUID       `json:"id"`
	ClassID   uuid.UUID       `json:"class_id"`
	Name      string          `json:"name"`
	Members   []CompanyMember `json:"members"`
	CreatedAt time.Time       `json:"created_at"`
}

// MemberIDs returns the member student ids in stored order.
func (c *Company) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.StudentID
	}
	return ids
}

// HasMember reports whether the student belongs to the company.
func (c *Company) HasMember(studentID uuid.UUID) bool {
	for _, m := range c.Members {
		if m.StudentID == studentID {
			return true
		}
	}
	return false
}

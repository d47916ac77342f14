package models

// Snapshot is the read-all aggregate used by export and restore. File format
// and version tagging belong to the caller; the core only reads and recreates
// entity sets.
type Snapshot struct {
	Classes   []*Class          `json:"classes"`
	Students  []*Student        `json:"students"`
	Companies []*CompanySnippet `json:"companies"`
	Products  []*Product        `json:"products"`
}

// CompanySnippet is a company together with its full ledger, as exported.
type CompanySnippet struct {
	Company
	Entries []*LedgerEntry `json:"entries"`
}

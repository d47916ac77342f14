package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect a snapshot that failed
// schema validation.
var ErrValidation = errors.New("validation failed")

// snapshotSchema is the structural contract an uploaded snapshot must meet
// before restore will touch the database. Amount fields are integer centavos;
// ledger amounts must be strictly positive, balances and counters must not be
// negative.
const snapshotSchema = `{
	"type": "object",
	"required": ["classes", "students", "companies", "products"],
	"properties": {
		"classes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "name"],
				"properties": {
					"id": {"type": "string", "minLength": 36, "maxLength": 36},
					"name": {"type": "string", "minLength": 1}
				}
			}
		},
		"students": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "class_id", "name", "initial_balance_cents", "current_balance_cents"],
				"properties": {
					"id": {"type": "string", "minLength": 36, "maxLength": 36},
					"class_id": {"type": "string", "minLength": 36, "maxLength": 36},
					"name": {"type": "string", "minLength": 1},
					"initial_balance_cents": {"type": "integer", "minimum": 0},
					"current_balance_cents": {"type": "integer", "minimum": 0}
				}
			}
		},
		"companies": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "class_id", "name", "entries"],
				"properties": {
					"id": {"type": "string", "minLength": 36, "maxLength": 36},
					"class_id": {"type": "string", "minLength": 36, "maxLength": 36},
					"name": {"type": "string", "minLength": 1},
					"members": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["student_id", "contribution_cents"],
							"properties": {
								"student_id": {"type": "string", "minLength": 36, "maxLength": 36},
								"contribution_cents": {"type": "integer", "minimum": 0}
							}
						}
					},
					"entries": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["entry_type", "description", "amount_cents"],
							"properties": {
								"entry_type": {"type": "string", "enum": ["expense", "revenue"]},
								"description": {"type": "string", "minLength": 1},
								"amount_cents": {"type": "integer", "minimum": 1}
							}
						}
					}
				}
			}
		},
		"products": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "company_id", "name", "price_cents"],
				"properties": {
					"id": {"type": "string", "minLength": 36, "maxLength": 36},
					"company_id": {"type": "string", "minLength": 36, "maxLength": 36},
					"name": {"type": "string", "minLength": 1},
					"price_cents": {"type": "integer", "minimum": 1},
					"sales_count": {"type": "integer", "minimum": 0},
					"total_cents": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`

// SnapshotValidator checks uploaded snapshots against the embedded schema.
type SnapshotValidator struct {
	schema *jsonschema.Schema
}

func NewSnapshotValidator() (*SnapshotValidator, error) {
	schema, err := jsonschema.CompileString("https://busicode.dev/schemas/snapshot", snapshotSchema)
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	return &SnapshotValidator{schema: schema}, nil
}

// Validate performs a hard reject: restore never runs on a payload that does
// not match the schema.
func (v *SnapshotValidator) Validate(raw json.RawMessage) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

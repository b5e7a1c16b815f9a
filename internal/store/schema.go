package store

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// snapshotSchema guards deserialization: a doc that fails it is corrupted
// storage, surfaced as an error instead of a zero-valued player.
const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["player", "market", "lastSyncedAt"],
  "properties": {
    "player": {
      "type": "object",
      "required": ["id", "cash", "createdAt"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "difficulty": {"type": "string"},
        "cash": {"type": "integer"},
        "netWorth": {"type": "integer"},
        "experience": {"type": "integer", "minimum": 0},
        "level": {"type": "integer", "minimum": 0},
        "properties": {"type": ["array", "null"]},
        "loans": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["id", "remainingPrincipal"],
            "properties": {
              "remainingPrincipal": {"type": "integer", "minimum": 0}
            }
          }
        },
        "createdAt": {"type": "integer", "minimum": 0}
      }
    },
    "market": {
      "type": "object",
      "required": ["phase", "priceIndex", "rentIndex", "vacancyRate"],
      "properties": {
        "phase": {"enum": ["growth", "stability", "crisis"]},
        "priceIndex": {"type": "number", "exclusiveMinimum": 0},
        "rentIndex": {"type": "number", "exclusiveMinimum": 0},
        "vacancyRate": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "events": {"type": ["array", "null"]},
    "missions": {"type": ["array", "null"]},
    "achievements": {"type": ["array", "null"]},
    "availableProperties": {"type": ["array", "null"]},
    "lastSyncedAt": {"type": "integer", "minimum": 0}
  }
}`

var compiledSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchema)

// decodeSnapshot validates raw snapshot JSON against the schema and then
// unmarshals it.
func decodeSnapshot(raw []byte) (Snapshot, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot json: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot schema: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot decode: %w", err)
	}
	return snap, nil
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("snapshot encode: %w", err)
	}
	return raw, nil
}

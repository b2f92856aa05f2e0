package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema guards the shape of catalog.json at load time. A catalog
// with a missing id or a malformed color entry would otherwise surface as
// confusing lookup failures deep inside the form flow.
const catalogSchema = `{
  "type": "object",
  "required": ["products", "projectTypes", "sizes", "colors"],
  "properties": {
    "products": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "category"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1}
        }
      }
    },
    "projectTypes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "title"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1}
        }
      }
    },
    "stylePreferences": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1}
        }
      }
    },
    "sizes": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "colors": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "hex"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "hex": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}
        }
      }
    },
    "categoryNames": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 1}
    },
    "logoPlacementsByCategory": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    },
    "logoPlacements": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

// Parse validates raw catalog JSON against the schema and unmarshals it.
func Parse(data []byte) (*Catalog, error) {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("catalog validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("catalog validation failed: %v", errs)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	cat.buildIndexes()
	return &cat, nil
}

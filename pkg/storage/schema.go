package storage

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-stagecms/internal/validation"
)

// ConfigJSONSchema documents the accepted shape of a storage Config.
const ConfigJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "StorageConfig",
  "type": "object",
  "required": ["driver", "dsn"],
  "properties": {
    "driver": {
      "type": "string",
      "enum": ["sqlite", "postgres"]
    },
    "dsn": {
      "type": "string",
      "minLength": 1
    },
    "maxOpenConns": {
      "type": "integer",
      "minimum": 0
    }
  },
  "additionalProperties": false
}
`

var configValidator = validation.MustCompile([]byte(ConfigJSONSchema))

// ValidateConfig checks cfg against ConfigJSONSchema.
func ValidateConfig(cfg Config) error {
	if cfg.DSN == "" {
		return ErrDSNRequired
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("storage: encode config: %w", err)
	}
	return configValidator.ValidateJSON(raw)
}

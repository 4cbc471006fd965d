package config

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema constrains the profile shape before unmarshalling. Driver
// options stay an open string map; only their type is checked.
const configSchema = `{
	"type": "object",
	"properties": {
		"database": {
			"type": "object",
			"properties": {
				"target": {"type": "string", "minLength": 1},
				"options": {
					"type": "object",
					"additionalProperties": {"type": "string"}
				}
			}
		},
		"checkpoint": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"schedule": {"type": "string", "minLength": 1}
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"file": {"type": "string"},
				"console": {"type": "boolean"},
				"pretty": {"type": "boolean"},
				"redaction": {"type": "boolean"}
			}
		},
		"metrics": {
			"type": "object",
			"properties": {
				"enabled": {"type": "boolean"},
				"listen": {"type": "string"}
			}
		},
		"data_dir": {"type": "string"}
	}
}`

// ValidateJSON checks a raw profile document against the config schema.
func ValidateJSON(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		msg := ""
		for i, e := range errs {
			if i > 0 {
				msg += "; "
			}
			msg += e.String()
		}
		return fmt.Errorf("invalid config: %s", msg)
	}
	return nil
}

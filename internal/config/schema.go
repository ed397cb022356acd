package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const configSchema = `{
  "type": "object",
  "required": ["cfg", "creds"],
  "properties": {
    "cfg": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "anyOf": [
          {"required": ["state", "districts"]},
          {"required": ["district_id", "recipients"]}
        ],
        "properties": {
          "state": {"type": "string", "minLength": 1},
          "districts": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["district", "receivers"],
              "properties": {
                "district": {"type": "string", "minLength": 1},
                "receivers": {"type": "array", "items": {"type": "string"}}
              }
            }
          },
          "district_id": {"type": "integer", "minimum": 1},
          "is_main_ok": {"type": "boolean"},
          "district_name": {"type": "string"},
          "recipients": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "creds": {
      "type": "object",
      "properties": {
        "prod_creds": {"$ref": "#/definitions/profile"},
        "test_creds": {"$ref": "#/definitions/profile"}
      }
    },
    "api_prefix": {"type": "string"},
    "appointment_prefix": {"type": "string"},
    "min_age_limit": {"type": "integer", "minimum": 0},
    "timezone": {"type": "string"},
    "http_timeout_seconds": {"type": "integer", "minimum": 0},
    "pushgateway_url": {"type": "string"},
    "catalog_cache": {
      "type": "object",
      "required": ["addr"],
      "properties": {
        "addr": {"type": "string"},
        "password": {"type": "string"},
        "db": {"type": "integer", "minimum": 0},
        "ttl_hours": {"type": "integer", "minimum": 0}
      }
    }
  },
  "definitions": {
    "profile": {
      "type": "object",
      "properties": {
        "username": {"type": "string"},
        "password": {"type": "string"},
        "server": {"type": "string"},
        "port": {"type": "integer"},
        "transport": {"enum": ["smtp", "ses"]},
        "region": {"type": "string"}
      }
    }
  }
}`

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(errs, "; "))
	}
	return nil
}

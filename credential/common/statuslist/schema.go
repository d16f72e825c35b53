package statuslist

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// credentialSchema is the JSON schema of a BitstringStatusListCredential.
const credentialSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["@context", "type", "issuer", "credentialSubject"],
  "properties": {
    "@context": {"type": "array", "minItems": 1},
    "id": {"type": "string"},
    "type": {
      "type": "array",
      "items": {"type": "string"},
      "contains": {"const": "BitstringStatusListCredential"}
    },
    "issuer": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {"type": "object", "required": ["id"]}
      ]
    },
    "validFrom": {"type": "string"},
    "validUntil": {"type": "string"},
    "credentialSubject": {
      "type": "object",
      "required": ["type", "statusPurpose", "encodedList"],
      "properties": {
        "id": {"type": "string"},
        "type": {"const": "BitstringStatusList"},
        "statusPurpose": {"type": "string", "minLength": 1},
        "encodedList": {"type": "string", "pattern": "^u[A-Za-z0-9_-]+={0,2}$"},
        "statusSize": {"type": "integer", "minimum": 1},
        "statusMessages": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["status", "message"],
            "properties": {
              "status": {"type": "string"},
              "message": {"type": "string"}
            }
          }
        },
        "statusReference": {"type": "string"},
        "ttl": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var credentialSchemaLoader = gojsonschema.NewStringLoader(credentialSchema)

// ValidateCredential checks a raw credential document against the status
// list credential schema.
func ValidateCredential(raw []byte) error {
	if len(raw) == 0 {
		return NewError(CodeMalformedValue, "credential JSON is empty")
	}

	result, err := gojsonschema.Validate(credentialSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return WrapError(err, CodeMalformedValue, "failed to validate credential")
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return NewError(CodeMalformedValue, "credential does not match schema: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseCredential validates and decodes a status list credential document.
func ParseCredential(raw []byte) (*Credential, error) {
	if err := ValidateCredential(raw); err != nil {
		return nil, err
	}

	var c Credential
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, WrapError(err, CodeMalformedValue, "failed to unmarshal credential")
	}
	return &c, nil
}

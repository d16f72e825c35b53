package credentialstatus

import (
	"encoding/json"
)

// StatusListCredentialResponse is the envelope some status endpoints wrap the
// credential in: {"data": {...credential...}}.
type StatusListCredentialResponse struct {
	Data json.RawMessage `json:"data"`
}

// unwrapResponse returns the credential document, unwrapping the data
// envelope when present.
func unwrapResponse(body []byte) []byte {
	var envelope StatusListCredentialResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if len(envelope.Data) == 0 || envelope.Data[0] != '{' {
		return body
	}
	return envelope.Data
}

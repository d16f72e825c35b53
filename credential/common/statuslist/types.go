package statuslist

import (
	"encoding/json"
	"fmt"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/jsonmap"
)

// StatusPurpose is the role of the entries in a list. Values other than the
// constants below are extensions and are carried through unchanged.
type StatusPurpose string

const (
	PurposeRevocation StatusPurpose = "revocation"
	PurposeSuspension StatusPurpose = "suspension"
	PurposeMessage    StatusPurpose = "message"
)

const (
	TypeBitstringStatusList           = "BitstringStatusList"
	TypeBitstringStatusListEntry      = "BitstringStatusListEntry"
	TypeBitstringStatusListCredential = "BitstringStatusListCredential"
	TypeVerifiableCredential          = "VerifiableCredential"

	ContextCredentialsV2 = "https://www.w3.org/ns/credentials/v2"
	ContextStatusListV1  = "https://www.w3.org/ns/credentials/status/v1"
)

// StatusMessage labels one status value of a "message" list.
type StatusMessage struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// CredentialSubject is the credentialSubject of a status list credential.
type CredentialSubject struct {
	ID              string          `json:"id,omitempty"`
	Type            string          `json:"type"`
	StatusPurpose   StatusPurpose   `json:"statusPurpose"`
	EncodedList     string          `json:"encodedList"`
	StatusSize      int             `json:"statusSize,omitempty"`
	StatusMessages  []StatusMessage `json:"statusMessages,omitempty"`
	StatusReference string          `json:"statusReference,omitempty"`
	TTL             *int64          `json:"ttl,omitempty"`
}

// EffectiveStatusSize returns StatusSize, or 1 when the field is absent.
func (s CredentialSubject) EffectiveStatusSize() int {
	if s.StatusSize == 0 {
		return 1
	}
	return s.StatusSize
}

// Credential is a BitstringStatusListCredential document. EncodedList is a
// copy of a StatusList taken at the last SyncEncodedList; it does not track
// later mutation of the list.
type Credential struct {
	Context           []interface{}     `json:"@context"`
	ID                string            `json:"id,omitempty"`
	Type              []string          `json:"type"`
	Issuer            interface{}       `json:"issuer"`
	ValidFrom         string            `json:"validFrom,omitempty"`
	ValidUntil        string            `json:"validUntil,omitempty"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
}

// List decodes the embedded encodedList using the subject's status size.
func (c *Credential) List(opts ...ListOpt) (*StatusList, error) {
	opts = append([]ListOpt{WithStatusSize(c.CredentialSubject.EffectiveStatusSize())}, opts...)
	return FromEncoded(c.CredentialSubject.EncodedList, opts...)
}

// Clone returns a copy that shares no slices with c.
func (c *Credential) Clone() *Credential {
	out := *c
	out.Context = append([]interface{}(nil), c.Context...)
	out.Type = append([]string(nil), c.Type...)
	out.CredentialSubject.StatusMessages = append([]StatusMessage(nil), c.CredentialSubject.StatusMessages...)
	if c.CredentialSubject.TTL != nil {
		ttl := *c.CredentialSubject.TTL
		out.CredentialSubject.TTL = &ttl
	}
	return &out
}

// ToJSONMap converts the credential into a generic JSON object.
func (c *Credential) ToJSONMap() (jsonmap.JSONMap, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credential: %w", err)
	}

	var m jsonmap.JSONMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return m, nil
}

// Canonical returns the RFC 8785 canonical JSON form of the credential.
func (c *Credential) Canonical() ([]byte, error) {
	m, err := c.ToJSONMap()
	if err != nil {
		return nil, err
	}
	return m.Canonical()
}

// BitstringStatusListEntry is the credentialStatus entry of a credential that
// references a position in a status list.
type BitstringStatusListEntry struct {
	ID                   string          `json:"id,omitempty"`
	Type                 string          `json:"type"`
	StatusPurpose        StatusPurpose   `json:"statusPurpose"`
	StatusListIndex      string          `json:"statusListIndex"`
	StatusListCredential string          `json:"statusListCredential"`
	StatusSize           int             `json:"statusSize,omitempty"`
	StatusMessages       []StatusMessage `json:"statusMessage,omitempty"`
	StatusReference      string          `json:"statusReference,omitempty"`
}

// Validate checks the fields a verifier needs before fetching the list.
func (e BitstringStatusListEntry) Validate() error {
	if e.Type != TypeBitstringStatusListEntry {
		return NewError(CodeMalformedValue, "credentialStatus type must be %s, got %q", TypeBitstringStatusListEntry, e.Type)
	}
	if e.StatusPurpose == "" {
		return NewError(CodeMalformedValue, "credentialStatus statusPurpose is required")
	}
	if e.StatusListCredential == "" {
		return NewError(CodeMalformedValue, "credentialStatus statusListCredential is required")
	}
	if e.StatusSize < 0 {
		return NewError(CodeMalformedValue, "credentialStatus statusSize must be a positive integer")
	}
	_, err := ParseStatusListIndex(e.StatusListIndex)
	return err
}

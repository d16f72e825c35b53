package statuslist

import (
	"math/bits"
	"time"
)

// CreateOptions describes a new status list credential. Zero values mean
// "not supplied", except for StatusSize where only nil does.
type CreateOptions struct {
	Issuer        interface{}
	StatusPurpose StatusPurpose

	ID       string
	ListID   string
	Contexts []interface{}
	Types    []string

	ValidFrom  time.Time
	ValidUntil time.Time

	// StatusSize is inferred from StatusPurpose and StatusMessages when nil.
	// A supplied value must be between 1 and MaxStatusSize.
	StatusSize      *int
	StatusMessages  []StatusMessage
	StatusReference string
	TTL             *int64

	EntryCount        int
	MinimumEntries    int
	DefaultEntryValue int
}

// CreateStatusListCredential builds a status list and the credential that
// carries its initial encoding.
func CreateStatusListCredential(opts CreateOptions) (*Credential, *StatusList, error) {
	if opts.Issuer == nil || opts.Issuer == "" {
		return nil, nil, NewError(CodeMalformedValue, "issuer is required")
	}
	if opts.StatusPurpose == "" {
		return nil, nil, NewError(CodeMalformedValue, "statusPurpose is required")
	}
	if !opts.ValidFrom.IsZero() && !opts.ValidUntil.IsZero() && opts.ValidUntil.Before(opts.ValidFrom) {
		return nil, nil, NewError(CodeMalformedValue, "validUntil must not be before validFrom")
	}

	statusSize, err := inferStatusSize(opts.StatusPurpose, opts.StatusSize, opts.StatusMessages)
	if err != nil {
		return nil, nil, err
	}

	listOpts := []ListOpt{WithStatusSize(statusSize), WithEntryCount(opts.EntryCount)}
	if opts.MinimumEntries != 0 {
		listOpts = append(listOpts, WithMinimumEntries(opts.MinimumEntries))
	}
	list, err := NewStatusList(listOpts...)
	if err != nil {
		return nil, nil, err
	}

	if opts.DefaultEntryValue != 0 {
		if err := list.Fill(opts.DefaultEntryValue); err != nil {
			return nil, nil, err
		}
	}

	encodedList, err := list.Encode()
	if err != nil {
		return nil, nil, err
	}

	subject := CredentialSubject{
		ID:              opts.ListID,
		Type:            TypeBitstringStatusList,
		StatusPurpose:   opts.StatusPurpose,
		EncodedList:     encodedList,
		StatusReference: opts.StatusReference,
		TTL:             opts.TTL,
	}
	if statusSize != 1 || opts.StatusPurpose == PurposeMessage {
		subject.StatusSize = statusSize
	}
	if len(opts.StatusMessages) > 0 {
		subject.StatusMessages = append([]StatusMessage(nil), opts.StatusMessages...)
	}

	credential := &Credential{
		Context:           opts.Contexts,
		ID:                opts.ID,
		Type:              opts.Types,
		Issuer:            opts.Issuer,
		CredentialSubject: subject,
	}
	if credential.Context == nil {
		credential.Context = []interface{}{ContextCredentialsV2, ContextStatusListV1}
	}
	if credential.Type == nil {
		credential.Type = []string{TypeVerifiableCredential, TypeBitstringStatusListCredential}
	}
	if !opts.ValidFrom.IsZero() {
		credential.ValidFrom = opts.ValidFrom.UTC().Format(time.RFC3339)
	}
	if !opts.ValidUntil.IsZero() {
		credential.ValidUntil = opts.ValidUntil.UTC().Format(time.RFC3339)
	}

	return credential, list, nil
}

// SyncEncodedList re-encodes list into credential. Mutations of list are not
// visible in credential until this is called.
func SyncEncodedList(credential *Credential, list *StatusList) error {
	if credential == nil || list == nil {
		return NewError(CodeMalformedValue, "credential and list are required")
	}

	encoded, err := list.Encode()
	if err != nil {
		return err
	}
	credential.CredentialSubject.EncodedList = encoded
	return nil
}

// InferStatusSize returns the entry width needed to hold every identifier in
// messages: ceil(log2(max+1)), at least 1.
func InferStatusSize(messages []StatusMessage) (int, error) {
	if len(messages) == 0 {
		return 0, NewError(CodeMalformedValue, `statusMessages are required when statusPurpose is "message"`)
	}

	maxValue := 0
	for _, m := range messages {
		v, err := ParseStatusIdentifier(m.Status)
		if err != nil {
			return 0, err
		}
		maxValue = max(maxValue, v)
	}

	size := max(1, bits.Len(uint(maxValue)))
	if size > MaxStatusSize {
		return 0, NewError(CodeMalformedValue, "status message identifier %d needs %d bits, more than %d", maxValue, size, MaxStatusSize)
	}
	return size, nil
}

func inferStatusSize(purpose StatusPurpose, explicit *int, messages []StatusMessage) (int, error) {
	if explicit != nil {
		if *explicit < 1 || *explicit > MaxStatusSize {
			return 0, NewError(CodeMalformedValue, "statusSize must be an integer between 1 and %d, got %d", MaxStatusSize, *explicit)
		}
		return *explicit, nil
	}
	if purpose != PurposeMessage {
		return 1, nil
	}
	return InferStatusSize(messages)
}

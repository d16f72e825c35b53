package statuslist

// EvaluateOptions describes a status lookup against an encoded list.
type EvaluateOptions struct {
	EncodedList string
	// StatusListIndex is an integer or a decimal numeral string.
	StatusListIndex interface{}
	StatusPurpose   StatusPurpose
	// StatusSize defaults to 1.
	StatusSize     int
	StatusMessages []StatusMessage
	MinimumEntries int
	// EntryCount limits the decoded list to its first EntryCount entries.
	// Zero addresses every whole entry the bitstring holds.
	EntryCount int
}

// StatusEvaluation is the result of reading one entry.
type StatusEvaluation struct {
	Status  int           `json:"status"`
	Valid   bool          `json:"valid"`
	Purpose StatusPurpose `json:"purpose"`
	Message string        `json:"message,omitempty"`
}

// EvaluateStatus decodes its own copy of the list and reads one entry from it.
func EvaluateStatus(opts EvaluateOptions) (*StatusEvaluation, error) {
	index, err := normalizeIndex(opts.StatusListIndex)
	if err != nil {
		return nil, err
	}

	statusSize := opts.StatusSize
	if statusSize == 0 {
		statusSize = 1
	}
	listOpts := []ListOpt{WithStatusSize(statusSize)}
	if opts.MinimumEntries != 0 {
		listOpts = append(listOpts, WithMinimumEntries(opts.MinimumEntries))
	}
	if opts.EntryCount != 0 {
		listOpts = append(listOpts, WithEntryCount(opts.EntryCount))
	}

	list, err := FromEncoded(opts.EncodedList, listOpts...)
	if err != nil {
		return nil, err
	}

	return Evaluate(list, index, opts.StatusPurpose, opts.StatusMessages)
}

// Evaluate reads the entry at index of an already decoded list. It does not
// modify list.
func Evaluate(list *StatusList, index int, purpose StatusPurpose, messages []StatusMessage) (*StatusEvaluation, error) {
	if list == nil {
		return nil, NewError(CodeMalformedValue, "status list is required")
	}

	status, err := list.GetEntry(index)
	if err != nil {
		return nil, err
	}

	evaluation := &StatusEvaluation{
		Status:  status,
		Valid:   status == 0,
		Purpose: purpose,
	}
	if purpose == PurposeMessage && len(messages) > 0 {
		evaluation.Message, _ = LookupStatusMessage(status, messages)
	}
	return evaluation, nil
}

// LookupStatusMessage returns the label of the first catalog entry whose
// identifier equals status. Entries with unparsable identifiers are skipped.
func LookupStatusMessage(status int, messages []StatusMessage) (string, bool) {
	for _, m := range messages {
		v, err := ParseStatusIdentifier(m.Status)
		if err != nil {
			continue
		}
		if v == status {
			return m.Message, true
		}
	}
	return "", false
}

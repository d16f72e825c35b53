package statuslist

// StatusUpdate sets the entry at Index to Value.
type StatusUpdate struct {
	Index int `json:"index"`
	Value int `json:"value"`
}

// ApplyStatusUpdates applies updates in order and stops at the first one that
// fails. Updates before the failing one stay applied.
func ApplyStatusUpdates(list *StatusList, updates []StatusUpdate) error {
	if list == nil {
		return NewError(CodeMalformedValue, "status list is required")
	}

	for _, u := range updates {
		if err := list.SetEntry(u.Index, u.Value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStatusUpdates checks every update against list without applying any.
func ValidateStatusUpdates(list *StatusList, updates []StatusUpdate) error {
	if list == nil {
		return NewError(CodeMalformedValue, "status list is required")
	}

	for _, u := range updates {
		if err := list.checkIndex(u.Index); err != nil {
			return err
		}
		if err := list.checkValue(u.Value); err != nil {
			return err
		}
	}
	return nil
}

// ApplyStatusUpdatesAtomic applies all updates or, if any is invalid, none.
func ApplyStatusUpdatesAtomic(list *StatusList, updates []StatusUpdate) error {
	if err := ValidateStatusUpdates(list, updates); err != nil {
		return err
	}
	for _, u := range updates {
		list.setEntry(u.Index, u.Value)
	}
	return nil
}

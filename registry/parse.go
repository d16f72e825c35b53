package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/statuslist"
)

type updateRequest struct {
	Updates *[]updateItem `json:"updates"`
}

type updateItem struct {
	Index *int `json:"index"`
	Value *int `json:"value"`
}

// ParseUpdates decodes an update request body of the form
// {"updates":[{"index":N,"value":V},...]}. Unknown fields, missing fields and
// non-integer numbers are rejected with a MALFORMED_VALUE error.
func ParseUpdates(body []byte) ([]statuslist.StatusUpdate, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var req updateRequest
	if err := dec.Decode(&req); err != nil {
		return nil, statuslist.WrapError(err, statuslist.CodeMalformedValue, "failed to decode update request")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, statuslist.NewError(statuslist.CodeMalformedValue, "update request has trailing data")
	}
	if req.Updates == nil {
		return nil, statuslist.NewError(statuslist.CodeMalformedValue, "updates must be an array")
	}

	updates := make([]statuslist.StatusUpdate, 0, len(*req.Updates))
	for i, item := range *req.Updates {
		if item.Index == nil || item.Value == nil {
			return nil, statuslist.NewError(statuslist.CodeMalformedValue,
				"update %d must be an object with index and value", i)
		}
		updates = append(updates, statuslist.StatusUpdate{Index: *item.Index, Value: *item.Value})
	}
	return updates, nil
}

// ParseUpdateArg parses the "index=value" form used on the command line.
func ParseUpdateArg(arg string) (statuslist.StatusUpdate, error) {
	indexPart, valuePart, ok := strings.Cut(arg, "=")
	if !ok {
		return statuslist.StatusUpdate{}, statuslist.NewError(statuslist.CodeMalformedValue,
			"update %q must have the form index=value", arg)
	}

	index, err := strconv.Atoi(strings.TrimSpace(indexPart))
	if err != nil {
		return statuslist.StatusUpdate{}, statuslist.WrapError(err, statuslist.CodeMalformedValue,
			fmt.Sprintf("update %q has an invalid index", arg))
	}
	value, err := strconv.Atoi(strings.TrimSpace(valuePart))
	if err != nil {
		return statuslist.StatusUpdate{}, statuslist.WrapError(err, statuslist.CodeMalformedValue,
			fmt.Sprintf("update %q has an invalid value", arg))
	}
	return statuslist.StatusUpdate{Index: index, Value: value}, nil
}

package statuslist

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// ParseStatusIdentifier parses a status message identifier: a decimal
// numeral, or a hexadecimal numeral prefixed with 0x or 0X.
func ParseStatusIdentifier(value string) (int, error) {
	if value == "" {
		return 0, NewError(CodeMalformedValue, "status message identifier is required")
	}

	digits, base := value, 10
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		digits, base = value[2:], 16
	}
	if digits == "" || digits[0] == '+' || digits[0] == '-' {
		return 0, NewError(CodeMalformedValue, "unrecognized status message identifier: %s", value)
	}

	n, err := strconv.ParseUint(digits, base, 63)
	if err != nil {
		return 0, WrapError(err, CodeMalformedValue, "unrecognized status message identifier: "+value)
	}
	return int(n), nil
}

// ParseStatusListIndex parses a decimal statusListIndex such as the string
// carried by a BitstringStatusListEntry.
func ParseStatusListIndex(value string) (int, error) {
	if value == "" {
		return 0, NewError(CodeMalformedValue, "statusListIndex is required")
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, NewError(CodeMalformedValue, "statusListIndex must be a non-negative integer string, got %q", value)
		}
	}

	n, err := strconv.ParseUint(value, 10, 63)
	if err != nil {
		return 0, WrapError(err, CodeMalformedValue, "statusListIndex is out of range")
	}
	return int(n), nil
}

// IndexFromInteger validates an integer statusListIndex.
func IndexFromInteger[T constraints.Integer](value T) (int, error) {
	if value < 0 {
		return 0, NewError(CodeMalformedValue, "statusListIndex must be a non-negative integer")
	}
	if uint64(value) > math.MaxInt {
		return 0, NewError(CodeMalformedValue, "statusListIndex is out of range")
	}
	return int(value), nil
}

// normalizeIndex accepts the integer and numeral string forms a
// statusListIndex arrives in.
func normalizeIndex(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return IndexFromInteger(v)
	case int8:
		return IndexFromInteger(v)
	case int16:
		return IndexFromInteger(v)
	case int32:
		return IndexFromInteger(v)
	case int64:
		return IndexFromInteger(v)
	case uint:
		return IndexFromInteger(v)
	case uint8:
		return IndexFromInteger(v)
	case uint16:
		return IndexFromInteger(v)
	case uint32:
		return IndexFromInteger(v)
	case uint64:
		return IndexFromInteger(v)
	case string:
		return ParseStatusListIndex(v)
	case float64:
		// encoding/json decodes numbers into float64.
		if v != float64(int64(v)) {
			return 0, NewError(CodeMalformedValue, "statusListIndex must be an integer, got %v", v)
		}
		return IndexFromInteger(int64(v))
	case nil:
		return 0, NewError(CodeMalformedValue, "statusListIndex is required")
	default:
		return 0, NewError(CodeMalformedValue, "statusListIndex has unsupported type %T", value)
	}
}

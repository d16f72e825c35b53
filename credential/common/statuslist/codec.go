package statuslist

import (
	"errors"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/util"
)

const (
	// MultibaseBase64URLPrefix marks an unpadded base64url multibase value.
	MultibaseBase64URLPrefix = 'u'

	// MinUncompressedByteLength is the smallest uncompressed bitstring, 16KB.
	// It bounds the anonymity set of a list regardless of how well it compresses.
	MinUncompressedByteLength = 16 * 1024

	// MaxUncompressedByteLength caps a decoded bitstring at 16MiB, room for
	// 134,217,728 single-bit entries. Tokens that inflate past it are rejected
	// before the excess is read.
	MaxUncompressedByteLength = 16 << 20
)

// EncodeBitstring compresses an uncompressed bitstring and returns it as a
// multibase base64url token.
func EncodeBitstring(uncompressed []byte) (string, error) {
	if len(uncompressed) < MinUncompressedByteLength {
		return "", NewError(CodeStatusListLength,
			"bitstring must be at least %d bytes (16KB) before compression, got %d", MinUncompressedByteLength, len(uncompressed))
	}

	encoded, err := util.CompressToBase64URL(uncompressed)
	if err != nil {
		return "", WrapError(err, CodeMalformedValue, "failed to compress bitstring")
	}

	return string(MultibaseBase64URLPrefix) + encoded, nil
}

// DecodeBitstring reverses EncodeBitstring. It rejects payloads that inflate
// past MaxUncompressedByteLength but does not enforce the length floor;
// StatusList construction does.
func DecodeBitstring(encoded string) ([]byte, error) {
	if encoded == "" || encoded[0] != MultibaseBase64URLPrefix {
		return nil, NewError(CodeMalformedValue, `encoded list must be multibase base64url prefixed with "u"`)
	}

	uncompressed, err := util.DecompressFromBase64URL(encoded[1:], MaxUncompressedByteLength)
	if errors.Is(err, util.ErrTooLarge) {
		return nil, WrapError(err, CodeStatusListLength,
			"decoded bitstring exceeds the 16MiB maximum")
	}
	if err != nil {
		return nil, WrapError(err, CodeMalformedValue, "failed to decode encodedList payload")
	}

	return uncompressed, nil
}

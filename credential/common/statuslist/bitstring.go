package statuslist

import (
	"math"
)

const (
	// MinimumEntryCount is the default floor on the number of entries in a list.
	MinimumEntryCount = 131072

	// MaxStatusSize is the widest entry supported, in bits.
	MaxStatusSize = 32
)

// StatusList is an uncompressed bitstring of fixed-width status entries.
// Entries are packed most significant bit first in index order.
//
// A StatusList owns its buffer. It is not safe for concurrent mutation.
type StatusList struct {
	statusSize int
	entryCount int
	bytes      []byte
}

// ListOpt configures StatusList construction and decoding.
type ListOpt func(*listOptions)

type listOptions struct {
	entryCount     int
	statusSize     int
	minimumEntries int
	source         []byte
	hasSource      bool
}

// WithEntryCount sets the number of addressable entries. For a fresh list
// values below the minimum are raised to it; for a decoded list the count
// must fit the decoded capacity.
func WithEntryCount(n int) ListOpt {
	return func(o *listOptions) {
		o.entryCount = n
	}
}

// WithStatusSize sets the number of bits per entry (default 1).
func WithStatusSize(size int) ListOpt {
	return func(o *listOptions) {
		o.statusSize = size
	}
}

// WithMinimumEntries overrides MinimumEntryCount.
func WithMinimumEntries(n int) ListOpt {
	return func(o *listOptions) {
		o.minimumEntries = n
	}
}

// WithSource builds the list over a copy of an existing uncompressed bitstring.
func WithSource(b []byte) ListOpt {
	return func(o *listOptions) {
		o.source = b
		o.hasSource = true
	}
}

// NewStatusList creates a zero-filled list, or one backed by a copy of the
// WithSource bitstring.
func NewStatusList(opts ...ListOpt) (*StatusList, error) {
	o := &listOptions{
		statusSize:     1,
		minimumEntries: MinimumEntryCount,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.minimumEntries < 1 {
		return nil, NewError(CodeMalformedValue, "minimumEntries must be a positive integer")
	}
	if o.statusSize < 1 || o.statusSize > MaxStatusSize {
		return nil, NewError(CodeMalformedValue, "statusSize must be an integer between 1 and %d", MaxStatusSize)
	}
	if o.entryCount < 0 {
		return nil, NewError(CodeMalformedValue, "entryCount must be a positive integer")
	}

	if o.hasSource {
		return newFromSource(o)
	}

	entryCount := max(o.entryCount, o.minimumEntries)
	if entryCount > math.MaxInt/o.statusSize {
		return nil, NewError(CodeRange, "entryCount %d is too large for statusSize %d", entryCount, o.statusSize)
	}

	byteLength := (entryCount*o.statusSize + 7) / 8
	if byteLength > MaxUncompressedByteLength {
		return nil, NewError(CodeRange, "%d entries of %d bits exceed the %d byte maximum", entryCount, o.statusSize, MaxUncompressedByteLength)
	}
	return &StatusList{
		statusSize: o.statusSize,
		entryCount: entryCount,
		bytes:      make([]byte, max(byteLength, MinUncompressedByteLength)),
	}, nil
}

func newFromSource(o *listOptions) (*StatusList, error) {
	if len(o.source) < MinUncompressedByteLength {
		return nil, NewError(CodeStatusListLength,
			"decoded bitstring is %d bytes, shorter than the 16KB minimum", len(o.source))
	}
	if len(o.source) > MaxUncompressedByteLength {
		return nil, NewError(CodeStatusListLength,
			"bitstring is %d bytes, longer than the %d byte maximum", len(o.source), MaxUncompressedByteLength)
	}

	capacity := len(o.source) * 8 / o.statusSize
	if capacity < o.minimumEntries {
		return nil, NewError(CodeStatusListLength,
			"bitstring capacity (%d) is smaller than the minimum required entries (%d)", capacity, o.minimumEntries)
	}

	entryCount := capacity
	if o.entryCount > 0 {
		if o.entryCount > capacity {
			return nil, NewError(CodeStatusListLength,
				"entryCount (%d) exceeds bitstring capacity (%d)", o.entryCount, capacity)
		}
		entryCount = o.entryCount
	}

	buf := make([]byte, len(o.source))
	copy(buf, o.source)

	return &StatusList{
		statusSize: o.statusSize,
		entryCount: entryCount,
		bytes:      buf,
	}, nil
}

// FromEncoded decodes a multibase token into a new StatusList.
func FromEncoded(encoded string, opts ...ListOpt) (*StatusList, error) {
	raw, err := DecodeBitstring(encoded)
	if err != nil {
		return nil, err
	}
	return NewStatusList(append(opts, WithSource(raw))...)
}

// Encode returns the multibase token for the current state of the list.
func (l *StatusList) Encode() (string, error) {
	return EncodeBitstring(l.bytes)
}

func (l *StatusList) StatusSize() int {
	return l.statusSize
}

func (l *StatusList) EntryCount() int {
	return l.entryCount
}

// BitLength is the size of the underlying buffer in bits.
func (l *StatusList) BitLength() int {
	return len(l.bytes) * 8
}

// MaxValue is the largest value an entry can hold.
func (l *StatusList) MaxValue() int {
	return 1<<l.statusSize - 1
}

// Bytes returns a copy of the uncompressed bitstring.
func (l *StatusList) Bytes() []byte {
	buf := make([]byte, len(l.bytes))
	copy(buf, l.bytes)
	return buf
}

// Clone returns an independent copy of the list.
func (l *StatusList) Clone() *StatusList {
	return &StatusList{
		statusSize: l.statusSize,
		entryCount: l.entryCount,
		bytes:      l.Bytes(),
	}
}

// GetEntry returns the value stored at index.
func (l *StatusList) GetEntry(index int) (int, error) {
	if err := l.checkIndex(index); err != nil {
		return 0, err
	}
	return l.entry(index), nil
}

// SetEntry stores value at index.
func (l *StatusList) SetEntry(index, value int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	if err := l.checkValue(value); err != nil {
		return err
	}
	l.setEntry(index, value)
	return nil
}

// Fill sets every entry to value.
func (l *StatusList) Fill(value int) error {
	if err := l.checkValue(value); err != nil {
		return err
	}
	for i := 0; i < l.entryCount; i++ {
		l.setEntry(i, value)
	}
	return nil
}

// Entries returns up to count consecutive entries starting at start. The
// window is clipped to the end of the list.
func (l *StatusList) Entries(start, count int) ([]int, error) {
	if count < 0 {
		return nil, NewError(CodeMalformedValue, "count must be a non-negative integer")
	}
	if err := l.checkIndex(start); err != nil {
		return nil, err
	}

	end := start + min(count, l.entryCount-start)
	values := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		values = append(values, l.entry(i))
	}
	return values, nil
}

// Flagged returns the number of non-zero entries and up to limit of their
// indices in ascending order.
func (l *StatusList) Flagged(limit int) (int, []int) {
	var (
		count   int
		samples []int
	)
	// Zero bytes are skipped whole when entries never straddle a byte.
	perByte := 0
	if 8%l.statusSize == 0 {
		perByte = 8 / l.statusSize
	}
	for i := 0; i < l.entryCount; {
		if perByte > 0 && i%perByte == 0 && i+perByte <= l.entryCount && l.bytes[i*l.statusSize/8] == 0 {
			i += perByte
			continue
		}
		if l.entry(i) != 0 {
			count++
			if len(samples) < limit {
				samples = append(samples, i)
			}
		}
		i++
	}
	return count, samples
}

func (l *StatusList) checkIndex(index int) error {
	if index < 0 || index >= l.entryCount {
		return NewError(CodeRange, "index %d is outside of range 0-%d", index, l.entryCount-1)
	}
	return nil
}

func (l *StatusList) checkValue(value int) error {
	if value < 0 {
		return NewError(CodeMalformedValue, "status value must be a non-negative integer")
	}
	if value > l.MaxValue() {
		return NewError(CodeRange, "status value %d exceeds maximum encodable value %d", value, l.MaxValue())
	}
	return nil
}

func (l *StatusList) entry(index int) int {
	value := 0
	base := index * l.statusSize
	for offset := 0; offset < l.statusSize; offset++ {
		value = value<<1 | l.bit(base+offset)
	}
	return value
}

func (l *StatusList) setEntry(index, value int) {
	base := index * l.statusSize
	for offset := 0; offset < l.statusSize; offset++ {
		shift := l.statusSize - offset - 1
		l.setBit(base+offset, (value>>shift)&1 == 1)
	}
}

func (l *StatusList) bit(pos int) int {
	mask := byte(1) << (7 - pos%8)
	if l.bytes[pos/8]&mask != 0 {
		return 1
	}
	return 0
}

func (l *StatusList) setBit(pos int, on bool) {
	mask := byte(1) << (7 - pos%8)
	if on {
		l.bytes[pos/8] |= mask
	} else {
		l.bytes[pos/8] &^= mask
	}
}

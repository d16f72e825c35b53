package statuslist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revocationIndex = 42424

func TestNewStatusListDefaults(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)

	assert.Equal(t, MinimumEntryCount, list.EntryCount())
	assert.Equal(t, 1, list.StatusSize())
	assert.Equal(t, MinUncompressedByteLength*8, list.BitLength())
	assert.Equal(t, 1, list.MaxValue())
}

func TestNewStatusListCapacity(t *testing.T) {
	tests := []struct {
		name          string
		opts          []ListOpt
		wantEntries   int
		wantByteLen   int
		wantErrorCode Code
	}{
		{
			name:        "entry count below minimum is raised",
			opts:        []ListOpt{WithEntryCount(10)},
			wantEntries: MinimumEntryCount,
			wantByteLen: MinUncompressedByteLength,
		},
		{
			name:        "entry count above minimum grows the buffer",
			opts:        []ListOpt{WithEntryCount(200000)},
			wantEntries: 200000,
			wantByteLen: 25000,
		},
		{
			name:        "multi-bit entries",
			opts:        []ListOpt{WithStatusSize(3)},
			wantEntries: MinimumEntryCount,
			wantByteLen: MinimumEntryCount * 3 / 8,
		},
		{
			name:        "small minimum keeps the 16KB floor",
			opts:        []ListOpt{WithMinimumEntries(8), WithStatusSize(2)},
			wantEntries: 8,
			wantByteLen: MinUncompressedByteLength,
		},
		{
			name:          "zero status size",
			opts:          []ListOpt{WithStatusSize(0)},
			wantErrorCode: CodeMalformedValue,
		},
		{
			name:          "status size too wide",
			opts:          []ListOpt{WithStatusSize(MaxStatusSize + 1)},
			wantErrorCode: CodeMalformedValue,
		},
		{
			name:          "non-positive minimum",
			opts:          []ListOpt{WithMinimumEntries(-1)},
			wantErrorCode: CodeMalformedValue,
		},
		{
			name:          "entry count past the maximum size",
			opts:          []ListOpt{WithEntryCount(MaxUncompressedByteLength*8 + 1)},
			wantErrorCode: CodeRange,
		},
		{
			name:          "negative entry count",
			opts:          []ListOpt{WithEntryCount(-5)},
			wantErrorCode: CodeMalformedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := NewStatusList(tt.opts...)
			if tt.wantErrorCode != "" {
				require.Error(t, err)
				assert.True(t, HasCode(err, tt.wantErrorCode), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEntries, list.EntryCount())
			assert.Equal(t, tt.wantByteLen*8, list.BitLength())
			assert.LessOrEqual(t, list.EntryCount()*list.StatusSize(), list.BitLength())
			assert.GreaterOrEqual(t, list.BitLength(), MinUncompressedByteLength*8)
		})
	}
}

func TestNewStatusListFromSource(t *testing.T) {
	t.Run("copies the source", func(t *testing.T) {
		source := make([]byte, MinUncompressedByteLength)
		list, err := NewStatusList(WithSource(source))
		require.NoError(t, err)

		source[0] = 0xff
		v, err := list.GetEntry(0)
		require.NoError(t, err)
		assert.Equal(t, 0, v)
	})

	t.Run("capacity becomes the entry count", func(t *testing.T) {
		list, err := NewStatusList(WithSource(make([]byte, MinUncompressedByteLength)), WithStatusSize(2), WithMinimumEntries(1000))
		require.NoError(t, err)
		assert.Equal(t, MinUncompressedByteLength*8/2, list.EntryCount())
	})

	t.Run("explicit entry count within capacity", func(t *testing.T) {
		list, err := NewStatusList(WithSource(make([]byte, MinUncompressedByteLength)), WithEntryCount(MinimumEntryCount))
		require.NoError(t, err)
		assert.Equal(t, MinimumEntryCount, list.EntryCount())
	})

	tests := []struct {
		name string
		opts []ListOpt
	}{
		{
			name: "shorter than 16KB",
			opts: []ListOpt{WithSource(make([]byte, MinUncompressedByteLength-1)), WithMinimumEntries(1)},
		},
		{
			name: "capacity below minimum entries",
			opts: []ListOpt{WithSource(make([]byte, MinUncompressedByteLength)), WithStatusSize(2)},
		},
		{
			name: "entry count beyond capacity",
			opts: []ListOpt{WithSource(make([]byte, MinUncompressedByteLength)), WithEntryCount(MinimumEntryCount + 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatusList(tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStatusListLength), "got %v", err)
		})
	}
}

func TestEntryRoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5, 8, 12} {
		list, err := NewStatusList(WithStatusSize(size))
		require.NoError(t, err)

		indices := []int{0, 1, 7, 8, revocationIndex, list.EntryCount() - 1}
		for _, index := range indices {
			for _, value := range []int{0, 1, list.MaxValue(), list.MaxValue() / 2} {
				require.NoError(t, list.SetEntry(index, value))

				got, err := list.GetEntry(index)
				require.NoError(t, err)
				assert.Equal(t, value, got, "size=%d index=%d", size, index)
			}
			require.NoError(t, list.SetEntry(index, 0))
		}

		count, _ := list.Flagged(0)
		assert.Zero(t, count, "size=%d: other entries must be unchanged", size)
	}
}

func TestSetEntryLeavesNeighboursUntouched(t *testing.T) {
	list, err := NewStatusList(WithStatusSize(3))
	require.NoError(t, err)

	require.NoError(t, list.SetEntry(9, 7))
	require.NoError(t, list.SetEntry(10, 5))
	require.NoError(t, list.SetEntry(11, 7))
	require.NoError(t, list.SetEntry(10, 2))

	values, err := list.Entries(8, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 7, 2, 7, 0}, values)
}

func TestMSBFirstPacking(t *testing.T) {
	list, err := NewStatusList(WithStatusSize(2))
	require.NoError(t, err)

	require.NoError(t, list.SetEntry(0, 2))
	require.NoError(t, list.SetEntry(3, 1))

	// entry 0 -> bits 10, entry 3 -> bits 01: 1000 0001
	assert.Equal(t, byte(0x81), list.Bytes()[0])

	single, err := NewStatusList()
	require.NoError(t, err)
	require.NoError(t, single.SetEntry(0, 1))
	assert.Equal(t, byte(0x80), single.Bytes()[0])
}

func TestSetEntryBounds(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)

	tests := []struct {
		name  string
		index int
		value int
		code  Code
	}{
		{name: "negative index", index: -1, value: 1, code: CodeRange},
		{name: "index equal to entry count", index: list.EntryCount(), value: 1, code: CodeRange},
		{name: "value too wide", index: 0, value: 2, code: CodeRange},
		{name: "negative value", index: 0, value: -1, code: CodeMalformedValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := list.SetEntry(tt.index, tt.value)
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err = list.GetEntry(list.EntryCount())
	assert.True(t, errors.Is(err, ErrRange))
	_, err = list.GetEntry(-1)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestEncodeFromEncodedRoundTrip(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)
	require.NoError(t, list.SetEntry(revocationIndex, 1))

	encoded, err := list.Encode()
	require.NoError(t, err)
	assert.Equal(t, byte('u'), encoded[0])

	decoded, err := FromEncoded(encoded)
	require.NoError(t, err)

	v, err := decoded.GetEntry(revocationIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.GreaterOrEqual(t, decoded.EntryCount(), MinimumEntryCount)
	assert.Equal(t, list.Bytes(), decoded.Bytes())
}

func TestFromEncodedPreservesShape(t *testing.T) {
	list, err := NewStatusList(WithStatusSize(4), WithEntryCount(40000), WithMinimumEntries(40000))
	require.NoError(t, err)
	require.NoError(t, list.SetEntry(39999, 11))

	encoded, err := list.Encode()
	require.NoError(t, err)

	decoded, err := FromEncoded(encoded, WithStatusSize(4), WithEntryCount(40000), WithMinimumEntries(40000))
	require.NoError(t, err)
	assert.Equal(t, 40000, decoded.EntryCount())
	assert.Equal(t, 4, decoded.StatusSize())

	v, err := decoded.GetEntry(39999)
	require.NoError(t, err)
	assert.Equal(t, 11, v)
}

func TestFill(t *testing.T) {
	list, err := NewStatusList(WithStatusSize(2))
	require.NoError(t, err)

	require.NoError(t, list.Fill(3))
	count, samples := list.Flagged(3)
	assert.Equal(t, list.EntryCount(), count)
	assert.Equal(t, []int{0, 1, 2}, samples)

	err = list.Fill(4)
	assert.True(t, HasCode(err, CodeRange))
}

func TestBytesIsACopy(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)

	b := list.Bytes()
	b[0] = 0xff

	v, err := list.GetEntry(0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestClone(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)

	clone := list.Clone()
	require.NoError(t, clone.SetEntry(5, 1))

	v, err := list.GetEntry(5)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestEntries(t *testing.T) {
	list, err := NewStatusList()
	require.NoError(t, err)
	require.NoError(t, list.SetEntry(list.EntryCount()-1, 1))

	values, err := list.Entries(list.EntryCount()-2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, values)

	values, err = list.Entries(0, 0)
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = list.Entries(list.EntryCount(), 1)
	assert.True(t, HasCode(err, CodeRange))

	_, err = list.Entries(0, -1)
	assert.True(t, HasCode(err, CodeMalformedValue))
}

func TestFlagged(t *testing.T) {
	for _, size := range []int{1, 3, 8} {
		list, err := NewStatusList(WithStatusSize(size))
		require.NoError(t, err)

		for _, index := range []int{3, 17, revocationIndex, list.EntryCount() - 1} {
			require.NoError(t, list.SetEntry(index, 1))
		}

		count, samples := list.Flagged(2)
		assert.Equal(t, 4, count, "size=%d", size)
		assert.Equal(t, []int{3, 17}, samples, "size=%d", size)
	}
}

func BenchmarkSetEntry(b *testing.B) {
	list, err := NewStatusList(WithStatusSize(3))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := list.SetEntry(i%list.EntryCount(), i%8); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	list, err := NewStatusList()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := list.Encode(); err != nil {
			b.Fatal(err)
		}
	}
}

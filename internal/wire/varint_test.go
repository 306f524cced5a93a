package wire

import (
	"bytes"
	"math"
	"testing"
)

// uvarintCases mirrors the values the `varint` prelude transform actually
// pushes through this codec: small counts and lengths dominate, with the
// full-width boundary values present to pin down the byte-count edges.
var uvarintCases = []struct {
	name     string
	value    uint64
	expected []byte
}{
	{"zero", 0, []byte{0x00}},
	{"one", 1, []byte{0x01}},
	{"max_1_byte", 127, []byte{0x7f}},
	{"min_2_byte", 128, []byte{0x80, 0x01}},
	{"a_message_length", 300, []byte{0xac, 0x02}},
	{"max_2_byte", 16383, []byte{0xff, 0x7f}},
	{"min_3_byte", 16384, []byte{0x80, 0x80, 0x01}},
	{"max_uint32", math.MaxUint32, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	{"max_uint64", math.MaxUint64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
}

func TestAppendUvarint(t *testing.T) {
	for _, tc := range uvarintCases {
		t.Run(tc.name, func(t *testing.T) {
			got := AppendUvarint(nil, tc.value)
			if !bytes.Equal(got, tc.expected) {
				t.Errorf("AppendUvarint(%d) = %v, want %v", tc.value, got, tc.expected)
			}
		})
	}
}

func TestAppendUvarintExtendsExistingBuffer(t *testing.T) {
	buf := []byte{0xde, 0xad}
	buf = AppendUvarint(buf, 300)

	want := []byte{0xde, 0xad, 0xac, 0x02}
	if !bytes.Equal(buf, want) {
		t.Errorf("AppendUvarint onto prefix = %v, want %v", buf, want)
	}
}

func TestDecodeUvarint(t *testing.T) {
	for _, tc := range uvarintCases {
		t.Run(tc.name, func(t *testing.T) {
			value, n, err := DecodeUvarint(tc.expected)
			if err != nil {
				t.Fatalf("DecodeUvarint(%v) error: %v", tc.expected, err)
			}
			if value != tc.value {
				t.Errorf("DecodeUvarint(%v) value = %d, want %d", tc.expected, value, tc.value)
			}
			if n != len(tc.expected) {
				t.Errorf("DecodeUvarint(%v) n = %d, want %d", tc.expected, n, len(tc.expected))
			}
		})
	}
}

func TestDecodeUvarintLeavesTrailingBytesUnconsumed(t *testing.T) {
	// A field's varint prefix followed by the next field's bytes: decode
	// must report exactly how much it consumed so the caller can advance.
	data := []byte{0xac, 0x02, 0xff, 0xff}
	value, n, err := DecodeUvarint(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 300 {
		t.Errorf("value = %d, want 300", value)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}

func TestDecodeUvarintErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty_buffer", []byte{}, ErrVarintTruncated},
		{"continuation_with_no_next_byte", []byte{0x80}, ErrVarintTruncated},
		{"continuation_two_deep_with_no_next_byte", []byte{0x80, 0x80}, ErrVarintTruncated},
		{"nine_continuation_bytes_no_terminator", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80}, ErrVarintTruncated},
		{"tenth_byte_data_bits_overflow_uint64", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x02}, ErrVarintOverflow},
		{"eleven_bytes_exceeds_max_length", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, ErrVarintTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeUvarint(tc.data)
			if err != tc.want {
				t.Errorf("DecodeUvarint(%v) error = %v, want %v", tc.data, err, tc.want)
			}
		})
	}
}

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 2, 126, 127, 128, 129, 255, 256,
		16382, 16383, 16384, 16385,
		1<<21 - 1, 1 << 21, 1<<21 + 1,
		1<<28 - 1, 1 << 28, 1<<28 + 1,
		1<<35 - 1, 1 << 35, 1<<35 + 1,
		1<<42 - 1, 1 << 42, 1<<42 + 1,
		1<<49 - 1, 1 << 49, 1<<49 + 1,
		1<<56 - 1, 1 << 56, 1<<56 + 1,
		1<<63 - 1, 1 << 63, 1<<63 + 1,
		math.MaxUint64 - 1, math.MaxUint64,
	}

	for _, v := range values {
		encoded := AppendUvarint(nil, v)
		decoded, n, err := DecodeUvarint(encoded)
		if err != nil {
			t.Errorf("round trip failed for %d: %v", v, err)
			continue
		}
		if decoded != v {
			t.Errorf("round trip failed for %d: got %d", v, decoded)
		}
		if n != len(encoded) {
			t.Errorf("round trip for %d: n=%d, len(encoded)=%d", v, n, len(encoded))
		}
	}
}

func BenchmarkAppendUvarintSmall(b *testing.B) {
	buf := make([]byte, 0, MaxVarintLen64)
	for i := 0; i < b.N; i++ {
		buf = AppendUvarint(buf[:0], 127)
	}
}

func BenchmarkAppendUvarintLarge(b *testing.B) {
	buf := make([]byte, 0, MaxVarintLen64)
	for i := 0; i < b.N; i++ {
		buf = AppendUvarint(buf[:0], math.MaxUint64)
	}
}

func BenchmarkDecodeUvarintSmall(b *testing.B) {
	data := []byte{0x7f}
	for i := 0; i < b.N; i++ {
		_, _, _ = DecodeUvarint(data)
	}
}

func BenchmarkDecodeUvarintLarge(b *testing.B) {
	data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	for i := 0; i < b.N; i++ {
		_, _, _ = DecodeUvarint(data)
	}
}

func FuzzUvarintRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(uint64(127))
	f.Add(uint64(128))
	f.Add(uint64(math.MaxUint32))
	f.Add(uint64(math.MaxUint64))

	f.Fuzz(func(t *testing.T, v uint64) {
		encoded := AppendUvarint(nil, v)
		decoded, n, err := DecodeUvarint(encoded)
		if err != nil {
			t.Fatalf("decode error for %d: %v", v, err)
		}
		if decoded != v {
			t.Fatalf("round trip failed: %d -> %v -> %d", v, encoded, decoded)
		}
		if n != len(encoded) {
			t.Fatalf("bytes consumed mismatch: %d vs %d", n, len(encoded))
		}
	})
}

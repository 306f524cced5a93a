package wire

import (
	"encoding/binary"
	"math"
)

// Canonical NaN bit patterns for deterministic encoding.
// We use quiet NaN with no payload (all significand bits zero except the quiet bit).
const (
	// canonicalNaN32 is the canonical 32-bit quiet NaN: 0x7FC00000
	// Sign=0, Exponent=0xFF (all 1s), Quiet bit=1, Significand=0
	canonicalNaN32 = 0x7FC00000

	// canonicalNaN64 is the canonical 64-bit quiet NaN: 0x7FF8000000000000
	// Sign=0, Exponent=0x7FF (all 1s), Quiet bit=1, Significand=0
	canonicalNaN64 = 0x7FF8000000000000
)

// AppendFixed8 appends a single byte. It exists alongside AppendFixed16/32/64
// so every scalar width the schema language declares (i8/u8 through
// i128/u128) has a matching primitive, not just the widths a protobuf-style
// wire format happens to need.
func AppendFixed8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

// DecodeFixed8 decodes a single byte.
func DecodeFixed8(data []byte) (uint8, error) {
	if len(data) < 1 {
		return 0, ErrVarintTruncated
	}
	return data[0], nil
}

// AppendFixed16 appends a 16-bit value in little-endian format.
func AppendFixed16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

// DecodeFixed16 decodes a little-endian 16-bit value.
func DecodeFixed16(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, ErrVarintTruncated
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

// AppendFixed128 appends a 128-bit value as its 16 raw little-endian bytes;
// callers hold these wide scalars as [16]byte rather than a big-integer
// type, so no endian conversion happens here beyond the byte copy.
func AppendFixed128(buf []byte, v [16]byte) []byte {
	return append(buf, v[:]...)
}

// DecodeFixed128 decodes a 128-bit value from its 16 raw bytes.
func DecodeFixed128(data []byte) ([16]byte, error) {
	var v [16]byte
	if len(data) < 16 {
		return v, ErrVarintTruncated
	}
	copy(v[:], data[:16])
	return v, nil
}

// AppendFixed32 appends a 32-bit value in little-endian format.
func AppendFixed32(buf []byte, v uint32) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
	)
}

// AppendFixed64 appends a 64-bit value in little-endian format.
func AppendFixed64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// DecodeFixed32 decodes a little-endian 32-bit value.
// Returns the value and an error if the input is too short.
func DecodeFixed32(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, ErrVarintTruncated // Reuse error, conceptually "data truncated"
	}
	return binary.LittleEndian.Uint32(data), nil
}

// DecodeFixed64 decodes a little-endian 64-bit value.
// Returns the value and an error if the input is too short.
func DecodeFixed64(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, ErrVarintTruncated
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Float32 encoding with canonicalization for deterministic output.

// AppendFloat32 appends a float32 in canonicalized little-endian format.
//
// Canonicalization rules:
//   - Negative zero (-0.0) is converted to positive zero (+0.0)
//   - All NaN values are converted to canonical quiet NaN (0x7FC00000)
//   - All other values (including +Inf, -Inf, subnormals) are preserved
func AppendFloat32(buf []byte, v float32) []byte {
	bits := canonicalizeFloat32(v)
	return AppendFixed32(buf, bits)
}

// DecodeFloat32 decodes a canonicalized float32 from little-endian bytes.
func DecodeFloat32(data []byte) (float32, error) {
	bits, err := DecodeFixed32(data)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// canonicalizeFloat32 returns the canonical bit representation of a float32.
func canonicalizeFloat32(v float32) uint32 {
	bits := math.Float32bits(v)

	// Check for NaN: exponent all 1s and significand non-zero
	if bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0 {
		return canonicalNaN32
	}

	// Check for negative zero
	if bits == 0x80000000 {
		return 0
	}

	return bits
}

// Float64 encoding with canonicalization for deterministic output.

// AppendFloat64 appends a float64 in canonicalized little-endian format.
//
// Canonicalization rules:
//   - Negative zero (-0.0) is converted to positive zero (+0.0)
//   - All NaN values are converted to canonical quiet NaN (0x7FF8000000000000)
//   - All other values (including +Inf, -Inf, subnormals) are preserved
func AppendFloat64(buf []byte, v float64) []byte {
	bits := canonicalizeFloat64(v)
	return AppendFixed64(buf, bits)
}

// DecodeFloat64 decodes a canonicalized float64 from little-endian bytes.
func DecodeFloat64(data []byte) (float64, error) {
	bits, err := DecodeFixed64(data)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// canonicalizeFloat64 returns the canonical bit representation of a float64.
func canonicalizeFloat64(v float64) uint64 {
	bits := math.Float64bits(v)

	// Check for NaN: exponent all 1s and significand non-zero
	if bits&0x7FF0000000000000 == 0x7FF0000000000000 && bits&0x000FFFFFFFFFFFFF != 0 {
		return canonicalNaN64
	}

	// Check for negative zero
	if bits == 0x8000000000000000 {
		return 0
	}

	return bits
}


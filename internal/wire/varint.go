// Package wire provides the low-level byte primitives that ProtoSpec's
// generated codecs and built-in prelude transforms (§6.3's varint binding)
// compile down to: little-endian fixed-width integers and LEB128 varints.
// The planner never calls these directly — it only names a scalar or
// transform — but this is what "fixed-width little-endian" and "varint
// prelude transform" mean concretely in the one wired Go backend.
package wire

import "errors"

// MaxVarintLen64 is the maximum number of bytes a varint-encoded uint64 can
// occupy. A uint64 has 64 bits, and each varint byte carries 7 of them, so
// ceil(64/7) = 10 bytes bounds any decode loop.
const MaxVarintLen64 = 10

// Errors surfaced by the varint decoder. The `varint` prelude transform
// (pkg/ffi/prelude.go) propagates these verbatim as the
// generated decode step's error return.
var (
	// ErrVarintOverflow indicates the varint overflows a 64-bit integer.
	ErrVarintOverflow = errors.New("protospec: varint overflows uint64")

	// ErrVarintTruncated indicates the input data was truncated.
	ErrVarintTruncated = errors.New("protospec: varint truncated")

	// ErrVarintTooLong indicates the varint encoding exceeds maximum length.
	ErrVarintTooLong = errors.New("protospec: varint exceeds maximum length")
)

// AppendUvarint appends the LEB128 encoding of v to buf and returns the
// extended buffer. This is what the `varint` prelude transform's EncodeCode
// template compiles to (pkg/ffi/prelude.go). That template passes its
// operand through with no conversion; only the `duration` prelude type
// converts its value with uint64(...) first. There is no zigzag/signed
// entry point.
//
// The encoding uses 7 bits per byte, with the MSB as a continuation flag,
// ordered least significant byte first:
//
//	0   -> [0x00]
//	127 -> [0x7f]
//	128 -> [0x80, 0x01]
//	300 -> [0xac, 0x02]
func AppendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// DecodeUvarint decodes a varint from the front of data, returning the
// decoded value and the number of bytes consumed. This is what the
// `varint` prelude transform's DecodeCode template compiles to.
func DecodeUvarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrVarintTruncated
	}

	// Fast path: values 0-127 fit in a single byte, which is the
	// overwhelming majority of varints ProtoSpec-encoded messages carry
	// (lengths, small counts, enum tags).
	if data[0] < 0x80 {
		return uint64(data[0]), 1, nil
	}

	var v uint64
	var shift uint

	for i := 0; i < len(data); i++ {
		if i >= MaxVarintLen64 {
			return 0, 0, ErrVarintTooLong
		}

		b := data[i]
		if i == 9 {
			// The 10th byte can only contribute bit 63; anything else
			// means the value doesn't fit in a uint64.
			if b >= 0x80 {
				return 0, 0, ErrVarintTooLong
			}
			if b > 1 {
				return 0, 0, ErrVarintOverflow
			}
		}

		v |= uint64(b&0x7f) << shift

		if b < 0x80 {
			return v, i + 1, nil
		}

		shift += 7
	}

	return 0, 0, ErrVarintTruncated
}

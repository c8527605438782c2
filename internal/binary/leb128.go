// Package binary encodes a validated, type-assigned ast.Program into a
// WebAssembly binary (spec.md §4.7 "Emitter"). LEB128 here follows the
// exact byte shapes the teacher's own internal/leb128 package produces
// and tests (internal/leb128/leb128_test.go kept byte fixtures were used
// to cross-check these routines while writing them).
package binary

// AppendUint32 appends an unsigned LEB128 encoding of v to buf.
func AppendUint32(buf []byte, v uint32) []byte {
	return appendUvarint(buf, uint64(v))
}

// AppendUint64 appends an unsigned LEB128 encoding of v to buf.
func AppendUint64(buf []byte, v uint64) []byte {
	return appendUvarint(buf, v)
}

func appendUvarint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
			continue
		}
		return append(buf, b)
	}
}

// AppendInt32 appends a signed LEB128 encoding of v to buf.
func AppendInt32(buf []byte, v int32) []byte {
	return appendSvarint(buf, int64(v))
}

// AppendInt64 appends a signed LEB128 encoding of v to buf.
func AppendInt64(buf []byte, v int64) []byte {
	return appendSvarint(buf, v)
}

func appendSvarint(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}

// DecodeUint32 reads an unsigned LEB128 value starting at off, returning
// the value and the offset just past it.
func DecodeUint32(buf []byte, off int) (uint32, int) {
	var result uint64
	var shift uint
	for {
		b := buf[off]
		off++
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return uint32(result), off
}

// DecodeInt32 reads a signed LEB128 value starting at off.
func DecodeInt32(buf []byte, off int) (int32, int) {
	var result int64
	var shift uint
	var b byte
	for {
		b = buf[off]
		off++
		result |= int64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return int32(result), off
}

package readers

// Functions for reading little-endian values and byte patterns out of a save buffer.
// Nothing here trusts an offset: every read is bounds checked.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"bbsave/types"
)

// Check fails if [offset, offset+length) is not inside data.
func Check(data []byte, offset int, length int) error {
	if offset < 0 || length < 0 || offset+length > len(data) {
		return types.Custom_error(fmt.Sprintf("Read of %v bytes at x%x is outside the save (%v bytes).", length, offset, len(data)))
	}
	return nil
}

func Read_uint8(data []byte, offset int) (uint8, error) {
	err := Check(data, offset, 1)
	if err != nil {
		return 0, err
	}
	return data[offset], nil
}

func Read_u32_le(data []byte, offset int) (uint32, error) {
	err := Check(data, offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

func Read_u64_le(data []byte, offset int) (uint64, error) {
	err := Check(data, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}

func Read_f32_le(data []byte, offset int) (float32, error) {
	n, err := Read_u32_le(data, offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(n), nil
}

// Read_number composes up to 4 bytes into a number the way stats have always been read:
// byte i is worth 256^i, summed from the last byte back to the first.
func Read_number(data []byte, offset int, length int) (uint32, error) {
	if length > 4 {
		return 0, types.Custom_error(fmt.Sprintf("Numbers are at most 4 bytes long (got %v).", length))
	}
	err := Check(data, offset, length)
	if err != nil {
		return 0, err
	}
	value := uint32(0)
	for i := length - 1; i >= 0; i-- {
		value += uint32(data[offset+i]) << (8 * i)
	}
	return value, nil
}

// Read_utf16 reads a zero-terminated little-endian UTF-16 string of at most max_chars characters.
func Read_utf16(data []byte, offset int, max_chars int) (string, error) {
	err := Check(data, offset, 2*max_chars)
	if err != nil {
		return "", err
	}
	units := []uint16{}
	for i := 0; i < max_chars; i++ {
		u := binary.LittleEndian.Uint16(data[offset+2*i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}

// Match reports whether pattern occurs at offset.  Out-of-range offsets never match.
func Match(data []byte, offset int, pattern []byte) bool {
	if Check(data, offset, len(pattern)) != nil {
		return false
	}
	return bytes.Equal(data[offset:offset+len(pattern)], pattern)
}

// Find returns the first offset in [from, to) at which pattern starts, or -1.
// The pattern itself may run past to, but not past the end of data.
func Find(data []byte, from int, to int, pattern []byte) int {
	from = max(from, 0)
	to = min(to, len(data)-len(pattern)+1)
	if from >= to {
		return -1
	}
	i := bytes.Index(data[from:to+len(pattern)-1], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}

// Rfind is Find, searching backwards: it returns the last offset in [from, to) at which pattern starts, or -1.
func Rfind(data []byte, from int, to int, pattern []byte) int {
	from = max(from, 0)
	to = min(to, len(data)-len(pattern)+1)
	if from >= to {
		return -1
	}
	i := bytes.LastIndex(data[from:to+len(pattern)-1], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}

// Is_terminator reports whether the 16-byte record at offset is a free record:
// its last 12 bytes hold the terminator pattern, whatever its number byte says.
func Is_terminator(data []byte, offset int) bool {
	return Match(data, offset+4, types.TERMINATOR)
}

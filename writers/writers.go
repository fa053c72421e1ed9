package writers

// Functions for writing into a save buffer, and for writing the buffer out.
// Writes are all-or-nothing: a write that does not fit changes nothing.

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"bbsave/readers"
	"bbsave/types"
)

func Write_bytes(data []byte, offset int, b []byte) error {
	err := readers.Check(data, offset, len(b))
	if err != nil {
		return err
	}
	copy(data[offset:], b)
	return nil
}

func Write_uint8(data []byte, offset int, b uint8) error {
	return Write_bytes(data, offset, []byte{b})
}

func Write_u32_le(data []byte, offset int, n uint32) error {
	return Write_bytes(data, offset, binary.LittleEndian.AppendUint32(nil, n))
}

func Write_f32_le(data []byte, offset int, f float32) error {
	return Write_u32_le(data, offset, math.Float32bits(f))
}

// Write_repeated writes the low length bytes of value, times times, 4 bytes apart.
// Some stats are kept in several copies next to each other.
func Write_repeated(data []byte, offset int, length int, times int, value uint32) error {
	if length > 4 || length < 0 {
		return types.Custom_error(fmt.Sprintf("Numbers are at most 4 bytes long (got %v).", length))
	}
	if times < 1 {
		return nil
	}
	err := readers.Check(data, offset, 4*(times-1)+length)
	if err != nil {
		return err
	}
	value_bytes := binary.LittleEndian.AppendUint32(nil, value)
	for i := 0; i < times; i++ {
		copy(data[offset+4*i:], value_bytes[:length])
	}
	return nil
}

// Write_utf16 writes a little-endian UTF-16 string into a slot of max_chars characters.
// Unused characters are padded out with 0s.
func Write_utf16(data []byte, offset int, str string, max_chars int) error {
	units := utf16.Encode([]rune(str))
	if len(units) > max_chars {
		return types.Custom_error(fmt.Sprintf("Failed - %q has %v characters; max length is %v", str, len(units), max_chars))
	}
	out := make([]byte, 2*max_chars)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return Write_bytes(data, offset, out)
}

// Write_file writes a whole save.
func Write_file(out io.Writer, data []byte) error {
	n, err := out.Write(data)
	if err != nil {
		return types.Io_error(err)
	}
	if n != len(data) {
		return types.Io_error(io.ErrShortWrite)
	}
	return nil
}

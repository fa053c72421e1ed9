package save

import (
	"unicode/utf16"

	"bbsave/readers"
	"bbsave/types"
	"bbsave/writers"
)

func (f *FileData) username_offset() int {
	return f.Offsets.Username + 1
}

// Username is the character name: up to 16 UTF-16 characters one byte past the username offset.
func (f *FileData) Username() (string, error) {
	return readers.Read_utf16(f.Bytes, f.username_offset(), types.USERNAME_MAX_CHARS)
}

func (f *FileData) Set_username(name string) error {
	n := len(utf16.Encode([]rune(name)))
	if n < 1 || n > types.USERNAME_MAX_CHARS {
		return types.Custom_error("The username must be 1 to 16 characters long.")
	}
	return writers.Write_utf16(f.Bytes, f.username_offset(), name, types.USERNAME_MAX_CHARS)
}

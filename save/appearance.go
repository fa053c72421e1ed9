package save

import (
	"bytes"
	"fmt"
	"os"

	"bbsave/types"
	"bbsave/writers"
)

// Appearance returns a copy of the character's looks: the fixed-size block after FACE.
func (f *FileData) Appearance() ([]byte, error) {
	r := f.Offsets.Appearance
	if r.Len() != types.APPEARANCE_BYTES_AMOUNT || r.End > len(f.Bytes) {
		return nil, types.Custom_error("Failed to find the appearance.")
	}
	return bytes.Clone(f.Bytes[r.Start:r.End]), nil
}

func (f *FileData) Set_appearance(b []byte) error {
	if len(b) != types.APPEARANCE_BYTES_AMOUNT {
		return types.Custom_error(fmt.Sprintf("Appearance data must be %v bytes long (got %v).", types.APPEARANCE_BYTES_AMOUNT, len(b)))
	}
	if f.Offsets.Appearance.Len() != types.APPEARANCE_BYTES_AMOUNT {
		return types.Custom_error("Failed to find the appearance.")
	}
	return writers.Write_bytes(f.Bytes, f.Offsets.Appearance.Start, b)
}

func (f *FileData) Export_appearance(path string) error {
	b, err := f.Appearance()
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return types.Io_error(err)
	}
	err = writers.Write_file(out, b)
	if err != nil {
		out.Close()
		return err
	}
	err = out.Close()
	if err != nil {
		return types.Io_error(err)
	}
	return nil
}

func (f *FileData) Import_appearance(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Io_error(err)
	}
	return f.Set_appearance(b)
}

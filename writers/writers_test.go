package writers

import (
	"bytes"
	"testing"

	"bbsave/readers"
)

func Test_Repeated(t *testing.T) {
	data := make([]byte, 16)
	err := Write_repeated(data, 2, 2, 3, 0xAABBCCDD)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0xDD, 0xCC, 0, 0, 0xDD, 0xCC, 0, 0, 0xDD, 0xCC, 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Errorf("got %x", data)
	}

	// The last copy only needs length bytes, not 4
	err = Write_repeated(data, 10, 2, 2, 1)
	if err != nil {
		t.Errorf("exact fit rejected: %v", err)
	}

	before := append([]byte{}, data...)
	err = Write_repeated(data, 10, 4, 2, 0xFFFFFFFF)
	if err == nil {
		t.Error("write past the end should fail")
	}
	if !bytes.Equal(before, data) {
		t.Error("failed write changed the buffer")
	}
}

func Test_Ints(t *testing.T) {
	data := make([]byte, 8)
	Write_u32_le(data, 0, 0xAABBCCDD)
	Write_f32_le(data, 4, -8)
	n, _ := readers.Read_u32_le(data, 0)
	f, _ := readers.Read_f32_le(data, 4)
	if n != 0xAABBCCDD || f != -8 {
		t.Errorf("read back %x, %v", n, f)
	}
	if Write_u32_le(data, 6, 1) == nil {
		t.Error("write past the end should fail")
	}
}

func Test_UTF16(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA}, 34)
	err := Write_utf16(data, 1, "Yeezy", 16)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := readers.Read_utf16(data, 1, 16)
	if s != "Yeezy" {
		t.Errorf("read back %q", s)
	}
	if data[0] != 0xAA || data[33] != 0xAA {
		t.Error("wrote outside the slot")
	}
	if data[11] != 0 || data[32] != 0 {
		t.Error("slot not padded")
	}
	if Write_utf16(data, 1, "Seventeen letters", 16) == nil {
		t.Error("17 characters should not fit")
	}
}

func Test_File(t *testing.T) {
	out := &bytes.Buffer{}
	err := Write_file(out, []byte{1, 2, 3})
	if err != nil || !bytes.Equal(out.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("wrote %v (%v)", out.Bytes(), err)
	}
}

package save

import (
	"bytes"
	"testing"

	"bbsave/readers"
	"bbsave/save/testsave"
	"bbsave/tables"
	"bbsave/types"
)

func load_tables(t *testing.T) *tables.Tables {
	t.Helper()
	tb, err := tables.Load(testsave.Resources())
	if err != nil {
		t.Fatal(err)
	}
	return tb
}

func open_with(t *testing.T, data []byte, policy types.Policy) *SaveData {
	t.Helper()
	f, err := From_bytes(data, policy)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Build(f, load_tables(t))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func open_test_save(t *testing.T) *SaveData {
	t.Helper()
	return open_with(t, testsave.New(), types.Default_policy())
}

func u32_at(t *testing.T, s *SaveData, offset int) uint32 {
	t.Helper()
	n, err := readers.Read_u32_le(s.File.Bytes, offset)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func record(k int) int {
	return testsave.INVENTORY + k*types.ARTICLE_RECORD_SIZE
}

func storage_record(k int) int {
	return testsave.STORAGE + k*types.ARTICLE_RECORD_SIZE
}

func expect_error(t *testing.T, err error, reason string) {
	t.Helper()
	if err == nil {
		t.Errorf("expected %q, got no error", reason)
		return
	}
	if types.Kind_of(err) != types.ERR_CUSTOM || !bytes.Contains([]byte(err.Error()), []byte(reason)) {
		t.Errorf("expected %q, got %v", reason, err)
	}
}

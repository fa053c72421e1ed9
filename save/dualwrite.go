package save

import (
	"bbsave/readers"
	"bbsave/writers"
)

// DualWrite is a value kept in two places in a save: an armor or weapon id is stored in its
// inventory record and again in the key of its slot block.  Both places are checked when the
// DualWrite is made, so Commit either writes both or (with a stale buffer) neither.
type DualWrite struct {
	data   []byte
	at     [2]int
	values [2][]byte
}

func New_dual_write(data []byte, a int, a_bytes []byte, b int, b_bytes []byte) (*DualWrite, error) {
	err := readers.Check(data, a, len(a_bytes))
	if err != nil {
		return nil, err
	}
	err = readers.Check(data, b, len(b_bytes))
	if err != nil {
		return nil, err
	}
	return &DualWrite{data: data, at: [2]int{a, b}, values: [2][]byte{a_bytes, b_bytes}}, nil
}

func (d *DualWrite) Commit() error {
	for k := range d.at {
		err := readers.Check(d.data, d.at[k], len(d.values[k]))
		if err != nil {
			return err
		}
	}
	for k := range d.at {
		writers.Write_bytes(d.data, d.at[k], d.values[k])
	}
	return nil
}

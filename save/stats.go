package save

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"bbsave/readers"
	"bbsave/tables"
	"bbsave/types"
	"bbsave/writers"
)

type Stat struct {
	Name       string `json:"name"`
	Rel_offset int    `json:"rel_offset"`
	Length     int    `json:"length"`
	Times      int    `json:"times"`
	Value      uint32 `json:"value"`
}

// Read_stats reads every stat of the stat table.  A stat that does not fit in the save reads as 0.
func Read_stats(f *FileData, t *tables.Tables) []Stat {
	out := []Stat{}
	for _, e := range t.Stats {
		s := Stat{Name: e.Name, Rel_offset: e.Rel_offset, Length: e.Length, Times: e.Times}
		v, err := f.Get_number(e.Rel_offset, e.Length)
		if err != nil {
			debugf("stat %v: %v", e.Name, err)
		}
		s.Value = v
		out = append(out, s)
	}
	return out
}

// Set writes a stat to every copy the save keeps of it.
func (s *Stat) Set(f *FileData, value uint32) error {
	if s.Length < 4 && value >= 1<<(8*s.Length) {
		return types.Custom_error(fmt.Sprintf("%v does not fit in %v bytes.", value, s.Length))
	}
	err := f.Edit(s.Rel_offset, s.Length, s.Times, value)
	if err != nil {
		return err
	}
	s.Value = value
	return nil
}

type Flag struct {
	Rel_offset    int   `json:"rel_offset"`
	Dead_value    uint8 `json:"dead_value"`
	Alive_value   uint8 `json:"alive_value"`
	Current_value uint8 `json:"current_value"`
}

type Boss struct {
	Name  string `json:"name"`
	Flags []Flag `json:"flags"`
}

// Dead is true once every flag of the boss holds its dead value.
func (b *Boss) Dead() bool {
	for _, fl := range b.Flags {
		if fl.Current_value != fl.Dead_value {
			return false
		}
	}
	return len(b.Flags) > 0
}

// Read_bosses reads the state of every boss of the boss table.  Saves without an LCED marker have no bosses.
func Read_bosses(f *FileData, t *tables.Tables) []Boss {
	out := []Boss{}
	if f.Offsets.Lced < 0 {
		return out
	}
	for _, e := range t.Bosses {
		b := Boss{Name: e.Name}
		for _, fe := range e.Flags {
			fl := Flag{Rel_offset: fe.Rel_offset, Dead_value: fe.Dead_value, Alive_value: fe.Alive_value}
			v, err := f.Get_flag(fe.Rel_offset)
			if err != nil {
				debugf("boss %v: %v", e.Name, err)
			}
			fl.Current_value = v
			b.Flags = append(b.Flags, fl)
		}
		out = append(out, b)
	}
	return out
}

// Set kills or revives a boss.
func (b *Boss) Set(f *FileData, dead bool) error {
	lced, err := f.lced()
	if err != nil {
		return err
	}
	for _, fl := range b.Flags {
		err = readers.Check(f.Bytes, lced+fl.Rel_offset, 1)
		if err != nil {
			return err
		}
	}
	for k := range b.Flags {
		v := b.Flags[k].Alive_value
		if dead {
			v = b.Flags[k].Dead_value
		}
		f.Set_flag(b.Flags[k].Rel_offset, v)
		b.Flags[k].Current_value = v
	}
	return nil
}

// Playtime is in milliseconds.
func (f *FileData) Playtime() (uint32, error) {
	return readers.Read_u32_le(f.Bytes, f.Policy.Playtime_offset)
}

func (f *FileData) Set_playtime(ms uint32) error {
	return writers.Write_u32_le(f.Bytes, f.Policy.Playtime_offset, ms)
}

// Format_playtime renders milliseconds as h:mm:ss.mmm.
func Format_playtime(ms uint32) string {
	return fmt.Sprintf("%d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// Parse_playtime reads h:mm:ss, with optional .mmm, or a plain number of milliseconds.
func Parse_playtime(s string) (uint32, error) {
	bad := types.Custom_error(fmt.Sprintf("%q is not a playtime (h:mm:ss.mmm).", s))
	if !strings.Contains(s, ":") {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, bad
		}
		return uint32(n), nil
	}

	ms := uint64(0)
	main, frac, has_frac := strings.Cut(s, ".")
	if has_frac {
		if len(frac) == 0 || len(frac) > 3 {
			return 0, bad
		}
		n, err := strconv.ParseUint(frac+strings.Repeat("0", 3-len(frac)), 10, 32)
		if err != nil {
			return 0, bad
		}
		ms = n
	}
	parts := strings.Split(main, ":")
	if len(parts) > 3 {
		return 0, bad
	}
	seconds := uint64(0)
	for k, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || (k > 0 && n >= 60) {
			return 0, bad
		}
		seconds = seconds*60 + n
	}
	ms += seconds * 1000
	if ms > 0xFFFFFFFF {
		return 0, bad
	}
	return uint32(ms), nil
}

func (f *FileData) isz_offset() int {
	return f.Offsets.Username + types.USERNAME_TO_ISZ_GLITCH
}

// Isz returns the bytes that go wrong in a save hit by the ISZ glitch.
func (f *FileData) Isz() ([]byte, error) {
	o := f.isz_offset()
	err := readers.Check(f.Bytes, o, types.ISZ_GLITCH_LENGTH)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(f.Bytes[o : o+types.ISZ_GLITCH_LENGTH]), nil
}

func (f *FileData) Isz_healthy() bool {
	b, err := f.Isz()
	return err == nil && bytes.Equal(b, f.Policy.Isz_healthy)
}

// Fix_isz puts the healthy bytes back, and reports whether they were not there already.
func (f *FileData) Fix_isz() (bool, error) {
	if len(f.Policy.Isz_healthy) != types.ISZ_GLITCH_LENGTH {
		return false, types.Custom_error("The healthy ISZ pattern must be 4 bytes long.")
	}
	b, err := f.Isz()
	if err != nil {
		return false, err
	}
	if bytes.Equal(b, f.Policy.Isz_healthy) {
		return false, nil
	}
	return true, writers.Write_bytes(f.Bytes, f.isz_offset(), f.Policy.Isz_healthy)
}

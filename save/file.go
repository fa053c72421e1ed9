package save

import (
	"log"
	"os"

	"bbsave/readers"
	"bbsave/types"
	"bbsave/writers"
)

// Verbose turns on diagnostics about odd things found while scanning a save.
var Verbose = false

func debugf(format string, args ...any) {
	if Verbose {
		log.Printf(format, args...)
	}
}

// FileData is a save as raw bytes, plus where everything is in them.
type FileData struct {
	Bytes   []byte
	Offsets types.Offsets
	Policy  types.Policy
}

// Load reads a save and leaves a copy of it next to the original, with .bak added to the name.
func Load(path string, policy types.Policy) (*FileData, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Io_error(err)
	}
	if len(bytes) == 0 {
		return nil, types.Custom_error("The selected file is empty.")
	}
	err = os.WriteFile(path+".bak", bytes, 0644)
	if err != nil {
		return nil, types.Io_error(err)
	}
	return From_bytes(bytes, policy)
}

func From_bytes(bytes []byte, policy types.Policy) (*FileData, error) {
	if len(bytes) == 0 {
		return nil, types.Custom_error("The selected file is empty.")
	}
	offsets, err := Build_offsets(bytes, policy)
	if err != nil {
		return nil, err
	}
	return &FileData{Bytes: bytes, Offsets: offsets, Policy: policy}, nil
}

// Save writes the whole buffer to path.
func (f *FileData) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return types.Io_error(err)
	}
	err = writers.Write_file(out, f.Bytes)
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

// Get_number reads a stat-like number relative to the username.
func (f *FileData) Get_number(rel_offset int, length int) (uint32, error) {
	return readers.Read_number(f.Bytes, f.Offsets.Username+rel_offset, length)
}

// Edit writes the low length bytes of value, times times, 4 bytes apart, relative to the username.
func (f *FileData) Edit(rel_offset int, length int, times int, value uint32) error {
	return writers.Write_repeated(f.Bytes, f.Offsets.Username+rel_offset, length, times, value)
}

func (f *FileData) lced() (int, error) {
	if f.Offsets.Lced < 0 {
		return 0, types.Custom_error("Failed to find the LCED marker.")
	}
	return f.Offsets.Lced, nil
}

// Get_flag reads a world flag byte relative to the LCED marker.
func (f *FileData) Get_flag(rel_offset int) (uint8, error) {
	lced, err := f.lced()
	if err != nil {
		return 0, err
	}
	return readers.Read_uint8(f.Bytes, lced+rel_offset)
}

func (f *FileData) Set_flag(rel_offset int, value uint8) error {
	lced, err := f.lced()
	if err != nil {
		return err
	}
	return writers.Write_uint8(f.Bytes, lced+rel_offset, value)
}

// record_id is the id an article record is looked up by: the low 3 bytes of
// second_part for items and armor, all of it for weapons.
func (f *FileData) record_id(offset int, family types.TypeFamily) uint32 {
	second, err := readers.Read_u32_le(f.Bytes, offset+8)
	if err != nil {
		return 0
	}
	if family == types.TF_WEAPON {
		return second
	}
	return second & 0xFFFFFF
}

func (f *FileData) regions_of(is_storage bool) []types.Region {
	if is_storage {
		return []types.Region{f.Offsets.Storage, f.Offsets.Key_inventory}
	}
	return []types.Region{f.Offsets.Inventory, f.Offsets.Key_inventory}
}

// Find_article_offset returns the offset of the record holding article number/id, or -1.
// Key items are looked for last, whichever inventory is asked for.
func (f *FileData) Find_article_offset(number uint8, id uint32, family types.TypeFamily, is_storage bool) int {
	for _, r := range f.regions_of(is_storage) {
		for i := r.Start; i+types.ARTICLE_RECORD_SIZE <= r.End; i += types.ARTICLE_RECORD_SIZE {
			if f.Bytes[i] == number && !readers.Is_terminator(f.Bytes, i) && f.record_id(i, family) == id {
				return i
			}
		}
	}
	return -1
}

// find_upgrade_offset returns the offset of the inventory record holding upgrade number/id, or -1.
func (f *FileData) find_upgrade_offset(number uint8, id uint32, is_storage bool) int {
	for _, r := range f.regions_of(is_storage) {
		for i := r.Start; i+types.ARTICLE_RECORD_SIZE <= r.End; i += types.ARTICLE_RECORD_SIZE {
			if f.Bytes[i] != number {
				continue
			}
			first, _ := readers.Read_u32_le(f.Bytes, i+4)
			if first == id {
				return i
			}
		}
	}
	return -1
}

// Find_inv_empty_slot returns the first free record inside r, or -1.
// Free records inside a region are left behind by deleted articles.
func (f *FileData) Find_inv_empty_slot(r types.Region) int {
	for i := r.Start; i+types.ARTICLE_RECORD_SIZE <= r.End; i += types.ARTICLE_RECORD_SIZE {
		if readers.Is_terminator(f.Bytes, i) {
			return i
		}
	}
	return -1
}

package types

import "fmt"

// Distances inside the save, measured from the username unless stated otherwise.
// All of these were found by comparing saves byte by byte.
const (
	USERNAME_TO_INV_OFFSET               = 469
	USERNAME_TO_KEY_INV_OFFSET           = 32201
	INV_TO_STORAGE_OFFSET                = 34268 // from the inventory start, not the username
	USERNAME_TO_FIRST_INVENTORY_COUNTER  = 453
	USERNAME_TO_SECOND_INVENTORY_COUNTER = 34257
	USERNAME_TO_FIRST_STORAGE_COUNTER    = 34737
	USERNAME_TO_SECOND_STORAGE_COUNTER   = 68541
	USERNAME_TO_ISZ_GLITCH               = 72082

	// Character health is the first value of the player block, and nothing
	// resembling a slot block is ever found after it.
	USERNAME_TO_STATS_CEILING = 147

	START_TO_UPGRADE        = 84     // file offset of the first gem/rune
	APPEARANCE_SEARCH_START = 0xF000 // the appearance has never been seen before this
	APPEARANCE_BYTES_AMOUNT = 0xEB
	USERNAME_MAX_CHARS      = 16
	ISZ_GLITCH_LENGTH       = 4

	MAX_EMPTY_INV_SLOTS = 20
	STORAGE_CAPACITY    = 1984 // storage slots reachable with the full-storage glitch
	PLAYTIME_OFFSET     = 0x08
)

// Record sizes
const (
	ARTICLE_RECORD_SIZE = 16
	UPGRADE_RECORD_SIZE = 40
	SLOT_BLOCK_SIZE     = 60
	SLOTS_PER_BLOCK     = 5
	EFFECTS_PER_UPGRADE = 6
)

// Offsets inside a slot block
const (
	SLOT_BLOCK_FIRST_SHAPE = 20
	SLOT_BLOCK_FIRST_GEM   = 24
	SLOT_BLOCK_STRIDE      = 8
)

// NO_EFFECT marks an unused effect field of an upgrade.
const NO_EFFECT uint32 = 0xFFFFFFFF

var (
	INVENTORY_MARKER  = []byte{0x40, 0xF0, 0xFF, 0xFF}
	TERMINATOR        = []byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}
	SLOT_FILLER       = []byte{0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	APPEARANCE_MARKER = []byte("FACE")
	LCED_MARKER       = []byte{0x4C, 0x43, 0x45, 0x44}
	POSITION_MARKER   = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0}
)

// Region is a half-open byte range [Start, End) of the save.
type Region struct {
	Start int
	End   int
}

func (r Region) Len() int {
	return r.End - r.Start
}

// Last is the index of the final byte of the region.
func (r Region) Last() int {
	return r.End - 1
}

func (r Region) Empty() bool {
	return r.End <= r.Start
}

func (r Region) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Region) Overlaps(o Region) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Start < o.End && o.Start < r.End
}

func (r Region) String() string {
	return fmt.Sprintf("x%x-x%x", r.Start, r.End)
}

// Offsets is where everything lives in one particular save.
//
// Inventory-like regions end at the first free record, which is where new
// records get appended. Equipped_gems stays empty until the slot scanner runs.
type Offsets struct {
	Username      int
	Inventory     Region
	Storage       Region
	Key_inventory Region
	Upgrades      Region
	Appearance    Region
	Equipped_gems Region
	Lced          int // -1 if the save has no LCED marker
}

// Regions lists every region with a human-readable name, in file order for a typical save.
func (o *Offsets) Regions() []struct {
	Name   string
	Region Region
} {
	return []struct {
		Name   string
		Region Region
	}{
		{"Upgrades", o.Upgrades},
		{"Equipped gems", o.Equipped_gems},
		{"Inventory", o.Inventory},
		{"Key inventory", o.Key_inventory},
		{"Appearance", o.Appearance},
		{"Storage", o.Storage},
	}
}

// Policy holds the tolerances used while scanning.
// Deleted items leave terminator-shaped gaps in the inventories, so a short run of
// terminators does not end a region; storage can hold far more than the game normally
// allows thanks to the full-storage glitch.
type Policy struct {
	Max_empty_inv_slots int
	Storage_capacity    int
	Playtime_offset     int
	Isz_healthy         []byte
}

func Default_policy() Policy {
	return Policy{
		Max_empty_inv_slots: MAX_EMPTY_INV_SLOTS,
		Storage_capacity:    STORAGE_CAPACITY,
		Playtime_offset:     PLAYTIME_OFFSET,
		Isz_healthy:         []byte{0x00, 0x00, 0x00, 0x00},
	}
}

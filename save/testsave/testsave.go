// Package testsave lays out a small but complete save, with every landmark at the offsets
// the real game uses, so the save engine can be tested without a real save.
package testsave

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"runtime"
	"unicode/utf16"

	"bbsave/types"
)

const (
	USERNAME = 0x7000
	LENGTH   = USERNAME + 72200

	INVENTORY     = USERNAME + types.USERNAME_TO_INV_OFFSET
	KEY_INVENTORY = USERNAME + types.USERNAME_TO_KEY_INV_OFFSET
	STORAGE       = INVENTORY + types.INV_TO_STORAGE_OFFSET

	FACE     = 0xF000
	LCED     = 70000
	POSITION = 70200

	SLOT_BLOCK_A = 284 // Saw Cleaver
	SLOT_BLOCK_B = 344 // Hunter Garb
	SLOT_BLOCK_C = 436 // Hunter Pistol
	GEMS_END     = 496

	INVENTORY_RECORDS     = 10
	GAP                   = INVENTORY + 6*types.ARTICLE_RECORD_SIZE
	KEY_INVENTORY_RECORDS = 2
	STORAGE_RECORDS       = 3
	FREE_RECORDS          = 25

	INVENTORY_COUNTER = 120
	STORAGE_COUNTER   = 5

	PLAYTIME = 3723004 // 1:02:03.004
)

// Article keys (first_part, second_part).
const (
	SAW_CLEAVER_FIRST    = 0x80800051
	SAW_CLEAVER_SECOND   = 0x001EABF4 // 2010100: +1, Uncanny
	HUNTER_GARB_FIRST    = 0x90000061
	HUNTER_GARB_SECOND   = 0x10038658
	HUNTER_PISTOL_FIRST  = 0x80800052
	HUNTER_PISTOL_SECOND = 6000000
	TORCH_FIRST          = 0x80800053
	TORCH_SECOND         = 14000000
)

// Upgrade ids.
const (
	GEM_DROPLET  = 0xC0800041 // free, inventory
	RUNE_CLAW    = 0xC0800042 // free, inventory
	GEM_RADIAL   = 0xC0800043 // in slot 0 of the Saw Cleaver
	GEM_WANING   = 0xC0800044 // free, storage
	GEM_UNKNOWN  = 0xC0800045 // unknown effect, never read
	GEM_SOURCE   = 0x80016026
	RUNE_SOURCE  = 0x800192BF
	UPGRADES_END = types.START_TO_UPGRADE + 5*types.UPGRADE_RECORD_SIZE
)

var ISZ_BROKEN = []byte{1, 0, 0, 0}

// Resources is the directory of the resource tables that go with this save.
func Resources() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "resources")
}

type builder struct {
	data []byte
}

func (b *builder) u32(offset int, n uint32) {
	binary.LittleEndian.PutUint32(b.data[offset:], n)
}

func (b *builder) f32(offset int, f float32) {
	b.u32(offset, math.Float32bits(f))
}

func (b *builder) bytes(offset int, p []byte) {
	copy(b.data[offset:], p)
}

func (b *builder) upgrade(offset int, id uint32, source uint32, u types.UpgradeType, shape byte, effects ...uint32) {
	b.u32(offset, id)
	b.u32(offset+4, source)
	b.bytes(offset+8, types.Upgrade_signature(u, shape))
	for e := 0; e < types.EFFECTS_PER_UPGRADE; e++ {
		effect := types.NO_EFFECT
		if e < len(effects) {
			effect = effects[e]
		}
		b.u32(offset+16+4*e, effect)
	}
}

func (b *builder) slot_block(offset int, first uint32, second uint32, shapes []types.SlotShape, gems ...uint32) {
	b.u32(offset, first)
	b.u32(offset+4, second)
	b.u32(offset+8, 300)
	b.u32(offset+16, 1)
	for k := 0; k < types.SLOTS_PER_BLOCK; k++ {
		shape := types.SS_CLOSED
		if k < len(shapes) {
			shape = shapes[k]
		}
		sb := shape.Bytes()
		b.bytes(offset+types.SLOT_BLOCK_FIRST_SHAPE+k*types.SLOT_BLOCK_STRIDE, sb[:])
		if k < len(gems) {
			b.u32(offset+types.SLOT_BLOCK_FIRST_GEM+k*types.SLOT_BLOCK_STRIDE, gems[k])
		}
	}
}

func (b *builder) record(offset int, number byte, first uint32, second uint32, amount uint32) {
	b.bytes(offset, []byte{number, 0x80, 0xCF, 0xA8})
	b.u32(offset+4, first)
	b.u32(offset+8, second)
	b.u32(offset+12, amount)
}

func (b *builder) item(offset int, number byte, id uint32, amount uint32) {
	b.record(offset, number, id|0xB0<<24, id|0x40<<24, amount)
}

func (b *builder) free(offset int, number byte, n int) {
	for k := 0; k < n; k++ {
		at := offset + k*types.ARTICLE_RECORD_SIZE
		b.bytes(at, []byte{number + byte(k), 0xFF, 0xFF, 0xFF})
		b.bytes(at+4, types.TERMINATOR)
	}
}

// New builds the save:
//
//	inventory:     Blood Vial x10, Coldblood Dew, Saw Cleaver +1 Uncanny, Hunter Garb, a droplet gem,
//	               a rune, a free record, Blood Stone Shard x5, an unknown item, a Torch with no slot block
//	key inventory: Hunter Chief Emblem, Oedon Tomb Key
//	storage:       Antidote x3, a waning gem, Hunter Pistol
func New() []byte {
	b := &builder{data: make([]byte, LENGTH)}

	b.u32(4, 0x15000000)
	b.u32(types.PLAYTIME_OFFSET, PLAYTIME)

	// Upgrades
	u := types.START_TO_UPGRADE
	b.upgrade(u, GEM_DROPLET, GEM_SOURCE, types.UT_GEM, 0x3F, 17420)
	b.upgrade(u+40, RUNE_CLAW, RUNE_SOURCE, types.UT_RUNE, 0x01, 1136002)
	b.upgrade(u+80, GEM_RADIAL, GEM_SOURCE+1, types.UT_GEM, 0x01, 34000, 17421)
	b.upgrade(u+120, GEM_WANING, GEM_SOURCE+2, types.UT_GEM, 0x04, 62000)
	b.upgrade(u+160, GEM_UNKNOWN, GEM_SOURCE+3, types.UT_GEM, 0x01, 99999)

	// Slot blocks, with a run of filler between the second and the third
	b.slot_block(SLOT_BLOCK_A, SAW_CLEAVER_FIRST, SAW_CLEAVER_SECOND,
		[]types.SlotShape{types.SS_RADIAL, types.SS_RADIAL}, GEM_RADIAL)
	b.slot_block(SLOT_BLOCK_B, HUNTER_GARB_FIRST, HUNTER_GARB_SECOND, []types.SlotShape{types.SS_CIRCLE})
	for at := SLOT_BLOCK_B + types.SLOT_BLOCK_SIZE; at < SLOT_BLOCK_C; at += len(types.SLOT_FILLER) {
		b.bytes(at, types.SLOT_FILLER)
	}
	b.slot_block(SLOT_BLOCK_C, HUNTER_PISTOL_FIRST, HUNTER_PISTOL_SECOND, []types.SlotShape{types.SS_TRIANGLE})

	// Stats, as laid out in resources/offsets.json
	stat := func(rel int, length int, times int, value uint32) {
		v := binary.LittleEndian.AppendUint32(nil, value)
		for k := 0; k < times; k++ {
			b.bytes(USERNAME+rel+4*k, v[:length])
		}
	}
	stat(-147, 4, 3, 1200)
	stat(-123, 4, 3, 91)
	stat(-99, 1, 2, 30)
	stat(-91, 1, 2, 25)
	stat(-83, 1, 2, 20)
	stat(-75, 1, 2, 15)
	stat(-67, 1, 2, 9)
	stat(-59, 1, 2, 8)
	stat(-23, 4, 1, 50)
	stat(-19, 4, 1, 3)
	stat(-15, 4, 1, 12345)

	name := utf16.Encode([]rune("Proyectito"))
	for k, c := range name {
		binary.LittleEndian.PutUint16(b.data[USERNAME+1+2*k:], c)
	}

	// Inventory
	b.u32(USERNAME+types.USERNAME_TO_FIRST_INVENTORY_COUNTER, INVENTORY_COUNTER)
	b.u32(USERNAME+types.USERNAME_TO_SECOND_INVENTORY_COUNTER, INVENTORY_COUNTER)
	r := func(k int) int { return INVENTORY + k*types.ARTICLE_RECORD_SIZE }
	b.item(r(0), 0x40, 1000, 10)
	b.bytes(r(0), types.INVENTORY_MARKER)
	b.bytes(r(1), []byte{0x48, 0x80, 0xCF, 0xA8, 0x64, 0x00, 0x00, 0xB0, 0x64, 0x00, 0x00, 0x40, 0x01, 0x00, 0x00, 0x00})
	b.record(r(2), 0x42, SAW_CLEAVER_FIRST, SAW_CLEAVER_SECOND, 1)
	b.record(r(3), 0x43, HUNTER_GARB_FIRST, HUNTER_GARB_SECOND, 1)
	b.record(r(4), 0x44, GEM_DROPLET, GEM_SOURCE, 1)
	b.record(r(5), 0x45, RUNE_CLAW, RUNE_SOURCE, 1)
	b.free(r(6), 0x46, 1)
	b.item(r(7), 0x47, 7000, 5)
	b.item(r(8), 0x49, 9999, 1)
	b.record(r(9), 0x4A, TORCH_FIRST, TORCH_SECOND, 1)
	b.free(r(INVENTORY_RECORDS), 0x4B, FREE_RECORDS)

	// Key inventory
	b.item(KEY_INVENTORY, 0, 4000, 1)
	b.item(KEY_INVENTORY+16, 1, 4001, 1)
	b.free(KEY_INVENTORY+KEY_INVENTORY_RECORDS*types.ARTICLE_RECORD_SIZE, 2, FREE_RECORDS)

	// Storage.  The first counter is the start of the first record.
	s := func(k int) int { return STORAGE + k*types.ARTICLE_RECORD_SIZE }
	b.item(s(0), 5, 1200, 3)
	b.record(s(1), 6, GEM_WANING, GEM_SOURCE+2, 1)
	b.record(s(2), 7, HUNTER_PISTOL_FIRST, HUNTER_PISTOL_SECOND, 1)
	b.free(s(STORAGE_RECORDS), 8, FREE_RECORDS)
	b.u32(USERNAME+types.USERNAME_TO_FIRST_STORAGE_COUNTER, STORAGE_COUNTER)
	b.u32(USERNAME+types.USERNAME_TO_SECOND_STORAGE_COUNTER, STORAGE_COUNTER)

	// Appearance: 1, 2, 3...
	b.bytes(FACE, types.APPEARANCE_MARKER)
	for k := 0; k < types.APPEARANCE_BYTES_AMOUNT; k++ {
		b.data[FACE+4+k] = byte(k + 1)
	}

	// World: Cleric Beast is dead, the character stands in Central Yharnam
	b.bytes(LCED, types.LCED_MARKER)
	b.data[LCED+100] = 128
	b.bytes(POSITION, types.POSITION_MARKER)
	b.f32(POSITION+12, -193.4)
	b.f32(POSITION+16, -28.646)
	b.f32(POSITION+20, 68.5)

	b.bytes(USERNAME+types.USERNAME_TO_ISZ_GLITCH, ISZ_BROKEN)
	return b.data
}

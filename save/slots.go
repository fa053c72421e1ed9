package save

import (
	"bbsave/readers"
	"bbsave/types"
)

// SlotMap is the slots of every equipped-at-some-point armor and weapon, by article key.
type SlotMap map[uint64][]types.Slot

// A slot block is 60 bytes:
//   - 8 bytes of owner key (first_part and second_part of the article)
//   - 12 bytes of durability and such
//   - 5 times: 4 bytes of slot shape, 4 bytes of equipped gem id
//
// Runs of blocks are separated by filler: 00000000FFFFFFFF, 8 bytes at a time.

// slot_shapes decodes the five shapes of the block at offset, or fails if it is not a slot block.
func slot_shapes(data []byte, offset int) ([]types.SlotShape, bool) {
	if readers.Check(data, offset, types.SLOT_BLOCK_SIZE) != nil {
		return nil, false
	}
	key, _ := readers.Read_u64_le(data, offset)
	if key == 0 {
		return nil, false
	}
	shapes := make([]types.SlotShape, 0, types.SLOTS_PER_BLOCK)
	for k := 0; k < types.SLOTS_PER_BLOCK; k++ {
		at := offset + types.SLOT_BLOCK_FIRST_SHAPE + k*types.SLOT_BLOCK_STRIDE
		shape, err := types.Slot_shape_from(data[at : at+4])
		if err != nil {
			return nil, false
		}
		shapes = append(shapes, shape)
	}
	return shapes, true
}

func is_slot_block(data []byte, offset int) bool {
	_, ok := slot_shapes(data, offset)
	return ok
}

// claim_slot_block turns the block at offset into slots, taking equipped gems out of the pool.
// The block is checked in full before anything is claimed.
func claim_slot_block(data []byte, offset int, pool UpgradePool, slots SlotMap) bool {
	shapes, ok := slot_shapes(data, offset)
	if !ok {
		return false
	}
	key, _ := readers.Read_u64_le(data, offset)

	out := make([]types.Slot, 0, len(shapes))
	for k, shape := range shapes {
		slot := types.Slot{Shape: shape}
		if shape != types.SS_CLOSED {
			id, _ := readers.Read_u32_le(data, offset+types.SLOT_BLOCK_FIRST_GEM+k*types.SLOT_BLOCK_STRIDE)
			if gem, ok := pool[id]; ok {
				slot.Gem = gem
				delete(pool, id)
			}
		}
		out = append(out, slot)
	}
	if _, ok := slots[key]; ok {
		debugf("second slot block for %x at x%x", key, offset)
	}
	slots[key] = out
	return true
}

// Scan_equipped_gems reads every slot block between the upgrades and the player stats,
// and records where they are in f.Offsets.Equipped_gems.
func Scan_equipped_gems(f *FileData, pool UpgradePool) SlotMap {
	slots := SlotMap{}
	data := f.Bytes
	ceiling := f.Offsets.Username - types.USERNAME_TO_STATS_CEILING
	f.Offsets.Equipped_gems = types.Region{}

	first := -1
	for i := f.Offsets.Upgrades.End; i < ceiling; i++ {
		if is_slot_block(data, i) {
			first = i
			break
		}
	}
	if first < 0 {
		debugf("no slot blocks between x%x and x%x", f.Offsets.Upgrades.End, ceiling)
		return slots
	}

	end := first
	index := first
	for index < ceiling {
		previous := index

		for index < ceiling && claim_slot_block(data, index, pool, slots) {
			index += types.SLOT_BLOCK_SIZE
			end = index
		}

		for readers.Match(data, index, types.SLOT_FILLER) {
			index += len(types.SLOT_FILLER)
		}

		// Corrupted data: go one byte at a time until something makes sense again
		if previous == index {
			index++
		}
	}

	f.Offsets.Equipped_gems = types.Region{Start: first, End: end}
	return slots
}

// find_slot_block returns the offset of the slot block owned by key, or -1.
func (f *FileData) find_slot_block(key uint64) int {
	r := f.Offsets.Equipped_gems
	pattern := make([]byte, 8)
	for k := range pattern {
		pattern[k] = byte(key >> (8 * k))
	}
	for from := r.Start; from < r.End; {
		i := readers.Find(f.Bytes, from, r.End, pattern)
		if i < 0 {
			return -1
		}
		if i+types.SLOT_BLOCK_SIZE <= r.End && is_slot_block(f.Bytes, i) {
			return i
		}
		from = i + 1
	}
	return -1
}

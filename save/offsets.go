package save

import (
	"bbsave/readers"
	"bbsave/types"
)

// Build_offsets finds every region of a save.  Equipped_gems is left empty for the slot scanner.
func Build_offsets(data []byte, policy types.Policy) (types.Offsets, error) {
	out := types.Offsets{Lced: -1}

	// Gems and runes, 40 bytes each, for as long as the type and shape tags make sense
	if len(data) < types.START_TO_UPGRADE+16 {
		return out, types.Custom_error("Failed to find the upgrades.")
	}
	i := types.START_TO_UPGRADE
	for i+types.UPGRADE_RECORD_SIZE <= len(data) && types.Is_upgrade_signature(data[i+8:i+16]) {
		i += types.UPGRADE_RECORD_SIZE
	}
	out.Upgrades = types.Region{Start: types.START_TO_UPGRADE, End: i}

	// The inventory marker is the first inventory record; everything else hangs off the username
	inv := readers.Find(data, types.USERNAME_TO_INV_OFFSET, len(data), types.INVENTORY_MARKER)
	if inv < 0 {
		return out, types.Custom_error("Failed to find username in save data.")
	}
	out.Username = inv - types.USERNAME_TO_INV_OFFSET
	key := out.Username + types.USERNAME_TO_KEY_INV_OFFSET
	storage := inv + types.INV_TO_STORAGE_OFFSET

	end, err := find_end(data, inv, (key-inv)/types.ARTICLE_RECORD_SIZE, policy.Max_empty_inv_slots)
	if err != nil {
		return out, err
	}
	out.Inventory = types.Region{Start: inv, End: end}

	end, err = find_end(data, key, (storage-key)/types.ARTICLE_RECORD_SIZE, policy.Max_empty_inv_slots)
	if err != nil {
		return out, err
	}
	out.Key_inventory = types.Region{Start: key, End: end}

	end, err = find_end(data, storage, policy.Storage_capacity, policy.Max_empty_inv_slots)
	if err != nil {
		return out, err
	}
	out.Storage = types.Region{Start: storage, End: end}

	face := readers.Find(data, types.APPEARANCE_SEARCH_START, len(data), types.APPEARANCE_MARKER)
	if face < 0 || face+4+types.APPEARANCE_BYTES_AMOUNT > len(data) {
		return out, types.Custom_error("Failed to find the appearance.")
	}
	out.Appearance = types.Region{Start: face + 4, End: face + 4 + types.APPEARANCE_BYTES_AMOUNT}

	out.Lced = readers.Find(data, face, len(data), types.LCED_MARKER)
	if out.Lced < 0 {
		debugf("no LCED marker after x%x", face)
	}

	regions := out.Regions()
	for a := range regions {
		for b := a + 1; b < len(regions); b++ {
			if regions[a].Region.Overlaps(regions[b].Region) {
				debugf("%v (%v) overlaps %v (%v)", regions[a].Name, regions[a].Region, regions[b].Name, regions[b].Region)
			}
		}
	}

	return out, nil
}

// find_end scans up to records 16-byte records from start for the end of an inventory-like region.
//
// Deleting an article leaves a free record behind, so a short run of free records is
// just a gap.  A run of tolerance free records, or a run still going when the scan
// runs out, ends the region at its first record.
func find_end(data []byte, start int, records int, tolerance int) (int, error) {
	tolerance = max(tolerance, 1)
	run_start := -1
	run := 0
	for n := 0; n < records; n++ {
		i := start + n*types.ARTICLE_RECORD_SIZE
		if i+types.ARTICLE_RECORD_SIZE > len(data) {
			break
		}
		if !readers.Is_terminator(data, i) {
			if run_start >= 0 {
				debugf("skipping %v free records at x%x", run, run_start)
			}
			run_start, run = -1, 0
			continue
		}
		if run_start < 0 {
			run_start = i
		}
		run++
		if run >= tolerance {
			return run_start, nil
		}
	}
	if run_start >= 0 {
		return run_start, nil
	}
	return 0, types.Custom_error("Failed to find the end of the inventory.")
}

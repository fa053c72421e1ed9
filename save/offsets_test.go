package save

import (
	"slices"
	"testing"

	"bbsave/save/testsave"
	"bbsave/types"
)

func Test_Build_offsets(t *testing.T) {
	o, err := Build_offsets(testsave.New(), types.Default_policy())
	if err != nil {
		t.Fatal(err)
	}
	rs := types.ARTICLE_RECORD_SIZE

	expected := map[string]types.Region{
		"Upgrades":      {Start: types.START_TO_UPGRADE, End: testsave.UPGRADES_END},
		"Inventory":     {Start: testsave.INVENTORY, End: testsave.INVENTORY + testsave.INVENTORY_RECORDS*rs},
		"Key inventory": {Start: testsave.KEY_INVENTORY, End: testsave.KEY_INVENTORY + testsave.KEY_INVENTORY_RECORDS*rs},
		"Storage":       {Start: testsave.STORAGE, End: testsave.STORAGE + testsave.STORAGE_RECORDS*rs},
		"Appearance":    {Start: testsave.FACE + 4, End: testsave.FACE + 4 + types.APPEARANCE_BYTES_AMOUNT},
		"Equipped gems": {},
	}
	for _, r := range o.Regions() {
		if r.Region != expected[r.Name] {
			t.Errorf("%v: expected %v, got %v", r.Name, expected[r.Name], r.Region)
		}
	}
	if o.Username != testsave.USERNAME {
		t.Errorf("username at x%x", o.Username)
	}
	if o.Lced != testsave.LCED {
		t.Errorf("LCED at %v", o.Lced)
	}
	if o.Appearance.Last()-o.Appearance.Start+1 != types.APPEARANCE_BYTES_AMOUNT {
		t.Errorf("appearance is %v bytes", o.Appearance.Len())
	}

	regions := o.Regions()
	for a := range regions {
		for b := a + 1; b < len(regions); b++ {
			if regions[a].Region.Overlaps(regions[b].Region) {
				t.Errorf("%v overlaps %v", regions[a].Name, regions[b].Name)
			}
		}
	}
}

func Test_Build_offsets_failures(t *testing.T) {
	policy := types.Default_policy()

	_, err := Build_offsets(make([]byte, 50), policy)
	expect_error(t, err, "Failed to find the upgrades.")

	data := testsave.New()
	copy(data[testsave.INVENTORY:], []byte{0, 0, 0, 0})
	_, err = Build_offsets(data, policy)
	expect_error(t, err, "Failed to find username in save data.")

	data = testsave.New()
	copy(data[testsave.FACE:], []byte("FAKE"))
	_, err = Build_offsets(data, policy)
	expect_error(t, err, "Failed to find the appearance.")

	data = testsave.New()
	copy(data[testsave.LCED:], []byte("NOPE"))
	o, err := Build_offsets(data, policy)
	if err != nil || o.Lced != -1 {
		t.Errorf("missing LCED should not be fatal: %v, %v", o.Lced, err)
	}

	_, err = From_bytes([]byte{}, policy)
	expect_error(t, err, "The selected file is empty.")
}

func Test_find_end(t *testing.T) {
	rs := types.ARTICLE_RECORD_SIZE
	free := func(data []byte, k int) {
		copy(data[k*rs+4:], types.TERMINATOR)
	}
	used := func(data []byte, k int) {
		data[k*rs+4] = 1
	}

	// used, free, free, used, free x3
	data := make([]byte, 10*rs)
	for _, k := range []int{0, 3} {
		used(data, k)
	}
	for _, k := range []int{1, 2, 4, 5, 6} {
		free(data, k)
	}
	end, err := find_end(data, 0, 10, 3)
	if err != nil || end != 4*rs {
		t.Errorf("gap of 2 with tolerance 3: got %v, %v", end, err)
	}
	end, err = find_end(data, 0, 10, 2)
	if err != nil || end != rs {
		t.Errorf("gap of 2 with tolerance 2: got %v, %v", end, err)
	}

	// A run cut short by the record limit still ends the region
	end, err = find_end(data, 0, 6, 3)
	if err != nil || end != 4*rs {
		t.Errorf("short run: got %v, %v", end, err)
	}

	_, err = find_end(data, 0, 1, 3)
	expect_error(t, err, "Failed to find the end of the inventory.")
}

func Test_Scan_equipped_gems(t *testing.T) {
	tb := load_tables(t)
	f, err := From_bytes(testsave.New(), types.Default_policy())
	if err != nil {
		t.Fatal(err)
	}
	pool := Parse_upgrades(f, tb)
	ids := []uint32{}
	for id := range pool {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []uint32{testsave.GEM_DROPLET, testsave.RUNE_CLAW, testsave.GEM_RADIAL, testsave.GEM_WANING}) {
		t.Errorf("pool holds %x", ids)
	}

	slots := Scan_equipped_gems(f, pool)
	if f.Offsets.Equipped_gems != (types.Region{Start: testsave.SLOT_BLOCK_A, End: testsave.GEMS_END}) {
		t.Errorf("equipped gems at %v", f.Offsets.Equipped_gems)
	}
	if len(slots) != 3 {
		t.Errorf("%v slot blocks", len(slots))
	}
	if _, ok := pool[testsave.GEM_RADIAL]; ok {
		t.Error("equipped gem left in the pool")
	}

	cleaver := slots[uint64(testsave.SAW_CLEAVER_FIRST)|uint64(testsave.SAW_CLEAVER_SECOND)<<32]
	if len(cleaver) != types.SLOTS_PER_BLOCK {
		t.Fatalf("cleaver has %v slots", len(cleaver))
	}
	if cleaver[0].Shape != types.SS_RADIAL || cleaver[0].Gem == nil || cleaver[0].Gem.Id != testsave.GEM_RADIAL {
		t.Errorf("slot 0: %+v", cleaver[0])
	}
	if cleaver[1].Shape != types.SS_RADIAL || cleaver[1].Gem != nil {
		t.Errorf("slot 1: %+v", cleaver[1])
	}
	if cleaver[2].Shape != types.SS_CLOSED {
		t.Errorf("slot 2: %+v", cleaver[2])
	}

	if f.find_slot_block(uint64(testsave.HUNTER_PISTOL_FIRST)|uint64(testsave.HUNTER_PISTOL_SECOND)<<32) != testsave.SLOT_BLOCK_C {
		t.Error("pistol slot block not found")
	}
	if f.find_slot_block(uint64(testsave.TORCH_FIRST)|uint64(testsave.TORCH_SECOND)<<32) != -1 {
		t.Error("torch has no slot block")
	}
}

func Test_Scan_equipped_gems_corrupted(t *testing.T) {
	// Break the filler between the second and third blocks; the scanner should crawl past it
	data := testsave.New()
	copy(data[testsave.SLOT_BLOCK_B+types.SLOT_BLOCK_SIZE:], []byte{1, 2, 3})
	f, err := From_bytes(data, types.Default_policy())
	if err != nil {
		t.Fatal(err)
	}
	slots := Scan_equipped_gems(f, Parse_upgrades(f, load_tables(t)))
	if len(slots) != 3 || f.Offsets.Equipped_gems.End != testsave.GEMS_END {
		t.Errorf("%v blocks, ending at %v", len(slots), f.Offsets.Equipped_gems.End)
	}

	// No blocks at all
	data = testsave.New()
	clear(data[testsave.SLOT_BLOCK_A:testsave.GEMS_END])
	f, _ = From_bytes(data, types.Default_policy())
	slots = Scan_equipped_gems(f, UpgradePool{})
	if len(slots) != 0 || !f.Offsets.Equipped_gems.Empty() {
		t.Errorf("found %v blocks in nothing", len(slots))
	}
}

func Test_Parse_upgrades(t *testing.T) {
	tb := load_tables(t)
	f, _ := From_bytes(testsave.New(), types.Default_policy())
	pool := Parse_upgrades(f, tb)

	radial := pool[testsave.GEM_RADIAL]
	if radial == nil {
		t.Fatal("radial gem missing")
	}
	if radial.Upgrade_type != types.UT_GEM || radial.Shape != "Radial" || radial.Info.Name != "Cold Blood Gem" {
		t.Errorf("radial gem: %+v", radial)
	}
	if !slices.Equal(radial.Effect_ids(), []uint32{34000, 17421, types.NO_EFFECT, types.NO_EFFECT, types.NO_EFFECT, types.NO_EFFECT}) {
		t.Errorf("effects %v", radial.Effect_ids())
	}
	if radial.Effects[1].Description != "Physical ATK UP +1.0%" {
		t.Errorf("second effect %+v", radial.Effects[1])
	}

	rune := pool[testsave.RUNE_CLAW]
	if rune == nil || rune.Upgrade_type != types.UT_RUNE || rune.Shape != "-" || rune.Source != testsave.RUNE_SOURCE {
		t.Errorf("rune: %+v", rune)
	}
}

func Test_Upgrade_mutations(t *testing.T) {
	s := open_test_save(t)
	tb := s.Tables
	f := s.File
	gem, err := s.Get_upgrade(types.LOC_INVENTORY, types.UT_GEM, 0)
	if err != nil {
		t.Fatal(err)
	}
	record := types.START_TO_UPGRADE

	err = Change_shape(f, gem, "circle")
	if err != nil || gem.Shape != "Circle" || f.Bytes[record+12] != 0x08 {
		t.Errorf("change shape: %v %v", gem.Shape, err)
	}
	expect_error(t, Change_shape(f, gem, "Oath"), "Invalid shape.")

	err = Change_effect(f, tb, gem, 2, 62000)
	if err != nil || u32_at(t, s, record+24) != 62000 || gem.Effects[2].Description != "HP continuous recovery" {
		t.Errorf("change effect: %+v %v", gem.Effects[2], err)
	}
	err = Change_effect(f, tb, gem, 0, 1136003)
	if err != nil || gem.Info.Name != "Clawmark" {
		t.Errorf("rune effect on a gem: %+v %v", gem.Info, err)
	}
	expect_error(t, Change_effect(f, tb, gem, 0, types.NO_EFFECT), "The first effect cannot be empty.")
	expect_error(t, Change_effect(f, tb, gem, 6, 17420), "Invalid effect index.")
	expect_error(t, Change_effect(f, tb, gem, 1, 12345), "Failed to find info for the upgrade.")

	converted, err := s.Inventory.Convert_upgrade(f, tb, types.UT_RUNE, 0)
	if err != nil {
		t.Fatal(err)
	}
	rune_record := record + types.UPGRADE_RECORD_SIZE
	if converted.Upgrade_type != types.UT_GEM || converted.Id != testsave.RUNE_CLAW || converted.Source != testsave.RUNE_SOURCE {
		t.Errorf("converted: %+v", converted)
	}
	if u32_at(t, s, rune_record+16) != 0x440C || f.Bytes[rune_record+8] != 0x01 || u32_at(t, s, rune_record+20) != types.NO_EFFECT {
		t.Error("converted record not written")
	}
	if len(s.Inventory.Upgrades[types.UT_RUNE]) != 0 || len(s.Inventory.Upgrades[types.UT_GEM]) != 2 {
		t.Error("converted upgrade not moved")
	}

	// And back: the rune record round-trips to the plain rune
	_, err = s.Inventory.Convert_upgrade(f, tb, types.UT_GEM, 1)
	if err != nil || u32_at(t, s, rune_record+16) != 0x115582 || f.Bytes[rune_record+8] != 0x02 {
		t.Errorf("gem back to rune: %v", err)
	}
}

package save

import (
	"bytes"
	"testing"

	"bbsave/save/testsave"
	"bbsave/types"
)

func Test_Build_inventory(t *testing.T) {
	s := open_test_save(t)
	inv := s.Inventory

	type expectation struct {
		at     types.ArticleType
		names  []string
		number []uint8
	}
	for _, e := range []expectation{
		{types.AT_CONSUMABLE, []string{"Blood Vial", "Coldblood Dew"}, []uint8{0x40, 0x48}},
		{types.AT_MATERIAL, []string{"Blood Stone Shard"}, []uint8{0x47}},
		{types.AT_KEY, []string{"Hunter Chief Emblem", "Oedon Tomb Key"}, []uint8{0, 1}},
		{types.AT_RIGHT_HAND, []string{"Saw Cleaver"}, []uint8{0x42}},
		{types.AT_ARMOR, []string{"Hunter Garb"}, []uint8{0x43}},
		{types.AT_LEFT_HAND, nil, nil},
		{types.AT_CHALICE, nil, nil},
	} {
		list := inv.Articles[e.at]
		if len(list) != len(e.names) {
			t.Errorf("%v: expected %v articles, got %v", e.at, len(e.names), len(list))
			continue
		}
		for k, a := range list {
			if a.Info.Name != e.names[k] || a.Number != e.number[k] || a.Index != k || a.Article_type != e.at {
				t.Errorf("%v %v: %+v", e.at, k, a)
			}
		}
	}
	if inv.First_article == nil || *inv.First_article != types.AT_CONSUMABLE || inv.First_upgrade != nil {
		t.Error("the Blood Vial is first")
	}

	dew := inv.Articles[types.AT_CONSUMABLE][1]
	if dew.Id != 100 || dew.First_part != 0xB0000064 || dew.Second_part != 0x40000064 || dew.Amount != 1 || dew.Type_family != types.TF_ITEM {
		t.Errorf("coldblood dew: %+v", dew)
	}

	cleaver := inv.Articles[types.AT_RIGHT_HAND][0]
	if cleaver.Id != testsave.SAW_CLEAVER_SECOND || len(cleaver.Slots) != types.SLOTS_PER_BLOCK || cleaver.Slots[0].Gem == nil {
		t.Errorf("saw cleaver: %+v", cleaver)
	}
	garb := inv.Articles[types.AT_ARMOR][0]
	if garb.Id != 231000 || garb.Slots[0].Shape != types.SS_CIRCLE {
		t.Errorf("hunter garb: %+v", garb)
	}

	gems := inv.Upgrades[types.UT_GEM]
	runes := inv.Upgrades[types.UT_RUNE]
	if len(gems) != 1 || gems[0].Id != testsave.GEM_DROPLET || gems[0].Number != 0x44 || gems[0].Shape != "Droplet" {
		t.Errorf("gems: %+v", gems)
	}
	if len(runes) != 1 || runes[0].Id != testsave.RUNE_CLAW || runes[0].Number != 0x45 {
		t.Errorf("runes: %+v", runes)
	}

	st := s.Storage
	if len(st.Articles[types.AT_CONSUMABLE]) != 1 || st.Articles[types.AT_CONSUMABLE][0].Number != testsave.STORAGE_COUNTER {
		t.Errorf("storage consumables: %+v", st.Articles[types.AT_CONSUMABLE])
	}
	if len(st.Articles[types.AT_LEFT_HAND]) != 1 || st.Articles[types.AT_LEFT_HAND][0].Slots[0].Shape != types.SS_TRIANGLE {
		t.Errorf("storage pistol: %+v", st.Articles[types.AT_LEFT_HAND])
	}
	if len(st.Upgrades[types.UT_GEM]) != 1 || st.Upgrades[types.UT_GEM][0].Id != testsave.GEM_WANING {
		t.Errorf("storage gems: %+v", st.Upgrades[types.UT_GEM])
	}
	if len(st.Articles[types.AT_KEY]) != 0 {
		t.Error("key items are not in the storage")
	}
}

func Test_Edit_item(t *testing.T) {
	s := open_test_save(t)
	inv := s.Inventory

	err := inv.Edit_item(s.File, 0x40, 1000, 20)
	if err != nil {
		t.Fatal(err)
	}
	if u32_at(t, s, record(0)+12) != 20 || inv.Articles[types.AT_CONSUMABLE][0].Amount != 20 {
		t.Error("blood vials not edited")
	}

	err = s.Storage.Edit_item(s.File, testsave.STORAGE_COUNTER, 1200, 7)
	if err != nil || u32_at(t, s, storage_record(0)+12) != 7 {
		t.Errorf("antidotes not edited: %v", err)
	}

	expect_error(t, inv.Edit_item(s.File, 0, 4000, 2), "Key items cannot be edited.")
	expect_error(t, inv.Edit_item(s.File, 0x41, 1000, 2), "The Article was not found in the inventory.")
	expect_error(t, inv.Edit_item(s.File, 0x42, testsave.SAW_CLEAVER_SECOND, 2), "The Article was not found in the inventory.")
}

func Test_Add_item(t *testing.T) {
	s := open_test_save(t)
	inv := s.Inventory
	f := s.File
	u := testsave.USERNAME
	counters := func() (uint32, uint32) {
		return u32_at(t, s, u+types.USERNAME_TO_FIRST_INVENTORY_COUNTER), u32_at(t, s, u+types.USERNAME_TO_SECOND_INVENTORY_COUNTER)
	}

	// The free record left by a deleted article is used first
	end := f.Offsets.Inventory.End
	a, err := inv.Add_item(f, s.Tables, 1300, 3)
	if err != nil {
		t.Fatal(err)
	}
	if a.Number != 0x46 || a.Info.Name != "Molotov Cocktail" || a.Amount != 3 {
		t.Errorf("molotovs: %+v", a)
	}
	expected := []byte{0x14, 0x05, 0x00, 0xB0, 0x14, 0x05, 0x00, 0x40, 0x03, 0x00, 0x00, 0x00}
	if !bytes.Equal(f.Bytes[testsave.GAP+4:testsave.GAP+16], expected) {
		t.Errorf("gap holds % x", f.Bytes[testsave.GAP+4:testsave.GAP+16])
	}
	if f.Offsets.Inventory.End != end {
		t.Error("filling a gap moved the end of the inventory")
	}
	c1, c2 := counters()
	if c1 != testsave.INVENTORY_COUNTER+1 || c2 != testsave.INVENTORY_COUNTER+1 {
		t.Errorf("counters %v %v", c1, c2)
	}

	// No gaps left: append
	a, err = inv.Add_item(f, s.Tables, 7001, 2)
	if err != nil {
		t.Fatal(err)
	}
	if f.Offsets.Inventory.End != end+types.ARTICLE_RECORD_SIZE {
		t.Errorf("end is %v, expected %v", f.Offsets.Inventory.End, end+types.ARTICLE_RECORD_SIZE)
	}
	if a.Number != f.Bytes[end] || f.Bytes[end+types.ARTICLE_RECORD_SIZE] != a.Number+1 {
		t.Errorf("appended number %x", a.Number)
	}
	if u32_at(t, s, end+4) != 0xB0000000|7001 || u32_at(t, s, end+12) != 2 {
		t.Error("appended record not written")
	}
	c1, c2 = counters()
	if c1 != testsave.INVENTORY_COUNTER+2 || c2 != testsave.INVENTORY_COUNTER+2 {
		t.Errorf("counters %v %v", c1, c2)
	}
	if len(inv.Articles[types.AT_MATERIAL]) != 2 || inv.Articles[types.AT_MATERIAL][1].Index != 1 {
		t.Error("twin shards not listed")
	}

	// Key items and chalices come one at a time
	a, err = inv.Add_item(f, s.Tables, 5000, 9)
	if err != nil || a.Amount != 1 || a.Article_type != types.AT_CHALICE {
		t.Errorf("chalice: %+v %v", a, err)
	}

	_, err = inv.Add_item(f, s.Tables, 0x1000000, 1)
	expect_error(t, err, "Item ids are 3 bytes long.")
	_, err = inv.Add_item(f, s.Tables, 12345, 1)
	expect_error(t, err, "Failed to find info for the item.")
	_, err = s.Storage.Add_item(f, s.Tables, 4000, 1)
	expect_error(t, err, "Key items cannot be stored.")

	// The new articles are read back the same way
	again, err := Build(f, s.Tables)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Inventory.Articles[types.AT_MATERIAL]) != 2 || len(again.Inventory.Articles[types.AT_CHALICE]) != 1 {
		t.Error("added articles not found on rebuild")
	}
}

func Test_Add_item_storage(t *testing.T) {
	s := open_test_save(t)
	st := s.Storage
	f := s.File
	end := f.Offsets.Storage.End

	a, err := st.Add_item(f, s.Tables, 1100, 20)
	if err != nil {
		t.Fatal(err)
	}
	if a.Number != 8 || f.Offsets.Storage.End != end+types.ARTICLE_RECORD_SIZE {
		t.Errorf("bullets: number %v, end %v", a.Number, f.Offsets.Storage.End)
	}
	// The storage counter is the first record's number
	antidote := st.Articles[types.AT_CONSUMABLE][0]
	if antidote.Number != testsave.STORAGE_COUNTER+1 || f.Bytes[testsave.STORAGE] != testsave.STORAGE_COUNTER+1 {
		t.Errorf("antidote number %v, byte %v", antidote.Number, f.Bytes[testsave.STORAGE])
	}
	if u32_at(t, s, testsave.USERNAME+types.USERNAME_TO_SECOND_STORAGE_COUNTER) != testsave.STORAGE_COUNTER+1 {
		t.Error("second storage counter not bumped")
	}
	if err := st.Edit_item(f, antidote.Number, 1200, 1); err != nil {
		t.Errorf("antidote not found by its new number: %v", err)
	}
}

func Test_Add_item_full(t *testing.T) {
	policy := types.Default_policy()
	policy.Storage_capacity = testsave.STORAGE_RECORDS + 2
	s := open_with(t, testsave.New(), policy)

	_, err := s.Storage.Add_item(s.File, s.Tables, 1200, 1)
	if err != nil {
		t.Fatal(err)
	}
	before := bytes.Clone(s.File.Bytes)
	_, err = s.Storage.Add_item(s.File, s.Tables, 1200, 1)
	expect_error(t, err, "The inventory is full.")
	if !bytes.Equal(before, s.File.Bytes) {
		t.Error("failed add changed the save")
	}
}

func Test_Equip_unequip(t *testing.T) {
	s := open_test_save(t)
	inv := s.Inventory
	f := s.File
	field := testsave.SLOT_BLOCK_A + types.SLOT_BLOCK_FIRST_GEM + types.SLOT_BLOCK_STRIDE
	gem_record := bytes.Clone(f.Bytes[record(4)+4 : record(4)+16])
	original := inv.Upgrades[types.UT_GEM][0]

	err := inv.Equip_gem(f, 0, types.AT_RIGHT_HAND, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if u32_at(t, s, field) != testsave.GEM_DROPLET {
		t.Error("gem id not written to the slot")
	}
	if !emptied(s, record(4), 0x44) {
		t.Errorf("gem record not emptied: % x", f.Bytes[record(4):record(4)+16])
	}
	if len(inv.Upgrades[types.UT_GEM]) != 0 {
		t.Error("gem still free")
	}
	slot, _ := s.Get_slot(types.LOC_INVENTORY, types.AT_RIGHT_HAND, 0, 1)
	if slot.Gem == nil || slot.Gem.Id != testsave.GEM_DROPLET {
		t.Errorf("slot: %+v", slot)
	}

	gem, err := inv.Unequip_gem(f, types.AT_RIGHT_HAND, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if u32_at(t, s, field) != 0 || slot.Gem != nil {
		t.Error("slot not cleared")
	}
	if gem.Id != original.Id || gem.Source != original.Source || gem.Shape != original.Shape || gem.Info != original.Info {
		t.Errorf("unequipped %+v, expected %+v", gem, original)
	}
	for k := range original.Effects {
		if gem.Effects[k] != original.Effects[k] {
			t.Errorf("effect %v: %+v", k, gem.Effects[k])
		}
	}
	// The emptied record is not a free one, so the gem goes into the gap
	if !bytes.Equal(f.Bytes[record(6)+4:record(6)+16], gem_record) || gem.Number != 0x46 {
		t.Errorf("gem record % x, number %x", f.Bytes[record(6)+4:record(6)+16], gem.Number)
	}

	// The equipped gem is read back from the slot block
	again, err := Build(f, s.Tables)
	if err != nil {
		t.Fatal(err)
	}
	if g, err := again.Get_equipped_upgrade(types.LOC_INVENTORY, types.AT_RIGHT_HAND, 0, 0); err != nil || g.Id != testsave.GEM_RADIAL {
		t.Errorf("equipped gem lost on rebuild: %v", err)
	}
}

func Test_Equip_errors(t *testing.T) {
	s := open_test_save(t)
	inv := s.Inventory
	f := s.File
	before := bytes.Clone(f.Bytes)

	expect_error(t, inv.Equip_gem(f, 0, types.AT_RIGHT_HAND, 0, 0), "The slot already holds a gem.")
	expect_error(t, inv.Equip_gem(f, 0, types.AT_RIGHT_HAND, 0, 2), "The slot is closed.")
	expect_error(t, inv.Equip_gem(f, 0, types.AT_RIGHT_HAND, 0, 5), "Invalid slot_index.")
	expect_error(t, inv.Equip_gem(f, 0, types.AT_RIGHT_HAND, 3, 1), "Invalid article index.")
	expect_error(t, inv.Equip_gem(f, 0, types.AT_CONSUMABLE, 0, 0), "Article does not have slots.")
	expect_error(t, inv.Equip_gem(f, 4, types.AT_RIGHT_HAND, 0, 1), "Invalid upgrade index.")
	_, err := inv.Unequip_gem(f, types.AT_RIGHT_HAND, 0, 1)
	expect_error(t, err, "The slot has no gem.")

	if !bytes.Equal(before, f.Bytes) {
		t.Error("failed equips changed the save")
	}
}

func Test_Move_upgrade(t *testing.T) {
	s := open_test_save(t)

	moved, err := s.Move_upgrade(types.UT_GEM, 0, types.LOC_INVENTORY)
	if err != nil {
		t.Fatal(err)
	}
	if moved.Id != testsave.GEM_DROPLET || moved.Number != 8 {
		t.Errorf("moved: %+v", moved)
	}
	if len(s.Inventory.Upgrades[types.UT_GEM]) != 0 || len(s.Storage.Upgrades[types.UT_GEM]) != 2 {
		t.Error("gem not moved")
	}
	if !emptied(s, record(4), 0x44) {
		t.Error("inventory record not emptied")
	}
	if u32_at(t, s, storage_record(testsave.STORAGE_RECORDS)+4) != testsave.GEM_DROPLET {
		t.Error("storage record not written")
	}

	back, err := s.Move_upgrade(types.UT_GEM, 1, types.LOC_STORAGE)
	if err != nil || back.Number != 0x46 {
		t.Errorf("moved back: %+v %v", back, err)
	}

	_, err = s.Move_upgrade(types.UT_RUNE, 3, types.LOC_INVENTORY)
	expect_error(t, err, "Invalid upgrade index.")
}

func Test_Remove_upgrade(t *testing.T) {
	s := open_test_save(t)
	removed, err := s.Inventory.Remove_upgrade(s.File, types.UT_RUNE, 0)
	if err != nil || removed.Id != testsave.RUNE_CLAW {
		t.Fatalf("removed %+v, %v", removed, err)
	}
	if s.File.find_upgrade_record(testsave.RUNE_CLAW) < 0 {
		t.Error("upgrade record should survive")
	}
	if !emptied(s, record(5), 0x45) {
		t.Errorf("rune record % x", s.File.Bytes[record(5):record(5)+16])
	}
	again, _ := Build(s.File, s.Tables)
	if len(again.Inventory.Upgrades[types.UT_RUNE]) != 0 {
		t.Error("rune still in the inventory")
	}
}

// emptied is true for what a removed upgrade leaves behind: its number, then 12 zeroes.
func emptied(s *SaveData, offset int, number byte) bool {
	return s.File.Bytes[offset] == number && bytes.Equal(s.File.Bytes[offset+4:offset+16], make([]byte, 12))
}

// storage_gem_first swaps the first two storage records, so that the waning gem is first.
func storage_gem_first() []byte {
	data := testsave.New()
	a := storage_record(0) + 4
	b := storage_record(1) + 4
	antidote := bytes.Clone(data[a : a+12])
	copy(data[a:a+12], data[b:b+12])
	copy(data[b:b+12], antidote)
	return data
}

func Test_Storage_first_record_leaves(t *testing.T) {
	s := open_with(t, storage_gem_first(), types.Default_policy())
	st := s.Storage
	f := s.File
	if st.First_upgrade == nil || *st.First_upgrade != types.UT_GEM || st.Upgrades[types.UT_GEM][0].Id != testsave.GEM_WANING {
		t.Fatalf("first: %v %v", st.First_article, st.First_upgrade)
	}

	// In: the droplet is appended and the waning gem, still first, is renumbered
	droplet, err := s.Move_upgrade(types.UT_GEM, 0, types.LOC_INVENTORY)
	if err != nil {
		t.Fatal(err)
	}
	if droplet.Number != 8 || st.Upgrades[types.UT_GEM][0].Number != testsave.STORAGE_COUNTER+1 {
		t.Errorf("droplet %v, waning %v", droplet.Number, st.Upgrades[types.UT_GEM][0].Number)
	}

	// Out: the waning gem leaves the first record
	_, err = s.Move_upgrade(types.UT_GEM, 0, types.LOC_STORAGE)
	if err != nil {
		t.Fatal(err)
	}
	if !emptied(s, storage_record(0), testsave.STORAGE_COUNTER+1) {
		t.Errorf("first record % x", f.Bytes[storage_record(0):storage_record(0)+16])
	}
	if st.First_article != nil || st.First_upgrade != nil {
		t.Error("an emptied first record is still first")
	}

	// Add: only the counter byte changes, nobody is renumbered
	_, err = st.Add_item(f, s.Tables, 1100, 1)
	if err != nil {
		t.Fatal(err)
	}
	if f.Bytes[testsave.STORAGE] != testsave.STORAGE_COUNTER+2 {
		t.Errorf("counter %v", f.Bytes[testsave.STORAGE])
	}
	if st.Upgrades[types.UT_GEM][0].Number != 8 || f.find_upgrade_offset(8, testsave.GEM_DROPLET, true) != storage_record(testsave.STORAGE_RECORDS) {
		t.Errorf("droplet renumbered to %v", st.Upgrades[types.UT_GEM][0].Number)
	}

	// Back: the droplet is still found where it is
	back, err := s.Move_upgrade(types.UT_GEM, 0, types.LOC_STORAGE)
	if err != nil || back.Id != testsave.GEM_DROPLET {
		t.Errorf("moved back: %+v %v", back, err)
	}
}

// The first storage counter wraps within its byte, leaving the rest of the first record alone.
func Test_Storage_counter_wraps(t *testing.T) {
	data := testsave.New()
	data[testsave.STORAGE] = 0xFF
	s := open_with(t, data, types.Default_policy())
	f := s.File
	rest := bytes.Clone(f.Bytes[testsave.STORAGE+1 : testsave.STORAGE+16])

	_, err := s.Storage.Add_item(f, s.Tables, 1100, 1)
	if err != nil {
		t.Fatal(err)
	}
	if f.Bytes[testsave.STORAGE] != 0 || !bytes.Equal(f.Bytes[testsave.STORAGE+1:testsave.STORAGE+16], rest) {
		t.Errorf("first record % x", f.Bytes[testsave.STORAGE:testsave.STORAGE+16])
	}
	antidote := s.Storage.Articles[types.AT_CONSUMABLE][0]
	if antidote.Number != 0 {
		t.Errorf("antidote number %v", antidote.Number)
	}
	if err := s.Storage.Edit_item(f, 0, 1200, 2); err != nil {
		t.Errorf("antidote not found after the wrap: %v", err)
	}
}

// Converting the first storage upgrade keeps it first under its new type.
func Test_Convert_first_upgrade(t *testing.T) {
	s := open_with(t, storage_gem_first(), types.Default_policy())
	st := s.Storage
	converted, err := st.Convert_upgrade(s.File, s.Tables, types.UT_GEM, 0)
	if err != nil {
		t.Fatal(err)
	}
	if st.First_upgrade == nil || *st.First_upgrade != types.UT_RUNE || converted.Index != 0 || st.Upgrades[types.UT_RUNE][0].Id != testsave.GEM_WANING {
		t.Errorf("first %v, converted %+v", st.First_upgrade, converted)
	}
	_, err = st.Add_item(s.File, s.Tables, 1100, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.Upgrades[types.UT_RUNE][0].Number != testsave.STORAGE_COUNTER+1 {
		t.Errorf("converted number %v", st.Upgrades[types.UT_RUNE][0].Number)
	}
}

package save

import (
	"encoding/binary"
	"slices"

	"bbsave/readers"
	"bbsave/tables"
	"bbsave/types"
	"bbsave/writers"
)

// Inventory is the articles and free upgrades of the inventory (key items included) or of the storage.
//
// The first record of the storage doubles as its article counter, so adding anything
// to the storage also bumps the number of whatever sits in the first record.
// First_article/First_upgrade say what that is, and are both nil once the first record is empty.
type Inventory struct {
	Articles      map[types.ArticleType][]types.Article `json:"articles"`
	Upgrades      map[types.UpgradeType][]types.Upgrade `json:"upgrades"`
	First_article *types.ArticleType                    `json:"first_article"`
	First_upgrade *types.UpgradeType                    `json:"first_upgrade"`
	Is_storage    bool                                  `json:"is_storage"`
}

func new_inventory(is_storage bool) *Inventory {
	return &Inventory{
		Articles:   map[types.ArticleType][]types.Article{},
		Upgrades:   map[types.UpgradeType][]types.Upgrade{},
		Is_storage: is_storage,
	}
}

// classify works out what an article record holds from the tag bytes of first_part and second_part.
func classify(t *tables.Tables, first uint32, second uint32) (uint32, types.ItemInfo, types.ArticleType, error) {
	switch {
	case first>>24 == 0xB0 && second>>24 == 0x40:
		id := second & 0xFFFFFF
		info, at, err := t.Item_info(id)
		return id, info, at, err
	case second>>24 == 0x10:
		id := second & 0xFFFFFF
		info, err := t.Armor_info(id)
		return id, info, types.AT_ARMOR, err
	}
	info, at, err := t.Weapon_info(second)
	return second, info, at, err
}

// Build_inventory reads the articles of regions.
//
// Records that are not articles may be free upgrades, claimed from pool by id.
// Armor and weapons are only real once they have a slot block; those without are skipped.
func Build_inventory(f *FileData, t *tables.Tables, regions []types.Region, is_storage bool, pool UpgradePool, slots SlotMap) *Inventory {
	inv := new_inventory(is_storage)
	for _, r := range regions {
		for i := r.Start; i+types.ARTICLE_RECORD_SIZE <= r.End; i += types.ARTICLE_RECORD_SIZE {
			if readers.Is_terminator(f.Bytes, i) {
				continue
			}
			inv.parse_record(f.Bytes, i, i == regions[0].Start, t, pool, slots)
		}
	}
	return inv
}

func (inv *Inventory) parse_record(data []byte, i int, first_record bool, t *tables.Tables, pool UpgradePool, slots SlotMap) {
	number := data[i]
	first := binary.LittleEndian.Uint32(data[i+4:])
	second := binary.LittleEndian.Uint32(data[i+8:])
	amount := binary.LittleEndian.Uint32(data[i+12:])

	id, info, at, err := classify(t, first, second)
	if err != nil {
		u, ok := pool[first]
		if !ok {
			debugf("skipping record at x%x: %v", i, err)
			return
		}
		delete(pool, first)
		upgrade := *u
		upgrade.Number = number
		if first_record {
			inv.push_first_upgrade(upgrade)
		} else {
			inv.push_upgrade(upgrade)
		}
		return
	}

	article := types.Article{
		Number:       number,
		Id:           id,
		First_part:   first,
		Second_part:  second,
		Amount:       amount,
		Info:         info,
		Article_type: at,
		Type_family:  at.Family(),
	}
	if !article.Is_item() {
		s, ok := slots[article.Key()]
		if !ok {
			debugf("skipping %v at x%x: no slot block", info.Name, i)
			return
		}
		delete(slots, article.Key())
		article.Slots = s
	}
	if first_record {
		inv.push_first_article(article)
	} else {
		inv.push_article(article)
	}
}

func (inv *Inventory) push_article(a types.Article) *types.Article {
	a.Index = len(inv.Articles[a.Article_type])
	inv.Articles[a.Article_type] = append(inv.Articles[a.Article_type], a)
	return &inv.Articles[a.Article_type][a.Index]
}

func (inv *Inventory) push_upgrade(u types.Upgrade) *types.Upgrade {
	u.Index = len(inv.Upgrades[u.Upgrade_type])
	inv.Upgrades[u.Upgrade_type] = append(inv.Upgrades[u.Upgrade_type], u)
	return &inv.Upgrades[u.Upgrade_type][u.Index]
}

// push_first_article puts the article of the first record at the head of its list.
func (inv *Inventory) push_first_article(a types.Article) *types.Article {
	at := a.Article_type
	inv.First_article, inv.First_upgrade = &at, nil
	list := append([]types.Article{a}, inv.Articles[at]...)
	for k := range list {
		list[k].Index = k
	}
	inv.Articles[at] = list
	return &list[0]
}

func (inv *Inventory) push_first_upgrade(u types.Upgrade) *types.Upgrade {
	ut := u.Upgrade_type
	inv.First_article, inv.First_upgrade = nil, &ut
	list := append([]types.Upgrade{u}, inv.Upgrades[ut]...)
	for k := range list {
		list[k].Index = k
	}
	inv.Upgrades[ut] = list
	return &list[0]
}

func (inv *Inventory) is_first_article(at types.ArticleType, index int) bool {
	return index == 0 && inv.First_article != nil && *inv.First_article == at
}

func (inv *Inventory) is_first_upgrade(ut types.UpgradeType, index int) bool {
	return index == 0 && inv.First_upgrade != nil && *inv.First_upgrade == ut
}

// remove_article takes an article out of its list; the ones after it move down.
// Taking out the first record leaves nothing first.
func (inv *Inventory) remove_article(at types.ArticleType, index int) types.Article {
	if inv.is_first_article(at, index) {
		inv.First_article = nil
	}
	list := inv.Articles[at]
	a := list[index]
	list = slices.Delete(list, index, index+1)
	for k := index; k < len(list); k++ {
		list[k].Index = k
	}
	inv.Articles[at] = list
	return a
}

func (inv *Inventory) remove_upgrade(ut types.UpgradeType, index int) types.Upgrade {
	if inv.is_first_upgrade(ut, index) {
		inv.First_upgrade = nil
	}
	list := inv.Upgrades[ut]
	u := list[index]
	list = slices.Delete(list, index, index+1)
	for k := index; k < len(list); k++ {
		list[k].Index = k
	}
	inv.Upgrades[ut] = list
	return u
}

// Article returns an article by type and index.
func (inv *Inventory) Article(at types.ArticleType, index int) (*types.Article, error) {
	list := inv.Articles[at]
	if index < 0 || index >= len(list) {
		return nil, types.Custom_error("Invalid article index.")
	}
	return &list[index], nil
}

func (inv *Inventory) Upgrade(ut types.UpgradeType, index int) (*types.Upgrade, error) {
	list := inv.Upgrades[ut]
	if index < 0 || index >= len(list) {
		return nil, types.Custom_error("Invalid upgrade index.")
	}
	return &list[index], nil
}

// Slot returns a slot of an armor or weapon.
func (inv *Inventory) Slot(at types.ArticleType, index int, slot_index int) (*types.Article, *types.Slot, error) {
	a, err := inv.Article(at, index)
	if err != nil {
		return nil, nil, err
	}
	if a.Slots == nil {
		return nil, nil, types.Custom_error("Article does not have slots.")
	}
	if slot_index < 0 || slot_index >= len(a.Slots) {
		return nil, nil, types.Custom_error("Invalid slot_index.")
	}
	return a, &a.Slots[slot_index], nil
}

// Edit_item sets the amount of the item with this number and id.
func (inv *Inventory) Edit_item(f *FileData, number uint8, id uint32, value uint32) error {
	var item *types.Article
	for _, at := range types.All_article_types() {
		if at.Family() != types.TF_ITEM {
			continue
		}
		for k := range inv.Articles[at] {
			a := &inv.Articles[at][k]
			if a.Number == number && a.Id == id {
				item = a
			}
		}
	}
	if item == nil {
		return types.Custom_error("The Article was not found in the inventory.")
	}
	if item.Article_type == types.AT_KEY {
		return types.Custom_error("Key items cannot be edited.")
	}

	offset := f.Find_article_offset(number, id, types.TF_ITEM, inv.Is_storage)
	if offset < 0 {
		return types.Custom_error("The Article was not found in the inventory.")
	}
	err := writers.Write_u32_le(f.Bytes, offset+12, value)
	if err != nil {
		return err
	}
	item.Amount = value
	return nil
}

func (inv *Inventory) region(f *FileData) *types.Region {
	if inv.Is_storage {
		return &f.Offsets.Storage
	}
	return &f.Offsets.Inventory
}

// capacity is the first offset new records may not reach.
func (inv *Inventory) capacity(f *FileData) int {
	if inv.Is_storage {
		return f.Offsets.Storage.Start + f.Policy.Storage_capacity*types.ARTICLE_RECORD_SIZE
	}
	return f.Offsets.Key_inventory.Start
}

func (inv *Inventory) counters(f *FileData) (int, int) {
	u := f.Offsets.Username
	if inv.Is_storage {
		return u + types.USERNAME_TO_FIRST_STORAGE_COUNTER, u + types.USERNAME_TO_SECOND_STORAGE_COUNTER
	}
	return u + types.USERNAME_TO_FIRST_INVENTORY_COUNTER, u + types.USERNAME_TO_SECOND_INVENTORY_COUNTER
}

// slot_for_new returns where a new record would go: a free record inside the region if there is one,
// else the end of the region.
func (inv *Inventory) slot_for_new(f *FileData) (int, bool, error) {
	r := inv.region(f)
	if pos := f.Find_inv_empty_slot(*r); pos >= 0 {
		return pos, false, nil
	}
	// The new record and the free record after it
	if r.End+2*types.ARTICLE_RECORD_SIZE > inv.capacity(f) {
		return 0, true, types.Custom_error("The inventory is full.")
	}
	err := readers.Check(f.Bytes, r.End, 2*types.ARTICLE_RECORD_SIZE)
	if err != nil {
		return 0, true, err
	}
	return r.End, true, nil
}

// Can_add fails if nothing more fits in the inventory.
func (inv *Inventory) Can_add(f *FileData) error {
	_, _, err := inv.slot_for_new(f)
	if err != nil {
		return err
	}
	c1, c2 := inv.counters(f)
	err = readers.Check(f.Bytes, c1, 4)
	if err != nil {
		return err
	}
	return readers.Check(f.Bytes, c2, 4)
}

// insert_record writes a 12-byte record payload into a free record or at the end of the region,
// bumps both counters, and returns the number of the new record and whether it is the first record.
func (inv *Inventory) insert_record(f *FileData, payload []byte) (uint8, bool, error) {
	err := inv.Can_add(f)
	if err != nil {
		return 0, false, err
	}
	pos, appending, _ := inv.slot_for_new(f)

	writers.Write_bytes(f.Bytes, pos+4, payload)
	if appending {
		f.Bytes[pos+types.ARTICLE_RECORD_SIZE] = f.Bytes[pos] + 1
		inv.region(f).End += types.ARTICLE_RECORD_SIZE
	}

	c1, c2 := inv.counters(f)
	if inv.Is_storage {
		// The first storage counter is the number byte of the first record
		f.Bytes[c1]++
	} else {
		n, _ := readers.Read_u32_le(f.Bytes, c1)
		writers.Write_u32_le(f.Bytes, c1, n+1)
	}
	n, _ := readers.Read_u32_le(f.Bytes, c2)
	writers.Write_u32_le(f.Bytes, c2, n+1)

	first := inv.Is_storage && pos == inv.region(f).Start
	if inv.Is_storage && !first {
		inv.bump_first()
	}
	return f.Bytes[pos], first, nil
}

// bump_first adds one to the number of whatever holds the first storage record, if anything does.
// The counter bump already changed the byte itself.
func (inv *Inventory) bump_first() {
	if inv.First_article != nil {
		if list := inv.Articles[*inv.First_article]; len(list) > 0 {
			list[0].Number++
		}
	}
	if inv.First_upgrade != nil {
		if list := inv.Upgrades[*inv.First_upgrade]; len(list) > 0 {
			list[0].Number++
		}
	}
}

// Add_item adds a new item.  Key items and chalices always come one at a time.
func (inv *Inventory) Add_item(f *FileData, t *tables.Tables, id uint32, quantity uint32) (*types.Article, error) {
	if id > 0xFFFFFF {
		return nil, types.Custom_error("Item ids are 3 bytes long.")
	}
	info, at, err := t.Item_info(id)
	if err != nil {
		return nil, err
	}
	if at == types.AT_KEY && inv.Is_storage {
		return nil, types.Custom_error("Key items cannot be stored.")
	}
	if at == types.AT_KEY || at == types.AT_CHALICE {
		quantity = 1
	}

	first := id | 0xB0<<24
	second := id | 0x40<<24
	payload := binary.LittleEndian.AppendUint32(nil, first)
	payload = binary.LittleEndian.AppendUint32(payload, second)
	payload = binary.LittleEndian.AppendUint32(payload, quantity)
	number, first_record, err := inv.insert_record(f, payload)
	if err != nil {
		return nil, err
	}

	a := types.Article{
		Number:       number,
		Id:           id,
		First_part:   first,
		Second_part:  second,
		Amount:       quantity,
		Info:         info,
		Article_type: at,
		Type_family:  at.Family(),
	}
	if first_record {
		return inv.push_first_article(a), nil
	}
	return inv.push_article(a), nil
}

// Add_upgrade puts an upgrade that already has a record in the upgrade region into the inventory.
func (inv *Inventory) Add_upgrade(f *FileData, u types.Upgrade) (*types.Upgrade, error) {
	payload := binary.LittleEndian.AppendUint32(nil, u.Id)
	payload = binary.LittleEndian.AppendUint32(payload, u.Source)
	payload = binary.LittleEndian.AppendUint32(payload, 1)
	number, first_record, err := inv.insert_record(f, payload)
	if err != nil {
		return nil, err
	}
	u.Number = number
	if first_record {
		return inv.push_first_upgrade(u), nil
	}
	return inv.push_upgrade(u), nil
}

func (inv *Inventory) upgrade_offset(f *FileData, u *types.Upgrade) (int, error) {
	offset := f.find_upgrade_offset(u.Number, u.Id, inv.Is_storage)
	if offset < 0 {
		return 0, types.Custom_error("The upgrade was not found in the inventory.")
	}
	return offset, nil
}

// free_record empties an inventory record.  Byte 0 keeps the record's number.
func free_record(f *FileData, offset int) error {
	return writers.Write_bytes(f.Bytes, offset+4, make([]byte, types.ARTICLE_RECORD_SIZE-4))
}

// Remove_upgrade empties the record of an upgrade and takes it out of the inventory.
// The upgrade keeps its record in the upgrade region.
func (inv *Inventory) Remove_upgrade(f *FileData, ut types.UpgradeType, index int) (types.Upgrade, error) {
	u, err := inv.Upgrade(ut, index)
	if err != nil {
		return types.Upgrade{}, err
	}
	offset, err := inv.upgrade_offset(f, u)
	if err != nil {
		return types.Upgrade{}, err
	}
	err = free_record(f, offset)
	if err != nil {
		return types.Upgrade{}, err
	}
	return inv.remove_upgrade(ut, index), nil
}

// Convert_upgrade turns a free gem into a rune or the other way round.
func (inv *Inventory) Convert_upgrade(f *FileData, t *tables.Tables, ut types.UpgradeType, index int) (*types.Upgrade, error) {
	u, err := inv.Upgrade(ut, index)
	if err != nil {
		return nil, err
	}
	was_first := inv.is_first_upgrade(ut, index)
	err = Convert_upgrade(f, t, u)
	if err != nil {
		return nil, err
	}
	converted := inv.remove_upgrade(ut, index)
	if was_first {
		return inv.push_first_upgrade(converted), nil
	}
	return inv.push_upgrade(converted), nil
}

func slot_gem_offset(block int, slot_index int) int {
	return block + types.SLOT_BLOCK_FIRST_GEM + slot_index*types.SLOT_BLOCK_STRIDE
}

func (inv *Inventory) slot_block(f *FileData, a *types.Article) (int, error) {
	block := f.find_slot_block(a.Key())
	if block < 0 {
		return 0, types.Custom_error("Failed to find the article in the file data.")
	}
	return block, nil
}

// Equip_gem moves a free gem into an open, empty slot of an armor or weapon of the same inventory.
func (inv *Inventory) Equip_gem(f *FileData, upgrade_index int, at types.ArticleType, article_index int, slot_index int) error {
	a, slot, err := inv.Slot(at, article_index, slot_index)
	if err != nil {
		return err
	}
	if slot.Gem != nil {
		return types.Custom_error("The slot already holds a gem.")
	}
	if slot.Shape == types.SS_CLOSED {
		return types.Custom_error("The slot is closed.")
	}
	gem, err := inv.Upgrade(types.UT_GEM, upgrade_index)
	if err != nil {
		return err
	}
	record, err := inv.upgrade_offset(f, gem)
	if err != nil {
		return err
	}
	block, err := inv.slot_block(f, a)
	if err != nil {
		return err
	}
	field := slot_gem_offset(block, slot_index)
	err = readers.Check(f.Bytes, field, 4)
	if err != nil {
		return err
	}

	free_record(f, record)
	writers.Write_u32_le(f.Bytes, field, gem.Id)
	equipped := inv.remove_upgrade(types.UT_GEM, upgrade_index)
	equipped.Index = 0
	slot.Gem = &equipped
	return nil
}

// Unequip_gem takes the gem out of a slot and puts it back into the inventory.
func (inv *Inventory) Unequip_gem(f *FileData, at types.ArticleType, article_index int, slot_index int) (*types.Upgrade, error) {
	a, slot, err := inv.Slot(at, article_index, slot_index)
	if err != nil {
		return nil, err
	}
	if slot.Gem == nil {
		return nil, types.Custom_error("The slot has no gem.")
	}
	block, err := inv.slot_block(f, a)
	if err != nil {
		return nil, err
	}
	field := slot_gem_offset(block, slot_index)
	err = readers.Check(f.Bytes, field, 4)
	if err != nil {
		return nil, err
	}
	err = inv.Can_add(f)
	if err != nil {
		return nil, err
	}

	writers.Write_u32_le(f.Bytes, field, 0)
	gem := *slot.Gem
	slot.Gem = nil
	return inv.Add_upgrade(f, gem)
}

package save

import (
	"encoding/binary"

	"bbsave/readers"
	"bbsave/tables"
	"bbsave/types"
	"bbsave/writers"
)

// move_article files an article under another type.  The article in the first record stays first.
func (inv *Inventory) move_article(at types.ArticleType, index int, to types.ArticleType) *types.Article {
	was_first := inv.is_first_article(at, index)
	a := inv.remove_article(at, index)
	a.Article_type = to
	a.Type_family = to.Family()
	if was_first {
		return inv.push_first_article(a)
	}
	return inv.push_article(a)
}

func (inv *Inventory) article_offset(f *FileData, a *types.Article) (int, error) {
	offset := f.Find_article_offset(a.Number, a.Id, a.Type_family, inv.Is_storage)
	if offset < 0 {
		return 0, types.Custom_error("The Article was not found in the inventory.")
	}
	return offset, nil
}

// duplicate_offset finds the copy of an article's key that sits above the inventory, in its slot block.
// The last copy before the inventory wins.
func (inv *Inventory) duplicate_offset(f *FileData, a *types.Article) (int, error) {
	key := binary.LittleEndian.AppendUint64(nil, a.Key())
	dup := readers.Rfind(f.Bytes, 0, f.Offsets.Inventory.Start-len(key)+1, key)
	if dup < 0 {
		return 0, types.Custom_error("The Article was not found above the inventory.")
	}
	return dup, nil
}

// Transform_article turns an article into another one of the same family.
// Items are given a 3-byte id; armor a 3-byte id; weapons their full 4-byte id, mods included.
func (inv *Inventory) Transform_article(f *FileData, t *tables.Tables, at types.ArticleType, index int, new_id uint32) (*types.Article, error) {
	a, err := inv.Article(at, index)
	if err != nil {
		return nil, err
	}
	if a.Is_item() {
		return inv.transform_item(f, t, a, new_id)
	}
	return inv.transform_equipment(f, t, a, new_id)
}

func (inv *Inventory) transform_item(f *FileData, t *tables.Tables, a *types.Article, new_id uint32) (*types.Article, error) {
	if new_id > 0xFFFFFF {
		return nil, types.Custom_error("Item ids are 3 bytes long.")
	}
	info, new_at, err := t.Item_info(new_id)
	if err != nil {
		return nil, err
	}
	if new_at == types.AT_KEY && inv.Is_storage {
		return nil, types.Custom_error("Key items cannot be stored.")
	}
	offset, err := inv.article_offset(f, a)
	if err != nil {
		return nil, err
	}
	err = readers.Check(f.Bytes, offset, types.ARTICLE_RECORD_SIZE)
	if err != nil {
		return nil, err
	}

	id := binary.LittleEndian.AppendUint32(nil, new_id)[:3]
	writers.Write_bytes(f.Bytes, offset+4, id)
	writers.Write_bytes(f.Bytes, offset+8, id)
	amount := a.Amount
	if new_at == types.AT_KEY || new_at == types.AT_CHALICE {
		amount = 1
		writers.Write_u32_le(f.Bytes, offset+12, amount)
	}

	a.Id = new_id
	a.First_part = a.First_part&0xFF000000 | new_id
	a.Second_part = a.Second_part&0xFF000000 | new_id
	a.Amount = amount
	a.Info = info
	if new_at == a.Article_type {
		return a, nil
	}
	return inv.move_article(a.Article_type, a.Index, new_at), nil
}

func (inv *Inventory) transform_equipment(f *FileData, t *tables.Tables, a *types.Article, new_id uint32) (*types.Article, error) {
	var info types.ItemInfo
	var err error
	new_at := a.Article_type
	var new_bytes []byte
	second := new_id

	if a.Is_armor() {
		if new_id > 0xFFFFFF {
			return nil, types.Custom_error("Armor ids are 3 bytes long.")
		}
		info, err = t.Armor_info(new_id)
		second = new_id | 0x10<<24
		new_bytes = binary.LittleEndian.AppendUint32(nil, second)[:3]
	} else {
		info, new_at, err = t.Weapon_info(new_id)
		new_bytes = binary.LittleEndian.AppendUint32(nil, second)
	}
	if err != nil {
		return nil, types.Custom_error("Failed to find info for the article.")
	}

	offset, err := inv.article_offset(f, a)
	if err != nil {
		return nil, err
	}
	dup, err := inv.duplicate_offset(f, a)
	if err != nil {
		return nil, err
	}
	write, err := New_dual_write(f.Bytes, offset+8, new_bytes, dup+4, new_bytes)
	if err != nil {
		return nil, err
	}
	err = write.Commit()
	if err != nil {
		return nil, err
	}

	a.Id = new_id
	a.Second_part = second
	a.Info = info
	if new_at == a.Article_type {
		return a, nil
	}
	return inv.move_article(a.Article_type, a.Index, new_at), nil
}

// Set_imprint_and_upgrade changes the imprint and/or upgrade level of a weapon.  nil leaves a mod as it is.
func (inv *Inventory) Set_imprint_and_upgrade(f *FileData, t *tables.Tables, at types.ArticleType, index int, imprint *types.Imprint, level *uint8) (*types.Article, error) {
	a, err := inv.Article(at, index)
	if err != nil {
		return nil, err
	}
	if !a.Is_weapon() {
		return nil, types.Custom_error("The article must be a weapon.")
	}
	mods, err := types.Weapon_mods_from(a.Second_part)
	if err != nil {
		return nil, err
	}
	if imprint != nil {
		mods.Imprint = *imprint
	}
	if level != nil {
		if *level > 10 {
			return nil, types.Custom_error("Upgrade level cannot be bigger than 10.")
		}
		mods.Upgrade_level = *level
	}
	second := mods.Encode()
	info, _, err := t.Weapon_info(second)
	if err != nil {
		return nil, err
	}

	offset, err := inv.article_offset(f, a)
	if err != nil {
		return nil, err
	}
	dup, err := inv.duplicate_offset(f, a)
	if err != nil {
		return nil, err
	}
	new_bytes := binary.LittleEndian.AppendUint32(nil, second)
	write, err := New_dual_write(f.Bytes, offset+8, new_bytes, dup+4, new_bytes)
	if err != nil {
		return nil, err
	}
	err = write.Commit()
	if err != nil {
		return nil, err
	}

	a.Id = second
	a.Second_part = second
	a.Info = info
	return a, nil
}

// Change_slot_shape reshapes a slot of an armor or weapon.  A slot holding a gem cannot be closed.
func (inv *Inventory) Change_slot_shape(f *FileData, at types.ArticleType, index int, slot_index int, shape types.SlotShape) error {
	if shape < 0 || shape >= types.SS_COUNT {
		return types.Custom_error("Invalid shape.")
	}
	a, slot, err := inv.Slot(at, index, slot_index)
	if err != nil {
		return err
	}
	if shape == types.SS_CLOSED && slot.Gem != nil {
		return types.Custom_error("A slot holding a gem cannot be closed.")
	}
	block, err := inv.slot_block(f, a)
	if err != nil {
		return err
	}
	b := shape.Bytes()
	err = writers.Write_bytes(f.Bytes, block+types.SLOT_BLOCK_FIRST_SHAPE+slot_index*types.SLOT_BLOCK_STRIDE, b[:])
	if err != nil {
		return err
	}
	slot.Shape = shape
	return nil
}

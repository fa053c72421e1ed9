package save

import (
	"encoding/binary"

	"bbsave/readers"
	"bbsave/tables"
	"bbsave/types"
	"bbsave/writers"
)

// UpgradePool holds the gems and runes of the upgrade region that nothing has claimed yet, by id.
// The slot scanner claims equipped ones, then the inventories claim the rest.
type UpgradePool map[uint32]*types.Upgrade

// Parse_upgrades reads the upgrade region.  Records with an unknown shape or first effect are skipped.
func Parse_upgrades(f *FileData, t *tables.Tables) UpgradePool {
	pool := UpgradePool{}
	r := f.Offsets.Upgrades
	for i := r.Start; i+types.UPGRADE_RECORD_SIZE <= r.End; i += types.UPGRADE_RECORD_SIZE {
		u, err := read_upgrade(f.Bytes, i, t)
		if err != nil {
			debugf("skipping upgrade at x%x: %v", i, err)
			continue
		}
		if _, ok := pool[u.Id]; ok {
			debugf("upgrade %x appears twice; keeping the one at x%x", u.Id, i)
		}
		pool[u.Id] = u
	}
	return pool
}

func read_upgrade(data []byte, offset int, t *tables.Tables) (*types.Upgrade, error) {
	err := readers.Check(data, offset, types.UPGRADE_RECORD_SIZE)
	if err != nil {
		return nil, err
	}
	ut, err := types.Upgrade_type_from(data[offset+8])
	if err != nil {
		return nil, err
	}
	shape, err := types.Shape_name(ut, data[offset+12])
	if err != nil {
		return nil, err
	}

	u := &types.Upgrade{Upgrade_type: ut, Shape: shape}
	u.Id, _ = readers.Read_u32_le(data, offset)
	u.Source, _ = readers.Read_u32_le(data, offset+4)
	for e := 0; e < types.EFFECTS_PER_UPGRADE; e++ {
		id, _ := readers.Read_u32_le(data, offset+16+4*e)
		u.Effects = append(u.Effects, effect_of(t, id, ut))
	}

	u.Info, err = t.Effect_info(u.Effects[0].Id, ut)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func effect_of(t *tables.Tables, id uint32, ut types.UpgradeType) types.Effect {
	e := types.Effect{Id: id}
	if id == types.NO_EFFECT {
		return e
	}
	info, err := t.Effect_info(id, ut)
	if err == nil {
		e.Description = info.Effect
	}
	return e
}

// find_upgrade_record returns the offset of an upgrade's 40-byte record, or -1.
func (f *FileData) find_upgrade_record(id uint32) int {
	r := f.Offsets.Upgrades
	for i := r.Start; i+types.UPGRADE_RECORD_SIZE <= r.End; i += types.UPGRADE_RECORD_SIZE {
		n, _ := readers.Read_u32_le(f.Bytes, i)
		if n == id {
			return i
		}
	}
	return -1
}

func (f *FileData) upgrade_record(u *types.Upgrade) (int, error) {
	offset := f.find_upgrade_record(u.Id)
	if offset < 0 {
		return 0, types.Custom_error("Failed to find the upgrade in the file data.")
	}
	return offset, nil
}

// Change_shape gives an upgrade another shape of its own type.
func Change_shape(f *FileData, u *types.Upgrade, shape string) error {
	tag, err := types.Shape_tag(u.Upgrade_type, shape)
	if err != nil {
		return err
	}
	offset, err := f.upgrade_record(u)
	if err != nil {
		return err
	}
	err = writers.Write_u32_le(f.Bytes, offset+12, uint32(tag))
	if err != nil {
		return err
	}
	u.Shape, _ = types.Shape_name(u.Upgrade_type, tag)
	return nil
}

// Change_effect replaces one of the six effects of an upgrade.
// The first effect decides what the upgrade is, so it can never be empty.
func Change_effect(f *FileData, t *tables.Tables, u *types.Upgrade, index int, effect uint32) error {
	if index < 0 || index >= types.EFFECTS_PER_UPGRADE || index >= len(u.Effects) {
		return types.Custom_error("Invalid effect index.")
	}
	if index == 0 && effect == types.NO_EFFECT {
		return types.Custom_error("The first effect cannot be empty.")
	}

	var info types.UpgradeInfo
	if effect != types.NO_EFFECT {
		var err error
		info, err = t.Effect_info(effect, u.Upgrade_type)
		if err != nil {
			return err
		}
	}
	offset, err := f.upgrade_record(u)
	if err != nil {
		return err
	}
	err = writers.Write_u32_le(f.Bytes, offset+16+4*index, effect)
	if err != nil {
		return err
	}

	u.Effects[index] = types.Effect{Id: effect, Description: info.Effect}
	if index == 0 {
		u.Info = info
	}
	return nil
}

// What a gem or rune turns into when converted: the plainest upgrade of the other type.
var converted_effects = map[types.UpgradeType]uint32{
	types.UT_GEM:  0x440C,
	types.UT_RUNE: 0x115582,
}

const converted_shape = 0x01

// Convert_upgrade turns a gem into a rune or a rune into a gem.
// Only the id and source survive.
func Convert_upgrade(f *FileData, t *tables.Tables, u *types.Upgrade) error {
	to := u.Upgrade_type.Other()
	first := converted_effects[to]
	info, err := t.Effect_info(first, to)
	if err != nil {
		return err
	}
	shape, err := types.Shape_name(to, converted_shape)
	if err != nil {
		return err
	}
	offset, err := f.upgrade_record(u)
	if err != nil {
		return err
	}

	record := types.Upgrade_signature(to, converted_shape)
	effects := []types.Effect{effect_of(t, first, to)}
	record = binary.LittleEndian.AppendUint32(record, first)
	for i := 0; i < types.EFFECTS_PER_UPGRADE-1; i++ {
		record = binary.LittleEndian.AppendUint32(record, types.NO_EFFECT)
		effects = append(effects, types.Effect{Id: types.NO_EFFECT})
	}
	err = writers.Write_bytes(f.Bytes, offset+8, record)
	if err != nil {
		return err
	}

	u.Upgrade_type = to
	u.Shape = shape
	u.Effects = effects
	u.Info = info
	return nil
}

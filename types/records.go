package types

import "encoding/json"

// ItemInfo is the descriptive data of an article, straight from the resource tables.
// Extra_info is a JSON document whose shape depends on the category
// (chalice depth/area, armor defenses, weapon damage and mods).
type ItemInfo struct {
	Name       string          `json:"item_name"`
	Desc       string          `json:"item_desc"`
	Img        string          `json:"item_img"`
	Extra_info json.RawMessage `json:"extra_info,omitempty"`
}

type UpgradeInfo struct {
	Name   string `json:"name"`
	Effect string `json:"effect"`
	Rating uint8  `json:"rating"`
	Level  uint8  `json:"level"`
	Note   string `json:"note"`
}

type Effect struct {
	Id          uint32 `json:"id"`
	Description string `json:"description"`
}

// Upgrade is a gem or a rune.  Free upgrades live in an inventory, equipped ones in a Slot.
type Upgrade struct {
	Number       uint8       `json:"number"`
	Id           uint32      `json:"id"`
	Source       uint32      `json:"source"`
	Upgrade_type UpgradeType `json:"upgrade_type"`
	Shape        string      `json:"shape"`
	Effects      []Effect    `json:"effects"`
	Info         UpgradeInfo `json:"info"`
	Index        int         `json:"index"`
}

func (u *Upgrade) Effect_ids() []uint32 {
	out := []uint32{}
	for _, e := range u.Effects {
		out = append(out, e.Id)
	}
	return out
}

type Slot struct {
	Shape SlotShape `json:"shape"`
	Gem   *Upgrade  `json:"gem"`
}

// Article is anything held in an inventory record: item, key item, armor or weapon.
type Article struct {
	Number       uint8       `json:"number"`
	Id           uint32      `json:"id"`
	First_part   uint32      `json:"first_part"`
	Second_part  uint32      `json:"second_part"`
	Amount       uint32      `json:"amount"`
	Info         ItemInfo    `json:"info"`
	Article_type ArticleType `json:"article_type"`
	Type_family  TypeFamily  `json:"type_family"`
	Slots        []Slot      `json:"slots,omitempty"` // armor and weapons only
	Index        int         `json:"index"`
}

// Key is the 8-byte identity shared by an inventory record and its slot block.
func (a *Article) Key() uint64 {
	return uint64(a.First_part) | uint64(a.Second_part)<<32
}

func (a *Article) Is_item() bool {
	return a.Type_family == TF_ITEM
}

func (a *Article) Is_weapon() bool {
	return a.Type_family == TF_WEAPON
}

func (a *Article) Is_armor() bool {
	return a.Type_family == TF_ARMOR
}

// WeaponMods is the upgrade level and imprint hidden in the decimal digits of a weapon id:
// hundreds are the level, the ten-thousands digit is the imprint.
// Base keeps everything else, including the 80000 code some weapons carry as part of their id.
type WeaponMods struct {
	Base          uint32
	Upgrade_level uint8
	Imprint       Imprint
}

func Weapon_mods_from(second_part uint32) (WeaponMods, error) {
	substract := second_part % 10000
	level := substract / 100
	code := second_part%100000 - substract

	out := WeaponMods{Upgrade_level: uint8(level)}
	switch code {
	case 0, 80000:
		out.Imprint = IMPRINT_NONE
	case 10000:
		out.Imprint = IMPRINT_UNCANNY
	case 20000:
		out.Imprint = IMPRINT_LOST
	default:
		return out, Custom_error("Invalid second_part")
	}
	out.Base = second_part - level*100 - imprint_codes[out.Imprint]
	return out, nil
}

func (m WeaponMods) Encode() uint32 {
	return m.Base + imprint_codes[m.Imprint] + 100*uint32(m.Upgrade_level)
}

// Lookup_id is the id the weapon tables know this weapon by.
func (m WeaponMods) Lookup_id() uint32 {
	return m.Base - m.Base%100
}

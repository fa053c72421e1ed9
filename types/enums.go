package types

import (
	"bytes"
	"strings"
)

type ArticleType int

const (
	AT_CONSUMABLE ArticleType = iota
	AT_MATERIAL
	AT_KEY
	AT_CHALICE
	AT_RIGHT_HAND
	AT_LEFT_HAND
	AT_ARMOR

	AT_COUNT
)

// Resource tables group their entries under these names.
var article_categories = []string{"consumable", "material", "key", "chalice", "rightHand", "leftHand", "armor"}

var article_names = []string{"Consumable", "Material", "Key", "Chalice", "RightHand", "LeftHand", "Armor"}

func (a ArticleType) String() string {
	if a < 0 || a >= AT_COUNT {
		return "Unknown"
	}
	return article_names[a]
}

// Category is the resource table name of an article type.
func (a ArticleType) Category() string {
	if a < 0 || a >= AT_COUNT {
		return ""
	}
	return article_categories[a]
}

func (a ArticleType) Family() TypeFamily {
	switch a {
	case AT_RIGHT_HAND, AT_LEFT_HAND:
		return TF_WEAPON
	case AT_ARMOR:
		return TF_ARMOR
	}
	return TF_ITEM
}

func (a ArticleType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ArticleType) UnmarshalText(text []byte) error {
	at, err := Parse_article_type(string(text))
	if err != nil {
		return err
	}
	*a = at
	return nil
}

// Parse_article_type accepts either a category ("rightHand") or a type name ("RightHand"), in any case.
func Parse_article_type(s string) (ArticleType, error) {
	for i := ArticleType(0); i < AT_COUNT; i++ {
		if strings.EqualFold(s, article_categories[i]) || strings.EqualFold(s, article_names[i]) {
			return i, nil
		}
	}
	return AT_CONSUMABLE, Custom_error("Invalid category.")
}

func All_article_types() []ArticleType {
	out := []ArticleType{}
	for i := ArticleType(0); i < AT_COUNT; i++ {
		out = append(out, i)
	}
	return out
}

type TypeFamily int

const (
	TF_ITEM TypeFamily = iota
	TF_WEAPON
	TF_ARMOR
)

func (f TypeFamily) String() string {
	return []string{"Item", "Weapon", "Armor"}[f]
}

func (f TypeFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type UpgradeType int

const (
	UT_GEM UpgradeType = iota
	UT_RUNE
)

func Upgrade_type_from(tag byte) (UpgradeType, error) {
	switch tag {
	case 0x01:
		return UT_GEM, nil
	case 0x02:
		return UT_RUNE, nil
	}
	return UT_GEM, Custom_error("Invalid type.")
}

// Tag is the byte stored at offset 8 of an upgrade record.
func (u UpgradeType) Tag() byte {
	if u == UT_RUNE {
		return 0x02
	}
	return 0x01
}

func (u UpgradeType) Other() UpgradeType {
	if u == UT_RUNE {
		return UT_GEM
	}
	return UT_RUNE
}

func (u UpgradeType) String() string {
	if u == UT_RUNE {
		return "Rune"
	}
	return "Gem"
}

func (u UpgradeType) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UpgradeType) UnmarshalText(text []byte) error {
	ut, err := Parse_upgrade_type(string(text))
	if err != nil {
		return err
	}
	*u = ut
	return nil
}

func Parse_upgrade_type(s string) (UpgradeType, error) {
	switch strings.ToLower(s) {
	case "gem", "gems":
		return UT_GEM, nil
	case "rune", "runes":
		return UT_RUNE, nil
	}
	return UT_GEM, Custom_error("Invalid type.")
}

// Upgrade shape names keyed by the shape byte at offset 12 of an upgrade record.
var gem_shapes = map[byte]string{
	0x01: "Radial",
	0x02: "Triangle",
	0x04: "Waning",
	0x08: "Circle",
	0x3F: "Droplet",
}

var rune_shapes = map[byte]string{
	0x01: "-",
	0x02: "Oath",
}

func shapes_of(u UpgradeType) map[byte]string {
	if u == UT_RUNE {
		return rune_shapes
	}
	return gem_shapes
}

func Shape_name(u UpgradeType, tag byte) (string, error) {
	name, ok := shapes_of(u)[tag]
	if !ok {
		return "", Custom_error("Invalid shape number.")
	}
	return name, nil
}

func Shape_tag(u UpgradeType, name string) (byte, error) {
	for tag, n := range shapes_of(u) {
		if strings.EqualFold(n, name) {
			return tag, nil
		}
	}
	return 0, Custom_error("Invalid shape.")
}

// Upgrade_signature is bytes 8-16 of an upgrade record: type tag then shape tag, each padded to 4 bytes.
func Upgrade_signature(u UpgradeType, shape byte) []byte {
	return []byte{u.Tag(), 0, 0, 0, shape, 0, 0, 0}
}

// Is_upgrade_signature reports whether 8 bytes look like the middle of a gem or rune record.
func Is_upgrade_signature(b []byte) bool {
	for _, u := range []UpgradeType{UT_GEM, UT_RUNE} {
		for tag := range shapes_of(u) {
			if bytes.Equal(b, Upgrade_signature(u, tag)) {
				return true
			}
		}
	}
	return false
}

// SlotShape is the shape of one socket of an equipped armor or weapon.
type SlotShape int

const (
	SS_CLOSED SlotShape = iota
	SS_RADIAL
	SS_TRIANGLE
	SS_WANING
	SS_CIRCLE
	SS_DROPLET

	SS_COUNT
)

var slot_shape_bytes = [][4]byte{
	{0x00, 0x00, 0x00, 0x80},
	{0x01, 0x00, 0x00, 0x00},
	{0x02, 0x00, 0x00, 0x00},
	{0x04, 0x00, 0x00, 0x00},
	{0x08, 0x00, 0x00, 0x00},
	{0x3F, 0x00, 0x00, 0x00},
}

var slot_shape_names = []string{"Closed", "Radial", "Triangle", "Waning", "Circle", "Droplet"}

func Slot_shape_from(b []byte) (SlotShape, error) {
	if len(b) == 4 {
		for i, sb := range slot_shape_bytes {
			if bytes.Equal(b, sb[:]) {
				return SlotShape(i), nil
			}
		}
	}
	return SS_CLOSED, Custom_error("Invalid shape.")
}

func (s SlotShape) Bytes() [4]byte {
	return slot_shape_bytes[s]
}

func (s SlotShape) String() string {
	if s < 0 || s >= SS_COUNT {
		return "Unknown"
	}
	return slot_shape_names[s]
}

func (s SlotShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SlotShape) UnmarshalText(text []byte) error {
	shape, err := Parse_slot_shape(string(text))
	if err != nil {
		return err
	}
	*s = shape
	return nil
}

func Parse_slot_shape(name string) (SlotShape, error) {
	for i, n := range slot_shape_names {
		if strings.EqualFold(n, name) {
			return SlotShape(i), nil
		}
	}
	return SS_CLOSED, Custom_error("Invalid shape.")
}

type Imprint int

const (
	IMPRINT_NONE Imprint = iota
	IMPRINT_UNCANNY
	IMPRINT_LOST
)

var imprint_names = []string{"None", "Uncanny", "Lost"}

// Imprint codes as they appear in the fifth decimal digit of a weapon id
var imprint_codes = []uint32{0, 10000, 20000}

func (i Imprint) String() string {
	return imprint_names[i]
}

func (i Imprint) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Imprint) UnmarshalText(text []byte) error {
	imp, err := Parse_imprint(string(text))
	if err != nil {
		return err
	}
	*i = imp
	return nil
}

func Parse_imprint(name string) (Imprint, error) {
	for i, n := range imprint_names {
		if strings.EqualFold(n, name) {
			return Imprint(i), nil
		}
	}
	return IMPRINT_NONE, Custom_error("Invalid imprint.")
}

// Location says which of the two inventories something is in.
type Location int

const (
	LOC_INVENTORY Location = iota
	LOC_STORAGE
)

func (l Location) String() string {
	if l == LOC_STORAGE {
		return "Storage"
	}
	return "Inventory"
}

func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Location) UnmarshalText(text []byte) error {
	loc, err := Parse_location(string(text))
	if err != nil {
		return err
	}
	*l = loc
	return nil
}

func Parse_location(s string) (Location, error) {
	switch strings.ToLower(s) {
	case "inventory", "inv":
		return LOC_INVENTORY, nil
	case "storage":
		return LOC_STORAGE, nil
	}
	return LOC_INVENTORY, Custom_error("Invalid location.")
}

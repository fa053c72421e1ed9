package tables

// Resource tables: what every id in a save means.
// The JSON files are parsed once per directory and kept for the life of the process.

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"bbsave/types"
)

const (
	FILE_ITEMS    = "items.json"
	FILE_ARMORS   = "armors.json"
	FILE_WEAPONS  = "weapons.json"
	FILE_UPGRADES = "upgrades.json"
	FILE_STATS    = "offsets.json"
	FILE_BOSSES   = "bosses.json"
)

var required_files = []string{FILE_ITEMS, FILE_ARMORS, FILE_WEAPONS, FILE_UPGRADES}
var optional_files = []string{FILE_STATS, FILE_BOSSES}

type Item_entry struct {
	Info types.ItemInfo
	Type types.ArticleType
}

type Weapon_entry struct {
	Info   types.ItemInfo
	Type   types.ArticleType
	Damage string // JSON object of damage by type, unscaled
}

type Stat_entry struct {
	Name       string
	Rel_offset int
	Length     int
	Times      int
}

type Flag_entry struct {
	Rel_offset  int
	Dead_value  uint8
	Alive_value uint8
}

type Boss_entry struct {
	Name  string
	Flags []Flag_entry
}

type Tables struct {
	Items        map[uint32]Item_entry
	Armors       map[uint32]Item_entry
	Weapons      map[uint32]Weapon_entry
	Gem_effects  map[uint32]types.UpgradeInfo
	Rune_effects map[uint32]types.UpgradeInfo
	Stats        []Stat_entry
	Bosses       []Boss_entry
}

var (
	cache_lock sync.Mutex
	cache      = map[string]*Tables{}
)

// Load reads the resource tables in dir, or returns the ones already read from there.
func Load(dir string) (*Tables, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.Io_error(err)
	}

	cache_lock.Lock()
	defer cache_lock.Unlock()
	if t, ok := cache[abs]; ok {
		return t, nil
	}

	files := map[string][]byte{}
	for _, name := range append(append([]string{}, required_files...), optional_files...) {
		b, err := os.ReadFile(filepath.Join(abs, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && slices.Contains(optional_files, name) {
				continue
			}
			return nil, types.Io_error(err)
		}
		files[name] = b
	}

	t, err := From_json(files)
	if err != nil {
		return nil, err
	}
	cache[abs] = t
	return t, nil
}

// From_json builds tables from file contents keyed by file name.  Missing files give empty tables.
func From_json(files map[string][]byte) (*Tables, error) {
	t := &Tables{
		Items:        map[uint32]Item_entry{},
		Armors:       map[uint32]Item_entry{},
		Weapons:      map[uint32]Weapon_entry{},
		Gem_effects:  map[uint32]types.UpgradeInfo{},
		Rune_effects: map[uint32]types.UpgradeInfo{},
	}

	parsers := []struct {
		name  string
		parse func(gjson.Result) error
	}{
		{FILE_ITEMS, t.parse_items},
		{FILE_ARMORS, t.parse_armors},
		{FILE_WEAPONS, t.parse_weapons},
		{FILE_UPGRADES, t.parse_upgrades},
		{FILE_STATS, t.parse_stats},
		{FILE_BOSSES, t.parse_bosses},
	}
	for _, p := range parsers {
		b, ok := files[p.name]
		if !ok {
			continue
		}
		if !gjson.ValidBytes(b) {
			return nil, types.Json_error(fmt.Errorf("%v is not valid JSON", p.name))
		}
		err := p.parse(gjson.ParseBytes(b))
		if err != nil {
			return nil, types.Json_error(fmt.Errorf("%v: %w", p.name, err))
		}
	}

	return t, nil
}

// for_each_id walks an object keyed by decimal ids
func for_each_id(obj gjson.Result, f func(id uint32, entry gjson.Result) error) error {
	var err error
	obj.ForEach(func(key, value gjson.Result) bool {
		id, perr := strconv.ParseUint(key.String(), 10, 32)
		if perr != nil {
			err = fmt.Errorf("bad id %q", key.String())
			return false
		}
		err = f(uint32(id), value)
		return err == nil
	})
	return err
}

func item_info(entry gjson.Result) types.ItemInfo {
	return types.ItemInfo{
		Name: entry.Get("item_name").String(),
		Desc: entry.Get("item_desc").String(),
		Img:  entry.Get("item_img").String(),
	}
}

// extra_info copies the named fields of entry into a new JSON object.
func extra_info(entry gjson.Result, fields ...string) (string, error) {
	out := "{}"
	for _, f := range fields {
		raw := "null"
		if v := entry.Get(f); v.Exists() {
			raw = v.Raw
		}
		var err error
		out, err = sjson.SetRaw(out, f, raw)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func (t *Tables) parse_items(root gjson.Result) error {
	var err error
	root.ForEach(func(category, entries gjson.Result) bool {
		at, cerr := types.Parse_article_type(category.String())
		if cerr != nil || at.Family() != types.TF_ITEM {
			err = fmt.Errorf("bad item category %q", category.String())
			return false
		}
		err = for_each_id(entries, func(id uint32, entry gjson.Result) error {
			info := item_info(entry)
			if at == types.AT_CHALICE {
				extra, err := extra_info(entry, "depth", "area")
				if err != nil {
					return err
				}
				info.Extra_info = []byte(extra)
			}
			t.Items[id] = Item_entry{info, at}
			return nil
		})
		return err == nil
	})
	return err
}

func (t *Tables) parse_armors(root gjson.Result) error {
	return for_each_id(root, func(id uint32, entry gjson.Result) error {
		info := item_info(entry)
		extra, err := extra_info(entry, "physicalDefense", "elementalDefense", "resistance", "beasthood")
		if err != nil {
			return err
		}
		info.Extra_info = []byte(extra)
		t.Armors[id] = Item_entry{info, types.AT_ARMOR}
		return nil
	})
}

func (t *Tables) parse_weapons(root gjson.Result) error {
	var err error
	root.ForEach(func(category, entries gjson.Result) bool {
		at, cerr := types.Parse_article_type(category.String())
		if cerr != nil || at.Family() != types.TF_WEAPON {
			err = fmt.Errorf("bad weapon category %q", category.String())
			return false
		}
		err = for_each_id(entries, func(id uint32, entry gjson.Result) error {
			damage := entry.Get("damage")
			if !damage.IsObject() {
				return fmt.Errorf("weapon %v has no damage table", id)
			}
			t.Weapons[id] = Weapon_entry{item_info(entry), at, damage.Raw}
			return nil
		})
		return err == nil
	})
	return err
}

func (t *Tables) parse_upgrades(root gjson.Result) error {
	for _, part := range []struct {
		key  string
		into map[uint32]types.UpgradeInfo
	}{
		{"gemEffects", t.Gem_effects},
		{"runeEffects", t.Rune_effects},
	} {
		err := for_each_id(root.Get(part.key), func(id uint32, entry gjson.Result) error {
			part.into[id] = types.UpgradeInfo{
				Name:   entry.Get("name").String(),
				Effect: entry.Get("effect").String(),
				Rating: uint8(entry.Get("rating").Uint()),
				Level:  uint8(entry.Get("level").Uint()),
				Note:   entry.Get("note").String(),
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Tables) parse_stats(root gjson.Result) error {
	if !root.IsArray() {
		return errors.New("expected a list of stats")
	}
	for _, s := range root.Array() {
		entry := Stat_entry{
			Name:       s.Get("name").String(),
			Rel_offset: int(s.Get("rel_offset").Int()),
			Length:     int(s.Get("length").Int()),
			Times:      int(s.Get("times").Int()),
		}
		if entry.Length < 1 || entry.Length > 4 || entry.Times < 1 {
			return fmt.Errorf("stat %q has a bad length or count", entry.Name)
		}
		t.Stats = append(t.Stats, entry)
	}
	return nil
}

func (t *Tables) parse_bosses(root gjson.Result) error {
	if !root.IsArray() {
		return errors.New("expected a list of bosses")
	}
	for _, b := range root.Array() {
		boss := Boss_entry{Name: b.Get("name").String()}
		for _, f := range b.Get("flags").Array() {
			boss.Flags = append(boss.Flags, Flag_entry{
				Rel_offset:  int(f.Get("rel_offset").Int()),
				Dead_value:  uint8(f.Get("dead_value").Uint()),
				Alive_value: uint8(f.Get("alive_value").Uint()),
			})
		}
		t.Bosses = append(t.Bosses, boss)
	}
	return nil
}

func clone_info(info types.ItemInfo) types.ItemInfo {
	info.Extra_info = bytes.Clone(info.Extra_info)
	return info
}

func (t *Tables) Item_info(id uint32) (types.ItemInfo, types.ArticleType, error) {
	e, ok := t.Items[id]
	if !ok {
		return types.ItemInfo{}, types.AT_CONSUMABLE, types.Custom_error("Failed to find info for the item.")
	}
	return clone_info(e.Info), e.Type, nil
}

func (t *Tables) Armor_info(id uint32) (types.ItemInfo, error) {
	e, ok := t.Armors[id]
	if !ok {
		return types.ItemInfo{}, types.Custom_error("Failed to find info for the armor.")
	}
	return clone_info(e.Info), nil
}

// Weapon_info looks up a weapon by its full id, mods included, and scales its damage to its upgrade level.
func (t *Tables) Weapon_info(second_part uint32) (types.ItemInfo, types.ArticleType, error) {
	mods, err := types.Weapon_mods_from(second_part)
	if err != nil {
		return types.ItemInfo{}, types.AT_RIGHT_HAND, err
	}
	e, ok := t.Weapons[mods.Lookup_id()]
	if !ok {
		e, ok = t.Weapons[second_part/100000*100000]
	}
	if !ok {
		return types.ItemInfo{}, types.AT_RIGHT_HAND, types.Custom_error("Failed to find info for the weapon.")
	}

	info := e.Info
	extra, err := Weapon_extra_info(e.Damage, mods)
	if err != nil {
		return types.ItemInfo{}, e.Type, types.Json_error(err)
	}
	info.Extra_info = []byte(extra)
	return info, e.Type, nil
}

func (t *Tables) Upgrade_info(effect uint32, u types.UpgradeType) (types.UpgradeInfo, bool) {
	effects := t.Gem_effects
	if u == types.UT_RUNE {
		effects = t.Rune_effects
	}
	info, ok := effects[effect]
	return info, ok
}

// Effect_info looks an effect up in the table for u, then in the other one:
// gems can carry rune effects and vice versa.
func (t *Tables) Effect_info(effect uint32, u types.UpgradeType) (types.UpgradeInfo, error) {
	if info, ok := t.Upgrade_info(effect, u); ok {
		return info, nil
	}
	if info, ok := t.Upgrade_info(effect, u.Other()); ok {
		return info, nil
	}
	return types.UpgradeInfo{}, types.Custom_error("Failed to find info for the upgrade.")
}

// Entry is one line of a catalogue listing.
type Entry struct {
	Id   uint32 `json:"id"`
	Name string `json:"name"`
}

func sorted_entries(m map[uint32]string) []Entry {
	out := []Entry{}
	for id, name := range m {
		out = append(out, Entry{id, name})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})
	return out
}

// Names maps every id of an article type to its name.
func (t *Tables) Names(at types.ArticleType) map[uint32]string {
	out := map[uint32]string{}
	switch at.Family() {
	case types.TF_ITEM:
		for id, e := range t.Items {
			if e.Type == at {
				out[id] = e.Info.Name
			}
		}
	case types.TF_ARMOR:
		for id, e := range t.Armors {
			out[id] = e.Info.Name
		}
	case types.TF_WEAPON:
		for id, e := range t.Weapons {
			if e.Type == at {
				out[id] = e.Info.Name
			}
		}
	}
	return out
}

func (t *Tables) Catalogue(at types.ArticleType) []Entry {
	return sorted_entries(t.Names(at))
}

// Effect_names maps effect ids to effect descriptions.
func (t *Tables) Effect_names(u types.UpgradeType) map[uint32]string {
	effects := t.Gem_effects
	if u == types.UT_RUNE {
		effects = t.Rune_effects
	}
	out := map[uint32]string{}
	for id, info := range effects {
		out[id] = info.Effect
	}
	return out
}

func (t *Tables) Effect_catalogue(u types.UpgradeType) []Entry {
	return sorted_entries(t.Effect_names(u))
}

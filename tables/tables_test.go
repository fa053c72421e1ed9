package tables

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"bbsave/types"
)

func load(t *testing.T) *Tables {
	tables, err := Load("../resources")
	if err != nil {
		t.Fatal(err)
	}
	return tables
}

func Test_Load(t *testing.T) {
	tables := load(t)
	t.Logf("%v items, %v armors, %v weapons, %v gem effects, %v rune effects, %v stats, %v bosses",
		len(tables.Items), len(tables.Armors), len(tables.Weapons), len(tables.Gem_effects), len(tables.Rune_effects), len(tables.Stats), len(tables.Bosses))

	if len(tables.Items) == 0 || len(tables.Armors) == 0 || len(tables.Weapons) == 0 || len(tables.Gem_effects) == 0 || len(tables.Rune_effects) == 0 {
		t.Error("empty table")
	}

	again := load(t)
	if again != tables {
		t.Error("tables were read twice")
	}
}

func Test_From_json(t *testing.T) {
	_, err := From_json(map[string][]byte{FILE_ITEMS: []byte(`{"consumable": {`)})
	if types.Kind_of(err) != types.ERR_JSON {
		t.Errorf("truncated JSON gave %v", err)
	}

	_, err = From_json(map[string][]byte{FILE_ITEMS: []byte(`{"trinkets": {}}`)})
	if types.Kind_of(err) != types.ERR_JSON {
		t.Errorf("unknown category gave %v", err)
	}

	_, err = From_json(map[string][]byte{FILE_WEAPONS: []byte(`{"rightHand": {"abc": {}}}`)})
	if err == nil {
		t.Error("non-numeric id accepted")
	}

	tables, err := From_json(map[string][]byte{})
	if err != nil || len(tables.Items) != 0 {
		t.Errorf("no files should give empty tables (%v)", err)
	}
}

func Test_Item_info(t *testing.T) {
	tables := load(t)

	info, at, err := tables.Item_info(1000)
	if err != nil || info.Name != "Blood Vial" || at != types.AT_CONSUMABLE {
		t.Errorf("got %v %v (%v)", info, at, err)
	}

	info, at, err = tables.Item_info(5000)
	if err != nil || at != types.AT_CHALICE {
		t.Fatalf("got %v %v (%v)", info, at, err)
	}
	if gjson.GetBytes(info.Extra_info, "depth").Int() != 1 || gjson.GetBytes(info.Extra_info, "area").String() != "Pthumeru" {
		t.Errorf("chalice extra info %s", info.Extra_info)
	}

	_, _, err = tables.Item_info(999999)
	if err == nil || err.Error() != "Save error: Failed to find info for the item." {
		t.Errorf("unknown item gave %v", err)
	}

	armor, err := tables.Armor_info(231000)
	if err != nil || armor.Name != "Hunter Garb" || gjson.GetBytes(armor.Extra_info, "beasthood").Int() != 10 {
		t.Errorf("got %v (%v)", armor, err)
	}
}

func Test_Weapon_info(t *testing.T) {
	tables := load(t)

	cases := []struct {
		second_part uint32
		name        string
		at          types.ArticleType
		level       int64
		imprint     string
		physical    string
	}{
		{2000000, "Saw Cleaver", types.AT_RIGHT_HAND, 0, "", "90"},
		{0x001EABF4, "Saw Cleaver", types.AT_RIGHT_HAND, 1, "Uncanny", "99"},
		{7000500, "Hunter Axe", types.AT_RIGHT_HAND, 5, "", "150"},
		{12080000, "Chikage", types.AT_RIGHT_HAND, 0, "", "98"},
		{12081000, "Chikage", types.AT_RIGHT_HAND, 10, "", "196"},
		{6020300, "Hunter Pistol", types.AT_LEFT_HAND, 3, "Lost", "91"},
	}
	for _, c := range cases {
		info, at, err := tables.Weapon_info(c.second_part)
		if err != nil {
			t.Errorf("%v: %v", c.second_part, err)
			continue
		}
		extra := gjson.ParseBytes(info.Extra_info)
		if info.Name != c.name || at != c.at {
			t.Errorf("%v is %v %v", c.second_part, info.Name, at)
		}
		if extra.Get("upgrade_level").Int() != c.level || extra.Get("imprint").String() != c.imprint {
			t.Errorf("%v has mods %s", c.second_part, info.Extra_info)
		}
		if extra.Get("damage.physical").String() != c.physical || extra.Get("damage.blood").String() == "" {
			t.Errorf("%v has damage %s", c.second_part, extra.Get("damage").Raw)
		}
	}

	_, _, err := tables.Weapon_info(99000000)
	if err == nil {
		t.Error("unknown weapon found")
	}
	_, _, err = tables.Weapon_info(14030000)
	if err == nil {
		t.Error("bad imprint accepted")
	}
}

func Test_Scale_damage(t *testing.T) {
	cases := []struct{ base, level, want uint64 }{
		{90, 0, 90},
		{90, 1, 99},
		{95, 3, 122},
		{100, 9, 190},
		{100, 10, 200},
	}
	for _, c := range cases {
		got := Scale_damage(c.base, uint8(c.level))
		if got != c.want {
			t.Errorf("Scale_damage(%v, %v) = %v, want %v", c.base, c.level, got, c.want)
		}
	}

	// Numbers stay numbers, strings stay strings, dashes stay dashes
	out, err := Scale_damage_table(`{"physical": 100, "arcane": "70", "fire": "-"}`, 10)
	if err != nil {
		t.Fatal(err)
	}
	doc := gjson.Parse(out)
	if doc.Get("physical").Type != gjson.Number || doc.Get("physical").Int() != 200 {
		t.Errorf("physical: %v", doc.Get("physical").Raw)
	}
	if doc.Get("arcane").Type != gjson.String || doc.Get("arcane").String() != "140" {
		t.Errorf("arcane: %v", doc.Get("arcane").Raw)
	}
	if doc.Get("fire").String() != "-" {
		t.Errorf("fire: %v", doc.Get("fire").Raw)
	}
}

func Test_Effect_info(t *testing.T) {
	tables := load(t)

	info, err := tables.Effect_info(17420, types.UT_GEM)
	if err != nil || info.Effect != "Physical ATK UP +0.5%" {
		t.Errorf("got %v (%v)", info, err)
	}
	// Runes can carry gem effects and the other way round
	info, err = tables.Effect_info(1136002, types.UT_GEM)
	if err != nil || info.Name != "Clawmark" {
		t.Errorf("got %v (%v)", info, err)
	}
	_, err = tables.Effect_info(1, types.UT_RUNE)
	if err == nil {
		t.Error("unknown effect found")
	}
}

func Test_Catalogue(t *testing.T) {
	tables := load(t)

	keys := tables.Catalogue(types.AT_KEY)
	if len(keys) != 2 || keys[0].Id != 4000 || keys[1].Id != 4001 {
		t.Errorf("key items %v", keys)
	}
	left := tables.Catalogue(types.AT_LEFT_HAND)
	for _, e := range left {
		if _, ok := tables.Weapons[e.Id]; !ok || tables.Weapons[e.Id].Type != types.AT_LEFT_HAND {
			t.Errorf("%v is not a left hand weapon", e)
		}
	}
	runes := tables.Effect_catalogue(types.UT_RUNE)
	if len(runes) != len(tables.Rune_effects) {
		t.Errorf("rune effects %v", runes)
	}
}

func Test_Fuzzy(t *testing.T) {
	names := map[uint32]string{
		1000: "Blood Vial",
		1100: "Quicksilver Bullets",
		4000: "Hunter Chief Emblem",
		4001: "Hunter Axe",
		7000: "Blood Stone Shard",
		7001: "Twin Blood Stone Shards",
		7002: "Blood Vial",
	}

	cases := []struct {
		input string
		want  uint32
	}{
		{"Blood Vial", 1000},
		{"blood vial", 1000},
		{"blood_vial", 1000},
		{"quick", 1100},
		{"chief", 4000},
		{"Twin", 7001},
		{"Quiksilver Bulets", 1100},
		{"Hunter Ax", 4001},
	}
	for _, c := range cases {
		got, name, err := Fuzzy_lookup(names, c.input, "item")
		if err != nil || got != c.want {
			t.Errorf("%q matched %v %q (%v), want %v", c.input, got, name, err, c.want)
		}
	}

	_, _, err := Fuzzy_lookup(names, "hunter", "item")
	if err == nil || !strings.Contains(err.Error(), "Ambiguous") {
		t.Errorf("ambiguous name gave %v", err)
	}
	_, _, err = Fuzzy_lookup(names, "Chikage", "item")
	if err == nil {
		t.Error("made up a match")
	}
}

func Test_Locations(t *testing.T) {
	l, err := Find_location("hunters dream")
	if err != nil || l.Area != 21 || l.Block != 0 {
		t.Errorf("got %v (%v)", l, err)
	}
	l, err = Find_location("Yahar'gul Chapel")
	if err != nil || l.Name != "Yahar'gul Chapel" {
		t.Errorf("got %v (%v)", l, err)
	}
	_, err = Find_location("nightmare")
	if err == nil {
		t.Error("several nightmares should be ambiguous")
	}
}

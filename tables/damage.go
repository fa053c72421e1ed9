package tables

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"bbsave/types"
)

// Scale_damage turns base damage into damage at an upgrade level.
// +10 doubles it; anything less adds a tenth of the base per level.
func Scale_damage(base uint64, level uint8) uint64 {
	if level >= 10 {
		return base * 2
	}
	return base + base/10*uint64(level)
}

func escape_path(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`.*?|#@\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Scale_damage_table applies Scale_damage to every value of a damage object.
// Values that are not numbers ("-") are left alone; numbers kept as strings stay strings.
func Scale_damage_table(damage string, level uint8) (string, error) {
	out := damage
	var err error
	gjson.Parse(damage).ForEach(func(key, value gjson.Result) bool {
		path := escape_path(key.String())
		switch value.Type {
		case gjson.String:
			n, perr := strconv.ParseUint(strings.TrimSpace(value.Str), 10, 32)
			if perr != nil {
				return true
			}
			out, err = sjson.Set(out, path, strconv.FormatUint(Scale_damage(n, level), 10))
		case gjson.Number:
			out, err = sjson.Set(out, path, Scale_damage(value.Uint(), level))
		}
		return err == nil
	})
	return out, err
}

// Weapon_extra_info is the extra_info document of a weapon: damage at its level, the level itself and its imprint.
func Weapon_extra_info(damage string, mods types.WeaponMods) (string, error) {
	scaled, err := Scale_damage_table(damage, mods.Upgrade_level)
	if err != nil {
		return "", err
	}
	out, err := sjson.SetRaw("{}", "damage", scaled)
	if err != nil {
		return "", err
	}
	out, err = sjson.Set(out, "upgrade_level", mods.Upgrade_level)
	if err != nil {
		return "", err
	}
	if mods.Imprint == types.IMPRINT_NONE {
		return sjson.SetRaw(out, "imprint", "null")
	}
	return sjson.Set(out, "imprint", mods.Imprint.String())
}

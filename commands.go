package main

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"bbsave/session"
	"bbsave/tables"
	"bbsave/types"
)

// command is an edit that needs a loaded save and leaves it stashed.
type command struct {
	usage    string
	min_args int
	run      func(s *session.Session, args []string) (string, error)
}

var commands = map[string]command{
	"add":        {"add (item) [amount]", 1, run_add},
	"transform":  {"transform (type) (index) (into)", 3, run_transform},
	"upgrade":    {"upgrade (type) (index) (level)[:imprint]", 3, run_upgrade},
	"equip":      {"equip (gem index) (type) (index) (slot)", 4, run_equip},
	"unequip":    {"unequip (type) (index) (slot)", 3, run_unequip},
	"shape":      {"shape (type) (index) (slot) (shape)", 4, run_shape},
	"gem":        {"gem (gem|rune) (index) shape (shape) | effect (n) (effect) | convert | move", 3, run_gem},
	"appearance": {"appearance export|import (filename)", 2, run_appearance},
}

func sorted_keys[K cmp.Ordered, V any](m map[K]V) []K {
	out := []K{}
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func location() types.Location {
	if flags["--storage"] {
		return types.LOC_STORAGE
	}
	return types.LOC_INVENTORY
}

func parse_index(s string, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New(fmt.Sprintf("%v must be a number, not %q", what, s))
	}
	return n, nil
}

// resolve_id turns a number or a name from any of ats into an id.
func resolve_id(s *session.Session, ats []types.ArticleType, arg string, what string) (uint32, string, error) {
	n, err := strconv.ParseUint(arg, 0, 32)
	if err == nil {
		return uint32(n), arg, nil
	}
	names := map[uint32]string{}
	for _, at := range ats {
		for _, e := range s.Articles(at) {
			names[e.Id] = e.Name
		}
	}
	return tables.Fuzzy_lookup(names, arg, what)
}

func resolve_effect(s *session.Session, ut types.UpgradeType, arg string) (uint32, string, error) {
	n, err := strconv.ParseUint(arg, 0, 32)
	if err == nil {
		return uint32(n), arg, nil
	}
	names := map[uint32]string{}
	for _, e := range s.Effects(ut) {
		names[e.Id] = e.Name
	}
	return tables.Fuzzy_lookup(names, arg, ut.String()+" effect")
}

func family_types(f types.TypeFamily) []types.ArticleType {
	out := []types.ArticleType{}
	for _, at := range types.All_article_types() {
		if at.Family() == f {
			out = append(out, at)
		}
	}
	return out
}

// article_args reads "(type) (index)" and optionally "(slot)".
func article_args(args []string, with_slot bool) (types.ArticleType, int, int, error) {
	at, err := types.Parse_article_type(args[0])
	if err != nil {
		return at, 0, 0, err
	}
	index, err := parse_index(args[1], "index")
	if err != nil {
		return at, 0, 0, err
	}
	slot := 0
	if with_slot {
		slot, err = parse_index(args[2], "slot")
	}
	return at, index, slot, err
}

func run_add(s *session.Session, args []string) (string, error) {
	id, name, err := resolve_id(s, family_types(types.TF_ITEM), args[0], "item")
	if err != nil {
		return "", err
	}
	amount := uint64(1)
	if len(args) > 1 {
		amount, err = strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return "", err
		}
	}
	_, err = s.Add_item(location(), id, uint32(amount))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %v x %v to the %v", amount, name, location()), nil
}

func run_transform(s *session.Session, args []string) (string, error) {
	at, index, _, err := article_args(args, false)
	if err != nil {
		return "", err
	}
	id, name, err := resolve_id(s, family_types(at.Family()), args[2], at.Family().String())
	if err != nil {
		return "", err
	}
	_, err = s.Transform_item(location(), at, index, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v %v transformed into %v", at, index, name), nil
}

func run_upgrade(s *session.Session, args []string) (string, error) {
	at, index, _, err := article_args(args, false)
	if err != nil {
		return "", err
	}
	level_arg, imprint_arg, _ := strings.Cut(args[2], ":")
	var level *uint8
	if level_arg != "" && level_arg != "-" {
		n, err := strconv.ParseUint(level_arg, 10, 8)
		if err != nil {
			return "", errors.New("The level must be a number from 0 to 10")
		}
		l := uint8(n)
		level = &l
	}
	var imprint *types.Imprint
	if imprint_arg != "" {
		i, err := types.Parse_imprint(imprint_arg)
		if err != nil {
			return "", err
		}
		imprint = &i
	}
	_, err = s.Change_weapon_level(location(), at, index, imprint, level)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v %v upgraded to %v", at, index, args[2]), nil
}

func run_equip(s *session.Session, args []string) (string, error) {
	gem, err := parse_index(args[0], "gem index")
	if err != nil {
		return "", err
	}
	at, index, slot, err := article_args(args[1:], true)
	if err != nil {
		return "", err
	}
	_, err = s.Equip_gem(location(), gem, at, index, slot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Gem %v equipped in slot %v of %v %v", gem, slot, at, index), nil
}

func run_unequip(s *session.Session, args []string) (string, error) {
	at, index, slot, err := article_args(args, true)
	if err != nil {
		return "", err
	}
	_, err = s.Unequip_gem(location(), at, index, slot)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Slot %v of %v %v emptied", slot, at, index), nil
}

func run_shape(s *session.Session, args []string) (string, error) {
	at, index, slot, err := article_args(args, true)
	if err != nil {
		return "", err
	}
	shape, err := types.Parse_slot_shape(args[3])
	if err != nil {
		return "", err
	}
	_, err = s.Edit_slot(location(), at, index, slot, shape)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Slot %v of %v %v is now %v", slot, at, index, shape), nil
}

func run_gem(s *session.Session, args []string) (string, error) {
	ut, err := types.Parse_upgrade_type(args[0])
	if err != nil {
		return "", err
	}
	index, err := parse_index(args[1], "index")
	if err != nil {
		return "", err
	}
	ref := session.Upgrade_ref{Location: location(), Upgrade_type: ut, Index: index}
	what := fmt.Sprintf("%v %v", ut, index)

	switch args[2] {
	case "shape":
		if len(args) < 4 {
			return "", errors.New("Which shape?")
		}
		_, err = s.Edit_shape(ref, args[3])
		return what + " reshaped", err
	case "effect":
		if len(args) < 5 {
			return "", errors.New("Expected \"effect (n) (effect)\"")
		}
		n, err := parse_index(args[3], "effect number")
		if err != nil {
			return "", err
		}
		effect, name, err := resolve_effect(s, ut, args[4])
		if err != nil {
			return "", err
		}
		_, err = s.Edit_effect(ref, n, effect)
		return fmt.Sprintf("%v effect %v set to %v", what, n, name), err
	case "convert":
		_, err = s.Convert_upgrade(location(), ut, index)
		return what + " converted into a " + ut.Other().String(), err
	case "move":
		_, err = s.Move_upgrade(ut, index, location())
		return what + " moved out of the " + location().String(), err
	}
	return "", errors.New("Unknown gem command " + args[2])
}

func run_appearance(s *session.Session, args []string) (string, error) {
	switch args[0] {
	case "export":
		return "Appearance exported to " + args[1], s.Export_appearance(args[1])
	case "import":
		_, err := s.Import_appearance(args[1])
		return "Appearance imported from " + args[1], err
	}
	return "", errors.New("Expected \"appearance export\" or \"appearance import\"")
}

// list shows everything of a type, or every effect, or every place.
func list(t *tables.Tables, what string) []string {
	entries := []tables.Entry{}
	switch strings.ToLower(what) {
	case "places":
		out := []string{}
		for _, l := range tables.Locations {
			out = append(out, l.Name)
		}
		return out
	case "gem", "rune":
		ut, _ := types.Parse_upgrade_type(what)
		entries = t.Effect_catalogue(ut)
	default:
		at, err := types.Parse_article_type(what)
		if err != nil {
			return []string{"Nothing is called " + what}
		}
		entries = t.Catalogue(at)
	}
	out := []string{}
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%v: %v", e.Id, e.Name))
	}
	return out
}

package main

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"bbsave/save"
	"bbsave/session"
	"bbsave/types"
)

func describe_upgrade(u gjson.Result) string {
	effects := []string{}
	for _, e := range u.Get("effects").Array() {
		if e.Get("id").Uint() != uint64(types.NO_EFFECT) {
			effects = append(effects, e.Get("description").String())
		}
	}
	return fmt.Sprintf("%v (%v, x%x): %v", u.Get("info.name"), u.Get("shape"), u.Get("id").Uint(), strings.Join(effects, "; "))
}

func dump_inventory(inv gjson.Result) []string {
	out := []string{}
	for _, at := range types.All_article_types() {
		list := inv.Get("articles." + at.String()).Array()
		if len(list) == 0 {
			continue
		}
		out = append(out, "   "+at.String()+":")
		for _, a := range list {
			line := fmt.Sprintf("      %v: [x%02x] %v", a.Get("index"), a.Get("number").Uint(), a.Get("info.item_name"))
			if a.Get("type_family").String() == types.TF_ITEM.String() {
				line += fmt.Sprintf(" x%v", a.Get("amount"))
			} else {
				line += fmt.Sprintf(" (id %v)", a.Get("id"))
			}
			out = append(out, line)
			for k, slot := range a.Get("slots").Array() {
				gem := "empty"
				if slot.Get("gem").IsObject() {
					gem = describe_upgrade(slot.Get("gem"))
				}
				out = append(out, fmt.Sprintf("         slot %v (%v): %v", k, slot.Get("shape"), gem))
			}
		}
	}
	for _, ut := range []types.UpgradeType{types.UT_GEM, types.UT_RUNE} {
		list := inv.Get("upgrades." + ut.String()).Array()
		if len(list) == 0 {
			continue
		}
		out = append(out, "   "+ut.String()+"s:")
		for _, u := range list {
			out = append(out, fmt.Sprintf("      %v: [x%02x] %v", u.Get("index"), u.Get("number").Uint(), describe_upgrade(u)))
		}
	}
	return out
}

// dump renders a whole snapshot for humans.
func dump(snap session.Snapshot) []string {
	root := gjson.ParseBytes(snap)
	out := []string{
		"File: " + root.Get("path").String(),
		"Username: " + root.Get("username").String(),
		"Playtime: " + save.Format_playtime(uint32(root.Get("playtime").Uint())),
	}
	if p := root.Get("position"); p.IsObject() {
		c := p.Get("coordinates")
		out = append(out, fmt.Sprintf("Position: (%.3f, %.3f, %.3f), map x%08x", c.Get("x").Float(), c.Get("y").Float(), c.Get("z").Float(), p.Get("loaded_map").Uint()))
	} else {
		out = append(out, "Position: Nonexistent")
	}

	out = append(out, "", "Stats:")
	for _, st := range root.Get("stats").Array() {
		out = append(out, fmt.Sprintf("   %v: %v", st.Get("name"), st.Get("value")))
	}
	out = append(out, "", "Bosses:")
	for _, b := range root.Get("bosses").Array() {
		state := "alive"
		if boss_dead(b) {
			state = "dead"
		}
		out = append(out, fmt.Sprintf("   %v: %v", b.Get("name"), state))
	}

	out = append(out, "", "Inventory:")
	out = append(out, dump_inventory(root.Get("inventory"))...)
	out = append(out, "", "Storage:")
	out = append(out, dump_inventory(root.Get("storage"))...)
	return out
}

package main

// savefile reader/editor for Bloodborne
//
// example usage:
//
// bbedit load userdata0000
// bbedit add "blood vial" 20
// bbedit add molotov 10 --storage
// bbedit transform righthand 0 "hunter axe"
// bbedit upgrade righthand 0 10:lost
// bbedit equip 0 righthand 0 1
// bbedit shape armor 0 2 waning
// bbedit gem gem 0 effect 1 "physical atk up"
// bbedit set username Eileen
// bbedit set stat vitality:50
// bbedit set boss "vicar amelia":dead
// bbedit set location "cathedral ward"
// bbedit save

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"bbsave/config"
	"bbsave/save"
	"bbsave/session"
	"bbsave/tables"
	"bbsave/types"
)

// Evil global variables
var g_stash_filename = "bbedit.tmp"

var flags = map[string]bool{
	"--storage": false,
	"-v":        false,
}

// ettable says how to get and set one thing.  Either may be missing.
type ettable struct {
	desc string
	get  func(s *session.Session, snap gjson.Result) (string, error)
	set  func(s *session.Session, to string) (string, error)
}

var ettables = map[string]*ettable{
	"username": {"character name, 1 to 16 characters",
		func(s *session.Session, snap gjson.Result) (string, error) {
			return snap.Get("username").String(), nil
		},
		func(s *session.Session, to string) (string, error) {
			_, err := s.Set_username(to)
			return to, err
		}},
	"playtime": {"h:mm:ss.mmm, or milliseconds",
		func(s *session.Session, snap gjson.Result) (string, error) {
			return s.Get_playtime()
		},
		func(s *session.Session, to string) (string, error) {
			_, err := s.Set_playtime(to)
			if err != nil {
				return "", err
			}
			return s.Get_playtime()
		}},
	"coordinates": {"x,y,z",
		func(s *session.Session, snap gjson.Result) (string, error) {
			c := snap.Get("position.coordinates")
			if !c.Exists() {
				return "Nonexistent", nil
			}
			return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.Get("x").Float(), c.Get("y").Float(), c.Get("z").Float()), nil
		},
		func(s *session.Session, to string) (string, error) {
			xyz := strings.Split(to, ",")
			if len(xyz) != 3 {
				return "", errors.New("Expected argument to \"set coordinates\" is \"x,y,z\"")
			}
			f := [3]float32{}
			for k := range xyz {
				v, err := strconv.ParseFloat(strings.TrimSpace(xyz[k]), 32)
				if err != nil {
					return "", err
				}
				f[k] = float32(v)
			}
			_, err := s.Edit_coordinates(f[0], f[1], f[2])
			return fmt.Sprintf("(%.3f, %.3f, %.3f)", f[0], f[1], f[2]), err
		}},
	"location": {"a lamp to teleport to",
		func(s *session.Session, snap gjson.Result) (string, error) {
			m := snap.Get("position.loaded_map")
			if !m.Exists() {
				return "Nonexistent", nil
			}
			return fmt.Sprintf("map x%08x", m.Uint()), nil
		},
		func(s *session.Session, to string) (string, error) {
			l, err := tables.Find_location(to)
			if err != nil {
				return "", err
			}
			_, err = s.Teleport(l.Name)
			return l.Name, err
		}},
	"isz": {"\"fixed\" repairs the ISZ glitch",
		func(s *session.Session, snap gjson.Result) (string, error) {
			b, healthy, err := s.Get_isz()
			state := "glitched"
			if healthy {
				state = "healthy"
			}
			return fmt.Sprintf("% x (%v)", b, state), err
		},
		func(s *session.Session, to string) (string, error) {
			if to != "fixed" {
				return "", errors.New("The ISZ glitch can only be set to \"fixed\"")
			}
			_, fixed, err := s.Fix_isz()
			if err == nil && !fixed {
				fmt.Println("Nothing to fix")
			}
			return to, err
		}},
	"stat": {"name:value",
		func(s *session.Session, snap gjson.Result) (string, error) {
			out := []string{}
			for _, st := range snap.Get("stats").Array() {
				out = append(out, fmt.Sprintf("%v: %v", st.Get("name"), st.Get("value")))
			}
			return strings.Join(out, "\n"), nil
		},
		func(s *session.Session, to string) (string, error) {
			name, value, err := split_pair(to, "stat", "name:value")
			if err != nil {
				return "", err
			}
			n, err := strconv.ParseUint(value, 0, 32)
			if err != nil {
				return "", err
			}
			snap, err := s.Edit_stat(name, uint32(n))
			if err != nil {
				return "", err
			}
			return matched_name(snap, "stats", name) + ":" + value, nil
		}},
	"boss": {"name:dead or name:alive",
		func(s *session.Session, snap gjson.Result) (string, error) {
			out := []string{}
			for _, b := range snap.Get("bosses").Array() {
				state := "alive"
				if boss_dead(b) {
					state = "dead"
				}
				out = append(out, fmt.Sprintf("%v: %v", b.Get("name"), state))
			}
			return strings.Join(out, "\n"), nil
		},
		func(s *session.Session, to string) (string, error) {
			name, state, err := split_pair(to, "boss", "name:dead")
			if err != nil {
				return "", err
			}
			if state != "dead" && state != "alive" {
				return "", errors.New("A boss can only be dead or alive")
			}
			snap, err := s.Set_flag(name, state == "dead")
			if err != nil {
				return "", err
			}
			return matched_name(snap, "bosses", name) + ":" + state, nil
		}},
}

func list_ettables() string {
	ret := ""
	for _, k := range sorted_keys(ettables) {
		ret = ret + k + "\n"
	}
	return ret
}

func split_pair(to string, what string, form string) (string, string, error) {
	i := strings.LastIndex(to, ":")
	if i < 0 {
		return "", "", errors.New(fmt.Sprintf("Expected argument to \"set %v\" is \"%v\"", what, form))
	}
	return to[:i], strings.TrimSpace(to[i+1:]), nil
}

// matched_name is the name a fuzzy lookup settled on, found again in the snapshot.
func matched_name(snap session.Snapshot, list string, name string) string {
	names := map[int]string{}
	for k, e := range gjson.GetBytes(snap, list).Array() {
		names[k] = e.Get("name").String()
	}
	_, m, err := tables.Fuzzy_lookup(names, name, list)
	if err != nil {
		return name
	}
	return m
}

func boss_dead(b gjson.Result) bool {
	fl := b.Get("flags").Array()
	for _, f := range fl {
		if f.Get("current_value").Int() != f.Get("dead_value").Int() {
			return false
		}
	}
	return len(fl) > 0
}

func main() {
	err := main2(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main2(all_args []string) error {
	for k := range flags {
		flags[k] = false
	}
	cfg, err := config.Load(config.FILENAME)
	if err != nil {
		return err
	}
	dir, all_args := cfg.Get_dir(all_args)

	args := []string{}
	for _, arg := range all_args[1:] {
		_, is_flag := flags[arg]
		if is_flag {
			flags[arg] = true
			continue
		}
		args = append(args, arg)
	}
	save.Verbose = flags["-v"]

	arg := "help"
	if len(args) < 1 {
		fmt.Println("No args detected - falling back to \"help\", since you clearly need it...")
	} else {
		arg = args[0]
	}

	switch arg {
	case "help":
		help_text := []string{
			"Bloodborne Save File Editor",
			"",
			"Commands:",
			"help: display this text",
			"load (filename): load a file from the save directory",
			"dump: list all available info",
			"get (what): display current status of something",
			"set (what) (to): set status of something",
			"add (item) [amount]: add an item",
			"transform (type) (index) (into): turn an article into another one",
			"upgrade (type) (index) (level)[:imprint]: change a weapon's level and imprint",
			"equip (gem index) (type) (index) (slot): put a free gem into a slot",
			"unequip (type) (index) (slot): take a gem out of a slot",
			"shape (type) (index) (slot) (shape): change the shape of a slot",
			"gem (gem|rune) (index) shape (shape) | effect (n) (effect) | convert | move",
			"appearance export|import (filename): copy the character's face to or from a file",
			"list (type|gem|rune|places): list everything a type can be",
			"save [filename]: save the file",
			"watch [list]: report on saves as the game writes them",
			"",
			"Things that can be set-ted or get-ted are:",
		}
		for _, k := range sorted_keys(ettables) {
			help_text = append(help_text, "   "+k+": "+ettables[k].desc)
		}
		help_text = append(help_text, []string{
			"",
			"Flags:",
			"   --storage: work on the storage rather than the inventory",
			"   -v: tell about odd things found in the save",
			"   --dir (dir): where saves are (must come first)",
			"",
			"Notes:",
			"   Types are consumable, material, key, chalice, righthand, lefthand and armor.",
			"   Indexes count from 0 within a type, in the order \"dump\" shows.",
			"   It is usually not necessary to type the full name of something",
			"e.g. \"cath\" will be recognized as \"Cathedral Ward\".",
		}...)

		for _, ht := range help_text {
			fmt.Println(ht)
		}

	case "load":
		if len(args) < 2 {
			return errors.New("Load what?  Filename expected.")
		}
		full_filename := args[1]
		if !filepath.IsAbs(full_filename) {
			full_filename = filepath.Join(dir, full_filename)
		}
		s, err := new_session(cfg)
		if err != nil {
			return err
		}
		snap, err := s.Load(full_filename)
		if err != nil {
			return err
		}
		fmt.Println("Loaded", gjson.GetBytes(snap, "username"), "from", full_filename)
		fmt.Println("Backup written to", full_filename+".bak")
		return stash(s)

	case "save":
		s, err := retrieve(cfg)
		if err != nil {
			return err
		}
		filename := s.Path()
		if len(args) > 1 {
			filename = args[1]
			if !filepath.IsAbs(filename) {
				filename = filepath.Join(dir, filename)
			}
		}
		err = s.Save(filename)
		if err != nil {
			return err
		}
		fmt.Println("New file written to", filename)

		err = os.Remove(g_stash_filename)
		if err != nil {
			return err
		}
		fmt.Println("Temporary data cleaned up")

	case "get":
		if len(args) < 2 {
			return errors.New("Get what?  Gettables are:\n" + list_ettables())
		}
		what := args[1]
		g, ok := ettables[what]
		if !ok || g.get == nil {
			return errors.New(what + " is not gettable.  Gettables are:\n" + list_ettables())
		}
		s, err := retrieve(cfg)
		if err != nil {
			return err
		}
		snap, err := s.Snapshot()
		if err != nil {
			return err
		}
		str, err := g.get(s, gjson.ParseBytes(snap))
		if err != nil {
			return err
		}
		fmt.Println(str)

	case "set":
		if len(args) < 2 {
			return errors.New("Set what? Settables are:\n" + list_ettables())
		}
		what := args[1]
		g, ok := ettables[what]
		if !ok || g.set == nil {
			return errors.New(what + " is not settable.  Settables are:\n" + list_ettables())
		}
		if len(args) < 3 {
			return errors.New("Set " + what + " to what?  Expected " + g.desc)
		}
		s, err := retrieve(cfg)
		if err != nil {
			return err
		}
		matched, err := g.set(s, args[2])
		if err != nil {
			return err
		}
		fmt.Println(what, "set to", matched)
		return stash(s)

	case "dump":
		s, err := retrieve(cfg)
		if err != nil {
			return err
		}
		snap, err := s.Snapshot()
		if err != nil {
			return err
		}
		for _, line := range dump(snap) {
			fmt.Println(line)
		}

	case "list":
		if len(args) < 2 {
			return errors.New("List what?  A type, gem, rune or places.")
		}
		t, err := tables.Load(cfg.Resource_dir(config.FILENAME))
		if err != nil {
			return err
		}
		for _, line := range list(t, args[1]) {
			fmt.Println(line)
		}

	case "watch":
		if len(args) > 1 && args[1] == "list" {
			return list_watched(dir)
		}
		return watch(cfg, dir)

	default:
		cmd, ok := commands[arg]
		if !ok {
			return errors.New("Unknown command " + arg + ".  Try \"help\".")
		}
		if len(args)-1 < cmd.min_args {
			return errors.New("Not enough arguments.  Usage: " + cmd.usage)
		}
		s, err := retrieve(cfg)
		if err != nil {
			return err
		}
		msg, err := cmd.run(s, args[1:])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return stash(s)
	}

	return nil
}

func new_session(cfg *config.Config) (*session.Session, error) {
	t, err := tables.Load(cfg.Resource_dir(config.FILENAME))
	if err != nil {
		return nil, err
	}
	return session.New(t, cfg.Policy), nil
}

// stash keeps the edited save between runs: the filename, then the raw bytes.
func stash(s *session.Session) error {
	data, err := s.Bytes()
	if err != nil {
		return err
	}
	f, err := os.Create(g_stash_filename)
	if err != nil {
		return types.Io_error(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	encoder := gob.NewEncoder(w)
	err = encoder.Encode(s.Path())
	if err != nil {
		return err
	}
	err = encoder.Encode(data)
	if err != nil {
		return err
	}
	err = w.Flush()
	if err != nil {
		return types.Io_error(err)
	}
	return f.Sync()
}

// retrieve rebuilds the session stashed by the last command.
func retrieve(cfg *config.Config) (*session.Session, error) {
	f, err := os.Open(g_stash_filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("Nothing loaded.  Try \"load (filename)\" first.")
	}
	if err != nil {
		return nil, types.Io_error(err)
	}
	defer f.Close()

	decoder := gob.NewDecoder(bufio.NewReader(f))
	filename := ""
	data := []byte{}
	err = decoder.Decode(&filename)
	if err != nil {
		return nil, err
	}
	err = decoder.Decode(&data)
	if err != nil {
		return nil, err
	}

	s, err := new_session(cfg)
	if err != nil {
		return nil, err
	}
	_, err = s.Restore(filename, data)
	return s, err
}

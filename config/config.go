package config

// bbedit.ini: where the saves are, where the resource tables are, and the scanning tolerances.
//
//	dir = /home/me/saves
//	resources = /home/me/bbsave/resources
//
//	[policy]
//	max_empty_inv_slots = 20
//	storage_capacity = 1984
//	playtime_offset = 0x08
//	isz_healthy = 00000000
//
//	[watch]
//	settle_seconds = 5
//	pattern = userdata*

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"bbsave/types"
)

const FILENAME = "bbedit.ini"

type Watch struct {
	Settle  time.Duration
	Pattern string
}

type Config struct {
	Dir       string
	Resources string
	Policy    types.Policy
	Watch     Watch
}

func Default() *Config {
	wd, _ := os.Getwd()
	return &Config{
		Dir:       wd,
		Resources: "resources",
		Policy:    types.Default_policy(),
		Watch:     Watch{Settle: 5 * time.Second, Pattern: "userdata*"},
	}
}

// Load reads an ini file over the defaults.  A missing file just means defaults.
func Load(path string) (*Config, error) {
	c := Default()
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, types.Io_error(err)
	}

	// Classic read of values, default section can be represented as empty string
	top := cfg.Section("")
	c.Dir = top.Key("dir").MustString(c.Dir)
	c.Resources = top.Key("resources").MustString(c.Resources)

	policy := cfg.Section("policy")
	for _, k := range []struct {
		name string
		to   *int
	}{
		{"max_empty_inv_slots", &c.Policy.Max_empty_inv_slots},
		{"storage_capacity", &c.Policy.Storage_capacity},
		{"playtime_offset", &c.Policy.Playtime_offset},
	} {
		err = read_int(policy, k.name, k.to)
		if err != nil {
			return nil, err
		}
	}
	if policy.HasKey("isz_healthy") {
		b, err := hex.DecodeString(policy.Key("isz_healthy").String())
		if err != nil || len(b) != types.ISZ_GLITCH_LENGTH {
			return nil, types.Custom_error(fmt.Sprintf("%v: isz_healthy must be %v bytes of hex", path, types.ISZ_GLITCH_LENGTH))
		}
		c.Policy.Isz_healthy = b
	}

	watch := cfg.Section("watch")
	settle := int(c.Watch.Settle / time.Second)
	err = read_int(watch, "settle_seconds", &settle)
	if err != nil {
		return nil, err
	}
	c.Watch.Settle = time.Duration(settle) * time.Second
	c.Watch.Pattern = watch.Key("pattern").MustString(c.Watch.Pattern)
	_, err = filepath.Match(c.Watch.Pattern, "")
	if err != nil {
		return nil, types.Custom_error(fmt.Sprintf("%v: bad watch pattern %q", path, c.Watch.Pattern))
	}

	return c, nil
}

func read_int(s *ini.Section, name string, to *int) error {
	if !s.HasKey(name) {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s.Key(name).String()), 0, 32)
	if err != nil || n < 0 {
		return types.Custom_error(fmt.Sprintf("[%v] %v: %q is not a number", s.Name(), name, s.Key(name).String()))
	}
	*to = int(n)
	return nil
}

// Get_dir is where saves are looked for: a "--dir" flag, then the ini file, then the working directory.
// It returns the remaining arguments.
func (c *Config) Get_dir(args []string) (string, []string) {
	if len(args) > 2 && args[1] == "--dir" {
		return args[2], append([]string{args[0]}, args[3:]...)
	}
	return c.Dir, args
}

// Resource_dir resolves a relative resources setting against the directory of the ini file.
func (c *Config) Resource_dir(ini_path string) string {
	if filepath.IsAbs(c.Resources) {
		return c.Resources
	}
	return filepath.Join(filepath.Dir(ini_path), c.Resources)
}

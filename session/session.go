package session

import (
	"encoding/json"
	"sync"

	"bbsave/save"
	"bbsave/tables"
	"bbsave/types"
)

// Snapshot is the JSON rendering of the whole loaded save, handed back by every command that changes it.
type Snapshot []byte

// Session holds one loaded save.  Every command locks it for its whole run.
type Session struct {
	lock   sync.Mutex
	tables *tables.Tables
	policy types.Policy
	path   string
	save   *save.SaveData
}

func New(t *tables.Tables, policy types.Policy) *Session {
	return &Session{tables: t, policy: policy}
}

// Upgrade_ref names an upgrade by where it is rather than by pointer.
// Free upgrades are found by type and index; equipped ones by the article and slot holding them.
type Upgrade_ref struct {
	Location      types.Location    `json:"location"`
	Upgrade_type  types.UpgradeType `json:"upgrade_type"`
	Index         int               `json:"index"`
	Equipped      bool              `json:"equipped"`
	Article_type  types.ArticleType `json:"article_type"`
	Article_index int               `json:"article_index"`
	Slot_index    int               `json:"slot_index"`
}

func (r Upgrade_ref) resolve(s *save.SaveData) (*types.Upgrade, error) {
	if r.Equipped {
		return s.Get_equipped_upgrade(r.Location, r.Article_type, r.Article_index, r.Slot_index)
	}
	return s.Get_upgrade(r.Location, r.Upgrade_type, r.Index)
}

func (s *Session) loaded() (*save.SaveData, error) {
	if s.save == nil {
		return nil, types.Custom_error("No save is loaded.")
	}
	return s.save, nil
}

func (s *Session) snapshot() (Snapshot, error) {
	b, err := json.Marshal(struct {
		Path string `json:"path"`
		*save.SaveData
	}{s.path, s.save})
	if err != nil {
		return nil, types.Json_error(err)
	}
	return b, nil
}

// mutate runs a command against the loaded save and answers with a fresh snapshot.
func (s *Session) mutate(f func(sd *save.SaveData) error) (Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sd, err := s.loaded()
	if err != nil {
		return nil, err
	}
	err = f(sd)
	if err != nil {
		return nil, err
	}
	sd.Refresh()
	return s.snapshot()
}

// query runs a read-only command against the loaded save.
func (s *Session) query(f func(sd *save.SaveData) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	sd, err := s.loaded()
	if err != nil {
		return err
	}
	return f(sd)
}

// Load opens a save (leaving a backup next to it) and replaces whatever was loaded.
func (s *Session) Load(path string) (Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sd, err := save.Open(path, s.tables, s.policy)
	if err != nil {
		return nil, err
	}
	s.path, s.save = path, sd
	return s.snapshot()
}

// Restore loads a save from bytes already in memory, as remembered for path.
func (s *Session) Restore(path string, data []byte) (Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	f, err := save.From_bytes(data, s.policy)
	if err != nil {
		return nil, err
	}
	sd, err := save.Build(f, s.tables)
	if err != nil {
		return nil, err
	}
	s.path, s.save = path, sd
	return s.snapshot()
}

func (s *Session) Snapshot() (Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.loaded()
	if err != nil {
		return nil, err
	}
	return s.snapshot()
}

// Path is where the loaded save came from, and where Save writes by default.
func (s *Session) Path() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.path
}

// Bytes is a copy of the loaded save's bytes.
func (s *Session) Bytes() ([]byte, error) {
	var out []byte
	err := s.query(func(sd *save.SaveData) error {
		out = append([]byte{}, sd.File.Bytes...)
		return nil
	})
	return out, err
}

// Save writes the whole buffer to path, or back where it came from if path is empty.
func (s *Session) Save(path string) error {
	return s.query(func(sd *save.SaveData) error {
		if path == "" {
			path = s.path
		}
		return sd.Save(path)
	})
}

func (s *Session) Edit_quantity(loc types.Location, number uint8, id uint32, value uint32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		return sd.Get_inventory(loc).Edit_item(sd.File, number, id, value)
	})
}

func (s *Session) Transform_item(loc types.Location, at types.ArticleType, index int, new_id uint32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Get_inventory(loc).Transform_article(sd.File, sd.Tables, at, index, new_id)
		return err
	})
}

func (s *Session) Add_item(loc types.Location, id uint32, quantity uint32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Get_inventory(loc).Add_item(sd.File, sd.Tables, id, quantity)
		return err
	})
}

func (s *Session) Equip_gem(loc types.Location, upgrade_index int, at types.ArticleType, article_index int, slot_index int) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		return sd.Get_inventory(loc).Equip_gem(sd.File, upgrade_index, at, article_index, slot_index)
	})
}

func (s *Session) Unequip_gem(loc types.Location, at types.ArticleType, article_index int, slot_index int) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Get_inventory(loc).Unequip_gem(sd.File, at, article_index, slot_index)
		return err
	})
}

// Change_weapon_level sets the imprint, the upgrade level, or both.  A nil argument keeps what is there.
func (s *Session) Change_weapon_level(loc types.Location, at types.ArticleType, index int, imprint *types.Imprint, level *uint8) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Get_inventory(loc).Set_imprint_and_upgrade(sd.File, sd.Tables, at, index, imprint, level)
		return err
	})
}

func (s *Session) Edit_effect(ref Upgrade_ref, effect_index int, effect uint32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		u, err := ref.resolve(sd)
		if err != nil {
			return err
		}
		return save.Change_effect(sd.File, sd.Tables, u, effect_index, effect)
	})
}

func (s *Session) Edit_shape(ref Upgrade_ref, shape string) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		u, err := ref.resolve(sd)
		if err != nil {
			return err
		}
		return save.Change_shape(sd.File, u, shape)
	})
}

// Convert_upgrade turns a free gem into a rune, or a free rune into a gem.
func (s *Session) Convert_upgrade(loc types.Location, ut types.UpgradeType, index int) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Get_inventory(loc).Convert_upgrade(sd.File, sd.Tables, ut, index)
		return err
	})
}

func (s *Session) Move_upgrade(ut types.UpgradeType, index int, from types.Location) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.Move_upgrade(ut, index, from)
		return err
	})
}

// Edit_slot reshapes one slot of an armor or weapon.
func (s *Session) Edit_slot(loc types.Location, at types.ArticleType, index int, slot_index int, shape types.SlotShape) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		return sd.Get_inventory(loc).Change_slot_shape(sd.File, at, index, slot_index, shape)
	})
}

func (s *Session) Set_username(name string) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		return sd.Set_username(name)
	})
}

func (s *Session) Edit_coordinates(x, y, z float32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.File.Edit_coordinates(x, y, z)
		return err
	})
}

// Teleport moves the character to a named lamp or landmark.
func (s *Session) Teleport(name string) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		_, err := sd.File.Teleport_to(name)
		return err
	})
}

func (s *Session) Export_appearance(path string) error {
	return s.query(func(sd *save.SaveData) error {
		return sd.File.Export_appearance(path)
	})
}

func (s *Session) Import_appearance(path string) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		return sd.File.Import_appearance(path)
	})
}

// Edit_stat sets a stat, found by name, in every place it is kept.
func (s *Session) Edit_stat(name string, value uint32) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		st, err := sd.Find_stat(name)
		if err != nil {
			return err
		}
		return st.Set(sd.File, value)
	})
}

// Set_flag kills or revives a boss, found by name.
func (s *Session) Set_flag(boss string, dead bool) (Snapshot, error) {
	return s.mutate(func(sd *save.SaveData) error {
		b, err := sd.Find_boss(boss)
		if err != nil {
			return err
		}
		return b.Set(sd.File, dead)
	})
}

// Get_playtime is the playtime as h:mm:ss.mmm.
func (s *Session) Get_playtime() (string, error) {
	out := ""
	err := s.query(func(sd *save.SaveData) error {
		ms, err := sd.File.Playtime()
		out = save.Format_playtime(ms)
		return err
	})
	return out, err
}

// Set_playtime takes h:mm:ss[.mmm] or plain milliseconds.
func (s *Session) Set_playtime(playtime string) (Snapshot, error) {
	ms, err := save.Parse_playtime(playtime)
	if err != nil {
		return nil, err
	}
	return s.mutate(func(sd *save.SaveData) error {
		return sd.File.Set_playtime(ms)
	})
}

// Get_isz is the ISZ glitch bytes and whether they are healthy.
func (s *Session) Get_isz() ([]byte, bool, error) {
	var out []byte
	healthy := false
	err := s.query(func(sd *save.SaveData) error {
		var err error
		out, err = sd.File.Isz()
		healthy = sd.File.Isz_healthy()
		return err
	})
	return out, healthy, err
}

// Fix_isz repairs the ISZ glitch; fixed says whether there was anything to repair.
func (s *Session) Fix_isz() (snap Snapshot, fixed bool, err error) {
	snap, err = s.mutate(func(sd *save.SaveData) error {
		var err error
		fixed, err = sd.File.Fix_isz()
		return err
	})
	return snap, fixed, err
}

// Articles lists every known article of a type, for pickers.
func (s *Session) Articles(at types.ArticleType) []tables.Entry {
	return s.tables.Catalogue(at)
}

// Effects lists every known gem or rune effect, for pickers.
func (s *Session) Effects(ut types.UpgradeType) []tables.Entry {
	return s.tables.Effect_catalogue(ut)
}

// Destinations lists the teleport targets by name.
func (s *Session) Destinations() []string {
	out := []string{}
	for _, e := range tables.Locations {
		out = append(out, e.Name)
	}
	return out
}

package save

import (
	"bbsave/tables"
	"bbsave/types"
)

// SaveData is a whole save: the bytes, and everything read out of them.
// The typed collections are kept in step with the bytes by every mutation.
type SaveData struct {
	File      *FileData      `json:"-"`
	Tables    *tables.Tables `json:"-"`
	Inventory *Inventory     `json:"inventory"`
	Storage   *Inventory     `json:"storage"`
	Username  string         `json:"username"`
	Stats     []Stat         `json:"stats"`
	Bosses    []Boss         `json:"bosses"`
	Playtime  uint32         `json:"playtime"`
	Position  *Position      `json:"position"`
	Isz       []byte         `json:"isz"`
}

// Build reads everything out of a save.  Upgrades go to the slot blocks first, then to the inventories.
func Build(f *FileData, t *tables.Tables) (*SaveData, error) {
	pool := Parse_upgrades(f, t)
	slots := Scan_equipped_gems(f, pool)

	s := &SaveData{File: f, Tables: t}
	s.Inventory = Build_inventory(f, t, f.regions_of(false), false, pool, slots)
	s.Storage = Build_inventory(f, t, []types.Region{f.Offsets.Storage}, true, pool, slots)
	for key := range slots {
		debugf("slot block %x has no article", key)
	}
	for id := range pool {
		debugf("upgrade %x is nowhere", id)
	}

	var err error
	s.Username, err = f.Username()
	if err != nil {
		return nil, err
	}
	s.Refresh()
	return s, nil
}

// Open loads a save from disk (leaving a backup) and reads it.
func Open(path string, t *tables.Tables, policy types.Policy) (*SaveData, error) {
	f, err := Load(path, policy)
	if err != nil {
		return nil, err
	}
	return Build(f, t)
}

// Refresh re-reads the fixed-offset values: stats, bosses, playtime, position and the ISZ bytes.
func (s *SaveData) Refresh() {
	f := s.File
	s.Stats = Read_stats(f, s.Tables)
	s.Bosses = Read_bosses(f, s.Tables)
	s.Playtime, _ = f.Playtime()
	s.Position = nil
	if p, err := f.Position(); err == nil {
		s.Position = &p
	}
	s.Isz, _ = f.Isz()
}

func (s *SaveData) Save(path string) error {
	return s.File.Save(path)
}

// Get_inventory is the inventory or the storage.
func (s *SaveData) Get_inventory(loc types.Location) *Inventory {
	if loc == types.LOC_STORAGE {
		return s.Storage
	}
	return s.Inventory
}

func (s *SaveData) Get_article(loc types.Location, at types.ArticleType, index int) (*types.Article, error) {
	return s.Get_inventory(loc).Article(at, index)
}

func (s *SaveData) Get_slot(loc types.Location, at types.ArticleType, index int, slot_index int) (*types.Slot, error) {
	_, slot, err := s.Get_inventory(loc).Slot(at, index, slot_index)
	return slot, err
}

func (s *SaveData) Get_upgrade(loc types.Location, ut types.UpgradeType, index int) (*types.Upgrade, error) {
	return s.Get_inventory(loc).Upgrade(ut, index)
}

// Get_equipped_upgrade is the gem in a slot of an armor or weapon.
func (s *SaveData) Get_equipped_upgrade(loc types.Location, at types.ArticleType, index int, slot_index int) (*types.Upgrade, error) {
	slot, err := s.Get_slot(loc, at, index, slot_index)
	if err != nil {
		return nil, err
	}
	if slot.Gem == nil {
		return nil, types.Custom_error("The slot has no gem.")
	}
	return slot.Gem, nil
}

// Move_upgrade moves a free upgrade between the inventory and the storage.
func (s *SaveData) Move_upgrade(ut types.UpgradeType, index int, from types.Location) (*types.Upgrade, error) {
	src := s.Get_inventory(from)
	dst := s.Storage
	if from == types.LOC_STORAGE {
		dst = s.Inventory
	}
	u, err := src.Upgrade(ut, index)
	if err != nil {
		return nil, err
	}
	_, err = src.upgrade_offset(s.File, u)
	if err != nil {
		return nil, err
	}
	err = dst.Can_add(s.File)
	if err != nil {
		return nil, err
	}

	moved, err := src.Remove_upgrade(s.File, ut, index)
	if err != nil {
		return nil, err
	}
	return dst.Add_upgrade(s.File, moved)
}

// Find_stat looks a stat up by name, forgiving typos.
func (s *SaveData) Find_stat(name string) (*Stat, error) {
	names := map[int]string{}
	for k, st := range s.Stats {
		names[k] = st.Name
	}
	k, _, err := tables.Fuzzy_lookup(names, name, "stat")
	if err != nil {
		return nil, err
	}
	return &s.Stats[k], nil
}

func (s *SaveData) Find_boss(name string) (*Boss, error) {
	names := map[int]string{}
	for k, b := range s.Bosses {
		names[k] = b.Name
	}
	k, _, err := tables.Fuzzy_lookup(names, name, "boss")
	if err != nil {
		return nil, err
	}
	return &s.Bosses[k], nil
}

func (s *SaveData) Set_username(name string) error {
	err := s.File.Set_username(name)
	if err != nil {
		return err
	}
	s.Username, _ = s.File.Username()
	return nil
}

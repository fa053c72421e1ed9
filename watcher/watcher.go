package watcher

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bbsave/config"
	"bbsave/save"
	"bbsave/tables"
	"bbsave/types"
)

const STATE_FILENAME = "bbwatch.json"

// Report is what changed in a save since the last time the same character was seen.
type Report struct {
	Filename string
	Identity string
	Changes  []string
}

// Summary is the part of a save worth comparing between two writes.
type Summary struct {
	Playtime uint32            `json:"playtime"`
	Stats    map[string]uint32 `json:"stats"`
	Bosses   map[string]bool   `json:"bosses"`
	Articles map[string]int    `json:"articles"`
	Upgrades int               `json:"upgrades"`
	Isz_ok   bool              `json:"isz_ok"`
}

type state_type struct {
	Seen map[string]*Summary `json:"seen"`
}

type Watcher interface {
	Start_watching(reports chan<- *Report) error
	Stop_watching()
}

func New_watcher(dir string, cfg config.Watch, t *tables.Tables, policy types.Policy) Watcher {
	return &dir_watcher{
		dir:     dir,
		cfg:     cfg,
		tables:  t,
		policy:  policy,
		pending: map[string]*pending_file{},
		done:    make(chan struct{}),
		state:   state_type{Seen: map[string]*Summary{}},
	}
}

// pending_file is a file waiting to settle.  Only the timer of the latest generation may handle it.
type pending_file struct {
	timer      *time.Timer
	generation int
}

type dir_watcher struct {
	dir    string
	cfg    config.Watch
	tables *tables.Tables
	policy types.Policy

	watcher *fsnotify.Watcher

	lock          sync.Mutex
	pending       map[string]*pending_file
	done          chan struct{}
	stop_once     sync.Once
	last_identity string
	state         state_type
}

// Wanted is true for files the watcher should look at.
func Wanted(pattern string, filename string) bool {
	ok, _ := filepath.Match(pattern, filepath.Base(filename))
	return ok && filepath.Ext(filename) != ".bak"
}

func (dw *dir_watcher) Start_watching(reports chan<- *Report) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return types.Io_error(err)
	}
	dw.watcher = watcher
	dw.load_state()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && Wanted(dw.cfg.Pattern, event.Name) {
					dw.schedule(event.Name, reports)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watcher: %v", err)
			}
		}
	}()

	err = dw.watcher.Add(dw.dir)
	if err != nil {
		dw.watcher.Close()
		return types.Io_error(err)
	}
	return nil
}

func (dw *dir_watcher) Stop_watching() {
	dw.stop_once.Do(func() { close(dw.done) })
	dw.lock.Lock()
	for name, p := range dw.pending {
		p.timer.Stop()
		delete(dw.pending, name)
	}
	dw.lock.Unlock()
	if dw.watcher != nil {
		dw.watcher.Close()
	}
}

// schedule waits for the game to finish with the file: every write restarts the wait.
func (dw *dir_watcher) schedule(filename string, out chan<- *Report) {
	dw.lock.Lock()
	defer dw.lock.Unlock()
	p, ok := dw.pending[filename]
	if ok {
		p.timer.Stop()
	} else {
		p = &pending_file{}
		dw.pending[filename] = p
	}
	p.generation++
	generation := p.generation
	p.timer = time.AfterFunc(dw.cfg.Settle, func() {
		dw.settled(filename, generation, out)
	})
}

// settled handles a file once its wait is over, unless a later write started another wait.
func (dw *dir_watcher) settled(filename string, generation int, out chan<- *Report) {
	dw.lock.Lock()
	p, ok := dw.pending[filename]
	if !ok || p.generation != generation {
		dw.lock.Unlock()
		return
	}
	delete(dw.pending, filename)
	dw.lock.Unlock()
	dw.handle_file(filename, out)
}

func (dw *dir_watcher) state_file() string {
	return filepath.Join(dw.dir, STATE_FILENAME)
}

func (dw *dir_watcher) save_state() {
	b, err := json.Marshal(dw.state)
	if err == nil {
		err = os.WriteFile(dw.state_file(), b, 0644)
	}
	if err != nil {
		log.Printf("watcher: failed to save state: %v", err)
	}
}

func (dw *dir_watcher) load_state() {
	state, err := Get_state(dw.dir)
	if err != nil {
		log.Printf("watcher: starting afresh: %v", err)
		return
	}
	dw.state = *state
}

// Get_state is what the watcher remembers about every character it has seen in dir.
func Get_state(dir string) (*state_type, error) {
	state := &state_type{Seen: map[string]*Summary{}}
	b, err := os.ReadFile(filepath.Join(dir, STATE_FILENAME))
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, types.Io_error(err)
	}
	err = json.Unmarshal(b, state)
	if err != nil {
		return &state_type{Seen: map[string]*Summary{}}, types.Json_error(err)
	}
	if state.Seen == nil {
		state.Seen = map[string]*Summary{}
	}
	return state, nil
}

// Identities lists the characters in a state, sorted.
func (s *state_type) Identities() []string {
	out := []string{}
	for k := range s.Seen {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (dw *dir_watcher) handle_file(filename string, out chan<- *Report) {
	// No backup: the game owns this file
	b, err := os.ReadFile(filename)
	if err != nil {
		log.Printf("watcher: failed to load file %v: %v", filename, err)
		return
	}
	f, err := save.From_bytes(b, dw.policy)
	if err != nil {
		log.Printf("watcher: failed to parse file %v: %v", filename, err)
		return
	}
	s, err := save.Build(f, dw.tables)
	if err != nil {
		log.Printf("watcher: failed to parse file %v: %v", filename, err)
		return
	}
	identity := filepath.Base(filename) + ":" + s.Username
	now := Summarize(s)

	dw.lock.Lock()
	report := &Report{Filename: filename, Identity: identity}
	if dw.last_identity != identity {
		report.Changes = append(report.Changes, "Identity is "+identity)
		dw.last_identity = identity
	}
	before, ok := dw.state.Seen[identity]
	if ok {
		report.Changes = append(report.Changes, Diff(before, now)...)
	} else {
		report.Changes = append(report.Changes, fmt.Sprintf("New character, playtime %v", save.Format_playtime(now.Playtime)))
	}
	if !now.Isz_ok {
		report.Changes = append(report.Changes, "The ISZ glitch is present")
	}
	dw.state.Seen[identity] = now
	dw.save_state()
	dw.lock.Unlock()

	if len(report.Changes) > 0 {
		select {
		case out <- report:
		case <-dw.done:
		}
	}
}

func Summarize(s *save.SaveData) *Summary {
	out := &Summary{
		Playtime: s.Playtime,
		Stats:    map[string]uint32{},
		Bosses:   map[string]bool{},
		Articles: map[string]int{},
		Isz_ok:   s.File.Isz_healthy(),
	}
	for _, st := range s.Stats {
		out.Stats[st.Name] = st.Value
	}
	for _, b := range s.Bosses {
		out.Bosses[b.Name] = b.Dead()
	}
	for _, inv := range []*save.Inventory{s.Inventory, s.Storage} {
		for _, list := range inv.Articles {
			for _, a := range list {
				out.Articles[a.Info.Name] += int(a.Amount)
			}
		}
		for _, list := range inv.Upgrades {
			out.Upgrades += len(list)
		}
	}
	return out
}

// Diff describes, one line each, how a save moved from before to now.
func Diff(before *Summary, now *Summary) []string {
	out := []string{}
	if now.Playtime != before.Playtime {
		out = append(out, fmt.Sprintf("Playtime: %v -> %v", save.Format_playtime(before.Playtime), save.Format_playtime(now.Playtime)))
	}
	for _, name := range sorted_keys(now.Bosses) {
		if now.Bosses[name] && !before.Bosses[name] {
			out = append(out, "Defeated "+name)
		}
		if !now.Bosses[name] && before.Bosses[name] {
			out = append(out, name+" is alive again")
		}
	}
	for _, name := range sorted_keys(now.Stats) {
		if now.Stats[name] != before.Stats[name] {
			out = append(out, fmt.Sprintf("%v: %v -> %v", name, before.Stats[name], now.Stats[name]))
		}
	}
	names := sorted_keys(now.Articles)
	for _, name := range sorted_keys(before.Articles) {
		if _, ok := now.Articles[name]; !ok {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if now.Articles[name] != before.Articles[name] {
			out = append(out, fmt.Sprintf("%v: %+d", name, now.Articles[name]-before.Articles[name]))
		}
	}
	if now.Upgrades != before.Upgrades {
		out = append(out, fmt.Sprintf("Free upgrades: %v -> %v", before.Upgrades, now.Upgrades))
	}
	if now.Isz_ok && !before.Isz_ok {
		out = append(out, "The ISZ glitch is gone")
	}
	return out
}

func sorted_keys[V any](m map[string]V) []string {
	out := []string{}
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

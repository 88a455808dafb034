// Package store provides the durable state store for the bot: a single JSON
// document mapping guild ids to their records, loaded once at startup and
// rewritten atomically after every mutating operation.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Gitfoe/ChadCounting/internal/game/models"
)

// ErrNoChange can be returned from a Mutate callback to abort the mutation
// without an error and without a disk write.
var ErrNoChange = errors.New("no change")

// A Store holds the in-memory guild state and owns the state file. All
// mutations for a guild are serialized by a per-guild mutex; file writes are
// serialized by the store mutex. Guilds are independent partitions and may be
// mutated concurrently.
type Store struct {
	path string
	l    *zap.SugaredLogger
	now  func() time.Time

	mu     sync.Mutex
	guilds map[string]*models.GuildRecord
	locks  map[string]*sync.Mutex
}

// Open creates a store for the given state file path. Load must be called
// before any other operation.
func Open(path string, l *zap.SugaredLogger) *Store {
	return &Store{
		path:   path,
		l:      l,
		now:    time.Now,
		guilds: map[string]*models.GuildRecord{},
		locks:  map[string]*sync.Mutex{},
	}
}

// Load reads the state file, migrating and reconciling its schema if needed.
// A missing file is created empty; a file that exists but cannot be parsed is
// a fatal condition and returned as an error with no partial recovery.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		s.l.Infow("state file missing or empty, creating", "path", s.path)
		return s.writeLocked()
	}
	if err != nil {
		return fmt.Errorf("error reading state file: %s", err)
	}

	doc, changed, err := upgradeDocument(data)
	if err != nil {
		return fmt.Errorf("error decoding state file %s: %s", s.path, err)
	}

	byts, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error re-encoding state file: %s", err)
	}
	var sf stateFile
	if err := json.Unmarshal(byts, &sf); err != nil {
		return fmt.Errorf("error decoding reconciled state: %s", err)
	}
	if sf.Guilds == nil {
		sf.Guilds = map[string]*models.GuildRecord{}
	}
	s.guilds = sf.Guilds

	if changed {
		// One forced backup of the pre-change snapshot, then overwrite the
		// live file with the reconciled state.
		s.backupLocked(data)
		if err := s.writeLocked(); err != nil {
			return err
		}
	}

	s.l.Infow("state loaded", "path", s.path, "guilds", len(s.guilds))
	return nil
}

// Get returns a deep copy of the guild record, so readers never observe a
// mutation in progress.
func (s *Store) Get(guildID string) (*models.GuildRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Ensure creates the guild record with default values if it does not exist.
func (s *Store) Ensure(guildID string) error {
	if _, ok := s.Get(guildID); ok {
		return nil
	}
	return s.Mutate(guildID, func(*models.GuildRecord) error { return nil })
}

// Mutate applies fn to a clone of the guild record (a default record if the
// guild is new), persists the resulting snapshot, and only then swaps the
// clone into the live map. A failed fn or a failed write leaves the in-memory
// state untouched, so a broken mutation cannot partially apply.
func (s *Store) Mutate(guildID string, fn func(*models.GuildRecord) error) error {
	gl := s.guildLock(guildID)
	gl.Lock()
	defer gl.Unlock()

	s.mu.Lock()
	rec, ok := s.guilds[guildID]
	if !ok {
		rec = models.DefaultGuildRecord()
	}
	work := rec.Clone()
	s.mu.Unlock()

	if err := fn(work); err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.guilds[guildID]
	s.guilds[guildID] = work
	if err := s.writeLocked(); err != nil {
		if had {
			s.guilds[guildID] = prev
		} else {
			delete(s.guilds, guildID)
		}
		return err
	}
	return nil
}

// Snapshot returns a deep copy of the whole state map, for read-only
// consumers such as the stats commands.
func (s *Store) Snapshot() map[string]*models.GuildRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.GuildRecord, len(s.guilds))
	for id, rec := range s.guilds {
		out[id] = rec.Clone()
	}
	return out
}

// Len returns the number of guilds on record.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guilds)
}

func (s *Store) guildLock(guildID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	gl, ok := s.locks[guildID]
	if !ok {
		gl = &sync.Mutex{}
		s.locks[guildID] = gl
	}
	return gl
}

// writeLocked persists the current state map. If the map cannot be
// marshalled, the snapshot is quarantined to an error-suffixed file instead
// of being lost silently, and the in-memory state is kept as-is.
func (s *Store) writeLocked() error {
	doc := stateFile{Version: schemaVersion, Guilds: s.guilds}
	data, err := json.Marshal(doc)
	if err != nil {
		s.quarantineLocked(err)
		return nil
	}
	return atomicWrite(s.path, data)
}

// backupLocked writes the pre-change snapshot to a timestamp-suffixed file.
// An existing backup for the same timestamp is never overwritten.
func (s *Store) backupLocked(data []byte) {
	path := fmt.Sprintf("%s.bak%s", s.path, s.now().Format("20060102-150405"))
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.l.Errorw("error writing state backup", "path", path, "err", err)
		return
	}
	s.l.Infow("wrote state backup before schema change", "path", path)
}

// quarantineLocked preserves a snapshot that JSON refused to encode. The
// Go-syntax representation is not loadable, but it keeps the data inspectable
// instead of dropping it.
func (s *Store) quarantineLocked(cause error) {
	path := s.path + ".err"
	body := fmt.Sprintf("// state was not serializable: %s\n%#v\n", cause, s.guilds)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		s.l.Errorw("error quarantining unserializable state", "path", path, "err", err)
		return
	}
	s.l.Errorw("state was not serializable, quarantined snapshot", "path", path, "err", cause)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing state file: %s", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error replacing state file: %s", err)
	}
	return nil
}

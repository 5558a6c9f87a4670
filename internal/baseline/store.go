// Package baseline persists the last-known pass/fail status per test id so
// newly broken behavior can be told apart from pre-existing, deferred
// failures. The store has an explicit open/flush/close lifecycle: the file is
// read fully under an exclusive lock at open, mutated in memory, and written
// back atomically in one rename. A store whose file could not be parsed
// refuses to flush: a broken read must never clobber history on disk.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/complygate/complygate/internal/types"
)

// Entry is the persisted record for one test id.
type Entry struct {
	Status    types.Status `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
	RunRef    string       `json:"run_ref,omitempty"`
}

// StoreError is a fatal baseline read/write failure. It aborts the run with
// the configuration-error exit code and leaves the on-disk file untouched.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("baseline %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

type fileShape struct {
	Version     int              `json:"version"`
	RulesetHash string           `json:"ruleset_hash,omitempty"`
	Entries     map[string]Entry `json:"entries"`
}

const fileVersion = 1

// Store is an exclusively-locked baseline file held open for one run.
type Store struct {
	path        string
	lockPath    string
	rulesetHash string
	entries     map[string]Entry
	locked      bool
}

// DefaultPath places the baseline under .git when the root is a checkout, to
// keep it out of accidental commits, and falls back to a dotfile in the root.
func DefaultPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "complygate_baseline.json")
	}
	return filepath.Join(root, ".complygate_baseline.json")
}

// Open acquires the store's lock and reads the whole file. A missing file is
// a fresh, empty store; an unreadable or corrupted file is a StoreError and
// no Store is returned.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		lockPath: path + ".lock",
		entries:  map[string]Entry{},
	}
	if err := s.acquireLock(); err != nil {
		return nil, &StoreError{Op: "lock", Err: err}
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		s.releaseLock()
		return nil, &StoreError{Op: "read", Err: err}
	}
	var f fileShape
	if err := json.Unmarshal(b, &f); err != nil {
		s.releaseLock()
		return nil, &StoreError{Op: "parse", Err: err}
	}
	if f.Entries != nil {
		s.entries = f.Entries
	}
	s.rulesetHash = f.RulesetHash
	return s, nil
}

// Two concurrent runs against one store must serialize their
// read-modify-write cycle; O_EXCL on a sidecar file is the mutual exclusion.
func (s *Store) acquireLock() error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			s.locked = true
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("lock %s held by another run", s.lockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *Store) releaseLock() {
	if s.locked {
		_ = os.Remove(s.lockPath)
		s.locked = false
	}
}

// Get returns the entry for a test id, if one exists.
func (s *Store) Get(id string) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Put creates or replaces the entry for a test id.
func (s *Store) Put(id string, e Entry) {
	s.entries[id] = e
}

// Prune removes an entry. Entries are never deleted automatically; this is
// the manual path.
func (s *Store) Prune(id string) bool {
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// IDs returns all test ids in sorted order.
func (s *Store) IDs() []string {
	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// RulesetHash returns the fingerprint the store was last flushed with.
func (s *Store) RulesetHash() string { return s.rulesetHash }

// SetRulesetHash records the fingerprint to be persisted at the next flush.
func (s *Store) SetRulesetHash(h string) { s.rulesetHash = h }

// Flush writes every entry in one atomic rename. Either the whole run's
// update lands or none of it does.
func (s *Store) Flush() error {
	if !s.locked {
		return &StoreError{Op: "flush", Err: errors.New("store is closed")}
	}
	f := fileShape{Version: fileVersion, RulesetHash: s.rulesetHash, Entries: s.entries}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return &StoreError{Op: "flush", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".baseline-*")
	if err != nil {
		return &StoreError{Op: "flush", Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &StoreError{Op: "flush", Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Op: "flush", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &StoreError{Op: "flush", Err: err}
	}
	return nil
}

// Close releases the lock. The store must not be used afterwards.
func (s *Store) Close() error {
	s.releaseLock()
	return nil
}

// Package assistant – store.go implements the persistent state store.
//
// State is a single small JSON document holding buyer identities, permanently
// unlocked identities, and per-user request timestamps. It is loaded fully
// into memory at startup and rewritten whole after every mutation. Single
// process, single writer — no locking across processes.
package assistant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// StateDocument is the persisted state layout. Missing top-level keys load
// as empty collections so older files keep working.
type StateDocument struct {
	// Buyers are identities with standing purchase-based access.
	Buyers []string `json:"buyers"`

	// Unlocked are identities with permanent unlimited quota.
	Unlocked []string `json:"unlocked"`

	// Usage maps identity → request timestamps in Unix milliseconds,
	// appended in real time (chronological order).
	Usage map[string][]int64 `json:"usage"`
}

// newStateDocument returns an empty, fully initialized document.
func newStateDocument() *StateDocument {
	return &StateDocument{
		Buyers:   []string{},
		Unlocked: []string{},
		Usage:    map[string][]int64{},
	}
}

// HasBuyer reports whether the identity is in the Buyers set.
func (d *StateDocument) HasBuyer(id string) bool {
	for _, b := range d.Buyers {
		if b == id {
			return true
		}
	}
	return false
}

// HasUnlocked reports whether the identity is in the Unlocked set.
func (d *StateDocument) HasUnlocked(id string) bool {
	for _, u := range d.Unlocked {
		if u == id {
			return true
		}
	}
	return false
}

// Store owns the in-memory state document and its file persistence.
// All mutation goes through Update so every change is flushed to disk
// before the mutating operation returns.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	doc *StateDocument
}

// NewStore creates a store for the given file path and hydrates it.
// Load failures are recovered locally: the store starts empty and logs a
// warning, it never fails construction.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		path:   path,
		logger: logger.With("component", "store"),
	}
	s.doc = s.load()
	return s
}

// load reads and parses the state file. Fails soft: a missing or corrupt
// file yields a fresh empty document.
func (s *Store) load() *StateDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state file unreadable, starting empty",
				"path", s.path, "error", err)
		}
		return newStateDocument()
	}

	doc := newStateDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("state file corrupt, starting empty",
			"path", s.path, "error", err)
		return newStateDocument()
	}

	// Forward compatibility: missing keys default to empty collections.
	if doc.Buyers == nil {
		doc.Buyers = []string{}
	}
	if doc.Unlocked == nil {
		doc.Unlocked = []string{}
	}
	if doc.Usage == nil {
		doc.Usage = map[string][]int64{}
	}

	s.logger.Info("state loaded",
		"path", s.path,
		"buyers", len(doc.Buyers),
		"unlocked", len(doc.Unlocked),
		"tracked_users", len(doc.Usage),
	)
	return doc
}

// save writes the whole document to disk. The write goes to a temp file in
// the same directory and is renamed over the target, so a crash mid-write
// never leaves a torn file. Caller must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pubai-state-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// View runs fn with read access to the document under the store lock.
// fn must not retain references to the document's slices or maps.
func (s *Store) View(fn func(doc *StateDocument)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Update runs fn with write access to the document under the store lock.
// If fn reports a change, the whole document is persisted synchronously
// before Update returns. Persistence failures are logged, not surfaced —
// the in-memory state is already mutated and stays authoritative for the
// rest of the process lifetime.
func (s *Store) Update(fn func(doc *StateDocument) (changed bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn(s.doc) {
		return
	}
	if err := s.save(); err != nil {
		s.logger.Error("failed to persist state", "path", s.path, "error", err)
	}
}

// Path returns the state file path.
func (s *Store) Path() string { return s.path }

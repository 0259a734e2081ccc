// Package keystore implements the on-disk per-provider credential store:
// mode 0600 JSON, last-write-wins per field, with a one-way migration from
// the legacy string-only shape.
package keystore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("KeyStore")

// Entry is one provider's stored credential triple. Empty strings are
// normalized to absent (omitted) fields on save.
type Entry struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

func (e Entry) isEmpty() bool {
	return e.APIKey == "" && e.BaseURL == "" && e.Model == ""
}

// Store is a file-backed map of provider id -> Entry. Writers rewrite the
// whole file under 0600; concurrent writers are acceptable-last-write-wins
// (a shared resource guarded by a mutex).
type Store struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
}

// Open loads path if it exists (migrating the legacy shape), or starts empty.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: map[string]Entry{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := s.load(raw); err != nil {
		return nil, err
	}
	return s, nil
}

// load parses raw, tolerating the legacy {provider: "key-string"} shape by
// migrating each such entry into {apiKey: value}.
func (s *Store) load(raw []byte) error {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	for provider, msg := range generic {
		var entry Entry
		if err := json.Unmarshal(msg, &entry); err == nil {
			s.entries[provider] = entry
			continue
		}
		var legacy string
		if err := json.Unmarshal(msg, &legacy); err == nil {
			log.Info("migrating legacy key-store entry for %s", provider)
			s.entries[provider] = Entry{APIKey: legacy}
			continue
		}
		log.Warn("skipping unreadable key-store entry for %s", provider)
	}
	return nil
}

// Get returns the stored entry for provider, if any.
func (s *Store) Get(provider string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[provider]
	return e, ok
}

// Save replaces provider's entry wholesale and persists the whole store.
// Last write wins per field: a field left as "" is absent on the next Get,
// even if a previous Save had set it.
func (s *Store) Save(provider string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.isEmpty() {
		delete(s.entries, provider)
	} else {
		s.entries[provider] = entry
	}
	return s.flushLocked()
}

// Remove deletes provider's entry entirely.
func (s *Store) Remove(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, provider)
	return s.flushLocked()
}

// List returns a snapshot of every stored provider id.
func (s *Store) List() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

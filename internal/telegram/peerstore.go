package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gotd/td/telegram/peers"

	"tg-upload/internal/logging"
)

// peerStorePath places the access hash store next to the session file.
func peerStorePath(sessionFile string) string {
	return sessionFile + ".peers"
}

type storedKey struct {
	Prefix string `json:"prefix"`
	ID     int64  `json:"id"`
}

type peerFile struct {
	AccessHashes map[string]int64     `json:"access_hashes"`
	Phones       map[string]storedKey `json:"phones,omitempty"`
	ContactsHash int64                `json:"contacts_hash,omitempty"`
}

// peerStore is a peers.Storage kept in a JSON file, so access hashes learned
// in one run let later runs address users and channels by numeric ID.
// Changes are held in memory until Flush.
type peerStore struct {
	path string

	mu    sync.Mutex
	data  peerFile
	dirty bool
}

var _ peers.Storage = (*peerStore)(nil)

// openPeerStore loads path. A missing file yields an empty store; an
// unreadable one is logged and replaced on the next Flush.
func openPeerStore(path string) *peerStore {
	s := &peerStore{path: path}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		logging.Logf(logging.Warning, "Could not read peer cache '%s': %v", path, err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			logging.Logf(logging.Warning, "Discarding corrupt peer cache '%s': %v", path, err)
			s.data = peerFile{}
		}
	}
	if s.data.AccessHashes == nil {
		s.data.AccessHashes = make(map[string]int64)
	}
	if s.data.Phones == nil {
		s.data.Phones = make(map[string]storedKey)
	}
	logging.Logf(logging.Debug, "Loaded %d cached peers from '%s'", len(s.data.AccessHashes), path)
	return s
}

func storeKey(k peers.Key) string {
	return k.Prefix + strconv.FormatInt(k.ID, 10)
}

func (s *peerStore) Save(_ context.Context, key peers.Key, value peers.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := storeKey(key)
	if old, ok := s.data.AccessHashes[k]; ok && old == value.AccessHash {
		return nil
	}
	s.data.AccessHashes[k] = value.AccessHash
	s.dirty = true
	return nil
}

func (s *peerStore) Find(_ context.Context, key peers.Key) (peers.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.data.AccessHashes[storeKey(key)]
	return peers.Value{AccessHash: hash}, ok, nil
}

func (s *peerStore) SavePhone(_ context.Context, phone string, key peers.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := storedKey{Prefix: key.Prefix, ID: key.ID}
	if old, ok := s.data.Phones[phone]; ok && old == sk {
		return nil
	}
	s.data.Phones[phone] = sk
	s.dirty = true
	return nil
}

func (s *peerStore) FindPhone(_ context.Context, phone string) (peers.Key, peers.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, ok := s.data.Phones[phone]
	if !ok {
		return peers.Key{}, peers.Value{}, false, nil
	}
	key := peers.Key{Prefix: sk.Prefix, ID: sk.ID}
	hash, ok := s.data.AccessHashes[storeKey(key)]
	return key, peers.Value{AccessHash: hash}, ok, nil
}

func (s *peerStore) GetContactsHash(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ContactsHash, nil
}

func (s *peerStore) SaveContactsHash(_ context.Context, hash int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.ContactsHash != hash {
		s.data.ContactsHash = hash
		s.dirty = true
	}
	return nil
}

// Flush writes pending changes. The file is replaced atomically.
func (s *peerStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode peer cache: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create peer cache: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write peer cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write peer cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace peer cache '%s': %w", s.path, err)
	}
	s.dirty = false
	return nil
}

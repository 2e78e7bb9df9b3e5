package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"aura-trader/internal/types"
)

// Fixed keys of the persisted client state. There is no schema versioning;
// unknown keys are carried through untouched.
const (
	KeyAccessToken = "fyers_access_token"
	KeyAppSettings = "appSettings"
)

// KVStore is a small file-backed key-value store for the bearer credential
// and user settings. Values are raw JSON.
type KVStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

func NewKVStore(path string) (*KVStore, error) {
	s := &KVStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
	}
	return s, nil
}

// Get unmarshals the value stored under key into out. The second return is
// false when the key is absent.
func (s *KVStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode key %s: %w", key, err)
	}
	return true, nil
}

// Put stores the value under key and flushes to disk.
func (s *KVStore) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode key %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.flushLocked()
}

// Delete removes key and flushes to disk. Deleting an absent key is a no-op.
func (s *KVStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

// flushLocked writes through a temp file and renames, so a crash mid-write
// never leaves a truncated state file.
func (s *KVStore) flushLocked() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// AccessToken returns the cached bearer credential, empty when absent.
func (s *KVStore) AccessToken() string {
	var token string
	ok, err := s.Get(KeyAccessToken, &token)
	if err != nil || !ok {
		return ""
	}
	return token
}

// SaveAccessToken persists the bearer credential.
func (s *KVStore) SaveAccessToken(token string) error {
	return s.Put(KeyAccessToken, token)
}

// ClearAccessToken drops the bearer credential (logout).
func (s *KVStore) ClearAccessToken() error {
	return s.Delete(KeyAccessToken)
}

// DefaultSettings is used until the user saves their own.
func DefaultSettings() types.Settings {
	return types.Settings{
		TradingStrategy: types.StrategyIntraday,
		AIPersonality: "You are a helpful and concise financial analyst for a trader. " +
			"Your name is Aura. You are providing insights in real-time. " +
			"Keep your answers brief and to the point (2-3 sentences max). " +
			"Never give financial advice. Do not use markdown.",
	}
}

// Settings returns the persisted user settings, merged over defaults.
func (s *KVStore) Settings() types.Settings {
	settings := DefaultSettings()
	ok, err := s.Get(KeyAppSettings, &settings)
	if err != nil || !ok {
		return DefaultSettings()
	}
	if settings.TradingStrategy == "" {
		settings.TradingStrategy = types.StrategyIntraday
	}
	return settings
}

// SaveSettings persists the user settings.
func (s *KVStore) SaveSettings(settings types.Settings) error {
	return s.Put(KeyAppSettings, settings)
}

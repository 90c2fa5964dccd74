package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// TokenKey is the key the credential is persisted under.
const TokenKey = "eco_masomo_token"

// TokenStore persists the session credential. Token returns "" when none is stored.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	Clear() error
}

// FileTokenStore keeps the credential in a JSON file.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

var _ TokenStore = (*FileTokenStore)(nil)

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) read() (map[string]string, error) {
	vals := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return vals, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.path)
	}
	if len(b) == 0 {
		return vals, nil
	}
	if err := json.Unmarshal(b, &vals); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.path)
	}
	return vals, nil
}

func (s *FileTokenStore) write(vals map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating credentials dir")
	}
	b, err := json.MarshalIndent(vals, "", "  ")
	if err != nil {
		return err
	}

	// write then rename, so the file is never left half written
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp credentials file")
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "syncing %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.path), "writing %s", s.path)
}

func (s *FileTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vals, err := s.read()
	if err != nil {
		return "", err
	}
	return vals[TokenKey], nil
}

func (s *FileTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vals, err := s.read()
	if err != nil {
		return err
	}
	vals[TokenKey] = token
	return s.write(vals)
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vals, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := vals[TokenKey]; !ok {
		return nil
	}
	delete(vals, TokenKey)
	return s.write(vals)
}

// MemoryTokenStore keeps the credential for the lifetime of the process.
type MemoryTokenStore struct {
	token string
	mu    sync.RWMutex
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryTokenStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetToken("")
}

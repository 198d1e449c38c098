package client

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoSession is returned by a SessionStore holding no credentials.
var ErrNoSession = errors.New("no stored session")

// SessionData is the persisted part of a Session.
type SessionData struct {
	UserID  string    `yaml:"user_id"`
	Email   string    `yaml:"email,omitempty"`
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// SessionStore keeps the session across process restarts.
type SessionStore interface {
	Load() (*SessionData, error)
	Save(data *SessionData) error
	Clear() error
}

// FileStore persists the session as a YAML file readable only by its owner.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath returns ~/.taskctl/session.yaml, or a path in the
// working directory when the home directory is unknown.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskctl", "session.yaml")
	}
	return filepath.Join(home, ".taskctl", "session.yaml")
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (*SessionData, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var session SessionData
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

func (s *FileStore) Save(session *SessionData) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu   sync.Mutex
	data *SessionData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, ErrNoSession
	}
	data := *s.data
	return &data, nil
}

func (s *MemoryStore) Save(data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *data
	s.data = &copied
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = nil
	return nil
}

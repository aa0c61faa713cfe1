package scoring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// HighScoreKey is the single persisted key.
const HighScoreKey = "cyberSimHighScore"

// Store persists the high score.
type Store interface {
	Load() (int, error)
	Save(highScore int) error
}

// FileStore keeps the high score in a small YAML document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns 0 when the file does not exist yet.
func (s *FileStore) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read high score: %w", err)
	}
	doc := map[string]int{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode high score: %w", err)
	}
	return doc[HighScoreKey], nil
}

// Save writes the high score atomically.
func (s *FileStore) Save(highScore int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(map[string]int{HighScoreKey: highScore})
	if err != nil {
		return fmt.Errorf("encode high score: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create high score dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write high score: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// MemoryStore keeps the high score in memory.
type MemoryStore struct {
	mu   sync.Mutex
	high int
}

func (m *MemoryStore) Load() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.high, nil
}

func (m *MemoryStore) Save(highScore int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.high = highScore
	return nil
}

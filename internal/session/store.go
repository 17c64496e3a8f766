package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CredentialStore persists the bearer token between runs.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type credentialFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the credential in a JSON file readable only by its owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialPath is credentials.json under the user's config directory.
func DefaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "learncode", "credentials.json")
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns "" without error when nothing is stored.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credential failed: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}
	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse credential failed: %w", err)
	}
	return f.Token, nil
}

func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir failed: %w", err)
	}
	data, err := json.MarshalIndent(credentialFile{Token: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential failed: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credential failed: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential failed: %w", err)
	}
	return nil
}

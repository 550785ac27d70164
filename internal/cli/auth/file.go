package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps credentials in a JSON file readable only by the current user.
// The file holds one object per server.
type FileStore struct {
	path      string
	namespace string
	mu        sync.Mutex
}

// DefaultCredentialsPath returns ~/.config/campushire/credentials.json
func DefaultCredentialsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "campushire", "credentials.json"), nil
}

// NewFileStore creates a file-backed store for the given server
func NewFileStore(path, serverURL string) *FileStore {
	return &FileStore{path: path, namespace: serverURL}
}

func (s *FileStore) load() (map[string]map[string]string, error) {
	all := make(map[string]map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return all, nil
}

func (s *FileStore) save(all map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := all[s.namespace][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if all[s.namespace] == nil {
		all[s.namespace] = make(map[string]string)
	}
	all[s.namespace][key] = value
	return s.save(all)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[s.namespace][key]; !ok {
		return nil
	}
	delete(all[s.namespace], key)
	if len(all[s.namespace]) == 0 {
		delete(all, s.namespace)
	}
	return s.save(all)
}

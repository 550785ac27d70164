// Package userconfig keeps per-user CLI state outside the project tree:
// which server each project has selected.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileName = "config.json"

// Selection is the server a project last selected. Alias and URL are both
// kept so a renamed alias still resolves by URL.
type Selection struct {
	Alias      string    `json:"alias"`
	URL        string    `json:"url"`
	SelectedAt time.Time `json:"selectedAt"`
}

// UserConfig is ~/.config/campushire/config.json. Selections are keyed by
// the absolute path of the project's campushire.json, so two checkouts can
// talk to different servers.
type UserConfig struct {
	Selections map[string]Selection `json:"selections,omitempty"`
}

// Dir returns ~/.config/campushire
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "campushire"), nil
}

func path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the user config. A missing file is an empty config.
func Load() (*UserConfig, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	cfg := &UserConfig{Selections: map[string]Selection{}}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	if cfg.Selections == nil {
		cfg.Selections = map[string]Selection{}
	}
	return cfg, nil
}

// Save writes cfg, creating the directory if needed
func Save(cfg *UserConfig) error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(p, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// Selected returns the selection remembered for project
func Selected(project string) (Selection, bool, error) {
	cfg, err := Load()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok := cfg.Selections[key(project)]
	return sel, ok, nil
}

// Remember records alias/url as project's selected server
func Remember(project, alias, url string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.Selections[key(project)] = Selection{
		Alias:      alias,
		URL:        url,
		SelectedAt: time.Now().UTC(),
	}
	return Save(cfg)
}

// Forget drops project's selection. Forgetting an unknown project is a no-op.
func Forget(project string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	k := key(project)
	if _, ok := cfg.Selections[k]; !ok {
		return nil
	}
	delete(cfg.Selections, k)
	return Save(cfg)
}

func key(project string) string {
	if abs, err := filepath.Abs(project); err == nil {
		return abs
	}
	return project
}

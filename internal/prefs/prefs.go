// Package prefs persists the last-known local identity (display name,
// username, avatar, gender) so the preview simulator can seed a consistent
// synthetic participant across runs. This is the only client-side state kept
// outside the core.
package prefs

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Identity mirrors the profile fields the preview flow is allowed to edit.
// Gender stays a plain string here so the package has no dependency on the
// backend types.
type Identity struct {
	DisplayName string `yaml:"display_name"`
	Username    string `yaml:"username"`
	AvatarURL   string `yaml:"avatar_url,omitempty"`
	Gender      string `yaml:"gender,omitempty"`
}

// Store reads and writes the identity file. Path is fixed at construction.
type Store struct {
	path string
}

// NewStore returns a store backed by the given file. An empty path falls back
// to ser_identity.yaml next to the binary.
func NewStore(path string) *Store {
	if path == "" {
		path = defaultPath()
	}
	return &Store{path: path}
}

func defaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "ser_identity.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "ser_identity.yaml")
}

// Load returns the saved identity, or zero values if the file is missing or
// unreadable. A broken file is treated as absent.
func (s *Store) Load() Identity {
	var id Identity
	data, err := os.ReadFile(s.path)
	if err != nil {
		return id
	}
	if err := yaml.Unmarshal(data, &id); err != nil {
		return Identity{}
	}
	return id
}

// Save writes the identity to disk.
func (s *Store) Save(id Identity) error {
	data, err := yaml.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// UserConfig represents the user's local preferences stored in ~/.config/creatorhub/config.json
type UserConfig struct {
	SelectedCreatorID   string `json:"selected_creator_id,omitempty"`
	SelectedCreatorName string `json:"selected_creator_name,omitempty"`
	DeviceID            string `json:"device_id"`
}

// Store reads and writes the user config file
type Store struct {
	fs   afero.Fs
	path string
}

// New returns a Store for the config file at path
func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the user configuration file. A missing file yields an empty config.
func (s *Store) Load() (*UserConfig, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func (s *Store) Save(cfg *UserConfig) error {
	// Create config directory if it doesn't exist
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// DeviceID returns the stable id of this installation, generating and
// saving one on first use
func (s *Store) DeviceID() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}

	if cfg.DeviceID != "" {
		return cfg.DeviceID, nil
	}

	cfg.DeviceID = uuid.NewString()
	if err := s.Save(cfg); err != nil {
		return "", err
	}
	return cfg.DeviceID, nil
}

// SetSelectedCreator updates the selected creator and saves the config
func (s *Store) SetSelectedCreator(id, name string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}

	cfg.SelectedCreatorID = id
	cfg.SelectedCreatorName = name
	return s.Save(cfg)
}

// SelectedCreator returns the selected creator id, or empty string if not set
func (s *Store) SelectedCreator() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedCreatorID, nil
}

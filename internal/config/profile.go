package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the florist client configuration, read from
// $XDG_CONFIG_HOME/florist/config.yaml.
type Profile struct {
	APIURL         string        `yaml:"api_url"`
	Timeout        time.Duration `yaml:"timeout"`
	DataDir        string        `yaml:"data_dir"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
}

// DefaultProfile returns the profile used when no file exists.
func DefaultProfile() Profile {
	return Profile{
		APIURL:         "http://localhost:8000",
		Timeout:        10 * time.Second,
		DataDir:        defaultDataDir(),
		SearchDebounce: 300 * time.Millisecond,
	}
}

// DefaultProfilePath is config.yaml under the user config directory.
func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".florist", "config.yaml")
	}
	return filepath.Join(dir, "florist", "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "florist")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".florist"
	}
	return filepath.Join(home, ".local", "share", "florist")
}

// LoadProfile reads the profile at path on top of the defaults. A missing
// file yields the defaults; unknown keys are an error.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return DefaultProfile(), fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return DefaultProfile(), fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the profile after flags have been applied.
func (p Profile) Validate() error {
	u, err := url.Parse(p.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute URL, got %q", p.APIURL)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", p.Timeout)
	}
	if p.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if p.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative, got %s", p.SearchDebounce)
	}
	return nil
}

// Marshal renders the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

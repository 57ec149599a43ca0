package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations to make TOML and
// YAML friendly.
type FileConfig struct {
	URL           string            `toml:"url" yaml:"url"`
	PageURL       string            `toml:"page_url" yaml:"page_url"`
	PageFile      string            `toml:"page_file" yaml:"page_file"`
	FormID        string            `toml:"form_id" yaml:"form_id"`
	FileField     string            `toml:"file_field" yaml:"file_field"`
	Timeout       string            `toml:"timeout" yaml:"timeout"`
	ForceFrame    *bool             `toml:"force_frame" yaml:"force_frame"`
	ResponseType  string            `toml:"response_type" yaml:"response_type"`
	Credentials   *bool             `toml:"credentials" yaml:"credentials"`
	CrossOrigin   *bool             `toml:"cross_origin" yaml:"cross_origin"`
	AllowedOrigin string            `toml:"allowed_origin" yaml:"allowed_origin"`
	LogLevel      string            `toml:"log_level" yaml:"log_level"`
	WatchDir      string            `toml:"watch_dir" yaml:"watch_dir"`
	Debounce      string            `toml:"debounce" yaml:"debounce"`
	Fields        map[string]string `toml:"fields" yaml:"fields"`
	Headers       map[string]string `toml:"headers" yaml:"headers"`
	Data          map[string]string `toml:"data" yaml:"data"`
}

// LoadFileConfig reads and parses a config file from the given path. Files
// ending in .yaml or .yml are YAML; everything else is TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml %s: %w", path, err)
		}
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.formship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".formship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("url", fc.URL, &cfg.UploadURL)
	s.setString("page-url", fc.PageURL, &cfg.PageURL)
	s.setString("page-file", fc.PageFile, &cfg.PageFile)
	s.setString("form-id", fc.FormID, &cfg.FormID)
	s.setString("file-field", fc.FileField, &cfg.FileField)
	s.setString("response-type", fc.ResponseType, &cfg.ResponseType)
	s.setString("allowed-origin", fc.AllowedOrigin, &cfg.AllowedOrigin)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("dir", fc.WatchDir, &cfg.WatchDir)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}

	s.setBool("force-frame", fc.ForceFrame, &cfg.ForceFrame)
	s.setBool("credentials", fc.Credentials, &cfg.Credentials)
	s.setBool("cross-origin", fc.CrossOrigin, &cfg.CrossOrigin)

	s.setMap("field", fc.Fields, &cfg.Fields)
	s.setMap("header", fc.Headers, &cfg.Headers)
	s.setMap("data", fc.Data, &cfg.Data)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

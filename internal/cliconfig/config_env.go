package cliconfig

import "os"

// EnvPrefix starts the name of every environment variable read by ApplyEnvConfig.
const EnvPrefix = "FORMSHIP_"

// ApplyEnvConfig applies configuration from environment variables (FORMSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("url", env("URL"), &cfg.UploadURL)
	s.setString("page-url", env("PAGE_URL"), &cfg.PageURL)
	s.setString("page-file", env("PAGE_FILE"), &cfg.PageFile)
	s.setString("form-id", env("FORM_ID"), &cfg.FormID)
	s.setString("file-field", env("FILE_FIELD"), &cfg.FileField)
	s.setString("response-type", env("RESPONSE_TYPE"), &cfg.ResponseType)
	s.setString("allowed-origin", env("ALLOWED_ORIGIN"), &cfg.AllowedOrigin)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("dir", env("WATCH_DIR"), &cfg.WatchDir)

	if err := s.setDuration("timeout", env("TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("debounce", env("DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	if err := s.setBoolFromString("force-frame", env("FORCE_FRAME"), &cfg.ForceFrame); err != nil {
		return err
	}
	if err := s.setBoolFromString("credentials", env("CREDENTIALS"), &cfg.Credentials); err != nil {
		return err
	}
	if err := s.setBoolFromString("cross-origin", env("CROSS_ORIGIN"), &cfg.CrossOrigin); err != nil {
		return err
	}

	if err := s.setMapFromString("field", env("FIELDS"), &cfg.Fields); err != nil {
		return err
	}
	if err := s.setMapFromString("header", env("HEADERS"), &cfg.Headers); err != nil {
		return err
	}
	return s.setMapFromString("data", env("DATA"), &cfg.Data)
}

package cliconfig

import (
	"maps"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"FORMSHIP_URL":         "http://env.example.com/upload",
				"FORMSHIP_FORM_ID":     "env-form",
				"FORMSHIP_TIMEOUT":     "10s",
				"FORMSHIP_FORCE_FRAME": "true",
				"FORMSHIP_HEADERS":     "X-A=1,X-B=2",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				UploadURL:  "http://env.example.com/upload",
				FormID:     "env-form",
				Timeout:    10 * time.Second,
				ForceFrame: true,
				Headers:    map[string]string{"X-A": "1", "X-B": "2"},
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"FORMSHIP_URL":     "http://env.example.com/upload",
				"FORMSHIP_FORM_ID": "env-form",
				"FORMSHIP_DATA":    "k=v",
			},
			changed: map[string]bool{"url": true, "data": true},
			initial: Config{
				UploadURL: "http://flag.example.com/upload",
			},
			expected: Config{
				UploadURL: "http://flag.example.com/upload",
				FormID:    "env-form",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"FORMSHIP_TIMEOUT": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid bool",
			envVars: map[string]string{
				"FORMSHIP_CREDENTIALS": "maybe",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid pairs",
			envVars: map[string]string{
				"FORMSHIP_FIELDS": "title",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"FORMSHIP_CROSS_ORIGIN": "1",
			},
			changed: map[string]bool{},
			expected: Config{
				CrossOrigin: true,
			},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"FORMSHIP_CREDENTIALS": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Credentials: true},
			expected: Config{},
		},
		{
			name: "merges maps into existing entries",
			envVars: map[string]string{
				"FORMSHIP_DATA": "b=env,c=3",
			},
			changed: map[string]bool{},
			initial: Config{Data: map[string]string{"a": "1", "b": "file"}},
			expected: Config{
				Data: map[string]string{"a": "1", "b": "env", "c": "3"},
			},
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"FORMSHIP_URL":            "http://example.com/upload",
				"FORMSHIP_PAGE_URL":       "http://example.com/form",
				"FORMSHIP_PAGE_FILE":      "/srv/form.html",
				"FORMSHIP_FORM_ID":        "f",
				"FORMSHIP_FILE_FIELD":     "attachment",
				"FORMSHIP_TIMEOUT":        "30s",
				"FORMSHIP_FORCE_FRAME":    "1",
				"FORMSHIP_RESPONSE_TYPE":  "xml",
				"FORMSHIP_CREDENTIALS":    "true",
				"FORMSHIP_CROSS_ORIGIN":   "true",
				"FORMSHIP_ALLOWED_ORIGIN": "*",
				"FORMSHIP_LOG_LEVEL":      "debug",
				"FORMSHIP_WATCH_DIR":      "/drop",
				"FORMSHIP_DEBOUNCE":       "1s",
				"FORMSHIP_FIELDS":         "title=x",
				"FORMSHIP_HEADERS":        "X-Token=y",
				"FORMSHIP_DATA":           "batch=z",
			},
			changed: map[string]bool{},
			expected: Config{
				UploadURL:     "http://example.com/upload",
				PageURL:       "http://example.com/form",
				PageFile:      "/srv/form.html",
				FormID:        "f",
				FileField:     "attachment",
				Timeout:       30 * time.Second,
				ForceFrame:    true,
				ResponseType:  "xml",
				Credentials:   true,
				CrossOrigin:   true,
				AllowedOrigin: "*",
				LogLevel:      "debug",
				WatchDir:      "/drop",
				Debounce:      time.Second,
				Fields:        map[string]string{"title": "x"},
				Headers:       map[string]string{"X-Token": "y"},
				Data:          map[string]string{"batch": "z"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				assertConfig(t, cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		URL:         "http://file.example.com/upload",
		FormID:      "file-form",
		FileField:   "file-field",
		Credentials: &trueVal,
		Headers:     map[string]string{"X-File": "1", "X-Both": "file"},
	}

	t.Setenv("FORMSHIP_URL", "http://env.example.com/upload")
	t.Setenv("FORMSHIP_FORM_ID", "env-form")
	t.Setenv("FORMSHIP_PAGE_FILE", "/env/form.html")
	t.Setenv("FORMSHIP_HEADERS", "X-Both=env")

	changed := map[string]bool{
		"url": true,
	}

	cfg := Config{
		UploadURL: "http://cli.example.com/upload",
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.UploadURL != "http://cli.example.com/upload" {
		t.Errorf("UploadURL = %v, want cli url (CLI should win)", cfg.UploadURL)
	}
	if cfg.FormID != "env-form" {
		t.Errorf("FormID = %v, want env-form (env should override file)", cfg.FormID)
	}
	if cfg.PageFile != "/env/form.html" {
		t.Errorf("PageFile = %v, want /env/form.html (env should set)", cfg.PageFile)
	}
	if cfg.FileField != "file-field" {
		t.Errorf("FileField = %v, want file-field (file should set)", cfg.FileField)
	}
	if !cfg.Credentials {
		t.Errorf("Credentials = false, want true (file should set)")
	}
	want := map[string]string{"X-File": "1", "X-Both": "env"}
	if !maps.Equal(cfg.Headers, want) {
		t.Errorf("Headers = %v, want %v", cfg.Headers, want)
	}
}

func assertConfig(t *testing.T, got, want Config) {
	t.Helper()
	if got.UploadURL != want.UploadURL {
		t.Errorf("UploadURL = %v, want %v", got.UploadURL, want.UploadURL)
	}
	if got.PageURL != want.PageURL {
		t.Errorf("PageURL = %v, want %v", got.PageURL, want.PageURL)
	}
	if got.PageFile != want.PageFile {
		t.Errorf("PageFile = %v, want %v", got.PageFile, want.PageFile)
	}
	if got.FormID != want.FormID {
		t.Errorf("FormID = %v, want %v", got.FormID, want.FormID)
	}
	if got.FileField != want.FileField {
		t.Errorf("FileField = %v, want %v", got.FileField, want.FileField)
	}
	if got.ResponseType != want.ResponseType {
		t.Errorf("ResponseType = %v, want %v", got.ResponseType, want.ResponseType)
	}
	if got.AllowedOrigin != want.AllowedOrigin {
		t.Errorf("AllowedOrigin = %v, want %v", got.AllowedOrigin, want.AllowedOrigin)
	}
	if got.LogLevel != want.LogLevel {
		t.Errorf("LogLevel = %v, want %v", got.LogLevel, want.LogLevel)
	}
	if got.WatchDir != want.WatchDir {
		t.Errorf("WatchDir = %v, want %v", got.WatchDir, want.WatchDir)
	}

	if got.Timeout != want.Timeout {
		t.Errorf("Timeout = %v, want %v", got.Timeout, want.Timeout)
	}
	if got.Debounce != want.Debounce {
		t.Errorf("Debounce = %v, want %v", got.Debounce, want.Debounce)
	}

	if got.ForceFrame != want.ForceFrame {
		t.Errorf("ForceFrame = %v, want %v", got.ForceFrame, want.ForceFrame)
	}
	if got.Credentials != want.Credentials {
		t.Errorf("Credentials = %v, want %v", got.Credentials, want.Credentials)
	}
	if got.CrossOrigin != want.CrossOrigin {
		t.Errorf("CrossOrigin = %v, want %v", got.CrossOrigin, want.CrossOrigin)
	}

	if !maps.Equal(got.Fields, want.Fields) {
		t.Errorf("Fields = %v, want %v", got.Fields, want.Fields)
	}
	if !maps.Equal(got.Headers, want.Headers) {
		t.Errorf("Headers = %v, want %v", got.Headers, want.Headers)
	}
	if !maps.Equal(got.Data, want.Data) {
		t.Errorf("Data = %v, want %v", got.Data, want.Data)
	}
}

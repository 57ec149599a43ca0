package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				URL:        "http://example.com/upload",
				FormID:     "form-1",
				Timeout:    "5m",
				ForceFrame: &trueVal,
				Data:       map[string]string{"batch": "1"},
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				UploadURL:  "http://example.com/upload",
				FormID:     "form-1",
				Timeout:    5 * time.Minute,
				ForceFrame: true,
				Data:       map[string]string{"batch": "1"},
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				URL:    "http://config.example.com/upload",
				FormID: "config-form",
			},
			changed: map[string]bool{"url": true},
			initial: Config{
				UploadURL: "http://flag.example.com/upload",
			},
			expected: Config{
				UploadURL: "http://flag.example.com/upload", // unchanged because flag was set
				FormID:    "config-form",
			},
		},
		{
			name: "returns error for invalid duration",
			fileConfig: FileConfig{
				Debounce: "soon",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				URL:           "http://example.com/upload",
				PageURL:       "http://example.com/form",
				PageFile:      "/srv/form.html",
				FormID:        "f",
				FileField:     "attachment",
				Timeout:       "30s",
				ForceFrame:    &falseVal,
				ResponseType:  "json",
				Credentials:   &trueVal,
				CrossOrigin:   &trueVal,
				AllowedOrigin: "https://cdn.example.com",
				LogLevel:      "warn",
				WatchDir:      "/drop",
				Debounce:      "2s",
				Fields:        map[string]string{"title": "t"},
				Headers:       map[string]string{"X-Token": "s"},
				Data:          map[string]string{"batch": "b"},
			},
			changed: map[string]bool{},
			initial: Config{ForceFrame: true},
			expected: Config{
				UploadURL:     "http://example.com/upload",
				PageURL:       "http://example.com/form",
				PageFile:      "/srv/form.html",
				FormID:        "f",
				FileField:     "attachment",
				Timeout:       30 * time.Second,
				ForceFrame:    false,
				ResponseType:  "json",
				Credentials:   true,
				CrossOrigin:   true,
				AllowedOrigin: "https://cdn.example.com",
				LogLevel:      "warn",
				WatchDir:      "/drop",
				Debounce:      2 * time.Second,
				Fields:        map[string]string{"title": "t"},
				Headers:       map[string]string{"X-Token": "s"},
				Data:          map[string]string{"batch": "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr {
				assertConfig(t, cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
url = "http://localhost:8080/upload"
form_id = "avatar"
timeout = "5s"
force_frame = true

[headers]
X-Token = "abc"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.URL != "http://localhost:8080/upload" {
		t.Errorf("URL = %v, want http://localhost:8080/upload", fc.URL)
	}
	if fc.FormID != "avatar" {
		t.Errorf("FormID = %v, want avatar", fc.FormID)
	}
	if fc.Timeout != "5s" {
		t.Errorf("Timeout = %v, want 5s", fc.Timeout)
	}
	if fc.ForceFrame == nil || *fc.ForceFrame != true {
		t.Errorf("ForceFrame = %v, want true", fc.ForceFrame)
	}
	if fc.Headers["X-Token"] != "abc" {
		t.Errorf("Headers = %v, want X-Token=abc", fc.Headers)
	}
}

func TestLoadFileConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "formship.yaml")

	yamlContent := `
url: http://localhost:8080/upload
response_type: json
credentials: false
data:
  batch: "42"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.URL != "http://localhost:8080/upload" {
		t.Errorf("URL = %v, want http://localhost:8080/upload", fc.URL)
	}
	if fc.ResponseType != "json" {
		t.Errorf("ResponseType = %v, want json", fc.ResponseType)
	}
	if fc.Credentials == nil || *fc.Credentials != false {
		t.Errorf("Credentials = %v, want false", fc.Credentials)
	}
	if fc.Data["batch"] != "42" {
		t.Errorf("Data = %v, want batch=42", fc.Data)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
url = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestLoadFileConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yml")

	if err := os.WriteFile(configPath, []byte("url: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid YAML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".formship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .formship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}

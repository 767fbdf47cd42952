package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATA_PATH", "MODEL_PATH", "X_TEST_PATH", "Y_TEST_PATH",
		"LISTEN_PORT", "METRICS_PORT", "STORE_PATH", "UPLOAD_TTL", "PURGE_SCHEDULE",
		"TYPING_DELAY", "PREVIEW_ROWS", "TOP_FEATURES", "HISTOGRAM_BINS",
		"MAX_UPLOAD_BYTES", "WATCH_FILES", "ALLOWED_ORIGINS", "READ_TIMEOUT", "WRITE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DataPath != "merge_data.csv" {
					t.Errorf("expected default DataPath merge_data.csv, got %s", settings.DataPath)
				}
				if settings.ModelPath != "inflation_model.json" {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.PreviewRows != 5 {
					t.Errorf("expected default PreviewRows 5, got %d", settings.PreviewRows)
				}
				if settings.TopFeatures != 15 {
					t.Errorf("expected default TopFeatures 15, got %d", settings.TopFeatures)
				}
				if settings.HistogramBins != 30 {
					t.Errorf("expected default HistogramBins 30, got %d", settings.HistogramBins)
				}
				if settings.TypingDelay != 10*time.Millisecond {
					t.Errorf("expected default TypingDelay 10ms, got %v", settings.TypingDelay)
				}
				if len(settings.AllowedOrigins) != 1 || settings.AllowedOrigins[0] != "*" {
					t.Errorf("expected default origins [*], got %v", settings.AllowedOrigins)
				}
			},
		},
		{
			name: "custom paths and display settings",
			envVars: map[string]string{
				"DATA_PATH":       "/srv/merge.csv",
				"MODEL_PATH":      "/srv/model.json",
				"TYPING_DELAY":    "0s",
				"PREVIEW_ROWS":    "10",
				"WATCH_FILES":     "true",
				"ALLOWED_ORIGINS": "http://a.example, http://b.example",
				"LISTEN_PORT":     "8080",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DataPath != "/srv/merge.csv" {
					t.Errorf("expected DataPath /srv/merge.csv, got %s", settings.DataPath)
				}
				if settings.TypingDelay != 0 {
					t.Errorf("expected TypingDelay disabled, got %v", settings.TypingDelay)
				}
				if settings.PreviewRows != 10 {
					t.Errorf("expected PreviewRows 10, got %d", settings.PreviewRows)
				}
				if !settings.WatchFiles {
					t.Error("expected WatchFiles to be true")
				}
				if len(settings.AllowedOrigins) != 2 || settings.AllowedOrigins[1] != "http://b.example" {
					t.Errorf("unexpected origins %v", settings.AllowedOrigins)
				}
				if settings.ListenPort != 8080 {
					t.Errorf("expected ListenPort 8080, got %d", settings.ListenPort)
				}
			},
		},
		{
			name: "same listen and metrics port",
			envVars: map[string]string{
				"LISTEN_PORT":  "9090",
				"METRICS_PORT": "9090",
			},
			wantErr: true,
		},
		{
			name: "histogram bins out of range",
			envVars: map[string]string{
				"HISTOGRAM_BINS": "1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
data:
  mergedPath: "/data/merge_data.csv"
  xTestPath: "/data/x_test.csv"
  yTestPath: "/data/y_test.csv"
  watch: true

model:
  path: "/models/inflation_model.json"
  topFeatures: 10

display:
  typingDelay: "0s"
  previewRows: 8
  histogramBins: 20

uploads:
  storePath: "/var/lib/inflation"
  ttl: "2h"
  purgeSchedule: "@every 5m"

server:
  listenPort: 8000
  metricsPort: 9100
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.DataPath != "/data/merge_data.csv" {
					t.Errorf("expected DataPath from YAML, got %s", settings.DataPath)
				}
				if settings.ModelPath != "/models/inflation_model.json" {
					t.Errorf("expected ModelPath from YAML, got %s", settings.ModelPath)
				}
				if settings.TopFeatures != 10 {
					t.Errorf("expected TopFeatures 10, got %d", settings.TopFeatures)
				}
				if settings.TypingDelay != 0 {
					t.Errorf("expected TypingDelay 0, got %v", settings.TypingDelay)
				}
				if settings.UploadTTL != 2*time.Hour {
					t.Errorf("expected UploadTTL 2h, got %v", settings.UploadTTL)
				}
				if settings.PurgeSchedule != "@every 5m" {
					t.Errorf("expected PurgeSchedule '@every 5m', got %s", settings.PurgeSchedule)
				}
				if settings.ListenPort != 8000 || settings.MetricsPort != 9100 {
					t.Errorf("unexpected ports %d/%d", settings.ListenPort, settings.MetricsPort)
				}
				if !settings.WatchFiles {
					t.Error("expected WatchFiles to be true")
				}
			},
		},
		{
			name: "environment overrides YAML",
			yamlContent: `
model:
  path: "/models/from_yaml.json"
display:
  previewRows: 8
`,
			envOverrides: map[string]string{
				"MODEL_PATH":   "/models/from_env.json",
				"PREVIEW_ROWS": "3",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "/models/from_env.json" {
					t.Errorf("expected env ModelPath, got %s", settings.ModelPath)
				}
				if settings.PreviewRows != 3 {
					t.Errorf("expected PreviewRows 3, got %d", settings.PreviewRows)
				}
				if settings.XTestPath != "x_test.csv" {
					t.Errorf("expected default XTestPath, got %s", settings.XTestPath)
				}
			},
		},
		{
			name:        "invalid YAML",
			yamlContent: "data: [unterminated",
			wantErr:     true,
		},
		{
			name: "invalid values",
			yamlContent: `
display:
  previewRows: 5000
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yamlContent), 0o600); err != nil {
				t.Fatalf("failed to write config file: %v", err)
			}

			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad_UsesConfigFileWhenSet(t *testing.T) {
	clearTestEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := "model:\n  path: \"/models/selected.json\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configPath)

	settings, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.ModelPath != "/models/selected.json" {
		t.Errorf("expected ModelPath from CONFIG_FILE, got %s", settings.ModelPath)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

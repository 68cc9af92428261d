package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadFrom tests layering of defaults, file and environment
func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.Equal(t, 4, cfg.Pages.MaxParallel)
				assert.False(t, cfg.Sheets.HasCredentials())
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9191
  render_timeout: 10s
sheets:
  api_key: abc
  default_spreadsheet_id: sheet-1
pages:
  file: pages.yaml
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9191, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Server.RenderTimeout)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
				assert.True(t, cfg.Sheets.HasCredentials())
				assert.Equal(t, "sheet-1", cfg.Sheets.DefaultSpreadsheetID)
				assert.Equal(t, "pages.yaml", cfg.Pages.File)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9191\n",
			env: map[string]string{
				"PULSE_SERVER_PORT":               "7070",
				"PULSE_LOGGING_LEVEL":             "debug",
				"PULSE_SECURITY_ALLOWED_ORIGINS":  "http://a.test,http://b.test",
				"PULSE_SECURITY_RATE_LIMIT_BURST": "5",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 5, cfg.Security.RateLimit.Burst)
			},
		},
		{
			name: "unknown logging output falls back to console",
			env:  map[string]string{"PULSE_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"PULSE_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"PULSE_SERVER_READ_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "both credential sources",
			file:    "sheets:\n  credentials_file: a.json\n  credentials_json: '{}'\n",
			wantErr: true,
		},
		{
			name:    "sample ratio out of range",
			env:     map[string]string{"PULSE_TELEMETRY_SAMPLE_RATIO": "1.5"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, "config.yaml", tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:5000", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 5*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "downloads", c.DownloadDir)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name:     "address and interval",
			args:     []string{"-a", "http://api:8080", "-i", "10"},
			expected: &Config{ServerURL: "http://api:8080", OnlineCheckInterval: 10 * time.Second},
		},
		{
			name:     "interval untouched when absent",
			args:     []string{"-a", "http://api:8080"},
			expected: &Config{ServerURL: "http://api:8080", OnlineCheckInterval: time.Second},
		},
		{name: "bad interval", args: []string{"-i", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{OnlineCheckInterval: time.Second}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1","request_timeout":"3s","download_dir":"files"}`), 0o600))

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseJson(cfg, []string{"-c", path}))

	assert.Equal(t, "http://json:1", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, "files", cfg.DownloadDir)

	require.Error(t, parseJson(cfg, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://json:1"}`), 0o600))

	t.Setenv("ITRACK_CLIENT_SERVER_URL", "http://env:1")
	t.Setenv("ITRACK_CLIENT_REQUEST_TIMEOUT", "2s")

	cfg, err := load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)

	cfg, err = load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://json:1", cfg.ServerURL)

	cfg, err = load([]string{"-c", path, "-a", "http://flag:1"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:1", cfg.ServerURL)
}

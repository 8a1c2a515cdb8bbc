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

	assert.Equal(t, "http://127.0.0.1:8000", c.ServerURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "downloads", c.DownloadDir)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server_url": "http://json:1", "request_timeout": "5s"}`), 0o600))
	yamlPath := filepath.Join(dir, "client.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("download_dir: /tmp/dl\n"), 0o600))

	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{name: "defaults", args: nil,
			want: &Config{ServerURL: "http://127.0.0.1:8000", RequestTimeout: 30 * time.Second, DownloadDir: "downloads"}},
		{name: "flags", args: []string{"-a", "http://srv:8000", "-t", "10", "-o", "out"},
			want: &Config{ServerURL: "http://srv:8000", RequestTimeout: 10 * time.Second, DownloadDir: "out"}},
		{name: "json then flags", args: []string{"-c", jsonPath, "-t", "7"},
			want: &Config{ServerURL: "http://json:1", RequestTimeout: 7 * time.Second, DownloadDir: "downloads"}},
		{name: "yaml", args: []string{"-config=" + yamlPath},
			want: &Config{ServerURL: "http://127.0.0.1:8000", RequestTimeout: 30 * time.Second, DownloadDir: "/tmp/dl"}},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
		{name: "missing file", args: []string{"-c", filepath.Join(dir, "nope.json")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadConfig(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

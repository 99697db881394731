package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port  int               `json:"port"`
	Name  string            `json:"name"`
	Forms map[string]string `json:"forms"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// comments are allowed
		port: 8000,
		name: "default",
		forms: { competitor: "a" },
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		name: "local",
		forms: { attendee: "b" },
	}`), 0644)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "local", cfg.Name)
	require.Equal(t, map[string]string{"competitor": "a", "attendee": "b"}, cfg.Forms)
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

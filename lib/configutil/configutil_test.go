package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int    `json:"port"`
	Secret  string `json:"secret"`
	BaseUrl string `json:"base_url"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// default port
		port: 8000,
		base_url: "https://example.com",
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{ secret: "shh", port: 9000 }`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "shh", cfg.Secret)
	require.Equal(t, "https://example.com", cfg.BaseUrl)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOverrideFromEnv(t *testing.T) {
	value := "from-file"
	t.Setenv("PAYFORM_TEST_SECRET", "from-env")
	OverrideFromEnv(&value, "PAYFORM_TEST_SECRET")
	require.Equal(t, "from-env", value)

	untouched := "kept"
	OverrideFromEnv(&untouched, "PAYFORM_TEST_UNSET")
	require.Equal(t, "kept", untouched)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	err := os.WriteFile(filepath.Join(root, "config.json5"), []byte(`{ port: 8080 }`), 0600)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := ReadRecursively[testConfig]("config.json5")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
}

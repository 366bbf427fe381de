package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Address)
	assert.Equal(t, "gorm", cfg.Store.Backend)
	assert.Equal(t, "store", cfg.Store.IDScheme)
	assert.Equal(t, "invoices", cfg.Uploads.Dir)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxBytes)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: csv
  id_scheme: serial
  csv_path: /var/lib/noi/NOI_log.csv
uploads:
  dir: /var/lib/noi/invoices
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Backend)
	assert.Equal(t, "serial", cfg.Store.IDScheme)
	assert.Equal(t, "/var/lib/noi/NOI_log.csv", cfg.Store.CSVPath)
	assert.Equal(t, "/var/lib/noi/invoices", cfg.Uploads.Dir)
	// untouched keys keep defaults
	assert.Equal(t, ":8081", cfg.Server.Address)
}

// Flipping only the backend must land on a scheme that backend supports:
// the flat-log deployment should not need a second knob.
func TestLoadDefaultsSchemePerBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: csv\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Store.Backend)
	assert.Equal(t, "serial", cfg.Store.IDScheme)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gorm", cfg.Store.Backend)
}

func TestLoadRejectsInvalidCombos(t *testing.T) {
	write := func(body string) string {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	_, err := Load(write("store:\n  backend: mongo\n"))
	assert.Error(t, err)

	_, err = Load(write("store:\n  backend: csv\n  id_scheme: store\n"))
	assert.Error(t, err, "store-assigned ids require the gorm backend")

	_, err = Load(write("database:\n  driver: oracle\n"))
	assert.Error(t, err)
}

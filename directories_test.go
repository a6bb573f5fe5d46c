package main

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func Test_parseDirectories(t *testing.T) {
	t.Run("flags override the default directories", func(t *testing.T) {
		directories, err := parseDirectories([]string{"-config-directory", "/etc/panelbridge", "-log-directory", "/var/log/panelbridge"})
		require.NoError(t, err)

		assert.Equal(t, "/etc/panelbridge", directories.Config)
		assert.Equal(t, "/var/log/panelbridge", directories.Log)
		assert.NotEmpty(t, directories.Data)
		assert.Equal(t, filepath.Join("/etc/panelbridge", "panels"), directories.Panels())
	})

	t.Run("prefixed environment variables are read", func(t *testing.T) {
		t.Setenv("PANELBRIDGE_DATA_DIRECTORY", "/srv/panelbridge")

		directories, err := parseDirectories(nil)
		require.NoError(t, err)

		assert.Equal(t, "/srv/panelbridge", directories.Data)
	})

	t.Run("a flags file is read", func(t *testing.T) {
		flagsFile := filepath.Join(t.TempDir(), "flags")
		require.NoError(t, os.WriteFile(flagsFile, []byte("config-directory /opt/panelbridge\n"), 0600))

		directories, err := parseDirectories([]string{"-flags-file", flagsFile})
		require.NoError(t, err)

		assert.Equal(t, "/opt/panelbridge", directories.Config)
	})

	t.Run("unknown flags are rejected", func(t *testing.T) {
		_, err := parseDirectories([]string{"-gateway-directory", "/tmp"})
		assert.Error(t, err)
	})
}

func TestDirectories_create(t *testing.T) {
	t.Run("creates all configuration subdirectories", func(t *testing.T) {
		root := t.TempDir()

		directories := Directories{
			Config: filepath.Join(root, "config"),
			Data:   filepath.Join(root, "data"),
			Log:    filepath.Join(root, "log"),
		}

		require.NoError(t, directories.create())

		for _, dir := range []string{directories.Panels(), directories.Interfaces(), directories.Logging(), directories.Data, directories.Log} {
			info, err := os.Stat(dir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvHome, "")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvIdentity, "")

	home := t.TempDir()
	cfg, err := Load(home, "")
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "memory.db"), cfg.DBPath)
	assert.Empty(t, cfg.Identity)
}

func TestLoadEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvDB, "/tmp/elsewhere.db")
	t.Setenv(EnvIdentity, "zealot-1")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.DBPath)
	assert.Equal(t, "zealot-1", cfg.Identity)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	t.Setenv(EnvDB, "/tmp/env.db")

	flagHome := t.TempDir()
	cfg, err := Load(flagHome, "/tmp/flag.db")
	require.NoError(t, err)

	assert.Equal(t, flagHome, cfg.Home)
	assert.Equal(t, "/tmp/flag.db", cfg.DBPath)
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv(EnvIdentity, "")

	home := t.TempDir()
	yaml := "db: /tmp/from-file.db\nidentity: zealot-9\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(home, "")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, "zealot-9", cfg.Identity)

	// Environment wins over the file.
	t.Setenv(EnvIdentity, "zealot-1")
	cfg, err = Load(home, "")
	require.NoError(t, err)
	assert.Equal(t, "zealot-1", cfg.Identity)
}

func TestLoadBadConfigFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("{not yaml"), 0o644))

	_, err := Load(home, "")
	assert.Error(t, err)
}

func TestSiblingPaths(t *testing.T) {
	cfg := &Config{DBPath: "/work/.hivemem/memory.db"}
	assert.Equal(t, "/work/.hivemem/channels.db", cfg.ChannelsPath())
	assert.Equal(t, "/work/.hivemem/audit.db", cfg.AuditPath())
}

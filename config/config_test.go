package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(0, cfg.Analysis.TempoTrack)
	assert.False(cfg.Analysis.ReduceOctaves)
	assert.Equal(":8080", cfg.Server.Addr)
	assert.False(cfg.Metadata.Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mididf.toml")
	content := `
[analysis]
tempo-track = -1
reduce-octaves = true

[storage]
db-path = "/tmp/from-file.db"

[server]
allowed-origins = ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("MIDIDF_DB_PATH", "/tmp/from-env.db")
	t.Setenv("MIDIDF_DYNAMO_ENDPOINT", "http://localhost:8000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(-1, cfg.Analysis.TempoTrack)
	assert.True(cfg.Analysis.ReduceOctaves)
	assert.Equal("/tmp/from-env.db", cfg.Storage.DBPath)
	assert.Equal([]string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.True(cfg.Metadata.Enabled())
	assert.Equal("mididf-metadata", cfg.Metadata.Table)
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("MIDIDF_TEMPO_TRACK", "first")
	_, err := Load("")
	assert.Error(t, err)
}

func TestBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

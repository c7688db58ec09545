// Package config loads settings from a TOML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/jsphweid/mididf/constants"
	"github.com/pkg/errors"
)

type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Storage  StorageConfig  `toml:"storage"`
	Server   ServerConfig   `toml:"server"`
	Metadata MetadataConfig `toml:"metadata"`
}

type AnalysisConfig struct {
	TempoTrack    int  `toml:"tempo-track"`
	ReduceOctaves bool `toml:"reduce-octaves"`
}

type StorageConfig struct {
	DBPath        string `toml:"db-path"`
	MediaDir      string `toml:"media-dir"`
	CacheSnapshot string `toml:"cache-snapshot"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed-origins"`
	MaxUploadBytes int64    `toml:"max-upload-bytes"`
}

type MetadataConfig struct {
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Table    string `toml:"table"`
}

func (m MetadataConfig) Enabled() bool {
	return m.Endpoint != ""
}

func Default() Config {
	return Config{
		Analysis: AnalysisConfig{TempoTrack: 0},
		Storage: StorageConfig{
			DBPath: filepath.Join(getIndexDir(), "mididf.db"),
		},
		Server: ServerConfig{
			Addr:           constants.DefaultServeAddr,
			AllowedOrigins: []string{"*"},
			MaxUploadBytes: 16 << 20,
		},
		Metadata: MetadataConfig{
			Region: "localhost",
			Table:  constants.DefaultMetadataTable,
		},
	}
}

func getIndexDir() string {
	path := os.Getenv("INDEX_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

// Load reads path (a missing file is fine) and applies the environment on
// top. An empty path skips the file.
func Load(path string) (Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, errors.Wrap(err, "failed to decode config")
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "failed to stat config")
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Storage.DBPath, "MIDIDF_DB_PATH")
	setString(&cfg.Storage.MediaDir, "MEDIA_PATH")
	setString(&cfg.Storage.CacheSnapshot, "MIDIDF_CACHE_SNAPSHOT")
	setString(&cfg.Server.Addr, "MIDIDF_ADDR")
	setString(&cfg.Metadata.Endpoint, "MIDIDF_DYNAMO_ENDPOINT")
	setString(&cfg.Metadata.Region, "MIDIDF_DYNAMO_REGION")
	setString(&cfg.Metadata.Table, "MIDIDF_DYNAMO_TABLE")

	if v := os.Getenv("MIDIDF_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("MIDIDF_TEMPO_TRACK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "MIDIDF_TEMPO_TRACK")
		}
		cfg.Analysis.TempoTrack = n
	}
	if v := os.Getenv("MIDIDF_REDUCE_OCTAVES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "MIDIDF_REDUCE_OCTAVES")
		}
		cfg.Analysis.ReduceOctaves = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

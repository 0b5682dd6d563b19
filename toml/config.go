// Package toml loads the optional reswirl configuration file.
package toml

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lmmx/reswirl"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the user-level settings that persist across invocations.
// Flags override file values; file values override defaults.
type Config struct {
	// CachePath is the SQLite database used for the resolution cache.
	// Empty means the default path under the user cache directory.
	CachePath string `toml:"cache_path"`

	// TTL is how long cache entries are trusted without a staleness
	// re-check, in time.ParseDuration syntax (e.g. "24h").
	TTL string `toml:"ttl"`

	// FallbackHosts are documentation base URL candidates probed when
	// registry metadata is silent. Entries may contain "{package}".
	FallbackHosts []string `toml:"fallback_hosts"`

	// Concurrency bounds enrichment fan-out.
	Concurrency int `toml:"concurrency"`
}

// ParseTTL returns the configured TTL as a duration, or zero when unset.
func (c *Config) ParseTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, reswirl.Errorf(reswirl.EINVALID, "invalid ttl %q in config: %v", c.TTL, err)
	}
	return d, nil
}

// DefaultPath returns the conventional config file location,
// e.g. ~/.config/reswirl/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", reswirl.Errorf(reswirl.EINTERNAL, "determining config directory: %v", err)
	}
	return filepath.Join(dir, "reswirl", "config.toml"), nil
}

// Load reads the config file at path. A missing file is not an error:
// it yields an empty config so defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	} else if err != nil {
		return nil, reswirl.Errorf(reswirl.EINTERNAL, "reading config %s: %v", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, reswirl.Errorf(reswirl.EINVALID, "parsing config %s: %v", path, err)
	}
	return &cfg, nil
}

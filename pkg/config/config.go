// Package config loads homematch settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/homematch/config.toml unless a path is
// given explicitly. Every field has a default, so a missing default file is
// not an error:
//
//	[optimize]
//	engine = "auto"
//	workers = 0
//	max_leaves = 1000000
//	ineligible = "reject"
//
//	[scoring]
//	income_threshold = 42436
//	elderly_age = 65
//
//	[scoring.weights]
//	affordability = 4
//	rooms = 3
//
//	[cache]
//	backend = "file"
//	ttl = "168h"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//
// Command-line flags override file values; see internal/cli.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/homematch/pkg/cache"
	"github.com/matzehuels/homematch/pkg/rewire"
	"github.com/matzehuels/homematch/pkg/score"
)

const appName = "homematch"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
	StoreNone   = "none"
)

// Config is the complete configuration.
type Config struct {
	Optimize Optimize `toml:"optimize"`
	Scoring  Scoring  `toml:"scoring"`
	Cache    Cache    `toml:"cache"`
	Store    Store    `toml:"store"`
	Server   Server   `toml:"server"`
}

// Optimize holds the engine selection and search limits.
type Optimize struct {
	Engine     string        `toml:"engine"`
	Workers    int           `toml:"workers"`
	MaxLeaves  int           `toml:"max_leaves"`
	Ineligible string        `toml:"ineligible"`
	Timeout    time.Duration `toml:"timeout"`
}

// Scoring configures the attribute-based fit scorer.
type Scoring struct {
	Weights         score.Weights `toml:"weights"`
	IncomeThreshold int           `toml:"income_threshold"`
	ElderlyAge      int           `toml:"elderly_age"`
}

// Cache selects and configures the result cache.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	RedisPrefix   string        `toml:"redis_prefix"`
}

// Store selects and configures the run history.
type Store struct {
	Backend    string `toml:"backend"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`

	// OptimizeTimeout bounds API optimizations when optimize.timeout is 0.
	OptimizeTimeout time.Duration `toml:"optimize_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Optimize: Optimize{
			Engine:     "auto",
			MaxLeaves:  rewire.DefaultMaxLeaves,
			Ineligible: score.PolicyRejectPath.String(),
		},
		Scoring: Scoring{
			Weights:         score.DefaultWeights(),
			IncomeThreshold: score.DefaultIncomeThreshold,
			ElderlyAge:      score.DefaultElderlyAge,
		},
		Cache: Cache{
			Backend:     CacheFile,
			TTL:         cache.DefaultTTL,
			RedisAddr:   "localhost:6379",
			RedisPrefix: appName + ":",
		},
		Store: Store{
			Backend:    StoreNone,
			MongoURI:   "mongodb://localhost:27017",
			Database:   appName,
			Collection: "runs",
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			MaxBodyBytes:    16 << 20,
			OptimizeTimeout: 2 * time.Minute,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/homematch/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the configuration at path on top of Default. An empty path
// loads DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that TOML decoding cannot.
func (c Config) Validate() error {
	if c.Optimize.Workers < 0 {
		return fmt.Errorf("optimize.workers must not be negative")
	}
	if _, err := score.ParsePolicy(c.Optimize.Ineligible); err != nil {
		return fmt.Errorf("optimize.ineligible: %w", err)
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreMongo, StoreMemory, StoreNone:
	default:
		return fmt.Errorf("store.backend: unknown backend %q (want mongo, memory or none)", c.Store.Backend)
	}
	return nil
}

// Policy returns the parsed ineligibility policy.
func (c Config) Policy() score.Policy {
	p, _ := score.ParsePolicy(c.Optimize.Ineligible)
	return p
}

// Scorer returns the fit scorer described by the scoring section.
func (c Config) Scorer() score.Fit {
	return score.Fit{
		Weights:         c.Scoring.Weights,
		IncomeThreshold: c.Scoring.IncomeThreshold,
		ElderlyAge:      c.Scoring.ElderlyAge,
	}
}

// CacheDir returns the file cache directory: the configured one, or
// $XDG_CACHE_HOME/homematch (~/.cache/homematch).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

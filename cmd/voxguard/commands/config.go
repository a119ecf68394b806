package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the voxguard configuration file.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// DataDir holds enrollment files when no S3 bucket is configured.
	DataDir string `yaml:"data_dir"`

	// VerifyThreshold is the cosine similarity required to verify a
	// speaker. Zero means the built-in default.
	VerifyThreshold float64 `yaml:"verify_threshold"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Session SessionConfig `yaml:"session"`
	S3      S3Config      `yaml:"s3"`
}

// SessionConfig selects the session history backend.
type SessionConfig struct {
	// Backend is "memory" or "badger".
	Backend string `yaml:"backend"`

	// BadgerDir is the BadgerDB data directory for the badger backend.
	BadgerDir string `yaml:"badger_dir"`

	// IdleTimeout evicts sessions with no activity for this long.
	// Zero disables eviction.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// S3Config points enrollment storage at an S3-compatible bucket.
// Leave Bucket empty to store enrollments in DataDir on local disk.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./voxguard-data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.Backend == "badger" && c.Session.BadgerDir == "" {
		c.Session.BadgerDir = c.DataDir + "/sessions"
	}
}

// LoadConfig reads and validates a YAML config file. An empty path yields
// the default configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyDefaults()
	switch cfg.Session.Backend {
	case "memory", "badger":
	default:
		return nil, fmt.Errorf("unknown session backend %q (want memory or badger)", cfg.Session.Backend)
	}
	return &cfg, nil
}

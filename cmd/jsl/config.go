package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ldn-softdev/jsl"
	"github.com/ldn-softdev/jsl/internal/codec"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML configuration file. Flags override it.
type fileConfig struct {
	SQLite   string      `yaml:"sqlite"`
	Postgres string      `yaml:"postgres"`
	Replica  string      `yaml:"replica"`
	Redis    redisConfig `yaml:"redis"`

	// Codec names the payload codec: jsl (default), json, msgpack or cbor.
	Codec string `yaml:"codec"`

	// EncryptionKey is a hex-encoded 32-byte AES key.
	EncryptionKey string `yaml:"encryption_key"`

	L1TTL    time.Duration `yaml:"l1_ttl"`
	L2TTL    time.Duration `yaml:"l2_ttl"`
	LogLevel string        `yaml:"log_level"`
}

type redisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// globalFlags are the flags accepted before the subcommand.
type globalFlags struct {
	config   string
	sqlite   string
	dsn      string
	redis    string
	codec    string
	logLevel string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&g.config, "config", "c", os.Getenv("JSL_CONFIG"), "YAML configuration file (default $JSL_CONFIG)")
	fs.StringVar(&g.sqlite, "sqlite", "", "SQLite database file")
	fs.StringVar(&g.dsn, "dsn", "", "PostgreSQL connection URL")
	fs.StringVar(&g.redis, "redis", "", "Redis address for the shared cache")
	fs.StringVar(&g.codec, "codec", "", "payload codec: jsl, json, msgpack or cbor")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn)")
}

// loadConfig reads path (when set) and applies the flags on top.
func loadConfig(path string, g *globalFlags) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if g.sqlite != "" {
		cfg.SQLite, cfg.Postgres = g.sqlite, ""
	}
	if g.dsn != "" {
		cfg.Postgres, cfg.SQLite = g.dsn, ""
	}
	if g.redis != "" {
		cfg.Redis.Addr = g.redis
	}
	if g.codec != "" {
		cfg.Codec = g.codec
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	return cfg, nil
}

func (c *fileConfig) level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// storeConfig converts c into a jsl.Config logging through logger.
func (c *fileConfig) storeConfig(logger *slog.Logger) (jsl.Config, error) {
	cfg := jsl.Config{
		PostgresDSN:   c.Postgres,
		ReplicaDSN:    c.Replica,
		SQLitePath:    c.SQLite,
		RedisAddr:     c.Redis.Addr,
		RedisPassword: c.Redis.Password,
		RedisDB:       c.Redis.DB,
		KeyPrefix:     c.Redis.KeyPrefix,
		L1TTL:         c.L1TTL,
		L2TTL:         c.L2TTL,
		Logger:        jsl.NewSlogLogger(logger),
	}
	switch c.Codec {
	case "", "jsl":
	default:
		cd, ok := codec.ByName(c.Codec)
		if !ok {
			return cfg, fmt.Errorf("unknown codec %q", c.Codec)
		}
		cfg.Codec = cd
	}
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil {
			return cfg, fmt.Errorf("encryption_key: %w", err)
		}
		cfg.EncryptionKey = key
	}
	return cfg, nil
}

// Package config loads the process's startup configuration, either from a
// single environment-embedded blob, discrete environment variables, or a
// YAML file, and builds the store registry described by it. Configuration
// is read once at startup and never mutated afterward.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"cachegate/internal/store"
)

// AuthConfig holds the Ed25519 keypair and optional bearer token consumed by
// internal/auth at startup.
type AuthConfig struct {
	PublicKey   string `yaml:"public_key"`
	PrivateKey  string `yaml:"private_key"`
	BearerToken string `yaml:"bearer_token,omitempty"`
}

// CachePolicy sizes the in-memory LRU. MaxBytesRaw accepts humanize-style
// sizes ("256MB", "1GiB") so operators never have to compute raw byte counts.
type CachePolicy struct {
	MaxBytesRaw string `yaml:"max_bytes"`
	TTLSeconds  int    `yaml:"ttl_seconds"`
}

// MaxBytes parses MaxBytesRaw into a byte count.
func (p CachePolicy) MaxBytes() (uint64, error) {
	return humanize.ParseBytes(p.MaxBytesRaw)
}

// TTL converts TTLSeconds into a time.Duration.
func (p CachePolicy) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

// StoreConfig is a tagged union over the supported backends, flattened for
// YAML decoding since the backend fields never overlap.
type StoreConfig struct {
	Type string `yaml:"type"`

	// S3 fields.
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AllowHTTP bool   `yaml:"allow_http,omitempty"`

	// Azure fields.
	Container        string `yaml:"container,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
}

// Config is the fully resolved, immutable process configuration.
type Config struct {
	Listen string                 `yaml:"listen"`
	Stores map[string]StoreConfig `yaml:"stores"`
	Auth   AuthConfig             `yaml:"auth"`
	Cache  CachePolicy            `yaml:"cache"`
}

// Load resolves configuration from source, which is either the literal
// string "env" (read environment variables) or a path to a YAML file.
func Load(source string) (*Config, error) {
	if source == "env" {
		return loadFromEnv()
	}
	return loadFromFile(source)
}

func loadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envConfigBlob, when set, is parsed as a full YAML config document. It lets
// an "env" source still express a multi-store config without a file on disk.
const envConfigBlob = "CACHEGATE_CONFIG"

func loadFromEnv() (*Config, error) {
	if raw := os.Getenv(envConfigBlob); raw != "" {
		var cfg Config
		if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", envConfigBlob, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	cfg := &Config{
		Listen: getEnv("CACHEGATE_LISTEN", ":8080"),
		Auth: AuthConfig{
			PublicKey:   getEnv("CACHEGATE_AUTH_PUBLIC_KEY", ""),
			PrivateKey:  getEnv("CACHEGATE_AUTH_PRIVATE_KEY", ""),
			BearerToken: getEnv("CACHEGATE_AUTH_BEARER_TOKEN", ""),
		},
		Cache: CachePolicy{
			MaxBytesRaw: getEnv("CACHEGATE_CACHE_MAX_BYTES", "256MB"),
			TTLSeconds:  getEnvInt("CACHEGATE_CACHE_TTL_SECONDS", 300),
		},
		Stores: map[string]StoreConfig{},
	}

	for _, id := range strings.Fields(getEnv("CACHEGATE_STORE_IDS", "")) {
		sc, err := storeFromEnv(id)
		if err != nil {
			return nil, err
		}
		cfg.Stores[id] = sc
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func storeFromEnv(id string) (StoreConfig, error) {
	prefix := "CACHEGATE_STORE_" + strings.ToUpper(id) + "_"
	kind := getEnv(prefix+"TYPE", "")
	switch kind {
	case "s3":
		return StoreConfig{
			Type:      "s3",
			Bucket:    getEnv(prefix+"BUCKET", ""),
			Region:    getEnv(prefix+"REGION", ""),
			AccessKey: getEnv(prefix+"ACCESS_KEY", ""),
			SecretKey: getEnv(prefix+"SECRET_KEY", ""),
			Endpoint:  getEnv(prefix+"ENDPOINT", ""),
			AllowHTTP: getEnvBool(prefix+"ALLOW_HTTP", false),
		}, nil
	case "azure":
		return StoreConfig{
			Type:             "azure",
			Container:        getEnv(prefix+"CONTAINER", ""),
			ConnectionString: getEnv(prefix+"CONNECTION_STRING", ""),
		}, nil
	default:
		return StoreConfig{}, fmt.Errorf("store %q: unknown or missing type %q (want s3 or azure)", id, kind)
	}
}

// Validate checks the invariants the core assumes hold for the lifetime of
// the process: a listen address, non-empty public and private keys, a
// parseable cache size, and at least one complete store. Whether the keys
// form a valid pair is checked later by auth.New.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.Auth.PublicKey == "" || c.Auth.PrivateKey == "" {
		return errors.New("auth.public_key and auth.private_key are required")
	}
	if len(c.Stores) == 0 {
		return errors.New("at least one store must be configured")
	}
	if _, err := c.Cache.MaxBytes(); err != nil {
		return fmt.Errorf("cache.max_bytes: %w", err)
	}
	for id, sc := range c.Stores {
		if err := sc.validate(id); err != nil {
			return err
		}
	}
	return nil
}

func (sc StoreConfig) validate(id string) error {
	switch sc.Type {
	case "s3":
		if sc.Bucket == "" || sc.Region == "" || sc.AccessKey == "" || sc.SecretKey == "" {
			return fmt.Errorf("store %q: s3 requires bucket, region, access_key, secret_key", id)
		}
	case "azure":
		if sc.Container == "" || sc.ConnectionString == "" {
			return fmt.Errorf("store %q: azure requires container, connection_string", id)
		}
	default:
		return fmt.Errorf("store %q: unknown type %q", id, sc.Type)
	}
	return nil
}

// BuildStores constructs a store.Store for every configured backend, in a
// deterministic (sorted by id) order so startup errors are reproducible.
func BuildStores(cfg *Config) (map[string]store.Store, error) {
	ids := make([]string, 0, len(cfg.Stores))
	for id := range cfg.Stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stores := make(map[string]store.Store, len(ids))
	for _, id := range ids {
		sc := cfg.Stores[id]
		s, err := buildStore(id, sc)
		if err != nil {
			return nil, fmt.Errorf("store %q: %w", id, err)
		}
		stores[id] = s
	}
	return stores, nil
}

func buildStore(id string, sc StoreConfig) (store.Store, error) {
	switch sc.Type {
	case "s3":
		return store.NewS3(store.S3Config{
			ID:        id,
			Bucket:    sc.Bucket,
			Region:    sc.Region,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
			Endpoint:  sc.Endpoint,
			AllowHTTP: sc.AllowHTTP,
		})
	case "azure":
		return store.NewAzure(store.AzureConfig{
			ID:               id,
			Container:        sc.Container,
			ConnectionString: sc.ConnectionString,
		})
	default:
		return nil, fmt.Errorf("unknown store type %q", sc.Type)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

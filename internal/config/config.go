// Package config loads application configuration from an optional YAML file
// and VOLT_ environment variables.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/pbkdf2"
)

// Secret store backends.
const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
)

// pbkdf2Iterations is the work factor for passphrase-derived keys.
const pbkdf2Iterations = 600_000

// Config is the root application configuration.
type Config struct {
	ListenAddr string        `yaml:"listen_addr" env:"VOLT_LISTEN_ADDR" env-default:"127.0.0.1:8080"`
	DBPath     string        `yaml:"db_path"     env:"VOLT_DB_PATH"     env-default:"volt.db"`
	APIToken   string        `yaml:"api_token"   env:"VOLT_API_TOKEN"`
	JWT        JWTConfig     `yaml:"jwt"`
	Secrets    SecretsConfig `yaml:"secrets"`
	Audit      AuditConfig   `yaml:"audit"`
	Log        LogConfig     `yaml:"log"`
}

// SecretsConfig selects where credential secrets are kept.
type SecretsConfig struct {
	Backend        string `yaml:"backend"         env:"VOLT_SECRET_BACKEND"  env-default:"sqlite"`
	DBPath         string `yaml:"db_path"         env:"VOLT_SECRET_DB_PATH"  env-default:"volt-secrets.db"`
	KeyHex         string `yaml:"key"             env:"VOLT_SECRET_KEY"`
	Passphrase     string `yaml:"passphrase"      env:"VOLT_PASSPHRASE"`
	Salt           string `yaml:"salt"            env:"VOLT_SALT"`
	KeyringService string `yaml:"keyring_service" env:"VOLT_KEYRING_SERVICE" env-default:"volt"`
	KeyringDir     string `yaml:"keyring_dir"     env:"VOLT_KEYRING_DIR"`

	// Key is the 32-byte AES-256 key for the sqlite backend, resolved by
	// Validate from KeyHex or Passphrase+Salt. Nil when neither is set.
	Key []byte `yaml:"-"`
}

// JWTConfig enables signed, expiring bearer tokens for the API. Empty
// Secret disables them.
type JWTConfig struct {
	Secret string        `yaml:"secret" env:"VOLT_JWT_SECRET"`
	Issuer string        `yaml:"issuer" env:"VOLT_JWT_ISSUER" env-default:"volt"`
	TTL    time.Duration `yaml:"ttl"    env:"VOLT_JWT_TTL"    env-default:"15m"`
}

// AuditConfig schedules the background orphan audit.
type AuditConfig struct {
	// Schedule is a cron expression or descriptor such as "@daily".
	// Empty disables the scheduled audit.
	Schedule string `yaml:"schedule" env:"VOLT_AUDIT_SCHEDULE"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"VOLT_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"VOLT_LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file is read only when VOLT_CONFIG_PATH is set.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("VOLT_CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks business rules and resolves the secret key.
// Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path must not be empty")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters (got %d)", len(c.JWT.Secret))
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive (got %s)", c.JWT.TTL)
	}

	if err := c.Secrets.validate(); err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	return nil
}

func (s *SecretsConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))

	switch s.Backend {
	case BackendSQLite:
		if strings.TrimSpace(s.DBPath) == "" {
			return errors.New("db_path must not be empty for the sqlite backend")
		}
		key, err := resolveKey(s.KeyHex, s.Passphrase, s.Salt)
		if err != nil {
			return err
		}
		s.Key = key
	case BackendKeyring:
		// The passphrase unlocks the keyring file backend directly; no AES
		// key is derived.
		if strings.TrimSpace(s.KeyringService) == "" {
			return errors.New("keyring_service must not be empty for the keyring backend")
		}
	default:
		return fmt.Errorf("backend must be %s or %s (got %q)", BackendSQLite, BackendKeyring, s.Backend)
	}
	return nil
}

// HasKey reports whether key material was configured.
func (s *SecretsConfig) HasKey() bool {
	return len(s.Key) == 32
}

// resolveKey accepts either a hex-encoded 32-byte key or a passphrase with a
// salt. Neither yields a nil key.
func resolveKey(keyHex, passphrase, salt string) ([]byte, error) {
	if keyHex != "" {
		if passphrase != "" {
			return nil, errors.New("set either key or passphrase, not both")
		}
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("key must be hex-encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("key must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
		return key, nil
	}

	if passphrase == "" {
		return nil, nil
	}
	if len(salt) < 8 {
		return nil, fmt.Errorf("salt must be at least 8 characters with a passphrase (got %d)", len(salt))
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iterations, 32, sha256.New), nil
}

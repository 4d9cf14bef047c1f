// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AuthRequired = "required"
	AuthOpen     = "open"

	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

type Config struct {
	MongoURI      string `mapstructure:"MONGODB_URI"`
	MongoDatabase string `mapstructure:"MONGODB_DATABASE"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTKeysRaw   string        `mapstructure:"JWT_KEYS"` // kid:secret,kid2:secret2
	JWTActiveKid string        `mapstructure:"JWT_ACTIVE_KID"`
	TokenTTL     time.Duration `mapstructure:"TOKEN_TTL"`

	HTTPAddr       string `mapstructure:"HTTP_ADDR"`
	GRPCHealthAddr string `mapstructure:"GRPC_HEALTH_ADDR"`
	TLSCert        string `mapstructure:"TLS_CERT"`
	TLSKey         string `mapstructure:"TLS_KEY"`

	AuthMode           string        `mapstructure:"AUTH_MODE"`
	AllowedEmailDomain string        `mapstructure:"ALLOWED_EMAIL_DOMAIN"`
	MaxBodyBytes       int64         `mapstructure:"MAX_BODY_BYTES"`
	StorageTimeout     time.Duration `mapstructure:"STORAGE_TIMEOUT"`
	RateLimitRPM       int           `mapstructure:"RATE_LIMIT_RPM"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	PasswordHasher     string        `mapstructure:"PASSWORD_HASHER"`
	HashConcurrency    int           `mapstructure:"HASH_CONCURRENCY"`

	StaticDir  string `mapstructure:"STATIC_DIR"`
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWTKeys is parsed from JWTKeysRaw.
	JWTKeys map[string]string `mapstructure:"-"`
}

var defaults = map[string]any{
	"MONGODB_DATABASE": "bookhub",
	"TOKEN_TTL":        "168h",
	"HTTP_ADDR":        ":8080",
	"AUTH_MODE":        AuthRequired,
	"MAX_BODY_BYTES":   10 << 20,
	"STORAGE_TIMEOUT":  "5s",
	"RATE_LIMIT_RPM":   10,
	"RATE_LIMIT_BURST": 3,
	"PASSWORD_HASHER":  HasherBcrypt,
	"HASH_CONCURRENCY": runtime.NumCPU(),
	"STATIC_DIR":       "./public",
	"CORS_ORIGIN":      "*",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
}

var keys = []string{
	"MONGODB_URI", "JWT_SECRET", "JWT_KEYS", "JWT_ACTIVE_KID",
	"GRPC_HEALTH_ADDR", "TLS_CERT", "TLS_KEY", "ALLOWED_EMAIL_DOMAIN", "PORT",
}

// Load reads .env (when present) and the process environment. Every problem
// found is reported in the returned error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "err", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// PORT is what most hosting platforms set; HTTP_ADDR wins when both exist.
	if p := v.GetString("PORT"); p != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + p
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	var errs []error

	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI must be set"))
	}

	if c.JWTKeysRaw != "" {
		km, err := ParseKeys(c.JWTKeysRaw)
		if err != nil {
			errs = append(errs, err)
		} else if _, ok := km[c.JWTActiveKid]; !ok {
			errs = append(errs, fmt.Errorf("JWT_ACTIVE_KID %q not present in JWT_KEYS", c.JWTActiveKid))
		}
		c.JWTKeys = km
	} else if c.JWTSecret == "" {
		errs = append(errs, errors.New("either JWT_SECRET or JWT_KEYS must be set"))
	}

	c.AuthMode = strings.ToLower(strings.TrimSpace(c.AuthMode))
	if c.AuthMode != AuthRequired && c.AuthMode != AuthOpen {
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthRequired, AuthOpen, c.AuthMode))
	}

	c.PasswordHasher = strings.ToLower(strings.TrimSpace(c.PasswordHasher))
	if c.PasswordHasher != HasherBcrypt && c.PasswordHasher != HasherArgon2id {
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be %q or %q", HasherBcrypt, HasherArgon2id))
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.HashConcurrency <= 0 {
		c.HashConcurrency = runtime.NumCPU()
	}

	return errors.Join(errs...)
}

// AuthRequired reports whether mutating listing routes need a bearer token.
func (c *Config) AuthRequired() bool { return c.AuthMode == AuthRequired }

// ParseKeys parses "kid:secret,kid2:secret2".
func ParseKeys(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kid, secret, ok := strings.Cut(p, ":")
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %q", p)
		}
		out[kid] = secret
	}
	if len(out) == 0 {
		return nil, errors.New("JWT_KEYS contains no keys")
	}
	return out, nil
}

// String renders the config with secrets masked.
func (c *Config) String() string {
	mask := func(s string) string {
		if s == "" {
			return "(empty)"
		}
		return "********"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "mongo_uri=%s database=%s ", mask(c.MongoURI), c.MongoDatabase)
	fmt.Fprintf(&sb, "jwt_secret=%s jwt_keys=%d token_ttl=%s ", mask(c.JWTSecret), len(c.JWTKeys), c.TokenTTL)
	fmt.Fprintf(&sb, "http_addr=%s grpc_health_addr=%q auth_mode=%s ", c.HTTPAddr, c.GRPCHealthAddr, c.AuthMode)
	fmt.Fprintf(&sb, "hasher=%s static_dir=%s", c.PasswordHasher, c.StaticDir)
	return sb.String()
}

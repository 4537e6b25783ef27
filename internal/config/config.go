// Package config carga la configuración del stamper desde YAML y la pisa con
// variables de entorno STAMPER_*.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/security/secretbox"
	"github.com/dropDatabas3/stamper/internal/stamp"
)

// EnvPrefix antecede a todas las variables de entorno reconocidas.
const EnvPrefix = "STAMPER_"

type Config struct {
	App struct {
		// dev | prod | test
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Store struct {
		// memory | fs | bolt | redis | pg
		Driver string `yaml:"driver"`
		// Directorio base para fs y bolt.
		Dir   string `yaml:"dir"`
		DSN   string `yaml:"dsn"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Namespace struct {
			Database string `yaml:"database"`
			Store    string `yaml:"store"`
			Record   string `yaml:"record"`
		} `yaml:"namespace"`
	} `yaml:"store"`

	Stamper struct {
		Algorithm     string        `yaml:"algorithm"`
		Mode          string        `yaml:"mode"` // PKI | OIDC
		IDToken       string        `yaml:"id_token"`
		Salt          string        `yaml:"salt"`
		KeyTTL        time.Duration `yaml:"key_ttl"`
		RenewalWindow time.Duration `yaml:"renewal_window"`
		FailFast      bool          `yaml:"fail_fast"`
	} `yaml:"stamper"`

	Security struct {
		// base64 (32 bytes). Preferir STAMPER_MASTER_KEY al YAML.
		MasterKey string `yaml:"master_key"`
	} `yaml:"security"`

	Server struct {
		Addr            string `yaml:"addr"`
		MaxPayloadBytes int64  `yaml:"max_payload_bytes"`
	} `yaml:"server"`
}

// Default devuelve la configuración sin archivo ni entorno.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee path (si no es vacío), aplica defaults y luego el entorno.
// Un path vacío equivale a sólo defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "fs"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "./data"
	}
	if c.Stamper.Algorithm == "" {
		c.Stamper.Algorithm = string(keycrypto.DefaultAlgorithm)
	}
	if c.Stamper.Mode == "" {
		c.Stamper.Mode = string(stamp.KindPKI)
	}
	if c.Stamper.KeyTTL == 0 {
		c.Stamper.KeyTTL = 7 * 24 * time.Hour
	}
	if c.Stamper.RenewalWindow == 0 {
		c.Stamper.RenewalWindow = 2 * 24 * time.Hour
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8787"
	}
	if c.Server.MaxPayloadBytes == 0 {
		c.Server.MaxPayloadBytes = 1 << 20
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP / LOG
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}

	// STORE
	if v, ok := getEnvStr("STORE_DRIVER"); ok {
		c.Store.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("STORE_DIR"); ok {
		c.Store.Dir = v
	}
	if v, ok := getEnvStr("STORE_DSN"); ok {
		c.Store.DSN = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Store.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Store.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Store.Redis.DB = v
	}
	if v, ok := getEnvStr("NAMESPACE_DATABASE"); ok {
		c.Store.Namespace.Database = v
	}
	if v, ok := getEnvStr("NAMESPACE_STORE"); ok {
		c.Store.Namespace.Store = v
	}
	if v, ok := getEnvStr("NAMESPACE_RECORD"); ok {
		c.Store.Namespace.Record = v
	}

	// STAMPER
	if v, ok := getEnvStr("ALGORITHM"); ok {
		c.Stamper.Algorithm = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("MODE"); ok {
		c.Stamper.Mode = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("ID_TOKEN"); ok {
		c.Stamper.IDToken = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("SALT"); ok {
		c.Stamper.Salt = strings.TrimSpace(v)
	}
	if v, ok := getEnvDur("KEY_TTL"); ok {
		c.Stamper.KeyTTL = v
	}
	if v, ok := getEnvDur("RENEWAL_WINDOW"); ok {
		c.Stamper.RenewalWindow = v
	}
	if v, ok := getEnvBool("FAIL_FAST"); ok {
		c.Stamper.FailFast = v
	}

	// SECURITY - misma variable que lee secretbox.FromEnv
	if v, ok := os.LookupEnv(secretbox.EnvMasterKey); ok && v != "" {
		c.Security.MasterKey = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = strings.TrimSpace(v)
	}
	if v, ok := getEnvInt64("MAX_PAYLOAD_BYTES"); ok {
		c.Server.MaxPayloadBytes = v
	}
}

// Validate revisa los valores críticos. La master key sólo se valida si está
// presente: comandos como verify no la necesitan.
func (c *Config) Validate() error {
	var errs []error

	if _, err := keycrypto.ParseAlgorithm(c.Stamper.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("stamper.algorithm: %w", err))
	}
	if _, err := c.StampParams(); err != nil {
		errs = append(errs, fmt.Errorf("stamper.mode: %w", err))
	}
	if c.Stamper.KeyTTL <= 0 {
		errs = append(errs, errors.New("stamper.key_ttl must be positive"))
	}
	if c.Stamper.RenewalWindow < 0 || c.Stamper.RenewalWindow >= c.Stamper.KeyTTL {
		errs = append(errs, errors.New("stamper.renewal_window must be in [0, key_ttl)"))
	}
	if err := c.Namespace().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store.namespace: %w", err))
	}
	switch c.Store.Driver {
	case "fs", "bolt":
		if strings.TrimSpace(c.Store.Dir) == "" {
			errs = append(errs, fmt.Errorf("store.dir is required for driver %q", c.Store.Driver))
		}
	case "pg":
		if strings.TrimSpace(c.Store.DSN) == "" {
			errs = append(errs, errors.New("store.dsn is required for driver \"pg\""))
		}
	case "redis":
		if strings.TrimSpace(c.Store.Redis.Addr) == "" {
			errs = append(errs, errors.New("store.redis.addr is required for driver \"redis\""))
		}
	}
	if c.Security.MasterKey != "" {
		if _, err := secretbox.ParseKey(c.Security.MasterKey); err != nil {
			errs = append(errs, fmt.Errorf("security.master_key: %w", err))
		}
	}
	if c.Server.MaxPayloadBytes < 0 {
		errs = append(errs, errors.New("server.max_payload_bytes must not be negative"))
	}
	return errors.Join(errs...)
}

// Namespace devuelve el namespace configurado con defaults aplicados.
func (c *Config) Namespace() repository.Namespace {
	return repository.Namespace{
		Database: c.Store.Namespace.Database,
		Store:    c.Store.Namespace.Store,
		Record:   c.Store.Namespace.Record,
	}.WithDefaults()
}

// Algorithm devuelve el algoritmo configurado.
func (c *Config) Algorithm() (keycrypto.Algorithm, error) {
	return keycrypto.ParseAlgorithm(c.Stamper.Algorithm)
}

// StampParams construye los parámetros por defecto del stamp.
func (c *Config) StampParams() (stamp.Params, error) {
	return stamp.ParseParams(c.Stamper.Mode, c.Stamper.IDToken, c.Stamper.Salt)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yml"
	DefaultAreasPath  = "config/areas.yml"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type BackendConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type SessionConfig struct {
	Driver string `yaml:"driver"` // redis | postgres
	TTL    string `yaml:"ttl"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SlotConfig struct {
	Secret       string `yaml:"secret"`
	Issuer       string `yaml:"issuer"`
	TTL          string `yaml:"ttl"`
	CookieName   string `yaml:"cookie_name"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

type OTPConfig struct {
	Length         int    `yaml:"length"`
	ResendCooldown string `yaml:"resend_cooldown"`
}

type FlowConfig struct {
	Driver string `yaml:"driver"` // redis | memory
	TTL    string `yaml:"ttl"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type CLIConfig struct {
	SessionFile string `yaml:"session_file"`
}

type ConfigFile struct {
	App      AppConfig      `yaml:"app"`
	Backend  BackendConfig  `yaml:"backend"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Slot     SlotConfig     `yaml:"slot"`
	OTP      OTPConfig      `yaml:"otp"`
	Flow     FlowConfig     `yaml:"flow"`
	Casbin   CasbinConfig   `yaml:"casbin"`
	Log      LogConfig      `yaml:"log"`
	CLI      CLIConfig      `yaml:"cli"`
}

type Config struct {
	Port              string
	GinMode           string
	BackendURL        string
	BackendTimeout    time.Duration
	SessionDriver     string
	SessionTTL        time.Duration
	DSN               string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	SlotSecret        string
	SlotIssuer        string
	SlotTTL           time.Duration
	SlotCookie        string
	SecureCookie      bool
	OTPLength         int
	OTPResendCooldown time.Duration
	FlowDriver        string
	FlowTTL           time.Duration
	CasbinModelPath   string
	LogLevel          string
	SessionFile       string
	Areas             []AreaRule
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Defaults returns the file-level settings used when no config file is present
func Defaults() ConfigFile {
	return ConfigFile{
		App:     AppConfig{Port: 8080, GinMode: "release"},
		Backend: BackendConfig{URL: "http://localhost:5000/api", Timeout: "10s"},
		Session: SessionConfig{Driver: "redis", TTL: "24h"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Slot:    SlotConfig{Issuer: "taskconsole", TTL: "720h", CookieName: "console_slot"},
		OTP:     OTPConfig{Length: 6, ResendCooldown: "30s"},
		Flow:    FlowConfig{Driver: "redis", TTL: "15m"},
		Log:     LogConfig{Level: "info"},
		CLI:     CLIConfig{SessionFile: "~/.taskconsole/session.json"},
	}
}

// Load reads .env (when present), the config file named by CONSOLE_CONFIG
// (default config/config.yml) and CONSOLE_* overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFrom(env("CONSOLE_CONFIG", DefaultConfigPath))
}

// LoadFrom builds the configuration from path. A missing file means defaults.
func LoadFrom(path string) (*Config, error) {
	configFile := Defaults()
	if err := loadConfigFile(path, &configFile); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := applyEnv(&configFile); err != nil {
		return nil, err
	}

	durations := map[string]string{
		"backend.timeout":     configFile.Backend.Timeout,
		"session.ttl":         configFile.Session.TTL,
		"slot.ttl":            configFile.Slot.TTL,
		"otp.resend_cooldown": configFile.OTP.ResendCooldown,
		"flow.ttl":            configFile.Flow.TTL,
	}
	parsed := make(map[string]time.Duration, len(durations))
	for key, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", key)
		}
		parsed[key] = d
	}

	areasPath := filepath.Join(filepath.Dir(path), filepath.Base(DefaultAreasPath))
	areas, err := loadAreaRules(areasPath)
	if err != nil {
		return nil, err
	}

	sessionFile, err := expandHome(configFile.CLI.SessionFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              strconv.Itoa(configFile.App.Port),
		GinMode:           configFile.App.GinMode,
		BackendURL:        configFile.Backend.URL,
		BackendTimeout:    parsed["backend.timeout"],
		SessionDriver:     configFile.Session.Driver,
		SessionTTL:        parsed["session.ttl"],
		DSN:               configFile.Database.DSN,
		RedisAddr:         configFile.Redis.Addr,
		RedisPassword:     configFile.Redis.Password,
		RedisDB:           configFile.Redis.DB,
		SlotSecret:        configFile.Slot.Secret,
		SlotIssuer:        configFile.Slot.Issuer,
		SlotTTL:           parsed["slot.ttl"],
		SlotCookie:        configFile.Slot.CookieName,
		SecureCookie:      configFile.Slot.SecureCookie,
		OTPLength:         configFile.OTP.Length,
		OTPResendCooldown: parsed["otp.resend_cooldown"],
		FlowDriver:        configFile.Flow.Driver,
		FlowTTL:           parsed["flow.ttl"],
		CasbinModelPath:   configFile.Casbin.ModelPath,
		LogLevel:          configFile.Log.Level,
		SessionFile:       sessionFile,
		Areas:             areas,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend.url is required")
	}
	if c.OTPLength <= 0 {
		return errors.New("otp.length must be positive")
	}
	switch c.SessionDriver {
	case "redis":
	case "postgres":
		if c.DSN == "" {
			return errors.New("database.dsn is required for the postgres session driver")
		}
	default:
		return fmt.Errorf("unknown session.driver %q", c.SessionDriver)
	}
	switch c.FlowDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown flow.driver %q", c.FlowDriver)
	}
	return nil
}

// ValidateServe checks the extra settings the web console needs
func (c *Config) ValidateServe() error {
	if len(c.SlotSecret) < 16 {
		return errors.New("slot.secret must be at least 16 characters")
	}
	return nil
}

func loadConfigFile(path string, into *ConfigFile) error {
	bytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(c *ConfigFile) error {
	if v := env("CONSOLE_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_PORT: %w", err)
		}
		c.App.Port = port
	}
	if v := env("CONSOLE_REDIS_DB", ""); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := env("CONSOLE_OTP_LENGTH", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_OTP_LENGTH: %w", err)
		}
		c.OTP.Length = n
	}
	c.App.GinMode = env("CONSOLE_GIN_MODE", c.App.GinMode)
	c.Backend.URL = env("CONSOLE_BACKEND_URL", c.Backend.URL)
	c.Backend.Timeout = env("CONSOLE_BACKEND_TIMEOUT", c.Backend.Timeout)
	c.Session.Driver = env("CONSOLE_SESSION_DRIVER", c.Session.Driver)
	c.Session.TTL = env("CONSOLE_SESSION_TTL", c.Session.TTL)
	c.Database.DSN = env("CONSOLE_DATABASE_DSN", c.Database.DSN)
	c.Redis.Addr = env("CONSOLE_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = env("CONSOLE_REDIS_PASSWORD", c.Redis.Password)
	c.Slot.Secret = env("CONSOLE_SLOT_SECRET", c.Slot.Secret)
	c.OTP.ResendCooldown = env("CONSOLE_OTP_RESEND_COOLDOWN", c.OTP.ResendCooldown)
	c.Flow.Driver = env("CONSOLE_FLOW_DRIVER", c.Flow.Driver)
	c.Casbin.ModelPath = env("CONSOLE_CASBIN_MODEL", c.Casbin.ModelPath)
	c.Log.Level = env("CONSOLE_LOG_LEVEL", c.Log.Level)
	c.CLI.SessionFile = env("CONSOLE_SESSION_FILE", c.CLI.SessionFile)
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

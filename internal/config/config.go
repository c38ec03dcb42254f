package config

import (
	"errors"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	Addr      string `yaml:"addr"`
	DBType    string `yaml:"storage_backend"`
	DBDSN     string `yaml:"postgres_dsn"`
	SQLiteDB  string `yaml:"sqlite_path"`
	DataDir   string `yaml:"data_dir"`
	BcryptCost int   `yaml:"bcrypt_cost"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load resolves configuration once per process: defaults, then an optional
// YAML file named by CONFIG_FILE, then environment variables (env wins).
// A .env file in the working directory is folded into the environment first.
func Load() *Config {
	once.Do(func() {
		_ = loadDotEnv()
		cfg = &Config{
			Env:        "development",
			LogLevel:   "info",
			Addr:       ":8088",
			DBType:     "file",
			SQLiteDB:   "data/habits.db",
			DataDir:    "data",
			BcryptCost: 10,
		}
		if path := os.Getenv("CONFIG_FILE"); path != "" {
			if err := loadYAML(path, cfg); err != nil {
				panic("Invalid config file: " + err.Error())
			}
		}
		applyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case "sqlite":
		if c.SQLiteDB == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "file":
		if c.DataDir == "" {
			return errors.New("File storage requires DATA_DIR to be set")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, sqlite, postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

func applyEnv(c *Config) {
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Addr = getEnv("ADDR", c.Addr)
	c.DBType = getEnv("STORAGE_BACKEND", c.DBType)
	c.DBDSN = getEnv("POSTGRES_DSN", c.DBDSN)
	c.SQLiteDB = getEnv("SQLITE_PATH", c.SQLiteDB)
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
}

func loadYAML(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadDotEnv() error {
	data, err := os.ReadFile(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if found {
			os.Setenv(key, value)
		}
	}
	return nil
}

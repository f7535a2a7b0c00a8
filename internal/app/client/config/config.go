package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Бэкенды общего хранилища.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultEnv           = EnvLocal
	defaultLogLevel      = ""
	defaultConfigDir     = ".walletlock"
	defaultDataFile      = "walletlock.db"
	defaultDriver        = DriverSQLite
	defaultRedisAddr     = "localhost:6379"
	defaultDaemonAddress = "localhost:8787"
	defaultPollInterval  = 250
)

type Config struct {
	Env           string        `mapstructure:"app_env"`
	LogLevel      string        `mapstructure:"log_level"`
	ConfigDir     string        `mapstructure:"config_dir"`
	StoreDriver   string        `mapstructure:"store_driver"`
	DataPath      string        `mapstructure:"data_path"`
	Redis         RedisConfig   `mapstructure:"redis"`
	DatabaseURI   string        `mapstructure:"database_uri"`
	DaemonAddress string        `mapstructure:"daemon_address"`
	PollInterval  time.Duration `mapstructure:"-"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"redis_addr"`
	Password string `mapstructure:"redis_password"`
	DB       int    `mapstructure:"redis_db"`
}

// Load читает .env, переменные окружения и, если задан, yaml-файл configFile.
// Переменные окружения сильнее файла.
func Load(configFile string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Устанавливаем значения по умолчанию
	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("STORE_DRIVER", defaultDriver)
	v.SetDefault("REDIS_ADDR", defaultRedisAddr)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DAEMON_ADDRESS", defaultDaemonAddress)
	v.SetDefault("POLL_INTERVAL_MS", defaultPollInterval)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, defaultDataFile)
	}

	cfg := &Config{
		Env:         v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		ConfigDir:   configDir,
		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DataPath:    dataPath,
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		DatabaseURI:   v.GetString("DATABASE_URI"),
		DaemonAddress: v.GetString("DAEMON_ADDRESS"),
		PollInterval:  time.Duration(v.GetInt("POLL_INTERVAL_MS")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	return cfg, nil
}

// MustLoad - Load без файла, паникует при ошибке.
func MustLoad() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func loadDotEnv() {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка загрузки .env файла: %v\n", err)
		}
	}
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("app_env %q не поддерживается", c.Env)
	}

	switch c.StoreDriver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis_addr не может быть пустым")
		}
	case DriverPostgres:
		if c.DatabaseURI == "" {
			return errors.New("database_uri не может быть пустым")
		}
	default:
		return fmt.Errorf("store_driver %q не поддерживается", c.StoreDriver)
	}

	if c.DataPath == "" {
		return errors.New("data_path не может быть пустым")
	}
	if c.DaemonAddress == "" {
		return errors.New("daemon_address не может быть пустым")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval_ms должен быть положительным")
	}
	return nil
}

// EnsureDirs создаёт каталог данных.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(filepath.Dir(c.DataPath), 0700); err != nil {
		return fmt.Errorf("ошибка создания директории данных: %w", err)
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}

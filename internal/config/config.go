// config реализует конфигурацию threads-service: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Ops      OpsConfig     `yaml:"ops"`
	DB       DBConfig      `yaml:"db"`
	Limits   LimitsConfig  `yaml:"limits"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Cache    CacheConfig   `yaml:"cache"`
}

// CacheConfig — индекс веток в памяти процесса.
// Size — сколько статусов держать (давно не загружавшиеся вытесняются).
// TTL — сколько загруженный статус считается свежим и не перечитывается из хранилища.
type CacheConfig struct {
	Size int           `yaml:"size" env:"CACHE_SIZE" env-default:"100000"`
	TTL  time.Duration `yaml:"ttl"  env:"CACHE_TTL"  env-default:"30s"`
}

// TimeoutConfig — сервисные таймауты (общий дедлайн обработки запроса).
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"5s"`
}

// HTTPConfig — публичный REST API.
type HTTPConfig struct {
	Host     string `yaml:"host"      env:"HTTP_HOST"      env-default:"0.0.0.0"`
	Port     string `yaml:"port"      env:"HTTP_PORT"      env-default:"50091"`
	BasePath string `yaml:"base_path" env:"HTTP_BASE_PATH" env-default:"/api/v1"`
}

// OpsConfig — служебный HTTP (health/metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50092"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// DBConfig — выбор и подключение хранилища.
type DBConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER"    env-default:"mongo"`
	URL    string `yaml:"url"    env:"DATABASE_URL" env-required:"true"`
}

// LimitsConfig — лимиты на выдачу, глубину и размер веток.
type LimitsConfig struct {
	// Пагинация: page_size=0 -> берём Default; верхняя граница — Max.
	Default int32 `yaml:"default"   env:"DEFAULT_LIMIT" env-default:"20"`
	Max     int32 `yaml:"max"       env:"MAX_LIMIT"     env-default:"300"`
	// Максимально допустимая глубина ответа. Корень = 0.
	MaxDepth int32 `yaml:"max_depth" env:"MAX_DEPTH" env-default:"64"`
	// Сколько потомков максимум подгружается для одного context-запроса.
	MaxDescendants int `yaml:"max_descendants" env:"MAX_DESCENDANTS" env-default:"1000"`
	// Максимальная длина content в символах.
	MaxContent int `yaml:"max_content" env:"MAX_CONTENT" env-default:"5000"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config %q: %w", p, err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return fmt.Errorf("failed to overlay env: %w", err)
		}

		return nil
	}

	switch {
	case path != "":
		if err := readFile(path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			if err := readFile("local.yaml"); err != nil {
				return nil, err
			}
			break
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("db.url is required")
	}

	if c.DB.Driver != DriverMongo && c.DB.Driver != DriverPostgres {
		return fmt.Errorf("db.driver must be %q or %q", DriverMongo, DriverPostgres)
	}

	if c.Limits.Default <= 0 {
		return fmt.Errorf("limits.default must be > 0")
	}

	if c.Limits.Max <= 0 {
		return fmt.Errorf("limits.max must be > 0")
	}

	if c.Limits.Default > c.Limits.Max {
		return fmt.Errorf("limits.default must be <= limits.max")
	}

	if c.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits.max_depth must be > 0")
	}

	if c.Limits.MaxDescendants <= 0 {
		return fmt.Errorf("limits.max_descendants must be > 0")
	}

	if c.Limits.MaxContent <= 0 {
		return fmt.Errorf("limits.max_content must be > 0")
	}

	if c.Timeouts.Service < 0 {
		return fmt.Errorf("timeouts.service must be >= 0")
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be > 0")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0")
	}

	return nil
}

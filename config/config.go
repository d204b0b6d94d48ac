package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultBaseURL   = "https://api.gotinder.com"
	DefaultUserAgent = "Tinder/16.14.0 (iPhone; iOS 18.5; Scale/3.00)"
	DefaultLocale    = "en-GB"
	DefaultFilePath  = "config.yaml"
	DefaultDelayMs   = 2000
)

type Config struct {
	API struct {
		BaseURL    string `yaml:"base_url" env:"RECS_API_BASE_URL"`
		AuthToken  string `yaml:"auth_token" env:"RECS_AUTH_TOKEN"`
		UserAgent  string `yaml:"user_agent" env:"RECS_USER_AGENT"`
		Locale     string `yaml:"locale" env:"RECS_LOCALE"`
		TimeoutSec int    `yaml:"timeout_sec" env:"RECS_TIMEOUT_SEC"` // 单次请求超时，单位：秒
	} `yaml:"api"`
	Discovery struct {
		Latitude           float64 `yaml:"latitude" env:"RECS_LATITUDE"`
		Longitude          float64 `yaml:"longitude" env:"RECS_LONGITUDE"`
		MinAge             int     `yaml:"min_age" env:"RECS_MIN_AGE"`
		MaxAge             int     `yaml:"max_age" env:"RECS_MAX_AGE"`
		AutoExpandAge      bool    `yaml:"auto_expand_age" env:"RECS_AUTO_EXPAND_AGE"`
		DistanceKM         float64 `yaml:"distance_km" env:"RECS_DISTANCE_KM"`
		InterestedInGender int     `yaml:"interested_in_gender" env:"RECS_INTERESTED_IN_GENDER"` // 0=Men, 1=Women
		SkipSettings       bool    `yaml:"skip_settings" env:"RECS_SKIP_SETTINGS"`               // 跳过启动时的资料设置更新
	} `yaml:"discovery"`
	Scraper struct {
		DelayMs     int    `yaml:"delay_ms" env:"RECS_DELAY_MS"`         // 请求间隔，单位：毫秒，0 表示不等待
		MaxRequests int    `yaml:"max_requests" env:"RECS_MAX_REQUESTS"` // 0 表示不限制
		OutputDir   string `yaml:"output_dir" env:"RECS_OUTPUT_DIR"`
		FilePrefix  string `yaml:"file_prefix" env:"RECS_FILE_PREFIX"`
	} `yaml:"scraper"`
	Log struct {
		Level    string `yaml:"level" env:"LOG_LEVEL"`
		Format   string `yaml:"format" env:"LOG_FORMAT"`
		Output   string `yaml:"output" env:"LOG_OUTPUT"`
		FilePath string `yaml:"file_path" env:"LOG_FILE_PATH"`
	} `yaml:"log"`

	DB struct {
		Driver          string `yaml:"driver" env:"DATABASE_DRIVER"` // "", mysql, sqlite, postgres
		Host            string `yaml:"host" env:"DATABASE_HOST"`
		Port            int    `yaml:"port" env:"DATABASE_PORT"`
		Username        string `yaml:"username" env:"DATABASE_USERNAME"`
		Password        string `yaml:"password" env:"DATABASE_PASSWORD"`
		Database        string `yaml:"database" env:"DATABASE_NAME"`
		Charset         string `yaml:"charset"`
		ParseTime       bool   `yaml:"parse_time"`
		DSN             string `yaml:"dsn" env:"DB_DSN"`
		SQLitePath      string `yaml:"sqlite_path" env:"SQLITE_PATH"`
		PostgresDSN     string `yaml:"postgres_dsn" env:"PG_DSN"`
		MaxOpenConns    int    `yaml:"max_open_conns"`    // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`    // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 连接最大生命周期（分钟）
	} `yaml:"database"`
	Server struct {
		Host string `yaml:"host" env:"SERVER_HOST"`
		Port int    `yaml:"port" env:"SERVER_PORT"` // 0 表示不启动状态接口
		Addr string `yaml:"-"`                      // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
}

// Load 加载配置：.env -> config.yaml -> 环境变量覆盖 -> 默认值
func Load() *Config {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultFilePath
	}

	cfg, err := LoadFile(path)
	if err != nil {
		log.Printf("Error loading %s: %v, falling back to environment variables", path, err)
		cfg = newDefaultConfig()
		if err := env.Parse(cfg); err != nil {
			log.Printf("parse env: %v", err)
		}
		cfg.applyDefaults()
	}
	return cfg
}

// newDefaultConfig 预置可以显式设为零值的字段，yaml 和环境变量只覆盖出现的键
func newDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Discovery.AutoExpandAge = true
	cfg.Scraper.DelayMs = DefaultDelayMs
	return cfg
}

// LoadFile 从指定yaml文件加载配置，文件不存在时仅使用环境变量
func LoadFile(path string) (*Config, error) {
	cfg := newDefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Println("config file not found, loading configuration from environment")
	default:
		return nil, err
	}

	// 敏感信息（token、数据库密码等）可以通过环境变量覆盖
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.Locale == "" {
		c.API.Locale = DefaultLocale
	}
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = 30
	}

	if c.Scraper.DelayMs < 0 {
		c.Scraper.DelayMs = 0
	}
	if c.Scraper.MaxRequests < 0 {
		c.Scraper.MaxRequests = 0
	}
	if c.Scraper.OutputDir == "" {
		c.Scraper.OutputDir = "."
	}
	if c.Scraper.FilePrefix == "" {
		c.Scraper.FilePrefix = "tinder_users"
	}

	c.Server.Addr = fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)

	// 计算 DB.DSN 字段
	if c.DB.Driver == "mysql" && c.DB.DSN == "" && c.DB.Host != "" {
		if c.DB.Charset == "" {
			c.DB.Charset = "utf8mb4"
		}
		parseTime := ""
		if c.DB.ParseTime {
			parseTime = "&parseTime=true"
		}
		c.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s%s",
			c.DB.Username,
			c.DB.Password,
			c.DB.Host,
			c.DB.Port,
			c.DB.Database,
			c.DB.Charset,
			parseTime)
	}
}

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"

	apperrors "my-blog/pkg/common/errors"
)

// EnvPrefix 环境变量前缀, "__" 表示层级: BLOG_MIDDLEWARE__JWT__SECRET -> middleware.jwt.secret
const EnvPrefix = "BLOG_"

type ServerConfig struct {
	Address string `koanf:"address"`
}

type SecurityConfig struct {
	MaxBodySize    int64    `koanf:"max_body_size"` // 单位：字节
	AllowedMethods []string `koanf:"allowed_methods"`
}

type TimeoutConfig struct {
	RequestTimeout int `koanf:"request_timeout"` // 单位：秒, 0 表示不限制
}

type CORSConfig struct {
	AllowOrigins     []string      `koanf:"allow_origins"`
	AllowMethods     []string      `koanf:"allow_methods"`
	AllowHeaders     []string      `koanf:"allow_headers"`
	ExposeHeaders    []string      `koanf:"expose_headers"`
	AllowCredentials bool          `koanf:"allow_credentials"`
	MaxAge           time.Duration `koanf:"max_age"`
	TrustedDomains   []string      `koanf:"trusted_domains"`
}

type JWTAuthConfig struct {
	Secret         string        `koanf:"secret"`
	ExpireDuration time.Duration `koanf:"expire_duration"`
	Issuer         string        `koanf:"issuer"`
	SigningMethod  string        `koanf:"signing_method"`
}

type MiddlewareConfig struct {
	Security SecurityConfig `koanf:"security"`
	JWT      JWTAuthConfig  `koanf:"jwt"`
	Timeout  TimeoutConfig  `koanf:"timeout"`
	CORS     CORSConfig     `koanf:"cors"`
}

// DatabaseConfig 数据库配置, DSN 由部署方提供
type DatabaseConfig struct {
	Driver      string `koanf:"driver"`        // mysql | postgres | sqlite
	DSN         string `koanf:"dsn"`           // 连接串
	MinPoolSize int    `koanf:"min_pool_size"` // 连接池最小连接数
	MaxPoolSize int    `koanf:"max_pool_size"` // 连接池最大连接数
	LogLevel    string `koanf:"log_level"`     // GORM日志级别
	AutoMigrate bool   `koanf:"auto_migrate"`
}

// PasswordConfig bcrypt 参数
type PasswordConfig struct {
	Cost        int `koanf:"cost"`
	Concurrency int `koanf:"concurrency"` // 同时进行的哈希计算数, 0 = GOMAXPROCS
}

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Middleware MiddlewareConfig `koanf:"middleware"`
	Password   PasswordConfig   `koanf:"password"`
	Env        string           `koanf:"env"` // 环境标识
}

// Default returns a fresh copy of the built-in defaults. The JWT secret and
// the database DSN intentionally have none.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Database: DatabaseConfig{
			Driver:      "mysql",
			MinPoolSize: 5,
			MaxPoolSize: 50,
			LogLevel:    "warn",
			AutoMigrate: true,
		},
		Middleware: MiddlewareConfig{
			Security: SecurityConfig{
				MaxBodySize:    10 << 20, // 10MB
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			},
			JWT: JWTAuthConfig{
				ExpireDuration: time.Hour,
				Issuer:         "my-blog",
				SigningMethod:  "HS256",
			},
			Timeout: TimeoutConfig{
				RequestTimeout: 15,
			},
			CORS: CORSConfig{
				AllowOrigins:     []string{"http://localhost:3000"},
				AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
				ExposeHeaders:    []string{"Content-Length"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			},
		},
		Password: PasswordConfig{
			Cost: 10,
		},
		Env: "development",
	}
}

// IsProd 判断当前是否生产环境
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// HashConcurrency resolves the configured hashing concurrency.
func (c *Config) HashConcurrency() int {
	if c.Password.Concurrency > 0 {
		return c.Password.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）
// An empty path falls back to APP_CONFIG and the usual search locations.
func Load(path string) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		path = getConfigPath()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.In("config").Code("CONFIG_FILE").With("path", path).Wrap(err)
		}
		hlog.Infof("config loaded from %s", path)
	}

	// legacy names first so the prefixed form wins
	if err := k.Load(env.Provider("", ".", legacyEnvKey), nil); err != nil {
		return nil, oops.In("config").Code("CONFIG_ENV").Wrap(err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.In("config").Code("CONFIG_ENV").Wrap(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.In("config").Code("CONFIG_DECODE").Wrap(err)
	}
	return cfg, nil
}

// Validate refuses configurations the process must not start with.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return oops.In("config").
			Code("CONFIG_INVALID").
			With("field", field).
			Wrapf(apperrors.ErrConfiguration, format, args...)
	}

	if c.Middleware.JWT.Secret == "" {
		return invalid("middleware.jwt.secret", "jwt signing secret is required")
	}
	if c.Middleware.JWT.ExpireDuration <= 0 {
		return invalid("middleware.jwt.expire_duration", "token ttl must be positive, got %s", c.Middleware.JWT.ExpireDuration)
	}
	if _, ok := validAlgorithms[strings.ToUpper(c.Middleware.JWT.SigningMethod)]; !ok {
		return invalid("middleware.jwt.signing_method", "unsupported jwt algorithm %q", c.Middleware.JWT.SigningMethod)
	}
	if c.Database.DSN == "" {
		return invalid("database.dsn", "database connection string is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return invalid("database.driver", "unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// 允许的算法列表
var validAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	// 优先使用环境变量指定的配置文件路径
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	// 依次查找可能的配置文件位置
	searchPaths := []string{
		"./config.yaml",
		"../config.yaml",
		"/etc/my-blog/config.yaml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// 兼容旧的环境变量名
var legacyEnvKeys = map[string]string{
	"APP_ENV":        "env",
	"SERVER_ADDR":    "server.address",
	"JWT_SECRET":     "middleware.jwt.secret",
	"JWT_EXPIRATION": "middleware.jwt.expire_duration",
	"DATABASE_DSN":   "database.dsn",
}

func legacyEnvKey(s string) string {
	return legacyEnvKeys[s]
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s addr=%s db=%s", c.Env, c.Server.Address, c.Database.Driver)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

// HTTPConfig HTTP 服务配置（REST + WebSocket 共用）
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Pprof        HTTPPprof     `mapstructure:"pprof"`
	Auth         HTTPAuth      `mapstructure:"auth"`
}

// HTTPAuth /api 与 /ws 的 API Key 认证
type HTTPAuth struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"apiKeys"`
}

// HTTPPprof HTTP pprof 配置
type HTTPPprof struct {
	Enable bool   `mapstructure:"enable"`
	Prefix string `mapstructure:"prefix"`
}

// TCPConfig 协调器桥接监听配置
type TCPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`
	MaxConnections    int           `mapstructure:"maxConnections"`
	ConnectionBacklog int           `mapstructure:"connectionBacklog"`
	// AcceptRate 每秒允许接入的新连接数，0 表示不限速
	AcceptRate  float64 `mapstructure:"acceptRate"`
	AcceptBurst int     `mapstructure:"acceptBurst"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// DatabaseConfig PostgreSQL 连接配置；DSN 为空时不启用交换日志与节点清单
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
	MigrationsDir   string        `mapstructure:"migrationsDir"`
}

// RedisConfig Redis 连接配置，用于响应缓存
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	// ResponseTTL 响应在缓存中的保留时长
	ResponseTTL time.Duration `mapstructure:"responseTTL"`
}

// GatewayConfig DPA 请求调度配置
type GatewayConfig struct {
	RequestRate       float64       `mapstructure:"requestRate"`
	RequestBurst      int           `mapstructure:"requestBurst"`
	DefaultTimeout    time.Duration `mapstructure:"defaultTimeout"`
	TimingProfilePath string        `mapstructure:"timingProfilePath"`
	Inventory         bool          `mapstructure:"inventory"`
	// BreakerThreshold 链路连续写失败次数达到阈值后熔断
	BreakerThreshold int           `mapstructure:"breakerThreshold"`
	BreakerTimeout   time.Duration `mapstructure:"breakerTimeout"`
}

// Config 顶层配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	TCP      TCPConfig      `mapstructure:"tcp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 IQRF_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	// 环境变量覆盖：前缀 IQRF_，并将点号替换为下划线
	v.SetEnvPrefix("IQRF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate 汇总所有不合法项
func (c *Config) Validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.TCP.Addr == "", "tcp.addr is empty")
	check(c.TCP.MaxConnections < 0, "tcp.maxConnections must be >= 0, got %d", c.TCP.MaxConnections)
	check(c.TCP.AcceptRate < 0, "tcp.acceptRate must be >= 0, got %v", c.TCP.AcceptRate)
	check(c.HTTP.Addr == "", "http.addr is empty")
	check(c.HTTP.Auth.Enabled && len(c.HTTP.Auth.APIKeys) == 0, "http.auth.enabled requires at least one apiKey")
	check(c.Gateway.RequestRate <= 0, "gateway.requestRate must be > 0, got %v", c.Gateway.RequestRate)
	check(c.Gateway.DefaultTimeout <= 0, "gateway.defaultTimeout must be > 0")
	check(c.Redis.Enabled && c.Redis.Addr == "", "redis.addr is empty")
	check(c.Redis.Enabled && c.Redis.ResponseTTL <= 0, "redis.responseTTL must be > 0")
	check(c.Metrics.Enable && !strings.HasPrefix(c.Metrics.Path, "/"), "metrics.path must start with /, got %q", c.Metrics.Path)
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "iqrf-gateway")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "30s")
	v.SetDefault("http.pprof.enable", false)
	v.SetDefault("http.pprof.prefix", "/debug/pprof")
	v.SetDefault("http.auth.enabled", false)

	v.SetDefault("tcp.addr", ":7000")
	v.SetDefault("tcp.readTimeout", "5m")
	v.SetDefault("tcp.writeTimeout", "5s")
	v.SetDefault("tcp.maxConnections", 4)
	v.SetDefault("tcp.connectionBacklog", 16)
	v.SetDefault("tcp.acceptRate", 1.0)
	v.SetDefault("tcp.acceptBurst", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/iqrf-gateway.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", "1h")
	v.SetDefault("database.autoMigrate", true)
	v.SetDefault("database.migrationsDir", "db/migrations")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "3s")
	v.SetDefault("redis.readTimeout", "2s")
	v.SetDefault("redis.writeTimeout", "2s")
	v.SetDefault("redis.responseTTL", "10m")

	v.SetDefault("gateway.requestRate", 5.0)
	v.SetDefault("gateway.requestBurst", 1)
	v.SetDefault("gateway.defaultTimeout", "10s")
	v.SetDefault("gateway.timingProfilePath", "")
	v.SetDefault("gateway.inventory", true)
	v.SetDefault("gateway.breakerThreshold", 5)
	v.SetDefault("gateway.breakerTimeout", "30s")
}

// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置（健康检查与指标）
	HTTP HTTPConfig `mapstructure:"http"`
	// gRPC 服务配置
	GRPC GRPCConfig `mapstructure:"grpc"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 链路追踪配置
	Tracing TracingConfig `mapstructure:"tracing"`
	// 鉴权配置
	Auth AuthConfig `mapstructure:"auth"`
	// 下游服务地址
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	// 下游 gRPC 客户端参数
	Client ClientConfig `mapstructure:"client"`
	// 一元请求限流，依赖 Redis
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`

	Checkout       CheckoutConfig       `mapstructure:"checkout"`
	Inventory      InventoryConfig      `mapstructure:"inventory"`
	User           UserConfig           `mapstructure:"user"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// 最大并发流数
	MaxConcurrentStreams int `mapstructure:"max_concurrent_streams"`
	// 空闲连接 keepalive 间隔（秒），长连接流依赖它维持
	KeepaliveTime int `mapstructure:"keepalive_time"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql, postgres, memory
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    int    `mapstructure:"conn_max_lifetime"`
	LogEnabled         bool   `mapstructure:"log_enabled"`
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 为空时不启用 Redis
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ConnTimeout  int    `mapstructure:"conn_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// Broker 地址列表，为空时不发布事件
	Brokers      []string `mapstructure:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	WithCaller bool   `mapstructure:"with_caller"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

// AuthConfig 鉴权配置，secret 与令牌签发方共享
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// EndpointsConfig 各服务的固定逻辑地址
type EndpointsConfig struct {
	Inventory      string `mapstructure:"inventory"`
	Checkout       string `mapstructure:"checkout"`
	Recommendation string `mapstructure:"recommendation"`
	User           string `mapstructure:"user"`
}

// ClientConfig 下游 gRPC 客户端配置
type ClientConfig struct {
	ConnTimeout       int `mapstructure:"conn_timeout"`
	RequestTimeout    int `mapstructure:"request_timeout"`
	KeepaliveInterval int `mapstructure:"keepalive_interval"`
	// 熔断：连续失败次数阈值与打开时长（秒）
	BreakerFailures int `mapstructure:"breaker_failures"`
	BreakerTimeout  int `mapstructure:"breaker_timeout"`
}

// RateLimitConfig 限流配置：每个调用方每个方法 period 内最多 rate 次
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Rate    int           `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
	Period  time.Duration `mapstructure:"period"`
}

// CheckoutConfig 结算服务配置
type CheckoutConfig struct {
	// 统计推送间隔
	StatsInterval time.Duration `mapstructure:"stats_interval"`
	// 购买通知队列长度，满时丢弃
	NotifyQueueSize int `mapstructure:"notify_queue_size"`
	// 通知流重连退避上限
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	// 购买事件 Kafka 主题
	PurchaseTopic string `mapstructure:"purchase_topic"`
}

// InventoryConfig 库存服务配置
type InventoryConfig struct {
	// 静态目录种子文件（JSON），仓储为空时导入
	SeedFile string `mapstructure:"seed_file"`
}

// UserConfig 用户服务配置
type UserConfig struct {
	// 启动时预注册的用户名
	SeedUsers []string `mapstructure:"seed_users"`
	// 推荐缓存窗口大小
	CacheSize int `mapstructure:"cache_size"`
	// 推荐流发送队列长度
	ForwardQueueSize int           `mapstructure:"forward_queue_size"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	// 历史锁分片数
	LockStripes int `mapstructure:"lock_stripes"`
	// 用户事件 Kafka 主题与 outbox 中继间隔
	EventTopic    string        `mapstructure:"event_topic"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
}

// RecommendationConfig 推荐服务配置
type RecommendationConfig struct {
	// 每条流的并发打分协程数
	Workers int `mapstructure:"workers"`
	// 返回的推荐数量
	Limit int `mapstructure:"limit"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

// LoadWithDefaults 从 TOML 文件加载配置，文件不存在时完全使用默认值
func LoadWithDefaults(configPath string) (*Config, error) {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 设置环境变量前缀，APP_GRPC_PORT 覆盖 grpc.port
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "mysql", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Checkout.StatsInterval <= 0 {
		return fmt.Errorf("checkout.stats_interval must be positive")
	}
	if c.User.CacheSize <= 0 {
		return fmt.Errorf("user.cache_size must be positive")
	}
	if c.Tracing.Enabled && c.Tracing.CollectorEndpoint == "" {
		return fmt.Errorf("tracing.collector_endpoint is required when tracing is enabled")
	}
	if c.RateLimit.Enabled {
		if !c.RedisEnabled() {
			return fmt.Errorf("ratelimit requires redis.host")
		}
		if c.RateLimit.Rate <= 0 || c.RateLimit.Period <= 0 {
			return fmt.Errorf("ratelimit.rate and ratelimit.period must be positive")
		}
	}
	if c.Recommendation.Limit <= 0 {
		return fmt.Errorf("recommendation.limit must be positive")
	}
	return nil
}

// RedisEnabled 是否配置了 Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.max_concurrent_streams", 1000)
	v.SetDefault("grpc.keepalive_time", 60)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("endpoints.checkout", "localhost:50052")
	v.SetDefault("endpoints.inventory", "localhost:50053")
	v.SetDefault("endpoints.recommendation", "localhost:50054")
	v.SetDefault("endpoints.user", "localhost:50055")

	v.SetDefault("client.conn_timeout", 5)
	v.SetDefault("client.request_timeout", 5)
	v.SetDefault("client.keepalive_interval", 30)
	v.SetDefault("client.breaker_failures", 5)
	v.SetDefault("client.breaker_timeout", 10)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.rate", 100)
	v.SetDefault("ratelimit.burst", 100)
	v.SetDefault("ratelimit.period", "1s")

	v.SetDefault("checkout.stats_interval", "2s")
	v.SetDefault("checkout.notify_queue_size", 1024)
	v.SetDefault("checkout.reconnect_backoff", "5s")
	v.SetDefault("checkout.purchase_topic", "checkout.purchase.confirmed")

	v.SetDefault("user.cache_size", 3)
	v.SetDefault("user.forward_queue_size", 1024)
	v.SetDefault("user.reconnect_backoff", "5s")
	v.SetDefault("user.lock_stripes", 64)
	v.SetDefault("user.event_topic", "user.events")
	v.SetDefault("user.relay_interval", "1s")

	v.SetDefault("recommendation.workers", 4)
	v.SetDefault("recommendation.limit", 3)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

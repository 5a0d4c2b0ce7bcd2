// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Gateway       GatewayConfig       `yaml:"gateway" mapstructure:"gateway"`
	Brain         BrainConfig         `yaml:"brain" mapstructure:"brain"`
	Prompt        PromptConfig        `yaml:"prompt" mapstructure:"prompt"`
	Store         StoreConfig         `yaml:"store" mapstructure:"store"`
	Bulk          BulkConfig          `yaml:"bulk" mapstructure:"bulk"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// GatewayConfig AI 网关（Worker 代理）配置
type GatewayConfig struct {
	// Endpoint Worker 地址
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// APIKey 网关密钥
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// TextModel 文本任务模型
	TextModel string `yaml:"text_model" mapstructure:"text_model"`
	// VisionModel 视觉任务模型
	VisionModel string `yaml:"vision_model" mapstructure:"vision_model"`
	// ProbeModel 连接测试模型
	ProbeModel string `yaml:"probe_model" mapstructure:"probe_model"`

	TextTimeout   time.Duration `yaml:"text_timeout" mapstructure:"text_timeout"`
	VisionTimeout time.Duration `yaml:"vision_timeout" mapstructure:"vision_timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
}

// IsConfigured 网关地址与密钥均已配置
func (c GatewayConfig) IsConfigured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// BrainConfig 全局知识库与自定义规则
type BrainConfig struct {
	KnowledgeBase string `yaml:"knowledge_base" mapstructure:"knowledge_base"`
	CustomRules   string `yaml:"custom_rules" mapstructure:"custom_rules"`
}

// PromptConfig 提示词配置
type PromptConfig struct {
	MaxBodyRunes int    `yaml:"max_body_runes" mapstructure:"max_body_runes"`
	Language     string `yaml:"language" mapstructure:"language"`
}

// StoreConfig 内容存储配置
type StoreConfig struct {
	// Driver 存储实现: postgres | memory
	Driver string `yaml:"driver" mapstructure:"driver"`
	// SEOSchemas 启用的 SEO 元数据方案 (rank_math, yoast)
	SEOSchemas []string `yaml:"seo_schemas" mapstructure:"seo_schemas"`
	// SpecialItemType 需要特殊处理的内容类型
	SpecialItemType string `yaml:"special_item_type" mapstructure:"special_item_type"`
	// AnalysisOverrideField 特殊类型的分析文本字段
	AnalysisOverrideField string `yaml:"analysis_override_field" mapstructure:"analysis_override_field"`
	// AlternateIdentifierField 特殊类型的英文标识字段
	AlternateIdentifierField string `yaml:"alternate_identifier_field" mapstructure:"alternate_identifier_field"`
	// UploadsDir 附件根目录
	UploadsDir string `yaml:"uploads_dir" mapstructure:"uploads_dir"`
}

// BulkConfig 批量执行配置
type BulkConfig struct {
	// Throttle 两个条目之间的间隔
	Throttle time.Duration `yaml:"throttle" mapstructure:"throttle"`
	// RateLimit 跨 worker 的网关调用限流
	RateLimit BulkRateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// MaxItems 单批次最大条目数
	MaxItems int `yaml:"max_items" mapstructure:"max_items"`
}

// BulkRateLimitConfig 批量限流配置
type BulkRateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Limit   int           `yaml:"limit" mapstructure:"limit"`
	Window  time.Duration `yaml:"window" mapstructure:"window"`
	Wait    time.Duration `yaml:"wait" mapstructure:"wait"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen              int           `yaml:"max_len" mapstructure:"max_len"`
	ConsumerGroupPrefix string        `yaml:"consumer_group_prefix" mapstructure:"consumer_group_prefix"`
	BlockTimeout        time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	RetryLimit          int           `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryBackoff        BackoffConfig `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

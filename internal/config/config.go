package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	JWT       JWTConfig
	Google    GoogleConfig
	Ollama    OllamaConfig
	MCP       MCPConfig
	Chat      ChatConfig
	Training  TrainingConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	Log       LogConfig
	Retention RetentionConfig
	Sentry    SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessExpiryMins   int           `mapstructure:"access_expiry_mins"`
	RefreshExpiryHours int           `mapstructure:"refresh_expiry_hours"`
	Issuer             string        `mapstructure:"issuer"`
	AccessExpiry       time.Duration `mapstructure:"-"`
	RefreshExpiry      time.Duration `mapstructure:"-"`
}

// GoogleConfig holds Google OAuth and API configuration for the
// Gmail and Calendar integrations
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	CalendarID   string `mapstructure:"calendar_id"`
	GmailSender  string `mapstructure:"gmail_sender"`
}

// Enabled reports whether Google API access is configured
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// OllamaConfig holds the local Ollama server configuration
type OllamaConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbedModel     string        `mapstructure:"embed_model"`
	NumCtx         int           `mapstructure:"num_ctx"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

// MCPConfig holds the MCP tool server configuration
type MCPConfig struct {
	Port     int      `mapstructure:"port"`
	Toolsets []string `mapstructure:"toolsets"`
	APIKey   string   `mapstructure:"api_key"`
}

// ChatConfig holds conversation orchestration settings
type ChatConfig struct {
	ContextMessages int     `mapstructure:"context_messages"`
	MemoryRecall    int     `mapstructure:"memory_recall"`
	MinSimilarity   float64 `mapstructure:"min_similarity"`
	CaptureTraining bool    `mapstructure:"capture_training"`
	SystemPersona   string  `mapstructure:"system_persona"`
	TitleAfterFirst bool    `mapstructure:"title_after_first"`
}

// TrainingConfig holds fine-tuning dataset settings
type TrainingConfig struct {
	ExportPrefix     string `mapstructure:"export_prefix"`
	MinExamples      int    `mapstructure:"min_examples"`
	DefaultBaseModel string `mapstructure:"default_base_model"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	QueueCritical    string `mapstructure:"queue_critical"`
	QueueDefault     string `mapstructure:"queue_default"`
	QueueLow         string `mapstructure:"queue_low"`
	ReminderCron     string `mapstructure:"reminder_cron"`
	CalendarSyncCron string `mapstructure:"calendar_sync_cron"`
	CleanupCron      string `mapstructure:"cleanup_cron"`
	CalendarSync     bool   `mapstructure:"calendar_sync"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RetentionConfig holds data retention configuration
type RetentionConfig struct {
	Enabled              bool `mapstructure:"enabled"`
	AuditDays            int  `mapstructure:"audit_days"`
	ConversationIdleDays int  `mapstructure:"conversation_idle_days"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	Release          string  `mapstructure:"release"`
	Debug            bool    `mapstructure:"debug"`
	SampleRate       float64 `mapstructure:"sample_rate"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optionally read from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/angela")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.AccessExpiryMins = v.GetInt("jwt_access_expiry_mins")
	cfg.JWT.RefreshExpiryHours = v.GetInt("jwt_refresh_expiry_hours")
	cfg.JWT.Issuer = v.GetString("jwt_issuer")
	cfg.JWT.AccessExpiry = time.Duration(cfg.JWT.AccessExpiryMins) * time.Minute
	cfg.JWT.RefreshExpiry = time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour

	// Google APIs
	cfg.Google.ClientID = v.GetString("google_client_id")
	cfg.Google.ClientSecret = v.GetString("google_client_secret")
	cfg.Google.RefreshToken = v.GetString("google_refresh_token")
	cfg.Google.CalendarID = v.GetString("google_calendar_id")
	cfg.Google.GmailSender = v.GetString("google_gmail_sender")

	// Ollama
	cfg.Ollama.BaseURL = v.GetString("ollama_base_url")
	cfg.Ollama.ChatModel = v.GetString("ollama_chat_model")
	cfg.Ollama.EmbedModel = v.GetString("ollama_embed_model")
	cfg.Ollama.NumCtx = v.GetInt("ollama_num_ctx")
	cfg.Ollama.TimeoutSeconds = v.GetInt("ollama_timeout_seconds")
	cfg.Ollama.Timeout = time.Duration(cfg.Ollama.TimeoutSeconds) * time.Second

	// MCP tool server
	cfg.MCP.Port = v.GetInt("mcp_port")
	cfg.MCP.Toolsets = v.GetStringSlice("mcp_toolsets")
	cfg.MCP.APIKey = v.GetString("mcp_api_key")

	// Chat
	cfg.Chat.ContextMessages = v.GetInt("chat_context_messages")
	cfg.Chat.MemoryRecall = v.GetInt("chat_memory_recall")
	cfg.Chat.MinSimilarity = v.GetFloat64("chat_min_similarity")
	cfg.Chat.CaptureTraining = v.GetBool("chat_capture_training")
	cfg.Chat.SystemPersona = v.GetString("chat_system_persona")
	cfg.Chat.TitleAfterFirst = v.GetBool("chat_title_after_first")

	// Training
	cfg.Training.ExportPrefix = v.GetString("training_export_prefix")
	cfg.Training.MinExamples = v.GetInt("training_min_examples")
	cfg.Training.DefaultBaseModel = v.GetString("training_default_base_model")

	// Rate Limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerMinute = v.GetInt("rate_limit_requests_per_minute")
	cfg.RateLimit.Burst = v.GetInt("rate_limit_burst")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.QueueCritical = v.GetString("worker_queue_critical")
	cfg.Worker.QueueDefault = v.GetString("worker_queue_default")
	cfg.Worker.QueueLow = v.GetString("worker_queue_low")
	cfg.Worker.ReminderCron = v.GetString("worker_reminder_cron")
	cfg.Worker.CalendarSyncCron = v.GetString("worker_calendar_sync_cron")
	cfg.Worker.CleanupCron = v.GetString("worker_cleanup_cron")
	cfg.Worker.CalendarSync = v.GetBool("worker_calendar_sync")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Retention
	cfg.Retention.Enabled = v.GetBool("retention_enabled")
	cfg.Retention.AuditDays = v.GetInt("retention_audit_days")
	cfg.Retention.ConversationIdleDays = v.GetInt("retention_conversation_idle_days")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.Debug = v.GetBool("sentry_debug")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")
	cfg.Sentry.TracesSampleRate = v.GetFloat64("sentry_traces_sample_rate")

	// Validate required fields
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "angela")
	v.SetDefault("postgres_password", "angela")
	v.SetDefault("postgres_db", "angela")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9002")
	v.SetDefault("minio_access_key", "angela")
	v.SetDefault("minio_secret_key", "angela123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "angela-artifacts")

	// JWT defaults
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("jwt_access_expiry_mins", 60)
	v.SetDefault("jwt_refresh_expiry_hours", 168)
	v.SetDefault("jwt_issuer", "angela")

	// Ollama defaults
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("ollama_chat_model", "angela-chat")
	v.SetDefault("ollama_embed_model", "nomic-embed-text")
	v.SetDefault("ollama_num_ctx", 8192)
	v.SetDefault("ollama_timeout_seconds", 120)

	// MCP defaults
	v.SetDefault("mcp_port", 8090)
	v.SetDefault("mcp_toolsets", []string{"gmail", "calendar"})
	v.SetDefault("mcp_api_key", "")

	// Chat defaults
	v.SetDefault("chat_context_messages", 20)
	v.SetDefault("chat_memory_recall", 5)
	v.SetDefault("chat_min_similarity", 0.55)
	v.SetDefault("chat_capture_training", true)
	v.SetDefault("chat_system_persona", "You are Angela, a warm and practical personal assistant.")
	v.SetDefault("chat_title_after_first", true)

	// Training defaults
	v.SetDefault("training_export_prefix", "training")
	v.SetDefault("training_min_examples", 50)
	v.SetDefault("training_default_base_model", "llama3.1:8b")

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_minute", 120)
	v.SetDefault("rate_limit_burst", 200)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue_critical", "critical")
	v.SetDefault("worker_queue_default", "default")
	v.SetDefault("worker_queue_low", "low")
	v.SetDefault("worker_reminder_cron", "* * * * *")
	v.SetDefault("worker_calendar_sync_cron", "*/15 * * * *")
	v.SetDefault("worker_cleanup_cron", "0 3 * * *")
	v.SetDefault("worker_calendar_sync", false)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Retention defaults
	v.SetDefault("retention_enabled", true)
	v.SetDefault("retention_audit_days", 180)
	v.SetDefault("retention_conversation_idle_days", 90)

	// Sentry defaults
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "development")
	v.SetDefault("sentry_sample_rate", 1.0)
	v.SetDefault("sentry_traces_sample_rate", 0.1)
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == "change-me-in-production" && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if cfg.Worker.CalendarSync && !cfg.Google.Enabled() {
		return fmt.Errorf("calendar sync requires google_client_id, google_client_secret and google_refresh_token")
	}
	return nil
}

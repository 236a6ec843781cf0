package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Uploads       UploadsConfig
	Notifications NotificationsConfig
	Kafka         KafkaConfig
	Cloudinary    CloudinaryConfig
	AI            AIConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis-backed cache used by the stats endpoints.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls file storage for generic uploads and study materials.
type UploadsConfig struct {
	StorageDir                 string
	MaxFileSizeBytes           int64
	AllowedExtensions          []string
	MaxBatchFiles              int
	MaterialsAllowedExtensions []string
	SignedURLSecret            string
	SignedURLTTL               time.Duration
}

// NotificationsConfig tunes the in-process notification worker pool.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// KafkaConfig enables publishing notification events. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
	TLS      bool
}

// CloudinaryConfig enables mirroring of generic uploads. Empty URL disables it.
type CloudinaryConfig struct {
	URL    string
	Folder string
}

// AIConfig configures the chat completion passthrough.
type AIConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("APP_ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSLMODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	maxBatch := v.GetInt("UPLOAD_MAX_BATCH")
	if maxBatch <= 0 {
		maxBatch = 10
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:                 v.GetString("UPLOAD_STORAGE_DIR"),
		MaxFileSizeBytes:           maxUpload,
		AllowedExtensions:          normaliseExtensions(splitAndTrim(v.GetString("UPLOAD_ALLOWED_EXTENSIONS"))),
		MaxBatchFiles:              maxBatch,
		MaterialsAllowedExtensions: normaliseExtensions(splitAndTrim(v.GetString("MATERIALS_ALLOWED_EXTENSIONS"))),
		SignedURLSecret:            v.GetString("SIGNED_URL_SECRET"),
		SignedURLTTL:               parseDuration(v.GetString("SIGNED_URL_TTL"), 15*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Second),
	}

	cfg.Kafka = KafkaConfig{
		Brokers:  splitAndTrim(v.GetString("KAFKA_BROKERS")),
		Topic:    v.GetString("KAFKA_TOPIC"),
		Username: v.GetString("KAFKA_USERNAME"),
		Password: v.GetString("KAFKA_PASSWORD"),
		TLS:      v.GetBool("KAFKA_TLS"),
	}

	cfg.Cloudinary = CloudinaryConfig{
		URL:    v.GetString("CLOUDINARY_URL"),
		Folder: v.GetString("CLOUDINARY_FOLDER"),
	}

	cfg.AI = AIConfig{
		APIURL:  v.GetString("AI_API_URL"),
		APIKey:  v.GetString("AI_API_KEY"),
		Model:   v.GetString("AI_MODEL"),
		Timeout: parseDuration(v.GetString("AI_TIMEOUT"), 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that are unsafe outside development.
func (c *Config) Validate() error {
	if c.Env == EnvDevelopment {
		return nil
	}
	if c.JWT.Secret == "" || c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.Uploads.SignedURLSecret == "" || c.Uploads.SignedURLSecret == devSignedURLSecret {
		return errors.New("SIGNED_URL_SECRET must be set outside development")
	}
	return nil
}

const (
	devJWTSecret       = "dev_secret"
	devSignedURLSecret = "dev_signed_url_secret"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "nextstep_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "30m")
	v.SetDefault("JWT_ISSUER", "nextstep-api")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_EXTENSIONS", ".pdf,.doc,.docx,.jpg,.jpeg,.png,.gif,.txt")
	v.SetDefault("UPLOAD_MAX_BATCH", 10)
	v.SetDefault("MATERIALS_ALLOWED_EXTENSIONS", ".pdf,.doc,.docx,.ppt,.pptx,.txt,.jpg,.jpeg,.png")
	v.SetDefault("SIGNED_URL_SECRET", devSignedURLSecret)
	v.SetDefault("SIGNED_URL_TTL", "15m")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER", 256)
	v.SetDefault("NOTIFY_MAX_RETRIES", 2)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1s")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "nextstep.notifications")
	v.SetDefault("KAFKA_TLS", false)

	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_FOLDER", "nextstep")

	v.SetDefault("AI_API_URL", "https://lightning.ai/api/v1/chat/completions")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "lightning-ai/llama-3.3-70b")
	v.SetDefault("AI_TIMEOUT", "30s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// normaliseExtensions lower-cases entries and guarantees a leading dot.
func normaliseExtensions(exts []string) []string {
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	return exts
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Verification store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Documents    DocumentsConfig
	Grading      GradingConfig
	Verification VerificationConfig
	Batch        BatchConfig
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
}

// DSN renders a lib/pq URL usable by both sqlx and the migrator.
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DocumentsConfig governs rendering, storage and download links for generated documents.
type DocumentsConfig struct {
	StorageDir          string
	SignedURLSecret     string
	SignedURLTTL        time.Duration
	Retention           time.Duration
	CleanupInterval     time.Duration
	VerificationBaseURL string
	VerificationTTL     time.Duration
	CodeAttempts        int
	PhotoTimeout        time.Duration
	PhotoMaxBytes       int64
	DefaultLanguage     string
}

// GradingConfig holds mention thresholds on the grading scale, highest first.
type GradingConfig struct {
	Scale      float64
	Excellent  float64
	Good       float64
	FairlyGood float64
	Pass       float64
}

// VerificationConfig selects the verification store backend.
type VerificationConfig struct {
	Store string
}

// BatchConfig tunes the class batch generation queue.
type BatchConfig struct {
	Workers    int
	Retries    int
	BufferSize int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	photoMax := v.GetInt64("DOCUMENTS_PHOTO_MAX_BYTES")
	if photoMax <= 0 {
		photoMax = 2 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		StorageDir:          v.GetString("DOCUMENTS_STORAGE_DIR"),
		SignedURLSecret:     v.GetString("DOCUMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:        parseDuration(v.GetString("DOCUMENTS_SIGNED_URL_TTL"), 24*time.Hour),
		Retention:           parseDuration(v.GetString("DOCUMENTS_RETENTION"), 30*24*time.Hour),
		CleanupInterval:     parseDuration(v.GetString("DOCUMENTS_CLEANUP_INTERVAL"), time.Hour),
		VerificationBaseURL: v.GetString("DOCUMENTS_VERIFICATION_BASE_URL"),
		VerificationTTL:     parseDuration(v.GetString("DOCUMENTS_VERIFICATION_TTL"), 0),
		CodeAttempts:        v.GetInt("DOCUMENTS_CODE_ATTEMPTS"),
		PhotoTimeout:        parseDuration(v.GetString("DOCUMENTS_PHOTO_TIMEOUT"), 3*time.Second),
		PhotoMaxBytes:       photoMax,
		DefaultLanguage:     v.GetString("DOCUMENTS_DEFAULT_LANGUAGE"),
	}

	cfg.Grading = GradingConfig{
		Scale:      v.GetFloat64("GRADING_SCALE"),
		Excellent:  v.GetFloat64("GRADING_EXCELLENT"),
		Good:       v.GetFloat64("GRADING_GOOD"),
		FairlyGood: v.GetFloat64("GRADING_FAIRLY_GOOD"),
		Pass:       v.GetFloat64("GRADING_PASS"),
	}
	if err := cfg.Grading.Validate(); err != nil {
		return nil, err
	}

	cfg.Verification = VerificationConfig{Store: strings.ToLower(v.GetString("VERIFICATION_STORE"))}

	cfg.Batch = BatchConfig{
		Workers:    v.GetInt("BATCH_WORKER_CONCURRENCY"),
		Retries:    v.GetInt("BATCH_WORKER_RETRIES"),
		BufferSize: v.GetInt("BATCH_BUFFER_SIZE"),
	}

	return cfg, nil
}

// Validate ensures the mention thresholds are strictly descending and within the scale.
func (g GradingConfig) Validate() error {
	if g.Scale <= 0 {
		return fmt.Errorf("grading scale must be positive")
	}
	if g.Pass < 0 {
		return fmt.Errorf("grading pass threshold must not be negative")
	}
	thresholds := []float64{g.Scale, g.Excellent, g.Good, g.FairlyGood, g.Pass}
	for i := 2; i < len(thresholds); i++ {
		if thresholds[i] >= thresholds[i-1] {
			return fmt.Errorf("grading thresholds must descend: %s", strconv.FormatFloat(thresholds[i], 'f', -1, 64))
		}
	}
	if g.Excellent > g.Scale {
		return fmt.Errorf("grading excellent threshold exceeds scale")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./documents")
	v.SetDefault("DOCUMENTS_SIGNED_URL_SECRET", "dev_documents_secret")
	v.SetDefault("DOCUMENTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("DOCUMENTS_RETENTION", "720h")
	v.SetDefault("DOCUMENTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("DOCUMENTS_VERIFICATION_BASE_URL", "http://localhost:8080/verify")
	v.SetDefault("DOCUMENTS_VERIFICATION_TTL", "")
	v.SetDefault("DOCUMENTS_CODE_ATTEMPTS", 5)
	v.SetDefault("DOCUMENTS_PHOTO_TIMEOUT", "3s")
	v.SetDefault("DOCUMENTS_PHOTO_MAX_BYTES", 2*1024*1024)
	v.SetDefault("DOCUMENTS_DEFAULT_LANGUAGE", "fr")

	v.SetDefault("GRADING_SCALE", 20)
	v.SetDefault("GRADING_EXCELLENT", 16)
	v.SetDefault("GRADING_GOOD", 14)
	v.SetDefault("GRADING_FAIRLY_GOOD", 12)
	v.SetDefault("GRADING_PASS", 10)

	v.SetDefault("VERIFICATION_STORE", StorePostgres)

	v.SetDefault("BATCH_WORKER_CONCURRENCY", 2)
	v.SetDefault("BATCH_WORKER_RETRIES", 2)
	v.SetDefault("BATCH_BUFFER_SIZE", 16)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	FrontendURL string

	MongoURI          string
	MongoDB           string
	MongoMaxPoolSize  uint64
	MongoTransactions bool

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddress     string
	RedisPassword    string
	RedisDB          int
	IssueLimitPrefix string
	IssueDailyLimit  int
	APIRateLimit     int
	APIRateWindow    time.Duration
	NotifyChannel    string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	StrictTransitions bool
	SplitNoteHistory  bool

	SeedAdminEmail    string
	SeedAdminPassword string
}

func (c Config) Production() bool { return c.Env == "production" }

func (c Config) RedisEnabled() bool { return c.RedisAddress != "" }

func (c Config) S3Enabled() bool { return c.S3Bucket != "" }

// Load reads .env when present and resolves every setting from the
// environment, falling back to the defaults below.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := fromViper(v)
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET environment variable is not set")
	}
	if cfg.JWTTTL <= 0 {
		return cfg, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5001")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	v.SetDefault("MONGO_URI", "mongodb://127.0.0.1:27017/urban")
	v.SetDefault("MONGO_DB", "urban")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 10)
	v.SetDefault("MONGO_TRANSACTIONS", false)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "720h")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit")
	v.SetDefault("ISSUE_DAILY_LIMIT", 20)
	v.SetDefault("API_RATE_LIMIT", 100)
	v.SetDefault("API_RATE_WINDOW", "15m")
	v.SetDefault("NOTIFY_CHANNEL", "urbanfix:notifications")

	v.SetDefault("S3_REGION", "ap-southeast-2")

	v.SetDefault("ISSUE_STRICT_TRANSITIONS", false)
	v.SetDefault("ISSUE_SPLIT_NOTE_HISTORY", false)

	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_PASSWORD", "")
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:        v.GetString("PORT"),
		Env:         v.GetString("GO_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		FrontendURL: v.GetString("FRONTEND_URL"),

		MongoURI:          v.GetString("MONGO_URI"),
		MongoDB:           v.GetString("MONGO_DB"),
		MongoMaxPoolSize:  v.GetUint64("MONGO_MAX_POOL_SIZE"),
		MongoTransactions: v.GetBool("MONGO_TRANSACTIONS"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		IssueLimitPrefix: v.GetString("REDIS_QUEUE_FOR_ISSUE_LIMIT"),
		IssueDailyLimit:  v.GetInt("ISSUE_DAILY_LIMIT"),
		APIRateLimit:     v.GetInt("API_RATE_LIMIT"),
		APIRateWindow:    v.GetDuration("API_RATE_WINDOW"),
		NotifyChannel:    v.GetString("NOTIFY_CHANNEL"),

		S3Bucket:    v.GetString("S3_BUCKET"),
		S3Region:    v.GetString("S3_REGION"),
		S3Endpoint:  v.GetString("S3_ENDPOINT"),
		S3AccessKey: v.GetString("S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("S3_SECRET_KEY"),

		StrictTransitions: v.GetBool("ISSUE_STRICT_TRANSITIONS"),
		SplitNoteHistory:  v.GetBool("ISSUE_SPLIT_NOTE_HISTORY"),

		SeedAdminEmail:    v.GetString("ADMIN_EMAIL"),
		SeedAdminPassword: v.GetString("ADMIN_PASSWORD"),
	}
}

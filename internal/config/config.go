package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const megabyte = 1 << 20

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	LogLevel    string
	ServerPort  string
	SwaggerHost string

	DBDriver string
	DBDSN    string
	ResetDB  bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret     string
	SessionTTL    time.Duration
	SessionCookie string

	Upload  UploadConfig
	Storage StorageConfig

	BootstrapPassword string
}

// UploadConfig bounds multipart uploads.
type UploadConfig struct {
	Dir            string
	MaxFileSize    int64
	MaxRequestSize int64
}

// StorageConfig selects and configures the image store driver.
type StorageConfig struct {
	Driver     string
	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
	S3Prefix   string
}

// Load builds Config from an optional .env file and the environment, with sensible defaults.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		AppEnv:      v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		ServerPort:  v.GetString("SERVER_PORT"),
		SwaggerHost: v.GetString("SWAGGER_HOST"),

		DBDriver: v.GetString("DB_DRIVER"),
		DBDSN:    v.GetString("DB_DSN"),
		ResetDB:  v.GetBool("RESET_DB"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisDB:   v.GetInt("REDIS_DB"),
		RedisPass: v.GetString("REDIS_PASSWORD"),

		JWTSecret:     v.GetString("JWT_SECRET"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),
		SessionCookie: v.GetString("SESSION_COOKIE"),

		Upload: UploadConfig{
			Dir:            v.GetString("UPLOAD_DIR"),
			MaxFileSize:    v.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			MaxRequestSize: v.GetInt64("UPLOAD_MAX_REQUEST_SIZE"),
		},
		Storage: StorageConfig{
			Driver:     v.GetString("STORAGE_DRIVER"),
			S3Bucket:   v.GetString("S3_BUCKET"),
			S3Region:   v.GetString("S3_REGION"),
			S3Key:      v.GetString("S3_KEY"),
			S3Secret:   v.GetString("S3_SECRET"),
			S3Endpoint: v.GetString("S3_ENDPOINT"),
			S3Prefix:   v.GetString("S3_PREFIX"),
		},

		BootstrapPassword: v.GetString("BOOTSTRAP_PASSWORD"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "8080")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "user:password@tcp(localhost:3306)/recipes?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("RESET_DB", false)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SESSION_TTL", 2*time.Hour)
	v.SetDefault("SESSION_COOKIE", "recipe_session")

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*megabyte)
	v.SetDefault("UPLOAD_MAX_REQUEST_SIZE", 20*megabyte)

	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("S3_REGION", "us-east-1")

	// Insecure on purpose; rotate the default accounts in production.
	v.SetDefault("BOOTSTRAP_PASSWORD", "password")
}

package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Cloudinary CloudinaryConfig
	MinIO      MinIOConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Admin      AdminConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	BaseDir      string // root for static file serving
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	DataFile     string // backing JSON document
	SnapshotFile string // bundled fallback snapshot (read-only)
	CacheFile    string // client-side local cache
	MaxBodyBytes int64  // PUT /api/data ceiling
}

type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	APIKey       string
	Folder       string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AdminConfig struct {
	Username string
	Password string
	Whatsapp string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// DefaultMaxBodyBytes caps PUT /api/data request bodies at 10 MiB.
const DefaultMaxBodyBytes = 10 << 20

// LoadConfig loads configuration from environment variables and a .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_BASE_DIR", ".")
	viper.SetDefault("DATA_FILE", "data.json")
	viper.SetDefault("SNAPSHOT_FILE", "data.json")
	viper.SetDefault("CACHE_FILE", ".terrenos_cache.json")
	viper.SetDefault("MAX_BODY_BYTES", DefaultMaxBodyBytes)
	viper.SetDefault("CLOUDINARY_FOLDER", "terrenos_py")
	viper.SetDefault("MINIO_BUCKET", "terrenos")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ADMIN_USERNAME", "admin")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			BaseDir:      viper.GetString("SERVER_BASE_DIR"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DataFile:     viper.GetString("DATA_FILE"),
			SnapshotFile: viper.GetString("SNAPSHOT_FILE"),
			CacheFile:    viper.GetString("CACHE_FILE"),
			MaxBodyBytes: viper.GetInt64("MAX_BODY_BYTES"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    viper.GetString("CLOUDINARY_CLOUD_NAME"),
			UploadPreset: viper.GetString("CLOUDINARY_UPLOAD_PRESET"),
			APIKey:       os.Getenv("CLOUDINARY_API_KEY"),
			Folder:       viper.GetString("CLOUDINARY_FOLDER"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Admin: AdminConfig{
			Username: viper.GetString("ADMIN_USERNAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Whatsapp: viper.GetString("ADMIN_WHATSAPP"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.Admin.Password == "" {
		log.Println("WARNING: ADMIN_PASSWORD is not set; the admin login endpoint will reject every attempt")
	}
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

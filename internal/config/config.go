package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OIDC      OIDCConfig
	JWT       JWTConfig
	Session   SessionConfig
	Bridge    BridgeConfig
	RateLimit RateLimitConfig
	Archive   ArchiveConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
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

type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

type JWTConfig struct {
	Secret string
}

// SessionConfig controls session liveness tracking and the reaper.
type SessionConfig struct {
	// PingTimeout is how long a live session may go without a heartbeat
	// before the reaper considers it abandoned and ends it.
	PingTimeout time.Duration
	// ReapInterval is how often the reaper scans for stale sessions.
	ReapInterval time.Duration
}

// BridgeConfig controls the websocket sync bridge.
type BridgeConfig struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// ArchiveConfig configures the optional MinIO checkpoint archive.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5020")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "gopzcollab")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("SESSION_PING_TIMEOUT", 90)
	viper.SetDefault("SESSION_REAP_INTERVAL", 30)
	viper.SetDefault("BRIDGE_WRITE_TIMEOUT", 10)
	viper.SetDefault("BRIDGE_PONG_TIMEOUT", 60)
	viper.SetDefault("BRIDGE_MAX_MESSAGE_BYTES", 1<<20)
	viper.SetDefault("BRIDGE_SEND_BUFFER", 64)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("ARCHIVE_BUCKET", "gopzcollab-checkpoints")

	pongTimeout := time.Duration(viper.GetInt("BRIDGE_PONG_TIMEOUT")) * time.Second

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
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
			DB:       0,
		},
		OIDC: OIDCConfig{
			IssuerURL: viper.GetString("OIDC_ISSUER_URL"),
			ClientID:  viper.GetString("OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Session: SessionConfig{
			PingTimeout:  time.Duration(viper.GetInt("SESSION_PING_TIMEOUT")) * time.Second,
			ReapInterval: time.Duration(viper.GetInt("SESSION_REAP_INTERVAL")) * time.Second,
		},
		Bridge: BridgeConfig{
			WriteTimeout: time.Duration(viper.GetInt("BRIDGE_WRITE_TIMEOUT")) * time.Second,
			PongTimeout:  pongTimeout,
			// ping must fire before the peer's pong deadline expires
			PingInterval:   pongTimeout * 9 / 10,
			MaxMessageSize: viper.GetInt64("BRIDGE_MAX_MESSAGE_BYTES"),
			SendBuffer:     viper.GetInt("BRIDGE_SEND_BUFFER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Archive: ArchiveConfig{
			Endpoint:  viper.GetString("ARCHIVE_MINIO_ENDPOINT"),
			AccessKey: os.Getenv("ARCHIVE_MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("ARCHIVE_MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("ARCHIVE_MINIO_USE_SSL"),
			Bucket:    viper.GetString("ARCHIVE_BUCKET"),
		},
	}

	return cfg, nil
}

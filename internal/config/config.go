package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int

	RedisAddr     string
	RedisPassword string

	// Empty secret disables bearer auth on the operator API.
	JWTSecret string

	DownloadQueue string
	UploadQueue   string
	VerifyQueue   string

	DispatchInterval  time.Duration
	ReapInterval      time.Duration
	DispatchBatchSize int
	PublishTimeout    time.Duration

	LeaseTTL          time.Duration
	DefaultMaxRetries int

	MaxQueueDepth      int
	WarnQueueDepth     int
	MaxInFlightUploads int

	DownloadingTimeout time.Duration
	RemuxingTimeout    time.Duration
	UploadingTimeout   time.Duration
	VerifyingTimeout   time.Duration

	VideoRetention time.Duration
	StatusCacheTTL time.Duration
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	if !viper.IsSet("MARIADB_DSN") {
		return nil, fmt.Errorf("MARIADB_DSN is required")
	}
	if !viper.IsSet("MARIADB_MAX_OPEN_CONN") {
		return nil, fmt.Errorf("MARIADB_MAX_OPEN_CONN is required")
	}
	if !viper.IsSet("MARIADB_MAX_IDLE_CONNS") {
		return nil, fmt.Errorf("MARIADB_MAX_IDLE_CONNS is required")
	}
	if !viper.IsSet("MARIADB_CONN_MAX_LIFETIME") {
		return nil, fmt.Errorf("MARIADB_CONN_MAX_LIFETIME is required")
	}
	if !viper.IsSet("REDIS_ADDR") {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	if !viper.IsSet("SERVER_PORT") {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}

	viper.SetDefault("QUEUE_DOWNLOAD", "download")
	viper.SetDefault("QUEUE_UPLOAD", "upload")
	viper.SetDefault("QUEUE_VERIFY", "verify")

	viper.SetDefault("DISPATCH_INTERVAL", 5)
	viper.SetDefault("REAP_INTERVAL", 60)
	viper.SetDefault("DISPATCH_BATCH_SIZE", 10)
	viper.SetDefault("PUBLISH_TIMEOUT", 5)

	viper.SetDefault("LEASE_TTL", 1800)
	viper.SetDefault("MAX_RETRIES", 3)

	viper.SetDefault("MAX_QUEUE_DEPTH", 100)
	viper.SetDefault("WARN_QUEUE_DEPTH", 50)
	viper.SetDefault("MAX_INFLIGHT_UPLOADS", 4)

	viper.SetDefault("TIMEOUT_DOWNLOADING", 7200)
	viper.SetDefault("TIMEOUT_REMUXING", 3600)
	viper.SetDefault("TIMEOUT_UPLOADING", 7200)
	viper.SetDefault("TIMEOUT_VERIFYING", 1800)

	viper.SetDefault("VIDEO_RETENTION_DAYS", 30)
	viper.SetDefault("STATUS_CACHE_TTL", 10)

	return &Settings{
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		JWTSecret: viper.GetString("JWT_SECRET"),

		DownloadQueue: viper.GetString("QUEUE_DOWNLOAD"),
		UploadQueue:   viper.GetString("QUEUE_UPLOAD"),
		VerifyQueue:   viper.GetString("QUEUE_VERIFY"),

		DispatchInterval:  time.Duration(viper.GetInt("DISPATCH_INTERVAL")) * time.Second,
		ReapInterval:      time.Duration(viper.GetInt("REAP_INTERVAL")) * time.Second,
		DispatchBatchSize: viper.GetInt("DISPATCH_BATCH_SIZE"),
		PublishTimeout:    time.Duration(viper.GetInt("PUBLISH_TIMEOUT")) * time.Second,

		LeaseTTL:          time.Duration(viper.GetInt("LEASE_TTL")) * time.Second,
		DefaultMaxRetries: viper.GetInt("MAX_RETRIES"),

		MaxQueueDepth:      viper.GetInt("MAX_QUEUE_DEPTH"),
		WarnQueueDepth:     viper.GetInt("WARN_QUEUE_DEPTH"),
		MaxInFlightUploads: viper.GetInt("MAX_INFLIGHT_UPLOADS"),

		DownloadingTimeout: time.Duration(viper.GetInt("TIMEOUT_DOWNLOADING")) * time.Second,
		RemuxingTimeout:    time.Duration(viper.GetInt("TIMEOUT_REMUXING")) * time.Second,
		UploadingTimeout:   time.Duration(viper.GetInt("TIMEOUT_UPLOADING")) * time.Second,
		VerifyingTimeout:   time.Duration(viper.GetInt("TIMEOUT_VERIFYING")) * time.Second,

		VideoRetention: time.Duration(viper.GetInt("VIDEO_RETENTION_DAYS")) * 24 * time.Hour,
		StatusCacheTTL: time.Duration(viper.GetInt("STATUS_CACHE_TTL")) * time.Second,
	}, nil
}

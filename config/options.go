package config

import "time"

const (
	defaultLogFile           = "yomu.log"
	defaultLogLevel          = "debug"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false

	defaultPort = 8080
	defaultHost = "0.0.0.0"
	defaultData = "/var/opt/yomu"

	defaultDSN        = defaultData + "/yomu.db"
	defaultCatalogDSN = defaultData + "/catalog.db"

	defaultRedisAddr     = ""
	defaultRedisPassword = ""
	defaultRedisDB       = 0

	defaultRecommendationTTL = time.Hour
	defaultMemoryCacheSize   = 4096

	defaultWorkerPoolSize = 10
	defaultMaxUploadSize  = 200
	defaultSupportedTypes = "application/zip"

	defaultMetricsCollector       = false
	defaultMetricsAllowedNetworks = "127.0.0.1/8"
	defaultMetricsUsername        = ""
	defaultMetricsPassword        = ""
)

// Viper unmarshals through mapstructure, so the field tags have to be
// mapstructure, not json.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`

	// DSN is the sqlite database holding user data (progress, lists, comments)
	DSN string `mapstructure:"dsn_uri"`
	// CatalogDSN is the sqlite database holding the manga catalog
	CatalogDSN string `mapstructure:"catalog_dsn_uri"`

	// JWTSecret signs the access tokens. A random one is generated at
	// startup when left empty, which invalidates sessions on restart.
	JWTSecret string `mapstructure:"jwt_secret"`

	// Port is the port to listen on
	Port int `mapstructure:"port"`
	// Host is the host to listen on
	Host string `mapstructure:"host"`
	// Data is the directory to store uploads, page images and covers
	Data string `mapstructure:"data"`

	// RedisAddr enables the redis recommendation cache when non-empty.
	// When empty an in-process expirable cache is used instead.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// RecommendationTTL is how long per-user and popularity rankings stay cached
	RecommendationTTL time.Duration `mapstructure:"recommendation_ttl"`
	// MemoryCacheSize is the entry cap of the in-process cache fallback
	MemoryCacheSize int `mapstructure:"memory_cache_size"`

	WorkerPoolSize int `mapstructure:"worker_pool_size"`
	// MaxUploadSize is the maximum size of a chapter archive upload, in MiB
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
	// SupportedTypes is the accepted MIME types for chapter archives
	SupportedTypes []string `mapstructure:"supported_types"`

	// For metrics
	MetricsCollector       bool     `mapstructure:"metrics_collector"`
	MetricsAllowedNetworks []string `mapstructure:"metrics_allowed_networks"`
	MetricsUsername        string   `mapstructure:"metrics_username"`
	MetricsPassword        string   `mapstructure:"metrics_password"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:                defaultLogFile,
		LogLevel:               defaultLogLevel,
		LogFileMaxSize:         defaultLogFileMaxSize,
		LogFileMaxBackups:      defaultLogFileMaxBackups,
		LogFileMaxAge:          defaultLogFileMaxAge,
		LogCompress:            defaultLogCompress,
		DSN:                    defaultDSN,
		CatalogDSN:             defaultCatalogDSN,
		Port:                   defaultPort,
		Host:                   defaultHost,
		Data:                   defaultData,
		RedisAddr:              defaultRedisAddr,
		RedisPassword:          defaultRedisPassword,
		RedisDB:                defaultRedisDB,
		RecommendationTTL:      defaultRecommendationTTL,
		MemoryCacheSize:        defaultMemoryCacheSize,
		WorkerPoolSize:         defaultWorkerPoolSize,
		MaxUploadSize:          defaultMaxUploadSize,
		SupportedTypes:         []string{defaultSupportedTypes},
		MetricsCollector:       defaultMetricsCollector,
		MetricsAllowedNetworks: []string{defaultMetricsAllowedNetworks},
		MetricsUsername:        defaultMetricsUsername,
		MetricsPassword:        defaultMetricsPassword,
	}
	return Opts
}

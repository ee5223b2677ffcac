package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Generator GeneratorConfig `yaml:"generator"`
	Scan      ScanConfig      `yaml:"scan"`
	Cache     CacheConfig     `yaml:"cache"`
	Export    ExportConfig    `yaml:"export"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"9090"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigin   string        `yaml:"allowed_origin"   env:"CORS_ALLOWED_ORIGIN"     env-default:"*"`
}

// DatabaseConfig selects the SQL backend. SQLite is the embedded default.
type DatabaseConfig struct {
	Type       string        `yaml:"type"        env:"DB_TYPE"              env-default:"sqlite"`
	Path       string        `yaml:"path"        env:"DB_PATH"              env-default:"codescan.db"`
	Host       string        `yaml:"host"        env:"DB_HOST"`
	Port       string        `yaml:"port"        env:"DB_PORT"`
	User       string        `yaml:"user"        env:"DB_USER"`
	Password   string        `yaml:"password"    env:"DB_PASSWORD"`
	Name       string        `yaml:"name"        env:"DB_NAME"              env-default:"codescan"`
	MaxIdle    int           `yaml:"max_idle"    env:"DB_MAX_IDLE_CONNS"    env-default:"10"`
	MaxOpen    int           `yaml:"max_open"    env:"DB_MAX_OPEN_CONNS"    env-default:"100"`
	MaxLife    time.Duration `yaml:"max_life"    env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	LogQueries bool          `yaml:"log_queries" env:"DB_LOG_QUERIES"       env-default:"false"`
}

// AuthConfig enables bearer-token auth on the API when JWTSecret is set
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string        `yaml:"issuer"     env:"AUTH_JWT_ISSUER" env-default:"codescan"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"720h"`
}

type GeneratorConfig struct {
	QRSize        int `yaml:"qr_size"        env:"GEN_QR_SIZE"        env-default:"512"`
	BarcodeWidth  int `yaml:"barcode_width"  env:"GEN_BARCODE_WIDTH"  env-default:"600"`
	BarcodeHeight int `yaml:"barcode_height" env:"GEN_BARCODE_HEIGHT" env-default:"200"`
	MaxDimension  int `yaml:"max_dimension"  env:"GEN_MAX_DIMENSION"  env-default:"4096"`
}

type ScanConfig struct {
	SaveTimeout    time.Duration `yaml:"save_timeout"     env:"SCAN_SAVE_TIMEOUT"     env-default:"5s"`
	MaxFrameSize   int64         `yaml:"max_frame_size"   env:"SCAN_MAX_FRAME_SIZE"   env-default:"10485760"`
	MaxFramePixels int           `yaml:"max_frame_pixels" env:"SCAN_MAX_FRAME_PIXELS" env-default:"16777216"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"     env:"SCAN_IDLE_TIMEOUT"     env-default:"10m"`
}

type CacheConfig struct {
	Size int           `yaml:"size" env:"CACHE_SIZE" env-default:"256"`
	TTL  time.Duration `yaml:"ttl"  env:"CACHE_TTL"  env-default:"10m"`
}

// ExportConfig picks where exported PNGs go. An S3 endpoint takes precedence.
type ExportConfig struct {
	PicturesDir string `yaml:"pictures_dir" env:"EXPORT_PICTURES_DIR" env-default:"Pictures"`
	S3Endpoint  string `yaml:"s3_endpoint"  env:"EXPORT_S3_ENDPOINT"`
	S3Region    string `yaml:"s3_region"    env:"EXPORT_S3_REGION"    env-default:"us-east-1"`
	S3Bucket    string `yaml:"s3_bucket"    env:"EXPORT_S3_BUCKET"    env-default:"codescan"`
	S3AccessKey string `yaml:"s3_access_key" env:"EXPORT_S3_ACCESS_KEY"`
	S3SecretKey string `yaml:"s3_secret_key" env:"EXPORT_S3_SECRET_KEY"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"   env:"EXPORT_S3_USE_SSL"   env-default:"false"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// envFiles are loaded in order; variables already set are never overridden
var envFiles = []string{".env", "env.production", "env.local"}

// Load reads configuration from the env files, an optional YAML file and the environment.
// The YAML path comes from CONFIG_PATH; without it only ENV and defaults are used.
func Load() (*Config, error) {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err == nil {
			if err := godotenv.Load(name); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express as tags
func (c *Config) Validate() error {
	c.Database.Type = strings.ToLower(strings.TrimSpace(c.Database.Type))
	switch c.Database.Type {
	case "sqlite", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range (got %d)", c.Server.Port)
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Generator.QRSize <= 0 || c.Generator.BarcodeWidth <= 0 || c.Generator.BarcodeHeight <= 0 {
		return fmt.Errorf("generator sizes must be positive")
	}
	if c.Generator.MaxDimension < c.Generator.QRSize || c.Generator.MaxDimension < c.Generator.BarcodeWidth {
		return fmt.Errorf("generator.max_dimension must cover the default sizes")
	}
	if c.Scan.MaxFrameSize <= 0 || c.Scan.MaxFramePixels <= 0 {
		return fmt.Errorf("scan frame limits must be positive")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be > 0 (got %d)", c.Cache.Size)
	}
	if c.Export.S3Endpoint != "" && (c.Export.S3AccessKey == "" || c.Export.S3SecretKey == "") {
		return fmt.Errorf("export: s3 access key and secret key are required with an endpoint")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

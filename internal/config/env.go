package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the environment driven configuration for the service.
type Config struct {
	ServiceName string   `env:"SERVICE_NAME" envDefault:"slidewise"`
	Version     string   `env:"SERVICE_VERSION" envDefault:"1.0.0"`
	Port        string   `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"console"` // console | json
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	// Database. Empty DATABASE_URL keeps decks in memory.
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Object storage
	StorageBackend      string `env:"STORAGE_BACKEND" envDefault:"local"` // s3 | local
	LocalStoragePath    string `env:"LOCAL_STORAGE_PATH" envDefault:"./data/media"`
	LocalStorageBaseURL string `env:"LOCAL_STORAGE_BASE_URL" envDefault:"http://localhost:8080/media"`
	AwsAccessKey        string `env:"AWS_ACCESS_KEY"`
	AwsSecretKey        string `env:"AWS_SECRET_KEY"`
	AwsRegion           string `env:"AWS_REGION" envDefault:"us-east-2"`
	BucketName          string `env:"BUCKET_NAME" envDefault:"slidewise-media"`
	S3Endpoint          string `env:"S3_ENDPOINT"`
	S3PublicEndpoint    string `env:"S3_PUBLIC_ENDPOINT"`
	S3UsePathStyle      bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Language models
	DefaultAIProvider string `env:"DEFAULT_AI_PROVIDER" envDefault:"groq"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	GroqAPIKey        string `env:"GROQ_API_KEY"`
	GroqModel         string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GroqBaseURL       string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIModel       string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	ClaudeAPIKey      string `env:"CLAUDE_API_KEY"`
	ClaudeModel       string `env:"CLAUDE_MODEL" envDefault:"claude-3-5-sonnet-latest"`
	ClaudeBaseURL     string `env:"CLAUDE_BASE_URL" envDefault:"https://api.anthropic.com"`

	// Images
	PixabayAPIKey  string        `env:"PIXABAY_API_KEY"`
	PixabayBaseURL string        `env:"PIXABAY_BASE_URL" envDefault:"https://pixabay.com/api/"`
	PixabayRPS     float64       `env:"PIXABAY_RPS" envDefault:"1.5"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ImageCacheTTL  time.Duration `env:"IMAGE_CACHE_TTL" envDefault:"1h"`

	// Content
	WikipediaBaseURL string `env:"WIKIPEDIA_BASE_URL" envDefault:"https://en.wikipedia.org"`
	ScraperUserAgent string `env:"SCRAPER_USER_AGENT" envDefault:"Slidewise-Bot/1.0"`
	MaxContextChars  int    `env:"MAX_CONTEXT_CHARS" envDefault:"10000"`
	MaxUploadBytes   int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`

	// Timeouts for outbound calls
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"8s"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"9s"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"8s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	// Retention
	DeckRetention          time.Duration `env:"DECK_RETENTION" envDefault:"24h"`
	RetentionSweepInterval time.Duration `env:"RETENTION_SWEEP_INTERVAL" envDefault:"1h"`

	// Authentication. JWKS wins over the shared secret when both are set.
	JWTSecret   string `env:"JWT_SECRET"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
}

// LoadConfig loads .env (when present) and the process environment into a Config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.DefaultAIProvider = strings.ToLower(strings.TrimSpace(cfg.DefaultAIProvider))
	cfg.BucketName = strings.TrimSpace(cfg.BucketName)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and bounds that env parsing can't express.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "s3", "local":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be s3 or local, got %q", c.StorageBackend)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("MAX_CONTEXT_CHARS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	for name, d := range map[string]time.Duration{
		"REQUEST_TIMEOUT":          c.RequestTimeout,
		"HTTP_TIMEOUT":             c.HTTPTimeout,
		"LLM_TIMEOUT":              c.LLMTimeout,
		"STORAGE_TIMEOUT":          c.StorageTimeout,
		"DECK_RETENTION":           c.DeckRetention,
		"RETENTION_SWEEP_INTERVAL": c.RetentionSweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// IsLocalStorage reports whether media is kept on the local filesystem.
func (c *Config) IsLocalStorage() bool {
	return c.StorageBackend == "local"
}

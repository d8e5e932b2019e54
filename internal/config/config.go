package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Storage  StorageConfig  `json:"storage"`
	Email    EmailConfig    `json:"email"`
	MoMo     MoMoConfig     `json:"momo"`
	Policy   PolicyConfig   `json:"policy"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	FrontendURL  string        `json:"frontend_url"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	MigrationsPath string        `json:"migrations_path"`
}

// RedisConfig holds the connection used for verification rate limits.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// StorageConfig selects the image store backend.
type StorageConfig struct {
	Provider  string `json:"provider"` // "local" or "s3"
	MediaDir  string `json:"media_dir"`
	MediaBase string `json:"media_base"` // public URL prefix for stored images
	S3Bucket  string `json:"s3_bucket"`
	S3Region  string `json:"s3_region"`
	// Optional explicit credentials, for S3-compatible stores that
	// sit outside the default AWS credential chain.
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
}

// EmailConfig selects and configures the outbound email channel.
type EmailConfig struct {
	Provider    string `json:"provider"` // "smtp" or "ses"
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
	SESRegion   string `json:"ses_region"`
}

// MoMoConfig holds MTN MoMo collection API credentials.
type MoMoConfig struct {
	BaseURL         string `json:"base_url"`
	APIUser         string `json:"api_user"`
	APIKey          string `json:"api_key"`
	SubscriptionKey string `json:"subscription_key"`
	TargetEnv       string `json:"target_env"`
	Currency        string `json:"currency"`
}

// PolicyConfig holds the business policy constants the backend enforces.
// Clients only display these.
type PolicyConfig struct {
	ContactFee      int           `json:"contact_fee"` // RWF
	PremiumFee      int           `json:"premium_fee"` // RWF
	PremiumDuration time.Duration `json:"premium_duration"`
	TokenTTL        time.Duration `json:"token_ttl"` // emailed token lifetime
	VerifyAttempts  int           `json:"verify_attempts"`
	VerifyWindow    time.Duration `json:"verify_window"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			FrontendURL: "http://localhost:5173",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "docufind",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MigrationsPath: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Storage: StorageConfig{
			Provider:  "local",
			MediaDir:  "media",
			MediaBase: "/media",
		},
		Email: EmailConfig{
			Provider:    "smtp",
			SMTPHost:    "localhost",
			SMTPPort:    1025,
			FromAddress: "noreply@docufind.rw",
			FromName:    "DocuFind",
		},
		MoMo: MoMoConfig{
			BaseURL:   "https://sandbox.momodeveloper.mtn.com",
			TargetEnv: "sandbox",
			Currency:  "EUR", // sandbox collections only accept EUR
		},
		Policy: PolicyConfig{
			ContactFee:      2000,
			PremiumFee:      500,
			PremiumDuration: 7 * 24 * time.Hour,
			TokenTTL:        6 * time.Hour,
			VerifyAttempts:  10,
			VerifyWindow:    10 * time.Minute,
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		config.Server.FrontendURL = url
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if provider := os.Getenv("STORAGE_PROVIDER"); provider != "" {
		config.Storage.Provider = provider
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		config.Storage.S3Region = region
	}
	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		config.Storage.S3AccessKey = key
	}
	if secret := os.Getenv("S3_SECRET_KEY"); secret != "" {
		config.Storage.S3SecretKey = secret
	}
	if provider := os.Getenv("EMAIL_PROVIDER"); provider != "" {
		config.Email.Provider = provider
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.Email.SMTPHost = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Email.SMTPPort = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		config.Email.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		config.Email.Password = pass
	}
	if user := os.Getenv("MTN_API_USER"); user != "" {
		config.MoMo.APIUser = user
	}
	if key := os.Getenv("MTN_API_KEY"); key != "" {
		config.MoMo.APIKey = key
	}
	if sub := os.Getenv("MTN_SUBSCRIPTION_KEY"); sub != "" {
		config.MoMo.SubscriptionKey = sub
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

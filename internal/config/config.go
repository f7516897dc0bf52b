package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Voting   VotingConfig
	Notify   NotifyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret          string
	TokenIssuerKey     string
	InitialPoolBalance string
}

// VotingConfig holds the voting-policy knobs
type VotingConfig struct {
	MaxActiveProposals int
	ExpiryInterval     time.Duration
	ReminderInterval   time.Duration
	ReminderLead       time.Duration
}

// NotifyConfig holds outcome-notifier settings; empty values disable the
// corresponding transport.
type NotifyConfig struct {
	RedisURL         string
	DiscordToken     string
	DiscordChannelID string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "council"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TokenIssuerKey:     getEnv("TOKEN_ISSUER_KEY", ""),
			InitialPoolBalance: getEnv("INITIAL_POOL_BALANCE", "0"),
		},
		Voting: VotingConfig{
			MaxActiveProposals: getEnvInt("MAX_ACTIVE_PROPOSALS", 5),
			ExpiryInterval:     getEnvDuration("EXPIRY_INTERVAL", time.Minute),
			ReminderInterval:   getEnvDuration("REMINDER_INTERVAL", time.Minute),
			ReminderLead:       getEnvDuration("REMINDER_LEAD", time.Hour),
		},
		Notify: NotifyConfig{
			RedisURL:         getEnv("REDIS_URL", ""),
			DiscordToken:     getEnv("DISCORD_TOKEN", ""),
			DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Notify.DiscordToken != "" && config.Notify.DiscordChannelID == "" {
		return nil, fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Google OAuth for the shared Gmail account
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// The shared company mailbox the inbox mirrors. Tokens are stored on
	// the user record with this email.
	MailboxEmail string

	// Gmail push notifications (Pub/Sub)
	GoogleProjectID         string
	GmailPubSubTopic        string
	GmailPubSubSubscription string
	GoogleCredentialsFile   string

	// Push notifications to the team's devices
	FirebaseCredentialsFile string

	// AI providers
	GeminiAPIKey  string
	AIProvider    string
	OllamaBaseURL string
	OllamaModel   string

	// Semantic search
	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string

	// Presence
	RedisAddr     string
	RedisPassword string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	accessExpiry := 15 * time.Minute
	if exp := os.Getenv("JWT_ACCESS_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			accessExpiry = parsed
		}
	}

	refreshExpiry := 168 * time.Hour // 7 days
	if exp := os.Getenv("JWT_REFRESH_EXPIRY"); exp != "" {
		if parsed, err := time.ParseDuration(exp); err == nil {
			refreshExpiry = parsed
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  accessExpiry,
		JWTRefreshExpiry: refreshExpiry,

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/api/auth/google/callback"),

		MailboxEmail: getEnv("SHARED_MAILBOX_EMAIL", ""),

		GoogleProjectID:         getEnv("GOOGLE_PROJECT_ID", ""),
		GmailPubSubTopic:        getEnv("GMAIL_PUBSUB_TOPIC", "gmail-inbox-updates"),
		GmailPubSubSubscription: getEnv("GMAIL_PUBSUB_SUBSCRIPTION", "gmail-inbox-updates-sub"),
		GoogleCredentialsFile:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "fieldline"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// PostgresDSN builds the connection string for the gorm Postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

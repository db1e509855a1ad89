package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database configuration
	DatabaseURL string

	// Auth configuration
	JWTSecret     string
	JWTExpiration time.Duration

	// Object storage configuration
	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string

	// OCR configuration
	TesseractBin      string
	TesseractLanguage string
	TesseractPSM      int
	OCRDPI            int
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	}

	config := &Config{
		// Server configuration
		Port:            getEnvInt("PORT", 8080),
		ReadTimeout:     time.Duration(getEnvInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("WRITE_TIMEOUT", 30)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT", 10)) * time.Second,

		// Database configuration
		DatabaseURL: os.Getenv("POSTGRES_DB_URL"),

		// Auth configuration
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpiration: time.Duration(getEnvInt("JWT_EXPIRATION_MINUTES", 60)) * time.Minute,

		// Object storage configuration
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "invoices"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),

		// OCR configuration
		TesseractBin:      getEnvString("TESSERACT_BIN", "tesseract"),
		TesseractLanguage: getEnvString("TESSERACT_LANG", "por"),
		TesseractPSM:      getEnvInt("TESSERACT_PSM", 11),
		OCRDPI:            getEnvInt("OCR_DPI", 300),
	}

	validateConfig(config)

	return config, nil
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	if config.DatabaseURL == "" {
		log.Println("Warning: No POSTGRES_DB_URL provided. Database connections will fail.")
	}

	if config.JWTSecret == "" {
		log.Println("Warning: No JWT_SECRET provided. Authentication will fail.")
	}

	if config.S3Endpoint == "" {
		log.Println("Warning: No S3_ENDPOINT provided. Document uploads will fail.")
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

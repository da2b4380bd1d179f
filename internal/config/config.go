package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Required values are enforced at startup; the
// pinning settings are optional because deployments without a pinning
// account fall back to unpinned artifact URLs.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	JWTSecret   string // secret used to verify dashboard-issued JWTs
	ScanBaseURL string // public base URL encoded into tracking QR codes
	PinAPIURL   string // pinning service endpoint (optional)
	PinAPIKey   string // pinning service credential (optional)
	PinGateway  string // gateway base for pinned content URLs (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		ScanBaseURL: getenv("SCAN_BASE_URL", "https://track.biztrack.app/scan"),
		PinAPIURL:   os.Getenv("PIN_API_URL"),
		PinAPIKey:   os.Getenv("PIN_API_KEY"),
		PinGateway:  getenv("PIN_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or a default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// atoi converts with a zero fallback; shared by the rate-limit and cache
// loaders in this package.
func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

// Package config loads application configuration from the environment. An
// optional .env file is read first; values already present in the process
// environment win.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the service. Each field maps to one
// environment variable.
type Config struct {
	Env  string // APP_ENV (dev, test, prod)
	Port string // APP_PORT

	DBUser    string
	DBPass    string // may be empty
	DBHost    string
	DBPort    string
	DBName    string
	DBMigrate bool // apply embedded migrations on startup

	JWTSecret string // HS256 key shared with the identity provider

	LogLevel    string
	LogFormat   string
	ServiceName string

	IdentityURL        string
	IdentityServiceKey string
	StorageURL         string
	StorageBucket      string
	PincodeAPIURL      string
	PincodeTimeout     time.Duration

	RabbitMQURL string // empty disables event publishing and the audit consumer

	DemoSweepSpec    string
	DemoSweepTimeout time.Duration
	RequestTimeout   time.Duration

	CORSOrigins []string // empty disables CORS headers
}

// LoadDotEnv reads the given files (default .env) into the environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: could not read %s: %v", f, err)
		}
	}
}

// Load builds a Config. Missing required variables stop the process.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		DBMigrate: envBool("DB_MIGRATE", true),

		JWTSecret: must("JWT_SECRET"),

		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),
		ServiceName: envStr("SERVICE_NAME", "device-ops-dashboard"),

		IdentityURL:        must("IDENTITY_URL"),
		IdentityServiceKey: must("IDENTITY_SERVICE_KEY"),
		StorageURL:         envStr("STORAGE_URL", os.Getenv("IDENTITY_URL")),
		StorageBucket:      envStr("STORAGE_BUCKET", "device-images"),
		PincodeAPIURL:      envStr("PINCODE_API_URL", "https://api.postalpincode.in"),
		PincodeTimeout:     envDur("PINCODE_TIMEOUT", 5*time.Second),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		DemoSweepSpec:    envStr("DEMO_SWEEP_SPEC", "@hourly"),
		DemoSweepTimeout: envDur("DEMO_SWEEP_TIMEOUT", time.Minute),
		RequestTimeout:   envDur("REQUEST_TIMEOUT", 5*time.Second),

		CORSOrigins: envList("CORS_ALLOWED_ORIGINS"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

// envList splits a comma separated variable, dropping blanks.
func envList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

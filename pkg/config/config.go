package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

// DefaultJWTSecret is the development signing key used when JWT_SECRET is unset.
const DefaultJWTSecret = "supersecretjwtkey"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	FirebaseCredentialsPath string
	FCMServiceAccountJSON   string // base64, takes precedence over the file
	AuthProvider            string
	JWTSecret               string
	JWTExpiry               time.Duration
	RequestTimeout          time.Duration
	NotifyTimeout           time.Duration
	SearchLimit             int
	RateLimitRPS            float64
	RateLimitBurst          int
	CORSOrigins             []string
	MetricsUser             string
	MetricsPass             string

	EnvFileLoaded bool // false when no .env file was read
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() *Config {
	envFileErr := godotenv.Load()

	return &Config{
		EnvFileLoaded:           envFileErr == nil,
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "syrena"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FCMServiceAccountJSON:   getEnv("FCM_SERVICE_ACCOUNT_JSON", ""),
		AuthProvider:            strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
		JWTSecret:               getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTExpiry:               getDuration("JWT_EXPIRY", 72*time.Hour),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 5*time.Second),
		NotifyTimeout:           getDuration("NOTIFY_TIMEOUT", 3*time.Second),
		SearchLimit:             getInt("SEARCH_LIMIT", 20),
		RateLimitRPS:            getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:          getInt("RATE_LIMIT_BURST", 30),
		CORSOrigins:             splitList(getEnv("CORS_ORIGINS", "*")),
		MetricsUser:             getEnv("METRICS_USER", ""),
		MetricsPass:             getEnv("METRICS_PASS", ""),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return ErrDefaultJWTSecret
	}
	return nil
}

func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsPath != "" || c.FCMServiceAccountJSON != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

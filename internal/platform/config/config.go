package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string
	JWTKey    []byte
	JWTExp    time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GithubClientID     string
	GithubClientSecret string
	GithubCallbackURL  string
	FrontendURL        string
	AdminLogins        []string
	OAuthStateTTL      time.Duration

	ExecutionQueueName      string
	ExecutionLockPrefix     string
	ExecutionLockTTLSeconds int
	ExecutionTimeLimit      time.Duration
	RunResultTTL            time.Duration
	RunnerBackend           string // "local" or "docker"
	WorkerCount             int
	WebhookSecret           string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		JWTKey:    []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:    time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "learncode"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		GithubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GithubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GithubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", "http://localhost:8080/auth/github/callback"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		AdminLogins:        getEnvAsList("ADMIN_LOGINS"),
		OAuthStateTTL:      time.Duration(getEnvAsInt("OAUTH_STATE_TTL_SECONDS", 600)) * time.Second,

		ExecutionQueueName:      getEnv("EXECUTION_QUEUE_NAME", "learncode:execution_queue"),
		ExecutionLockPrefix:     getEnv("EXECUTION_LOCK_PREFIX", "learncode:execution_lock:"),
		ExecutionLockTTLSeconds: getEnvAsInt("EXECUTION_LOCK_TTL_SECONDS", 60),
		ExecutionTimeLimit:      time.Duration(getEnvAsInt("EXECUTION_TIME_LIMIT_MS", 5000)) * time.Millisecond,
		RunResultTTL:            time.Duration(getEnvAsInt("RUN_RESULT_TTL_SECONDS", 3600)) * time.Second,
		RunnerBackend:           getEnv("RUNNER_BACKEND", "local"),
		WorkerCount:             getEnvAsInt("WORKER_COUNT", 1),
		WebhookSecret:           getEnv("WEBHOOK_SECRET", ""),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// IsAdminLogin reports whether login is listed in ADMIN_LOGINS.
func (c *Config) IsAdminLogin(login string) bool {
	for _, l := range c.AdminLogins {
		if strings.EqualFold(l, login) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

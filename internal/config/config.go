package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bdays-network/bdays/internal/directory"
)

const (
	defaultAppName        = "bdays"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLoginAttempts  = 10
	shutdownSecondsEnvVar = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurEnvVar     = "SHUTDOWN_TIMEOUT"
	idemTTLSecondsEnvVar  = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar      = "IDEMPOTENCY_TTL"
	sessionTTLEnvVar      = "SESSION_TTL"
	loginAttemptsEnvVar   = "LOGIN_ATTEMPTS_PER_MINUTE"
	friendParamsEnvVar    = "DIRECTORY_FRIEND_PARAMS"
	writeMethodEnvVar     = "DIRECTORY_WRITE_METHOD"
)

// Session store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	SessionBackend string
	RedisURL       string
	DatabaseURL    string
	SessionTTL     time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	LoginAttempts  int
	Directory      DirectoryConfig
}

// DirectoryConfig describes how to reach the remote directory.
type DirectoryConfig struct {
	Endpoints    directory.Endpoints
	FriendParams directory.FriendParams
	WriteMethod  string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		RedisURL:       os.Getenv("REDIS_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		LoginAttempts:  defaultLoginAttempts,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(sessionTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", sessionTTLEnvVar, err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv(loginAttemptsEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", loginAttemptsEnvVar, v)
		}
		cfg.LoginAttempts = n
	}

	cfg.SessionBackend = strings.ToLower(os.Getenv("SESSION_BACKEND"))
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = BackendMemory
		if cfg.RedisURL != "" {
			cfg.SessionBackend = BackendRedis
		}
	}
	switch cfg.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set for SESSION_BACKEND=%s", cfg.SessionBackend)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set for SESSION_BACKEND=%s", cfg.SessionBackend)
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	if cfg.Directory, err = loadDirectory(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadDirectory() (DirectoryConfig, error) {
	eps := directory.DefaultEndpoints()
	eps.WriteUser = getEnv("DIRECTORY_WRITE_USER_URL", eps.WriteUser)
	eps.ReadUser = getEnv("DIRECTORY_READ_USER_URL", eps.ReadUser)
	eps.ReadByName = getEnv("DIRECTORY_READ_BY_NAME_URL", eps.ReadByName)
	eps.ReadUserByEmail = getEnv("DIRECTORY_READ_USER_BY_EMAIL_URL", eps.ReadUserByEmail)
	eps.AddFriends = getEnv("DIRECTORY_ADD_FRIENDS_URL", eps.AddFriends)
	eps.GetLeaderboard = getEnv("DIRECTORY_GET_LEADERBOARD_URL", eps.GetLeaderboard)

	dc := DirectoryConfig{
		Endpoints:    eps,
		FriendParams: directory.DefaultFriendParams,
		WriteMethod:  strings.ToUpper(getEnv(writeMethodEnvVar, http.MethodGet)),
	}
	if dc.WriteMethod != http.MethodPost && dc.WriteMethod != http.MethodGet {
		return DirectoryConfig{}, fmt.Errorf("invalid %s: %q", writeMethodEnvVar, dc.WriteMethod)
	}

	if v := os.Getenv(friendParamsEnvVar); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return DirectoryConfig{}, fmt.Errorf("invalid %s: %q", friendParamsEnvVar, v)
		}
		dc.FriendParams = directory.FriendParams{First: strings.TrimSpace(parts[0]), Second: strings.TrimSpace(parts[1])}
	}
	return dc, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

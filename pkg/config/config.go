package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session token source selectors.
const (
	SessionSourceFile  = "file"
	SessionSourceRedis = "redis"
)

// Config holds settings for both the fee agent and the gateway simulator.
type Config struct {
	Env  string
	Port int

	Gateway   GatewayConfig
	Sync      SyncConfig
	Session   SessionConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Simulator SimulatorConfig
	CORS      CORSConfig
	Log       LogConfig
}

// GatewayConfig points the agent at the remote fee service.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SyncConfig tunes the reload scheduler and user notices.
type SyncConfig struct {
	DebounceInterval time.Duration
	SuccessNoticeTTL time.Duration
	ErrorNoticeTTL   time.Duration
}

// SessionConfig selects where the bearer token is read from.
type SessionConfig struct {
	Source    string
	TokenFile string
	RedisKey  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// SimulatorConfig governs the development gateway simulator.
type SimulatorConfig struct {
	Backend       string // "memory" or "postgres"
	JWTSecret     string
	TokenExpiry   time.Duration
	SeedDemoData  bool
	OverduePeriod time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Gateway = GatewayConfig{
		BaseURL: strings.TrimRight(v.GetString("GATEWAY_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("GATEWAY_TIMEOUT"), 15*time.Second),
	}

	cfg.Sync = SyncConfig{
		DebounceInterval: parseDuration(v.GetString("SYNC_DEBOUNCE_INTERVAL"), 300*time.Millisecond),
		SuccessNoticeTTL: parseDuration(v.GetString("SYNC_SUCCESS_NOTICE_TTL"), 5*time.Second),
		ErrorNoticeTTL:   parseDuration(v.GetString("SYNC_ERROR_NOTICE_TTL"), 10*time.Second),
	}

	cfg.Session = SessionConfig{
		Source:    v.GetString("SESSION_SOURCE"),
		TokenFile: v.GetString("SESSION_TOKEN_FILE"),
		RedisKey:  v.GetString("SESSION_REDIS_KEY"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Simulator = SimulatorConfig{
		Backend:       v.GetString("SIM_BACKEND"),
		JWTSecret:     v.GetString("SIM_JWT_SECRET"),
		TokenExpiry:   parseDuration(v.GetString("SIM_TOKEN_EXPIRY"), 24*time.Hour),
		SeedDemoData:  v.GetBool("SIM_SEED_DEMO_DATA"),
		OverduePeriod: parseDuration(v.GetString("SIM_OVERDUE_PERIOD"), 30*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 7070)

	v.SetDefault("GATEWAY_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("GATEWAY_TIMEOUT", "15s")

	v.SetDefault("SYNC_DEBOUNCE_INTERVAL", "300ms")
	v.SetDefault("SYNC_SUCCESS_NOTICE_TTL", "5s")
	v.SetDefault("SYNC_ERROR_NOTICE_TTL", "10s")

	v.SetDefault("SESSION_SOURCE", SessionSourceFile)
	v.SetDefault("SESSION_TOKEN_FILE", ".session-token")
	v.SetDefault("SESSION_REDIS_KEY", "sma:session:token")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fee_gateway_sim")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("SIM_BACKEND", "memory")
	v.SetDefault("SIM_JWT_SECRET", "dev_sim_secret")
	v.SetDefault("SIM_TOKEN_EXPIRY", "24h")
	v.SetDefault("SIM_SEED_DEMO_DATA", true)
	v.SetDefault("SIM_OVERDUE_PERIOD", "720h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Twilio    TwilioConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name       string
	Port       string
	Env        string
	CORSOrigin string
}

// IsProduction reports whether raw error details must be hidden from clients.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	LogSQL   bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type AuthConfig struct {
	// LoginTimeout bounds the clinic/user lookup performed during login.
	LoginTimeout time.Duration
	SlotLockTTL  time.Duration
}

type SchedulerConfig struct {
	Enabled      bool
	NoShowSpec   string
	ReminderSpec string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether SMS reminders can be delivered.
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type TelemetryConfig struct {
	MetricsEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "clinic-api")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGIN", "*")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_NOSHOW_SPEC", "15 0 * * *")
	viper.SetDefault("SCHEDULER_REMINDER_SPEC", "0 9 * * *")
	viper.SetDefault("METRICS_ENABLED", true)

	// A missing .env is fine when everything comes from the environment.
	if err := viper.ReadInConfig(); err != nil && viper.GetString("DB_HOST") == "" {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:       viper.GetString("APP_NAME"),
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			CORSOrigin: viper.GetString("CORS_ALLOWED_ORIGIN"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			TimeZone: viper.GetString("DB_TIMEZONE"),
			LogSQL:   viper.GetBool("DB_LOG_SQL"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Auth: AuthConfig{
			LoginTimeout: durationOr("LOGIN_TIMEOUT", 5*time.Second),
			SlotLockTTL:  durationOr("SLOT_LOCK_TTL", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:      viper.GetBool("SCHEDULER_ENABLED"),
			NoShowSpec:   viper.GetString("SCHEDULER_NOSHOW_SPEC"),
			ReminderSpec: viper.GetString("SCHEDULER_REMINDER_SPEC"),
		},
		Twilio: TwilioConfig{
			AccountSID: viper.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:  viper.GetString("TWILIO_AUTH_TOKEN"),
			FromNumber: viper.GetString("TWILIO_FROM_NUMBER"),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: viper.GetBool("METRICS_ENABLED"),
			OTLPEndpoint:   viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	return config, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

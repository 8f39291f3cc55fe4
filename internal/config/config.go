package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // used for storage sign URLs and public URLs
	SupabaseSecretKey   string // must be the service_role key, not anon
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	CookieDomain        string
	HealthAdminKey      string
	SendinblueAPIKey    string
	MailFrom            string
	AppBaseURL          string // verification links point here

	RequestTimeout     time.Duration
	RideMinLeadTime    time.Duration
	DefaultInvitations int
	RideCloserSchedule string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("RIDE_MIN_LEAD_TIME", "15m")
	v.SetDefault("DEFAULT_INVITATIONS", 10)
	v.SetDefault("RIDE_CLOSER_SCHEDULE", "*/5 * * * *")
}

// Load loads config from env and an optional .env file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	env := strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV")))
	if env == "" {
		env = "development"
	}

	dbURL := v.GetString("DATABASE_URL_DEV")
	switch env {
	case "production":
		dbURL = v.GetString("DATABASE_URL_PROD")
	case "test":
		dbURL = v.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		SupabaseURL:         strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
		SupabaseSecretKey:   v.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		CookieDomain:        v.GetString("COOKIE_DOMAIN"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		AppBaseURL:          strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		RideMinLeadTime:     v.GetDuration("RIDE_MIN_LEAD_TIME"),
		DefaultInvitations:  v.GetInt("DEFAULT_INVITATIONS"),
		RideCloserSchedule:  v.GetString("RIDE_CLOSER_SCHEDULE"),
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App   AppConfig
	Mongo MongoConfig
	Redis RedisConfig
	JWT   JWTConfig
	Log   LogConfig
	HTTP  HTTPConfig
	Admin AdminConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// JWTConfig holds token settings. Tokens are never revoked server-side, so TTL is the
// upper bound on how long a leaked token stays usable.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
	AuthRateLimit    float64 // requests per second per IP on login/register
	AuthRateBurst    int
}

// AdminConfig bootstraps the first admin account when Email is set.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load reads configuration. Priority (highest first):
// 1. environment variables with the SHOP_ prefix (e.g. SHOP_MONGO_URI)
// 2. a .env file in the working directory
// 3. config.toml
// 4. built-in defaults
func Load() (*Config, error) {
	// a missing .env is fine, the process environment is used as-is
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
			Timeout:  v.GetDuration("mongo.timeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CartTTL:  v.GetDuration("redis.cart_ttl"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: splitList(v.GetString("http.cors_allow_origins")),
			AuthRateLimit:    v.GetFloat64("http.auth_rate_limit"),
			AuthRateBurst:    v.GetInt("http.auth_rate_burst"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("admin.name"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "babumoshai")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "babumoshai")
	v.SetDefault("mongo.timeout", 10*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cart_ttl", 30*24*time.Hour)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("jwt.issuer", "babumoshai")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("http.read_timeout", 7*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.cors_allow_origins", "*")
	v.SetDefault("http.auth_rate_limit", 1.0)
	v.SetDefault("http.auth_rate_burst", 5)

	v.SetDefault("admin.name", "Admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// Validate checks settings that would otherwise fail late or insecurely.
func (c *Config) Validate() error {
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.Redis.CartTTL <= 0 {
		return errors.New("redis.cart_ttl must be positive")
	}
	if c.IsProduction() && len(c.JWT.Secret) < 32 {
		return errors.New("jwt.secret must be at least 32 characters in production")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = "dev-only-secret-change-me"
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		return errors.New("admin.password must be at least 8 characters")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.App.Port, ":") {
		return c.App.Port
	}
	return ":" + c.App.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

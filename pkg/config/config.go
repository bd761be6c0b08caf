package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "grouporder"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "GROUPORDER_APP_ENV"
	EnvDBHost = "GROUPORDER_DB_HOST"
	EnvDBUser = "GROUPORDER_DB_USER"
	EnvDBName = "GROUPORDER_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GROUPORDER_APP_ENV" required:"true"`
	Port         string `envconfig:"GROUPORDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GROUPORDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROUPORDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"GROUPORDER_DB_DSN"`

	Host     string `envconfig:"GROUPORDER_DB_HOST"`
	Port     int    `envconfig:"GROUPORDER_DB_PORT" default:"5432"`
	User     string `envconfig:"GROUPORDER_DB_USER"`
	Password string `envconfig:"GROUPORDER_DB_PASSWORD"`
	Name     string `envconfig:"GROUPORDER_DB_NAME"`
	SSLMode  string `envconfig:"GROUPORDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROUPORDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROUPORDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROUPORDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROUPORDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from the discrete host/user/name
// variables when GROUPORDER_DB_DSN is not set directly.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if discrete[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database config incomplete: set GROUPORDER_DB_DSN or %s", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Name,
		RawQuery: url.Values{"sslmode": []string{db.SSLMode}}.Encode(),
	}
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"GROUPORDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROUPORDER_REDIS_ADDR"`
	Password     string        `envconfig:"GROUPORDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROUPORDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROUPORDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROUPORDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROUPORDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROUPORDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROUPORDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the active-group session kept per caller.
type SessionConfig struct {
	CookieName string `envconfig:"GROUPORDER_SESSION_COOKIE" default:"grouporder_session"`
	TTLMinutes int    `envconfig:"GROUPORDER_SESSION_TTL_MINUTES" default:"10080"`
}

// TTL returns the configured session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROUPORDER_AUTO_MIGRATE" default:"false"`
}

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Assignment    AssignmentConfig
	Cron          CronConfig
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
	Env          string `envconfig:"EWASTE_APP_ENV" required:"true"`
	Port         string `envconfig:"EWASTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EWASTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EWASTE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EWASTE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EWASTE_DB_DSN"`
	Driver string `envconfig:"EWASTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EWASTE_DB_HOST"`
	LegacyPort     int    `envconfig:"EWASTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EWASTE_DB_USER"`
	LegacyPassword string `envconfig:"EWASTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"EWASTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"EWASTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EWASTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EWASTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EWASTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EWASTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EWASTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EWASTE_REDIS_ADDR"`
	Password     string        `envconfig:"EWASTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"EWASTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EWASTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EWASTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EWASTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EWASTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EWASTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EWASTE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EWASTE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EWASTE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EWASTE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EWASTE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EWASTE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EWASTE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EWASTE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EWASTE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"EWASTE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"EWASTE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"EWASTE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"EWASTE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"EWASTE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"EWASTE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EWASTE_AUTO_MIGRATE" default:"false"`
}

// AssignmentConfig tunes the assignment engine.
type AssignmentConfig struct {
	// DefaultMaxCapacity is the active-order ceiling applied to agents
	// whose profile does not override it.
	DefaultMaxCapacity int `envconfig:"EWASTE_ASSIGN_DEFAULT_MAX_CAPACITY" default:"8"`
	// PincodePrefixLen narrows geographic eligibility beyond same-city
	// matching. Zero disables pincode narrowing.
	PincodePrefixLen int `envconfig:"EWASTE_ASSIGN_PINCODE_PREFIX_LEN" default:"0"`
	// AutoAssignMaxPerRun caps how many orders one auto-assignment run may bind.
	AutoAssignMaxPerRun int `envconfig:"EWASTE_ASSIGN_AUTO_MAX_PER_RUN" default:"50"`
	// TxTimeout bounds a single assignment transaction.
	TxTimeout time.Duration `envconfig:"EWASTE_ASSIGN_TX_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	AutoAssignInterval   time.Duration `envconfig:"EWASTE_CRON_AUTO_ASSIGN_INTERVAL" default:"10m"`
	AutoAssignCities     []string      `envconfig:"EWASTE_CRON_AUTO_ASSIGN_CITIES"`
	EventRetention       time.Duration `envconfig:"EWASTE_CRON_EVENT_RETENTION" default:"2160h"`
	RetentionInterval    time.Duration `envconfig:"EWASTE_CRON_RETENTION_INTERVAL" default:"24h"`
	NotificationMaxAge   time.Duration `envconfig:"EWASTE_CRON_NOTIFICATION_MAX_AGE" default:"720h"`
	NotificationInterval time.Duration `envconfig:"EWASTE_CRON_NOTIFICATION_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

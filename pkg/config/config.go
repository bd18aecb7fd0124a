package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Cloudinary   CloudinaryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Media        MediaConfig
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
	Env          string `envconfig:"GREENBUDDY_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENBUDDY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENBUDDY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENBUDDY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind        string   `envconfig:"GREENBUDDY_SERVICE_KIND" default:"api"`
	CORSOrigins []string `envconfig:"GREENBUDDY_CORS_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"GREENBUDDY_DB_DSN"`
	Driver string `envconfig:"GREENBUDDY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENBUDDY_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENBUDDY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENBUDDY_DB_USER"`
	LegacyPassword string `envconfig:"GREENBUDDY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENBUDDY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENBUDDY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENBUDDY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENBUDDY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENBUDDY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENBUDDY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENBUDDY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GREENBUDDY_REDIS_ADDR"`
	Password     string        `envconfig:"GREENBUDDY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENBUDDY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENBUDDY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENBUDDY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENBUDDY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENBUDDY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENBUDDY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GREENBUDDY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GREENBUDDY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GREENBUDDY_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"GREENBUDDY_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GREENBUDDY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GREENBUDDY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GREENBUDDY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GREENBUDDY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GREENBUDDY_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENBUDDY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENBUDDY_AUTO_MIGRATE" default:"false"`
}

type CloudinaryConfig struct {
	CloudName    string `envconfig:"GREENBUDDY_CLOUDINARY_CLOUD_NAME" required:"true"`
	APIKey       string `envconfig:"GREENBUDDY_CLOUDINARY_API_KEY" required:"true"`
	APISecret    string `envconfig:"GREENBUDDY_CLOUDINARY_API_SECRET" required:"true"`
	UploadFolder string `envconfig:"GREENBUDDY_CLOUDINARY_UPLOAD_FOLDER" default:"greenbuddy"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"GREENBUDDY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	MediaDeletionTopic        string `envconfig:"GREENBUDDY_PUBSUB_MEDIA_DELETION_TOPIC"`
	MediaDeletionSubscription string `envconfig:"GREENBUDDY_PUBSUB_MEDIA_DELETION_SUBSCRIPTION"`
}

// Enabled reports whether async media cleanup is configured at all.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.MediaDeletionTopic) != ""
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"GREENBUDDY_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured upload cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DriverSQLite) {
		db.DSN = "file::memory:?cache=shared"
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

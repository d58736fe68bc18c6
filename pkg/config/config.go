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
	ResponseLink ResponseLinkConfig
	Mailer       MailerConfig
	Sendgrid     SendgridConfig
	Dispatch     DispatchConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"SERVETEAM_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVETEAM_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"SERVETEAM_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"SERVETEAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVETEAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SERVETEAM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SERVETEAM_DB_DSN"`
	Driver string `envconfig:"SERVETEAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVETEAM_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVETEAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVETEAM_DB_USER"`
	LegacyPassword string `envconfig:"SERVETEAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVETEAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVETEAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVETEAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVETEAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVETEAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVETEAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVETEAM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVETEAM_REDIS_ADDR"`
	Password     string        `envconfig:"SERVETEAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVETEAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVETEAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVETEAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVETEAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVETEAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVETEAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SERVETEAM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SERVETEAM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SERVETEAM_JWT_EXPIRATION_MINUTES" required:"true"`
}

// ResponseLinkConfig governs the signed accept/decline links embedded in
// invitation emails. Tokens stay valid until service date plus TailTTL.
type ResponseLinkConfig struct {
	Secret  string        `envconfig:"SERVETEAM_RESPONSE_LINK_SECRET" required:"true"`
	TailTTL time.Duration `envconfig:"SERVETEAM_RESPONSE_LINK_TAIL_TTL" default:"48h"`
}

type MailerConfig struct {
	Channel string `envconfig:"SERVETEAM_MAILER_CHANNEL" default:"console"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SERVETEAM_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SERVETEAM_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"SERVETEAM_SENDGRID_FROM_NAME" default:"ServeTeam"`
}

type DispatchConfig struct {
	BatchSize       int           `envconfig:"SERVETEAM_DISPATCH_BATCH_SIZE" default:"25"`
	MaxAttempts     int           `envconfig:"SERVETEAM_DISPATCH_MAX_ATTEMPTS" default:"3"`
	SendTimeout     time.Duration `envconfig:"SERVETEAM_DISPATCH_SEND_TIMEOUT" default:"10s"`
	ReminderLead    time.Duration `envconfig:"SERVETEAM_DISPATCH_REMINDER_LEAD" default:"24h"`
	RecordRetention int           `envconfig:"SERVETEAM_DISPATCH_RECORD_RETENTION_DAYS" default:"90"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SERVETEAM_EVENTING_IDEMPOTENCY_TTL" default:"720h"`

	// SystemActorID attributes automated assignments, such as re-invitations
	// created by the rematch worker.
	SystemActorID string `envconfig:"SERVETEAM_EVENTING_SYSTEM_ACTOR_ID"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SERVETEAM_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SERVETEAM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SERVETEAM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SchedulingTopic        string `envconfig:"SERVETEAM_PUBSUB_SCHEDULING_TOPIC" default:"st-scheduling-events"`
	SchedulingSubscription string `envconfig:"SERVETEAM_PUBSUB_SCHEDULING_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SERVETEAM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SERVETEAM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SERVETEAM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"SERVETEAM_CRON_INTERVAL" default:"5m"`
	AlertRetention int           `envconfig:"SERVETEAM_CRON_ALERT_RETENTION_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SERVETEAM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SERVETEAM_AUTO_MIGRATE" default:"false"`
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

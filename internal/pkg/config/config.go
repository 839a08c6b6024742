package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"practice-hub/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, secrets)
// - default: Values common across all environments (timezone, timeout, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Links    LinkConfig
	Mail     MailConfig
	Calendar CalendarConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

// LinkConfig covers the emailed capability links.
type LinkConfig struct {
	SigningSecret   string        `envconfig:"RESCHEDULE_TOKEN_SECRET" required:"true"`
	DecisionTTL     time.Duration `envconfig:"DECISION_LINK_TTL" default:"168h"`
	ProposeTTL      time.Duration `envconfig:"PROPOSE_LINK_TTL" default:"168h"`
	FrontendBaseURL string        `envconfig:"FRONTEND_BASE_URL" default:"http://localhost:3000"`
}

type MailConfig struct {
	// Enabled=false is dry-run mode: notifications are logged and skipped.
	Enabled       bool          `envconfig:"NOTIFICATIONS_ENABLED" default:"false"`
	RedirectAllTo string        `envconfig:"MAIL_REDIRECT_ALL_TO"`
	From          string        `envconfig:"MAIL_FROM" default:"Practice Hub <noreply@practice-hub.local>"`
	APIKey        string        `envconfig:"MAIL_API_KEY"`
	BaseURL       string        `envconfig:"MAIL_API_BASE_URL" default:"https://api.resend.com"`
	Timeout       time.Duration `envconfig:"MAIL_TIMEOUT" default:"10s"`
	MaxAttempts   int           `envconfig:"MAIL_MAX_ATTEMPTS" default:"3"`
	BackoffBase   time.Duration `envconfig:"MAIL_BACKOFF_BASE" default:"500ms"`
	ClaimLease    time.Duration `envconfig:"MAIL_CLAIM_LEASE" default:"5m"`
}

type CalendarConfig struct {
	UIDDomain      string `envconfig:"ICS_UID_DOMAIN" default:"practice-hub"`
	ProductID      string `envconfig:"ICS_PRODUCT_ID" default:"-//Practice Hub//Sessions//EN"`
	OrganizerEmail string `envconfig:"ICS_ORGANIZER_EMAIL" default:"noreply@practice-hub.local"`
	OrganizerName  string `envconfig:"ICS_ORGANIZER_NAME" default:"Practice Hub"`
	EventSummary   string `envconfig:"ICS_EVENT_SUMMARY" default:"Practice session"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errs.Mark(errs.Wrap(err, "failed to load .env file"), errs.ErrConfiguration)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errs.Mark(errs.Wrap(err, "failed to process env config"), errs.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Links.SigningSecret == "" {
		return errs.Mark(errs.New("RESCHEDULE_TOKEN_SECRET is empty"), errs.ErrConfiguration)
	}
	if c.Links.DecisionTTL <= 0 || c.Links.ProposeTTL <= 0 {
		return errs.Mark(errs.New("link TTLs must be positive"), errs.ErrConfiguration)
	}
	if c.Mail.Enabled && c.Mail.APIKey == "" {
		return errs.Mark(errs.New("MAIL_API_KEY is required when NOTIFICATIONS_ENABLED=true"), errs.ErrConfiguration)
	}
	if c.Mail.MaxAttempts < 1 {
		return errs.Mark(errs.New("MAIL_MAX_ATTEMPTS must be at least 1"), errs.ErrConfiguration)
	}
	return nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 10,
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		JWT: JWTConfig{
			Secret:   "test-jwt-secret",
			Duration: time.Hour,
		},
		Links: LinkConfig{
			SigningSecret:   "test-link-secret",
			DecisionTTL:     7 * 24 * time.Hour,
			ProposeTTL:      7 * 24 * time.Hour,
			FrontendBaseURL: "http://localhost:3000",
		},
		Mail: MailConfig{
			Enabled:     true,
			From:        "Practice Hub <noreply@practice-hub.test>",
			APIKey:      "test-key",
			BaseURL:     "http://localhost:0",
			Timeout:     time.Second,
			MaxAttempts: 3,
			BackoffBase: time.Millisecond,
			ClaimLease:  time.Minute,
		},
		Calendar: CalendarConfig{
			UIDDomain:      "practice-hub.test",
			ProductID:      "-//Practice Hub//Sessions//EN",
			OrganizerEmail: "noreply@practice-hub.test",
			OrganizerName:  "Practice Hub",
			EventSummary:   "Practice session",
		},
	}
}

package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:grader.db?_pragma=busy_timeout(5000)"
)

type Config struct {
	Host  string `env:"HOST" validate:"required"`
	Port  string `env:"PORT" validate:"required,numeric"`
	Debug bool   `env:"DEBUG"`

	GeminiAPIKey       string        `env:"GEMINI_API_KEY" validate:"required"`
	GeminiModel        string        `env:"GEMINI_MODEL" validate:"required"`
	OracleTimeout      time.Duration `env:"ORACLE_TIMEOUT" validate:"min=1s"`
	OraclePollInterval time.Duration `env:"ORACLE_POLL_INTERVAL" validate:"min=100ms"`

	DBDriver    string `env:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required"`

	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" validate:"min=0"`
	BatchConcurrency int           `env:"BATCH_CONCURRENCY" validate:"min=1,max=32"`
	MaxUploadMB      int           `env:"MAX_UPLOAD_MB" validate:"min=1,max=1024"`
	CORSOrigins      []string      `env:"CORS_ORIGINS"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" validate:"required_with=TelegramBotToken"`
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// ConfigError lists every environment key that is missing or malformed.
type ConfigError struct {
	Keys []string
}

func (e *ConfigError) Error() string {
	return "config: missing or invalid " + strings.Join(e.Keys, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	var bad []string
	cfg := &Config{
		Host:  getEnv("HOST", "0.0.0.0"),
		Port:  getEnv("PORT", "8000"),
		Debug: parseBool("DEBUG", &bad),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OracleTimeout:      parseDuration("ORACLE_TIMEOUT", 180*time.Second, &bad),
		OraclePollInterval: parseDuration("ORACLE_POLL_INTERVAL", 2*time.Second, &bad),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),

		RequestTimeout:   parseDuration("REQUEST_TIMEOUT", 0, &bad),
		BatchConcurrency: parseInt("BATCH_CONCURRENCY", 1, &bad),
		MaxUploadMB:      parseInt("MAX_UPLOAD_MB", 32, &bad),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   parseInt64("TELEGRAM_CHAT_ID", &bad),
	}
	cfg.DatabaseURL = resolveDSN(cfg.DBDriver)

	if err := validate.Struct(cfg); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return nil, err
		}
		for _, fe := range ves {
			bad = append(bad, fe.Field())
		}
	}
	if len(bad) > 0 {
		return nil, &ConfigError{Keys: dedupe(bad)}
	}
	return cfg, nil
}

// resolveDSN prefers DATABASE_URL. For postgres it can also be assembled
// from POSTGRES_* / PG* parts; sqlite falls back to a local file.
func resolveDSN(driver string) string {
	if v := getEnv("DATABASE_URL", ""); v != "" {
		return v
	}
	if driver == DriverSQLite {
		return defaultSQLiteDSN
	}
	host := getEnv("PGHOST", getEnv("POSTGRES_HOST", ""))
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "grader"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "grader"),
		RawQuery: "sslmode=" + getEnv("PGSSLMODE", "disable"),
	}
	return u.String()
}

// SafeDSNSummary describes a DSN without its credentials.
func SafeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	if u.Scheme == "file" || u.Opaque != "" {
		return "file=" + strings.SplitN(strings.TrimPrefix(dsn, "file:"), "?", 2)[0]
	}
	host, port := u.Host, ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	user := u.User.Username()
	if port == "" {
		return "host=" + host + " db=" + db + " user=" + user
	}
	return "host=" + host + " port=" + port + " db=" + db + " user=" + user
}

// --------------------------- helpers ---------------------------

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func parseDuration(k string, def time.Duration, bad *[]string) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// bare numbers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	*bad = append(*bad, k)
	return def
}

func parseInt(k string, def int, bad *[]string) int {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*bad = append(*bad, k)
		return def
	}
	return n
}

func parseInt64(k string, bad *[]string) int64 {
	v := getEnv(k, "")
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*bad = append(*bad, k)
		return 0
	}
	return n
}

func parseBool(k string, bad *[]string) bool {
	v := getEnv(k, "")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*bad = append(*bad, k)
		return false
	}
	return b
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

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	SessionSecret []byte
	SessionTTL    time.Duration
	CookieSecure  bool

	TaxRate decimal.Decimal

	Commerce Commerce

	AdminAccounts []AdminAccount

	RedisAddr string
	CacheDSN  string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string
	NotifyURL    string

	S3 S3
}

type Commerce struct {
	ProjectKey string
	AuthURL    string
	APIURL     string
	Customer   Credentials
	Admin      Credentials
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// AdminAccount is one console operator; PasswordHash is a bcrypt hash.
type AdminAccount struct {
	Email        string
	PasswordHash string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shopswift"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),
		SessionTTL:    EnvDurationDefault("SESSION_TTL", 24*time.Hour),
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", false),

		TaxRate: EnvDecimalDefault("TAX_RATE", decimal.RequireFromString("0.08")),

		Commerce: Commerce{
			ProjectKey: os.Getenv("CT_PROJECT_KEY"),
			AuthURL:    EnvDefault("CT_AUTH_URL", "https://auth.us-east-2.aws.commercetools.com"),
			APIURL:     EnvDefault("CT_API_URL", "https://api.us-east-2.aws.commercetools.com"),
			Customer: Credentials{
				ClientID:     os.Getenv("CT_CUSTOMER_CLIENT_ID"),
				ClientSecret: os.Getenv("CT_CUSTOMER_CLIENT_SECRET"),
				Scope:        os.Getenv("CT_CUSTOMER_SCOPE"),
			},
			Admin: Credentials{
				ClientID:     os.Getenv("CT_ADMIN_CLIENT_ID"),
				ClientSecret: os.Getenv("CT_ADMIN_CLIENT_SECRET"),
				Scope:        os.Getenv("CT_ADMIN_SCOPE"),
			},
		},

		AdminAccounts: ParseAdminAccounts(os.Getenv("ADMIN_ACCOUNTS")),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheDSN:  os.Getenv("CACHE_DSN"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		NotifyURL:    os.Getenv("NOTIFY_URL"),

		S3: S3{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    EnvDefault("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}
}

// Validate reports every required variable that is missing.
func (c Config) Validate() error {
	var missing []string
	check := func(v, name string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check(string(c.SessionSecret), "SESSION_SECRET")
	check(c.Commerce.ProjectKey, "CT_PROJECT_KEY")
	check(c.Commerce.Customer.ClientID, "CT_CUSTOMER_CLIENT_ID")
	check(c.Commerce.Customer.ClientSecret, "CT_CUSTOMER_CLIENT_SECRET")
	check(c.Commerce.Admin.ClientID, "CT_ADMIN_CLIENT_ID")
	check(c.Commerce.Admin.ClientSecret, "CT_ADMIN_CLIENT_SECRET")

	if len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}
	if c.TaxRate.IsNegative() {
		return errors.New("TAX_RATE must not be negative")
	}
	return nil
}

// ParseAdminAccounts reads "email:bcrypt-hash" pairs separated by commas.
func ParseAdminAccounts(v string) []AdminAccount {
	var out []AdminAccount
	for _, pair := range CSV(v) {
		email, hash, ok := strings.Cut(pair, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		if !ok || email == "" || hash == "" {
			continue
		}
		out = append(out, AdminAccount{Email: email, PasswordHash: strings.TrimSpace(hash)})
	}
	return out
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvDecimalDefault(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}

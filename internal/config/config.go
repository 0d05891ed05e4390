package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Driver string // postgres | mysql
	DSN    string
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecretTest string
	WebhookSecretLive string
	Currency          string
}

// WebhookSecrets returns the configured signing secrets, test first.
func (s StripeConfig) WebhookSecrets() []string {
	var out []string
	for _, v := range []string{s.WebhookSecretTest, s.WebhookSecretLive} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	TLSMode       string // starttls | tls | none
	SkipVerifyTLS bool
}

type EmailConfig struct {
	Driver       string // resend | smtp
	ResendAPIKey string
	From         string
	FromName     string
	BulkInterval time.Duration
	SMTP         SMTPConfig
}

type ShippingConfig struct {
	EasyPostAPIKey string
	FromName       string
	FromCompany    string
	FromStreet1    string
	FromStreet2    string
	FromCity       string
	FromState      string
	FromZip        string
	FromCountry    string
	FromPhone      string
}

type PricingConfig struct {
	TaxRate         decimal.Decimal
	ExpressShipping decimal.Decimal
	Currency        string
	ShipCountry     string
}

type AuthConfig struct {
	JWTSecret   string
	AdminAPIKey string
	CronSecret  string
}

type StorageConfig struct {
	Driver          string // none | local | s3
	LocalDir        string
	LocalURLPrefix  string
	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
}

type OutboxConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	BatchSize    int
}

type Config struct {
	Env               string
	Addr              string
	PublicBaseURL     string
	CORSOrigins       []string
	HTTPClientTimeout time.Duration

	DB       DBConfig
	Stripe   StripeConfig
	Email    EmailConfig
	Shipping ShippingConfig
	Pricing  PricingConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Outbox   OutboxConfig

	AbandonedCartDelayHours int
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")

	v.SetDefault("DB_DRIVER", "postgres")

	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("SHIP_COUNTRY", "US")
	v.SetDefault("TAX_RATE", "0.08")
	v.SetDefault("EXPRESS_SHIPPING_COST", "12.00")

	v.SetDefault("EMAIL_DRIVER", "resend")
	v.SetDefault("EMAIL_FROM", "orders@stakdcards.com")
	v.SetDefault("EMAIL_FROM_NAME", "STAKD Cards")
	v.SetDefault("EMAIL_BULK_INTERVAL", "600ms")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TLS_MODE", "starttls")

	v.SetDefault("SHIP_FROM_NAME", "STAKD Cards")
	v.SetDefault("SHIP_FROM_COUNTRY", "US")

	v.SetDefault("STORAGE_DRIVER", "none")
	v.SetDefault("LOCAL_UPLOAD_DIR", "./uploads")
	v.SetDefault("LOCAL_UPLOAD_URL_PREFIX", "/uploads")

	v.SetDefault("OUTBOX_POLL_INTERVAL", "30s")
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)
	v.SetDefault("OUTBOX_BATCH_SIZE", 20)

	v.SetDefault("ABANDONED_CART_DELAY_HOURS", 24)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	taxRate, err := decimal.NewFromString(v.GetString("TAX_RATE"))
	if err != nil {
		return Config{}, fmt.Errorf("config: TAX_RATE: %w", err)
	}
	express, err := decimal.NewFromString(v.GetString("EXPRESS_SHIPPING_COST"))
	if err != nil {
		return Config{}, fmt.Errorf("config: EXPRESS_SHIPPING_COST: %w", err)
	}

	dsn := v.GetString("DB_DSN")
	if dsn == "" {
		dsn = v.GetString("DATABASE_URL")
	}

	cfg := Config{
		Env:               v.GetString("APP_ENV"),
		Addr:              v.GetString("ADDR"),
		PublicBaseURL:     strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		HTTPClientTimeout: v.GetDuration("HTTP_CLIENT_TIMEOUT"),
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    dsn,
		},
		Stripe: StripeConfig{
			SecretKey:         v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecretTest: firstNonEmpty(v.GetString("STRIPE_WEBHOOK_SECRET_TEST"), v.GetString("STRIPE_WEBHOOK_SECRET")),
			WebhookSecretLive: v.GetString("STRIPE_WEBHOOK_SECRET_LIVE"),
			Currency:          strings.ToLower(v.GetString("CURRENCY")),
		},
		Email: EmailConfig{
			Driver:       strings.ToLower(v.GetString("EMAIL_DRIVER")),
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
			FromName:     v.GetString("EMAIL_FROM_NAME"),
			BulkInterval: v.GetDuration("EMAIL_BULK_INTERVAL"),
			SMTP: SMTPConfig{
				Host:          v.GetString("SMTP_HOST"),
				Port:          v.GetInt("SMTP_PORT"),
				User:          v.GetString("SMTP_USER"),
				Pass:          v.GetString("SMTP_PASS"),
				TLSMode:       strings.ToLower(v.GetString("SMTP_TLS_MODE")),
				SkipVerifyTLS: v.GetBool("SMTP_SKIP_VERIFY_TLS"),
			},
		},
		Shipping: ShippingConfig{
			EasyPostAPIKey: v.GetString("EASYPOST_API_KEY"),
			FromName:       v.GetString("SHIP_FROM_NAME"),
			FromCompany:    v.GetString("SHIP_FROM_COMPANY"),
			FromStreet1:    v.GetString("SHIP_FROM_STREET1"),
			FromStreet2:    v.GetString("SHIP_FROM_STREET2"),
			FromCity:       v.GetString("SHIP_FROM_CITY"),
			FromState:      v.GetString("SHIP_FROM_STATE"),
			FromZip:        v.GetString("SHIP_FROM_ZIP"),
			FromCountry:    v.GetString("SHIP_FROM_COUNTRY"),
			FromPhone:      v.GetString("SHIP_FROM_PHONE"),
		},
		Pricing: PricingConfig{
			TaxRate:         taxRate,
			ExpressShipping: express,
			Currency:        strings.ToLower(v.GetString("CURRENCY")),
			ShipCountry:     strings.ToUpper(v.GetString("SHIP_COUNTRY")),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("SUPABASE_JWT_SECRET"),
			AdminAPIKey: v.GetString("ADMIN_API_KEY"),
			CronSecret:  v.GetString("CRON_SECRET"),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			LocalDir:        v.GetString("LOCAL_UPLOAD_DIR"),
			LocalURLPrefix:  v.GetString("LOCAL_UPLOAD_URL_PREFIX"),
			S3Region:        v.GetString("S3_REGION"),
			S3Bucket:        v.GetString("S3_BUCKET"),
			S3Prefix:        v.GetString("S3_PREFIX"),
			S3PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
		},
		Outbox: OutboxConfig{
			PollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
			MaxAttempts:  v.GetInt("OUTBOX_MAX_ATTEMPTS"),
			BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		},
		AbandonedCartDelayHours: v.GetInt("ABANDONED_CART_DELAY_HOURS"),
	}
	return cfg, nil
}

// Validate reports settings the process cannot start without. Provider
// credentials are optional here: a missing key surfaces as a configuration
// error on the endpoint that needs it.
func (c Config) Validate() error {
	var errs []error
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DB.Driver))
	}
	switch c.Email.Driver {
	case "resend", "smtp":
	default:
		errs = append(errs, fmt.Errorf("EMAIL_DRIVER %q is not supported", c.Email.Driver))
	}
	if c.Pricing.TaxRate.IsNegative() {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if c.Pricing.ExpressShipping.IsNegative() {
		errs = append(errs, errors.New("EXPRESS_SHIPPING_COST must not be negative"))
	}
	if len(c.Pricing.ShipCountry) != 2 {
		errs = append(errs, errors.New("SHIP_COUNTRY must be a two-letter country code"))
	}
	if c.IsProduction() && c.Auth.AdminAPIKey == "" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY or SUPABASE_JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
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

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

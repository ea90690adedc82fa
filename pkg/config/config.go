package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DIMPAY_DB_DSN"
	EnvDBHost = "DIMPAY_DB_HOST"
	EnvDBUser = "DIMPAY_DB_USER"
	EnvDBName = "DIMPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Fees         FeeConfig
	Wallets      WalletConfig
	Invoices     InvoiceConfig
	Webhooks     WebhookConfig
	MercadoPago  MercadoPagoConfig
	EFI          EFIConfig
	Inter        InterConfig
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
	Env          string `envconfig:"DIMPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"DIMPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DIMPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIMPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIMPAY_DB_DSN"`
	Driver string `envconfig:"DIMPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DIMPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"DIMPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DIMPAY_DB_USER"`
	LegacyPassword string `envconfig:"DIMPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"DIMPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"DIMPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DIMPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIMPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIMPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIMPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIMPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DIMPAY_REDIS_ADDR"`
	Password     string        `envconfig:"DIMPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIMPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIMPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIMPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIMPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIMPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIMPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DIMPAY_FEATURE_AUTO_MIGRATE" default:"false"`
}

// FeeConfig parameterizes the fee policy per transaction type. Rates are
// percentages (3.5 means 3.5%), flat fees are BRL amounts.
type FeeConfig struct {
	DepositPercent    decimal.Decimal `envconfig:"DIMPAY_FEE_DEPOSIT_PERCENT" default:"1"`
	TransferPercent   decimal.Decimal `envconfig:"DIMPAY_FEE_TRANSFER_PERCENT" default:"3.5"`
	TransferMinimum   decimal.Decimal `envconfig:"DIMPAY_FEE_TRANSFER_MINIMUM" default:"0.60"`
	WithdrawalFlat    decimal.Decimal `envconfig:"DIMPAY_FEE_WITHDRAWAL_FLAT" default:"2.00"`
	WithdrawalFlatEFI decimal.Decimal `envconfig:"DIMPAY_FEE_WITHDRAWAL_FLAT_EFI" default:"1.70"`
}

type WalletConfig struct {
	HouseWalletName string `envconfig:"DIMPAY_HOUSE_WALLET_NAME" default:"dimpay_fees"`
	DefaultCurrency string `envconfig:"DIMPAY_DEFAULT_CURRENCY" default:"BRL"`
}

type InvoiceConfig struct {
	// BankCode is the FEBRABAN compensation code stamped into boleto barcodes.
	BankCode string `envconfig:"DIMPAY_INVOICE_BANK_CODE" default:"001"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"DIMPAY_WEBHOOK_IDEMPOTENCY_TTL" default:"24h"`
}

type MercadoPagoConfig struct {
	BaseURL     string        `envconfig:"DIMPAY_MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
	AccessToken string        `envconfig:"DIMPAY_MERCADOPAGO_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"DIMPAY_MERCADOPAGO_TIMEOUT" default:"10s"`
}

type EFIConfig struct {
	BaseURL       string        `envconfig:"DIMPAY_EFI_BASE_URL" default:"https://pix.api.efipay.com.br"`
	ClientID      string        `envconfig:"DIMPAY_EFI_CLIENT_ID"`
	ClientSecret  string        `envconfig:"DIMPAY_EFI_CLIENT_SECRET"`
	SigningSecret string        `envconfig:"DIMPAY_EFI_SIGNING_SECRET"`
	Timeout       time.Duration `envconfig:"DIMPAY_EFI_TIMEOUT" default:"10s"`
}

type InterConfig struct {
	BaseURL       string        `envconfig:"DIMPAY_INTER_BASE_URL" default:"https://cdpj.partners.bancointer.com.br"`
	ClientID      string        `envconfig:"DIMPAY_INTER_CLIENT_ID"`
	ClientSecret  string        `envconfig:"DIMPAY_INTER_CLIENT_SECRET"`
	SigningSecret string        `envconfig:"DIMPAY_INTER_SIGNING_SECRET"`
	Timeout       time.Duration `envconfig:"DIMPAY_INTER_TIMEOUT" default:"10s"`
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

// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/tron"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	RabbitMQ        `yaml:"rabbitmq"`
	Tron            `yaml:"tron"`
	Subscription    `yaml:"subscription"`
	Scheduler       `yaml:"scheduler"`
	Telegram        `yaml:"telegram"`
	Feed            `yaml:"feed"`
}

// Storage настройки хранилища подписок. Driver: pgx или sqlite.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"pgx"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"40s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ClaimsRPS   float64       `yaml:"claims_rps" env-default:"0.2"`
	ClaimsBurst int           `yaml:"claims_burst" env-default:"3"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken секрет, которым чат-бот подписывает токены пользователей
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"5m"`
}

// RabbitMQ настройки брокера для очереди напоминаний
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// Tron настройки проверки платежей
type Tron struct {
	TronAPIURL     string        `yaml:"api_url" env-default:"https://api.trongrid.io"`
	APIKey         string        `yaml:"api_key" env:"TRON_API_KEY"`
	PayoutAddress  string        `yaml:"payout_address" env:"USDT_WALLET"`
	TokenContract  string        `yaml:"token_contract"`
	MinAmount      string        `yaml:"min_amount" env-default:"0.99"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"30s"`
}

// Subscription параметры продления
type Subscription struct {
	DurationDays    int `yaml:"duration_days" env-default:"30"`
	WarningLeadDays int `yaml:"warning_lead_days" env-default:"3"`
}

// Scheduler параметры ежедневного обхода
type Scheduler struct {
	Interval      time.Duration `yaml:"interval" env-default:"24h"`
	FirstRunDelay time.Duration `yaml:"first_run_delay" env-default:"10s"`
}

// Telegram настройки Bot API для доставки напоминаний
type Telegram struct {
	BotToken  string        `yaml:"bot_token" env:"BOT_TOKEN"`
	BotAPIURL string        `yaml:"api_url" env-default:"https://api.telegram.org"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

// Feed настройки агрегатора ленты
type Feed struct {
	Sources        []Source      `yaml:"sources"`
	PerSource      int           `yaml:"per_source" env-default:"3"`
	Limit          int           `yaml:"limit" env-default:"10"`
	PreviewSize    int           `yaml:"preview_size" env-default:"5"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" env-default:"15s"`
	CacheTTL       time.Duration `yaml:"cache_ttl" env-default:"10m"`
	UpsellText     string        `yaml:"upsell_text" env-default:"Subscribe for full access: /start"`
	PaymentLinkFmt string        `yaml:"payment_link_fmt" env-default:"https://tronscan.org/#/send?to=%s&amount=%s"`
}

// Source источник аирдропов и CSS-селектор заголовков
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
}

// DefaultSources источники, которые используются, если в конфиге список пуст
func DefaultSources() []Source {
	return []Source{
		{Name: "CoinMarketCap", URL: "https://coinmarketcap.com/airdrop/", Selector: ".cmc-link"},
		{Name: "Airdrops.io", URL: "https://airdrops.io", Selector: ".airdrop-item h3"},
		{Name: "CoinGecko", URL: "https://www.coingecko.com/en/airdrops", Selector: ".tw-font-medium"},
	}
}

// MustLoad функция для загрузки конфига из файла CONFIG_PATH и переменных окружения
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	return &cfg
}

// MinPayment возвращает минимальную сумму платежа.
func (t Tron) MinPayment() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(t.MinAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("min_amount: %w", err)
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("min_amount must be positive")
	}
	return d, nil
}

// ValidatePayments проверяет параметры, без которых нельзя принимать платежи.
func (c *Config) ValidatePayments() error {
	if err := tron.ValidateAddress(c.PayoutAddress); err != nil {
		return fmt.Errorf("payout_address: %w", err)
	}
	if c.TokenContract != "" {
		if err := tron.ValidateAddress(c.TokenContract); err != nil {
			return fmt.Errorf("token_contract: %w", err)
		}
	}
	if _, err := c.MinPayment(); err != nil {
		return err
	}
	if c.DurationDays <= 0 {
		return errors.New("duration_days must be positive")
	}
	return nil
}

// ValidateScheduler проверяет параметры обхода подписок.
func (c *Config) ValidateScheduler() error {
	if c.Interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	if c.FirstRunDelay < 0 {
		return errors.New("scheduler first_run_delay must not be negative")
	}
	if c.WarningLeadDays < 0 {
		return errors.New("warning_lead_days must not be negative")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage: %s\n"+
			"Redis: %s (db %d)\n"+
			"HTTPServer: %s timeout %s\n"+
			"RabbitMQ configured: %t\n"+
			"Tron: %s payout %s min %s timeout %s\n"+
			"Subscription: %d days, warn %d days\n"+
			"Scheduler: every %s, first after %s\n"+
			"Feed sources: %d\n",
		c.Env,
		c.Driver,
		c.AddressRedis, c.DB,
		c.AddressHTTP, c.TimeoutHTTP,
		c.RabbitMQURL != "",
		c.TronAPIURL, c.PayoutAddress, c.MinAmount, c.RequestTimeout,
		c.DurationDays, c.WarningLeadDays,
		c.Interval, c.FirstRunDelay,
		len(c.Sources),
	)
}

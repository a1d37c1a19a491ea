package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	OddsAPI     OddsAPIConfig   `mapstructure:"odds_api"`
	Arbitrage   ArbitrageConfig `mapstructure:"arbitrage"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Cleanup     CleanupConfig   `mapstructure:"cleanup"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OddsAPIConfig configures the upstream odds provider.
type OddsAPIConfig struct {
	BaseURL            string   `mapstructure:"base_url"`
	APIKey             string   `mapstructure:"api_key" json:"-" yaml:"-"`
	Regions            string   `mapstructure:"regions"`
	Markets            []string `mapstructure:"markets"`
	Timeout            int      `mapstructure:"timeout"`
	Sports             []string `mapstructure:"sports"`
	AllowedBooks       []string `mapstructure:"allowed_books"`
	CollectionInterval string   `mapstructure:"collection_interval"`
	Enabled            bool     `mapstructure:"enabled"`
}

// ArbitrageConfig drives the periodic detection pass.
type ArbitrageConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	CheckInterval      string  `mapstructure:"check_interval"`
	MinMarginPercent   float64 `mapstructure:"min_margin_percent"`
	AlertMarginPercent float64 `mapstructure:"alert_margin_percent"`
	DefaultStake       float64 `mapstructure:"default_stake"`
	RoundingPlaces     int32   `mapstructure:"rounding_places"`
	Workers            int     `mapstructure:"workers"`
	MinHoursAhead      float64 `mapstructure:"min_hours_ahead"`
	MaxQuoteAge        string  `mapstructure:"max_quote_age"`
	CacheTTL           string  `mapstructure:"cache_ttl"`
}

type TelegramConfig struct {
	BotToken      string `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatID        int64  `mapstructure:"chat_id"`
	AlertCooldown string `mapstructure:"alert_cooldown"`
}

type CleanupConfig struct {
	OddsRetentionHours     int `mapstructure:"odds_retention_hours"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// Load reads configuration from an optional .env file, config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets commonly arrive under their own names
	bindings := map[string]string{
		"security.jwt_secret":   "JWT_SECRET",
		"odds_api.api_key":      "ODDS_API_KEY",
		"telegram.bot_token":    "TELEGRAM_BOT_TOKEN",
		"database.database_url": "DATABASE_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that viper cannot type-check on its own.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "test" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	durations := map[string]string{
		"server.read_timeout":          c.Server.ReadTimeout,
		"server.write_timeout":         c.Server.WriteTimeout,
		"odds_api.collection_interval": c.OddsAPI.CollectionInterval,
		"arbitrage.check_interval":     c.Arbitrage.CheckInterval,
		"arbitrage.max_quote_age":      c.Arbitrage.MaxQuoteAge,
		"arbitrage.cache_ttl":          c.Arbitrage.CacheTTL,
		"telegram.alert_cooldown":      c.Telegram.AlertCooldown,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", key, value)
		}
	}

	if c.Arbitrage.RoundingPlaces < 0 || c.Arbitrage.RoundingPlaces > 8 {
		return fmt.Errorf("arbitrage rounding places must be between 0 and 8, got %d", c.Arbitrage.RoundingPlaces)
	}
	if c.Arbitrage.DefaultStake <= 0 {
		return fmt.Errorf("arbitrage default stake must be positive, got %v", c.Arbitrage.DefaultStake)
	}
	if c.Arbitrage.MinHoursAhead < 0 {
		return fmt.Errorf("arbitrage min hours ahead must not be negative, got %v", c.Arbitrage.MinHoursAhead)
	}

	return nil
}

// GetTimeout returns the provider request timeout, defaulting to 20s.
func (c OddsAPIConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// GetCollectionInterval returns the collection period, defaulting to 10m.
func (c OddsAPIConfig) GetCollectionInterval() time.Duration {
	return parseDurationOr(c.CollectionInterval, 10*time.Minute)
}

// GetCheckInterval returns the detection period, defaulting to 1m.
func (c ArbitrageConfig) GetCheckInterval() time.Duration {
	return parseDurationOr(c.CheckInterval, time.Minute)
}

// GetMaxQuoteAge returns the quote freshness limit. Zero disables the check.
func (c ArbitrageConfig) GetMaxQuoteAge() time.Duration {
	return parseDurationOr(c.MaxQuoteAge, 0)
}

// GetCacheTTL returns how long a detection pass stays cached, defaulting to 5m.
func (c ArbitrageConfig) GetCacheTTL() time.Duration {
	return parseDurationOr(c.CacheTTL, 5*time.Minute)
}

// GetAlertCooldown returns how long an opportunity stays muted after an alert.
func (c TelegramConfig) GetAlertCooldown() time.Duration {
	return parseDurationOr(c.AlertCooldown, 30*time.Minute)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "celebrum_odds")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Odds provider
	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.api_key", "")
	v.SetDefault("odds_api.regions", "us")
	v.SetDefault("odds_api.markets", []string{"h2h", "spreads", "totals"})
	v.SetDefault("odds_api.timeout", 20)
	v.SetDefault("odds_api.sports", []string{
		"baseball_mlb",
		"soccer_epl",
		"soccer_uefa_champs_league",
		"soccer_spain_la_liga",
		"soccer_germany_bundesliga",
		"soccer_france_ligue_one",
		"soccer_italy_serie_a",
		"soccer_usa_mls",
		"cricket_big_bash",
		"cricket_caribbean_premier_league",
		"cricket_the_hundred",
		"tennis_atp_us_open",
		"tennis_wta_us_open",
	})
	v.SetDefault("odds_api.allowed_books", []string{
		"DraftKings", "FanDuel", "BetRivers", "BetMGM", "theScore", "Bet365",
		"PointsBet", "Caesars", "888sport", "Sports Interaction", "BET99",
		"BetVictor", "TonyBet", "PowerPlay", "Tooniebet", "NorthStar Bets",
		"LeoVegas", "Rivalry", "STX", "PROLINE+",
	})
	v.SetDefault("odds_api.collection_interval", "10m")
	v.SetDefault("odds_api.enabled", false)

	// Arbitrage
	v.SetDefault("arbitrage.enabled", true)
	v.SetDefault("arbitrage.check_interval", "1m")
	v.SetDefault("arbitrage.min_margin_percent", 0.0)
	v.SetDefault("arbitrage.alert_margin_percent", 1.0)
	v.SetDefault("arbitrage.default_stake", 100.0)
	v.SetDefault("arbitrage.rounding_places", 2)
	// 0 sizes the detection pool from the host
	v.SetDefault("arbitrage.workers", 0)
	v.SetDefault("arbitrage.min_hours_ahead", 0.0)
	v.SetDefault("arbitrage.max_quote_age", "30m")
	v.SetDefault("arbitrage.cache_ttl", "5m")

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.alert_cooldown", "30m")

	// Cleanup
	v.SetDefault("cleanup.odds_retention_hours", 24)
	v.SetDefault("cleanup.cleanup_interval_minutes", 60)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "celebrum-odds")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", true)

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_issuer", "celebrum-odds")
}

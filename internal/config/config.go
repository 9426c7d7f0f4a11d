// Package config handles application configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines the structure for all application configuration.
type Config struct {
	Pair           string  `yaml:"pair"`
	ReferencePair  string  `yaml:"reference_pair"`
	APIBaseURL     string  `yaml:"api_base_url"`
	InitialBalance float64 `yaml:"initial_balance"`
	TradeFraction  float64 `yaml:"trade_fraction"`
	Interval       string  `yaml:"interval"`
	LookbackLimit  int     `yaml:"lookback_limit"`

	Strategy   StrategyConf   `yaml:"strategy"`
	Fibonacci  FibonacciConf  `yaml:"fibonacci"`
	Protection ProtectionConf `yaml:"protection"`

	UpdateIntervalMs      int `yaml:"update_interval_ms"`
	StatusIntervalMinutes int `yaml:"status_interval_minutes"`
	ReportIntervalMinutes int `yaml:"report_interval_minutes"`

	CSVExportPath string         `yaml:"csv_export_path"`
	DBWriter      DBWriterConfig `yaml:"db_writer"`

	LogLevel string         `yaml:"-"` // Loaded from env or defaults
	Database DatabaseConfig `yaml:"-"` // Loaded from env
}

// StrategyConf holds the EMA/RSI strategy parameters.
type StrategyConf struct {
	ShortEMAPeriod int     `yaml:"short_ema_period"`
	LongEMAPeriod  int     `yaml:"long_ema_period"`
	RSIPeriod      int     `yaml:"rsi_period"`
	RSIOverbought  float64 `yaml:"rsi_overbought"`
	RSIOversold    float64 `yaml:"rsi_oversold"`
}

// FibonacciConf holds the swing-detection and Fibonacci-level parameters.
type FibonacciConf struct {
	WindowSize    int     `yaml:"window_size"`
	EntryRatio    float64 `yaml:"entry_ratio"`
	NearThreshold float64 `yaml:"near_threshold"`
}

// ProtectionConf holds the percentage stop-loss/take-profit parameters
// used when no Fibonacci level set is available.
type ProtectionConf struct {
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
}

// DBWriterConfig holds configuration for the buffered database writer.
type DBWriterConfig struct {
	Enabled              FlexBool `yaml:"enabled"`
	BatchSize            int      `yaml:"batch_size"`
	WriteIntervalSeconds int      `yaml:"write_interval_seconds"`
}

// DatabaseConfig holds connection settings, loaded from environment variables.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL builds a postgres connection string from the settings.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		// Default values
		Pair:           "SOLBTC",
		ReferencePair:  "BTCUSDT",
		APIBaseURL:     "https://api.binance.com",
		InitialBalance: 1.0,
		TradeFraction:  0.1,
		Interval:       "1m",
		LookbackLimit:  100,
		Strategy: StrategyConf{
			ShortEMAPeriod: 9,
			LongEMAPeriod:  21,
			RSIPeriod:      14,
			RSIOverbought:  70,
			RSIOversold:    30,
		},
		Fibonacci: FibonacciConf{
			WindowSize:    20,
			EntryRatio:    0.618,
			NearThreshold: 0.005,
		},
		Protection: ProtectionConf{
			StopLossPct:   0.03,
			TakeProfitPct: 0.05,
		},
		UpdateIntervalMs:      5000,
		StatusIntervalMinutes: 15,
		ReportIntervalMinutes: 60,
		LogLevel:              "info",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
	}

	// Read YAML file
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, cfg)
	if err != nil {
		return nil, err
	}

	// Load sensitive data and overrides from environment variables
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		cfg.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Name = dbName
	}
	if sslMode := os.Getenv("DB_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pair == "" {
		return fmt.Errorf("pair must not be empty")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %v", c.InitialBalance)
	}
	if c.TradeFraction <= 0 || c.TradeFraction > 1 {
		return fmt.Errorf("trade_fraction must be in (0,1], got %v", c.TradeFraction)
	}
	if c.Strategy.ShortEMAPeriod <= 0 || c.Strategy.LongEMAPeriod <= 0 || c.Strategy.RSIPeriod <= 0 {
		return fmt.Errorf("EMA/RSI periods must be positive")
	}
	if c.Strategy.ShortEMAPeriod >= c.Strategy.LongEMAPeriod {
		return fmt.Errorf("short_ema_period (%d) must be smaller than long_ema_period (%d)",
			c.Strategy.ShortEMAPeriod, c.Strategy.LongEMAPeriod)
	}
	if c.Fibonacci.WindowSize <= 0 {
		return fmt.Errorf("fibonacci window_size must be positive, got %d", c.Fibonacci.WindowSize)
	}
	if c.LookbackLimit < c.Strategy.LongEMAPeriod {
		return fmt.Errorf("lookback_limit (%d) must be at least long_ema_period (%d)",
			c.LookbackLimit, c.Strategy.LongEMAPeriod)
	}
	return nil
}

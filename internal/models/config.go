package models

import "time"

// Config represents the application configuration
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Support  SupportConfig
	Reports  ReportsConfig
	Metrics  MetricsConfig
	LogLevel string
}

// APIConfig holds the CRM backend connection settings
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	CurrenciesFile string
}

// DatabaseConfig holds local database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// SupportConfig holds support ticket polling settings
type SupportConfig struct {
	PollInterval time.Duration
}

// ReportsConfig holds report download settings
type ReportsConfig struct {
	DownloadDir string
}

// MetricsConfig holds the optional prometheus listener
type MetricsConfig struct {
	Addr string
}

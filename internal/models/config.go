package models

import "time"

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Feed         FeedConfig
	BalanceSheet BalanceSheetConfig
	Recurring    RecurringConfig
	Server       ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// FeedConfig holds transaction insert feed settings
type FeedConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	SubscriberBuffer int
}

// BalanceSheetConfig holds facade, snapshot and auto-update settings
type BalanceSheetConfig struct {
	SettingsFile    string
	DefaultCurrency string
	Location        *time.Location
	ApplyMaxRetries int
}

// RecurringConfig holds recurring scheduler settings
type RecurringConfig struct {
	Interval time.Duration
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

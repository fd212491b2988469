package models

// MConfig Structure
type MConfig struct {
	Name        string           `yaml:"name"`
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port"`
	LogLevel    string           `yaml:"log_level"`
	Storage     MStorageConfig   `yaml:"storage"`
	Network     MNetworkConfig   `yaml:"network"`
	Feed        MFeedConfig      `yaml:"feed"`
	RuleDefault MRuleSet         `yaml:"rule_defaults"`
	Persistence MPersistenceTune `yaml:"persistence"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"` // snapshot history retention
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	RequestsPerSecond  float64  `yaml:"requests_per_second"`
	UserAgent          string   `yaml:"user_agent"`
}

type MFeedConfig struct {
	Name                  string `yaml:"name"`
	UpdateIntervalSeconds int    `yaml:"update_interval_seconds"`
	FreshnessMinutes      int    `yaml:"freshness_minutes"` // suppress re-fetch inside this window
	HistoryPoints         int    `yaml:"history_points"`    // per-code snapshot ring capacity
}

type MPersistenceTune struct {
	DebounceMillis int `yaml:"debounce_ms"` // rule-write coalescing window
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// PipelineConfig defines one processing run. It is an immutable value: the
// stages receive it by value and never mutate shared state, so multiple
// configurations can run from one process.
type PipelineConfig struct {
	// Source is a path, file://, http(s):// or s3:// reference to the scan.
	Source string

	// RawDir receives one PNG per output page; CropDir receives strips.
	RawDir  string
	CropDir string

	DPI int

	// Reorder applies the booklet signature mapping; off means pages are
	// emitted in document order.
	Reorder bool

	// Normalize cleans content streams with pdfcpu before rendering.
	Normalize bool

	// FullScan makes resumability check every expected artifact instead of
	// just the first one.
	FullScan bool

	// RulesFile points at a TOML crop rule table; empty selects the
	// built-in table.
	RulesFile string
}

// Config is the top-level configuration.
type Config struct {
	Pipeline    PipelineConfig
	MetricsAddr string
	Logging     LoggingConfig
	Axiom       AxiomConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Pipeline = PipelineConfig{
		Source:    getEnv("FINNLO_SOURCE", "3841.pdf"),
		RawDir:    getEnv("FINNLO_RAW_DIR", "out/pages"),
		CropDir:   getEnv("FINNLO_CROP_DIR", "out/crops"),
		DPI:       parseInt(getEnv("FINNLO_DPI", "300"), 300),
		Reorder:   parseBool(getEnv("FINNLO_REORDER", "true")),
		Normalize: parseBool(getEnv("FINNLO_NORMALIZE", "true")),
		FullScan:  parseBool(getEnv("FINNLO_FULL_SCAN", "false")),
		RulesFile: getEnv("FINNLO_RULES", ""),
	}

	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/finnlo-pdf.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_finnlo_pdf",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}

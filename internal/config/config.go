package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"appsales/internal/core"
)

// Output sink names accepted in OUTPUT_SINKS.
const (
	SinkFile   = "file"
	SinkSQLite = "sqlite"
	SinkSheets = "sheets"
)

var validSinks = []string{SinkFile, SinkSQLite, SinkSheets}

type Config struct {
	// Partner API
	APIURL       string
	AccessToken  string
	HTTPTimeout  time.Duration
	FetchTimeout time.Duration

	// Reporting period
	Year  int
	Month int

	// Outputs
	Sinks           []string
	OutputDir       string
	SummaryFileName string
	SQLiteDBPath    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string

	// unparsable REPORT_YEAR / REPORT_MONTH values, keyed by env name
	invalidEnv map[string]string
}

// Load reads the configuration from the environment. The reporting period
// defaults to the calendar month before now.
func Load() *Config {
	prev := core.PreviousPeriod(time.Now().UTC())

	cfg := &Config{
		APIURL:       strings.TrimSpace(getEnv("API_URL", "")),
		AccessToken:  strings.TrimSpace(getEnv("ACCESS_TOKEN", "")),
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 5*time.Minute),

		invalidEnv: map[string]string{},

		Sinks:           ParseSinks(getEnv("OUTPUT_SINKS", SinkFile)),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		SummaryFileName: getEnv("SUMMARY_FILE_NAME", "total.json"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/appsales.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "appsales"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_completed"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.Year, err = parseEnvInt("REPORT_YEAR", prev.Year); err != nil {
		cfg.invalidEnv["REPORT_YEAR"] = os.Getenv("REPORT_YEAR")
	}
	if cfg.Month, err = parseEnvInt("REPORT_MONTH", prev.Month); err != nil {
		cfg.invalidEnv["REPORT_MONTH"] = os.Getenv("REPORT_MONTH")
	}

	return cfg
}

// SetPeriod overrides the reporting period. A non-zero value replaces the
// environment value, including one that failed to parse.
func (c *Config) SetPeriod(year, month int) {
	if year != 0 {
		c.Year = year
		delete(c.invalidEnv, "REPORT_YEAR")
	}
	if month != 0 {
		c.Month = month
		delete(c.invalidEnv, "REPORT_MONTH")
	}
}

// Period returns the configured reporting period.
func (c *Config) Period() core.Period {
	return core.Period{Year: c.Year, Month: c.Month}
}

// HasSink reports whether the named output sink is enabled.
func (c *Config) HasSink(name string) bool {
	return slices.Contains(c.Sinks, name)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Partner API
	if c.APIURL == "" {
		errors = append(errors, "API_URL is required")
	} else if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.AccessToken == "" {
		errors = append(errors, "ACCESS_TOKEN is required")
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	}
	if c.FetchTimeout < c.HTTPTimeout {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must not be shorter than the HTTP timeout %v", c.FetchTimeout, c.HTTPTimeout))
	}

	for _, key := range []string{"REPORT_YEAR", "REPORT_MONTH"} {
		if raw, ok := c.invalidEnv[key]; ok {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an integer", key, raw))
		}
	}
	if err := c.Period().Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid reporting period %d-%d: %v", c.Year, c.Month, err))
	}

	// Outputs
	if len(c.Sinks) == 0 {
		errors = append(errors, fmt.Sprintf("at least one output sink is required: must be one of %v", validSinks))
	}
	for _, sink := range c.Sinks {
		if !slices.Contains(validSinks, sink) {
			errors = append(errors, fmt.Sprintf("invalid output sink '%s': must be one of %v", sink, validSinks))
		}
	}

	if c.HasSink(SinkFile) {
		if strings.TrimSpace(c.OutputDir) == "" {
			errors = append(errors, "output directory cannot be empty when using file sink")
		}
		name := strings.TrimSpace(c.SummaryFileName)
		if name == "" || name != filepath.Base(name) {
			errors = append(errors, fmt.Sprintf("invalid summary file name '%s': must be a plain file name", c.SummaryFileName))
		}
	}

	if c.HasSink(SinkSQLite) && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite sink")
	}

	if c.HasSink(SinkSheets) {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets sink")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets sink")
		}
		if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParseSinks splits a comma separated sink list, dropping blanks and duplicates.
func ParseSinks(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || slices.Contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseEnvInt returns defaultValue when key is unset and an error when it is
// set but not an integer.
func parseEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return i, nil
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Package config loads the scraper's runtime configuration from the
// environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	// ListingURL is the council page listing register PDFs. When set,
	// documents are discovered and downloaded from it; otherwise
	// Documents names local files.
	ListingURL string
	Documents  []string

	// InfoURL and CommentURL are recorded on every scraped record.
	// InfoURL defaults to the listing URL.
	InfoURL    string
	CommentURL string

	DatabasePath string

	StreetsPath  string
	SuffixesPath string
	SuburbsPath  string

	// OCRLanguages are the tesseract language codes, comma separated in
	// the environment.
	OCRLanguages string
	DPI          int

	HTTPTimeout       time.Duration
	RequestsPerMinute int

	LogLevel string
}

// Load reads configuration from environment variables, applying
// defaults.
func Load() (Config, error) {
	cfg := Config{
		ListingURL:        os.Getenv("SCRIBA_LISTING_URL"),
		InfoURL:           os.Getenv("SCRIBA_INFO_URL"),
		CommentURL:        os.Getenv("SCRIBA_COMMENT_URL"),
		DatabasePath:      getEnv("SCRIBA_DATABASE", "data.sqlite"),
		StreetsPath:       getEnv("SCRIBA_STREETS", "dictionaries/streets.csv"),
		SuffixesPath:      getEnv("SCRIBA_SUFFIXES", "dictionaries/suffixes.csv"),
		SuburbsPath:       getEnv("SCRIBA_SUBURBS", "dictionaries/suburbs.csv"),
		OCRLanguages:      getEnv("SCRIBA_OCR_LANGUAGES", "eng"),
		DPI:               getEnvAsInt("SCRIBA_DPI", 150),
		HTTPTimeout:       getEnvAsDuration("SCRIBA_HTTP_TIMEOUT", 60*time.Second),
		RequestsPerMinute: getEnvAsInt("SCRIBA_REQUESTS_PER_MINUTE", 12),
		LogLevel:          getEnv("SCRIBA_LOG_LEVEL", "info"),
	}
	if cfg.InfoURL == "" {
		cfg.InfoURL = cfg.ListingURL
	}
	if docs := os.Getenv("SCRIBA_DOCUMENTS"); docs != "" {
		cfg.Documents = splitList(docs)
	}
	if cfg.ListingURL == "" && len(cfg.Documents) == 0 {
		return Config{}, errors.New("set SCRIBA_LISTING_URL or SCRIBA_DOCUMENTS")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

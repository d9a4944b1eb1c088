// Package config defines the scraper configuration and secrets models and
// builds them from operator input.
package config

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Config is the root of the configuration artifact. Field names and
// nesting are read by the scraper service and must stay stable.
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Scraper ScraperConfig `toml:"scraper"`
}

// SearchConfig selects which listings the scraper looks at.
type SearchConfig struct {
	Category  string        `toml:"category"`
	Filters   FiltersConfig `toml:"filters"`
	Locations []string      `toml:"locations"`
}

// FiltersConfig bounds price and room count, both inclusive.
type FiltersConfig struct {
	MinPrice float64 `toml:"min_price"`
	MaxPrice float64 `toml:"max_price"`
	MinRooms int     `toml:"min_rooms"`
	MaxRooms int     `toml:"max_rooms"`
}

// ScraperConfig controls the work cycle. Interval and RetryDelay are in
// milliseconds.
type ScraperConfig struct {
	Interval   int64  `toml:"interval"`
	MaxRetries int    `toml:"max_retries"`
	RetryDelay int64  `toml:"retry_delay"`
	UserAgent  string `toml:"user_agent"`
}

// Secrets is the root of the secrets artifact.
type Secrets struct {
	Telegram *TelegramSecrets `yaml:"telegram,omitempty"`
}

// TelegramSecrets holds notification credentials. Both fields are set or
// neither is.
type TelegramSecrets struct {
	APIToken string `yaml:"api_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
}

// DefaultConfig returns the baseline offered as defaults during install.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			Category: "mietwohnungen",
			Filters: FiltersConfig{
				MinPrice: 500,
				MaxPrice: 1200,
				MinRooms: 2,
				MaxRooms: 5,
			},
			Locations: []string{
				"Wien, 02. Bezirk, Leopoldstadt",
				"Wien, 03. Bezirk, Landstraße",
				"Wien, 04. Bezirk, Wieden",
			},
		},
		Scraper: ScraperConfig{
			Interval:   180000,
			MaxRetries: 3,
			RetryDelay: 30000,
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0",
		},
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Search.Locations = append([]string(nil), c.Search.Locations...)
	return out
}

// Field names used in validation errors.
const (
	FieldCategory   = "search.category"
	FieldMinPrice   = "search.filters.min_price"
	FieldMaxPrice   = "search.filters.max_price"
	FieldMinRooms   = "search.filters.min_rooms"
	FieldMaxRooms   = "search.filters.max_rooms"
	FieldLocations  = "search.locations"
	FieldInterval   = "scraper.interval"
	FieldMaxRetries = "scraper.max_retries"
	FieldRetryDelay = "scraper.retry_delay"
	FieldUserAgent  = "scraper.user_agent"
	FieldAPIToken   = "telegram.api_token"
	FieldChatID     = "telegram.chat_id"
)

// ValidationError reports operator input that violates a field or
// cross-field invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every invariant and returns the first violation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Search.Category) == "" {
		return invalid(FieldCategory, "must not be empty")
	}
	if err := checkText(FieldCategory, c.Search.Category); err != nil {
		return err
	}
	f := c.Search.Filters
	if err := checkPrice(FieldMinPrice, f.MinPrice); err != nil {
		return err
	}
	if err := checkPrice(FieldMaxPrice, f.MaxPrice); err != nil {
		return err
	}
	if f.MinRooms < 0 {
		return invalid(FieldMinRooms, "must be a non-negative integer")
	}
	if f.MaxRooms < 0 {
		return invalid(FieldMaxRooms, "must be a non-negative integer")
	}
	if len(c.Search.Locations) == 0 {
		return invalid(FieldLocations, "at least one location is required")
	}
	for i, loc := range c.Search.Locations {
		if strings.TrimSpace(loc) == "" {
			return invalid(FieldLocations, "entry %d is blank", i)
		}
		if err := checkText(FieldLocations, loc); err != nil {
			return err
		}
	}
	if err := checkOrdering(f); err != nil {
		return err
	}
	return c.Scraper.Validate()
}

// Validate checks the scraper section.
func (s *ScraperConfig) Validate() error {
	if s.Interval <= 0 {
		return invalid(FieldInterval, "must be a positive number of milliseconds")
	}
	if s.MaxRetries < 0 {
		return invalid(FieldMaxRetries, "must be a non-negative integer")
	}
	if s.RetryDelay < 0 {
		return invalid(FieldRetryDelay, "must be a non-negative number of milliseconds")
	}
	if strings.TrimSpace(s.UserAgent) == "" {
		return invalid(FieldUserAgent, "must not be empty")
	}
	return checkText(FieldUserAgent, s.UserAgent)
}

func checkPrice(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid(field, "must be a non-negative number")
	}
	return nil
}

// checkText rejects bytes that are not UTF-8. Both artifact formats
// require UTF-8, so such input would be written but never read back.
func checkText(field, v string) error {
	if !utf8.ValidString(v) {
		return invalid(field, "%q is not valid UTF-8 text", v)
	}
	return nil
}

func checkOrdering(f FiltersConfig) error {
	if f.MinPrice > f.MaxPrice {
		return invalid(FieldMinPrice, "%v exceeds %s %v", f.MinPrice, FieldMaxPrice, f.MaxPrice)
	}
	if f.MinRooms > f.MaxRooms {
		return invalid(FieldMinRooms, "%d exceeds %s %d", f.MinRooms, FieldMaxRooms, f.MaxRooms)
	}
	return nil
}

// HasNotifications reports whether notification credentials are present.
func (s *Secrets) HasNotifications() bool {
	return s != nil && s.Telegram != nil && (s.Telegram.APIToken != "" || s.Telegram.ChatID != "")
}

// Validate enforces that credentials come as a pair.
func (s *Secrets) Validate() error {
	if s == nil || s.Telegram == nil {
		return nil
	}
	if err := checkText(FieldAPIToken, s.Telegram.APIToken); err != nil {
		return err
	}
	if err := checkText(FieldChatID, s.Telegram.ChatID); err != nil {
		return err
	}
	hasToken := s.Telegram.APIToken != ""
	hasChat := s.Telegram.ChatID != ""
	switch {
	case hasToken && !hasChat:
		return invalid(FieldChatID, "required when %s is set", FieldAPIToken)
	case hasChat && !hasToken:
		return invalid(FieldAPIToken, "required when %s is set", FieldChatID)
	}
	return nil
}

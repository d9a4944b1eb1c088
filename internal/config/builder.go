package config

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// InputSource supplies operator answers. Implementations may be an
// interactive terminal or a scripted list of answers.
type InputSource interface {
	// PromptText asks for a line of text. An empty answer selects def.
	PromptText(label, def string) (string, error)
	// PromptConfirm asks a yes/no question.
	PromptConfirm(label string) (bool, error)
}

// SecretPrompter is implemented by sources that can read a value without
// echoing it.
type SecretPrompter interface {
	PromptSecret(label string) (string, error)
}

// Prompt labels, in the order they are asked.
const (
	LabelCategory      = "Enter property category"
	LabelMinPrice      = "Minimum price"
	LabelMaxPrice      = "Maximum price"
	LabelMinRooms      = "Minimum rooms"
	LabelMaxRooms      = "Maximum rooms"
	LabelInterval      = "Scrape interval (ms)"
	LabelMaxRetries    = "Maximum retries"
	LabelRetryDelay    = "Retry delay (ms)"
	LabelUserAgent     = "User agent"
	LabelLocations     = "Enter locations (comma-separated)"
	LabelNotifications = "Do you want to set up Telegram notifications?"
	LabelAPIToken      = "Enter Telegram API Token"
	LabelChatID        = "Enter Telegram Chat ID"
)

// Builder turns operator answers into a validated Config and Secrets.
type Builder struct {
	baseline Config
	advanced bool
	warn     io.Writer
}

// NewBuilder creates a Builder that offers baseline values as defaults.
// When advanced is false the scraper section is copied from baseline
// without prompting. Warnings for the operator go to warn.
func NewBuilder(baseline Config, advanced bool, warn io.Writer) *Builder {
	if warn == nil {
		warn = io.Discard
	}
	return &Builder{baseline: baseline.Clone(), advanced: advanced, warn: warn}
}

// Build collects every field from src. It returns a *ValidationError on
// the first violated invariant; other errors come from src itself.
func (b *Builder) Build(src InputSource) (*Config, *Secrets, error) {
	cfg := b.baseline.Clone()
	f := &cfg.Search.Filters

	var err error
	if cfg.Search.Category, err = b.text(src, LabelCategory, cfg.Search.Category); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(cfg.Search.Category) == "" {
		return nil, nil, invalid(FieldCategory, "must not be empty")
	}
	cfg.Search.Category = strings.TrimSpace(cfg.Search.Category)
	if err := checkText(FieldCategory, cfg.Search.Category); err != nil {
		return nil, nil, err
	}

	if f.MinPrice, err = b.price(src, LabelMinPrice, FieldMinPrice, f.MinPrice); err != nil {
		return nil, nil, err
	}
	if f.MaxPrice, err = b.price(src, LabelMaxPrice, FieldMaxPrice, f.MaxPrice); err != nil {
		return nil, nil, err
	}
	if f.MinRooms, err = b.count(src, LabelMinRooms, FieldMinRooms, f.MinRooms); err != nil {
		return nil, nil, err
	}
	if f.MaxRooms, err = b.count(src, LabelMaxRooms, FieldMaxRooms, f.MaxRooms); err != nil {
		return nil, nil, err
	}

	if b.advanced {
		if err := b.scraper(src, &cfg.Scraper); err != nil {
			return nil, nil, err
		}
	}

	// Baseline entries may contain commas themselves, so an unchanged
	// default keeps the baseline list instead of being re-split.
	def := strings.Join(cfg.Search.Locations, ", ")
	raw, err := b.text(src, LabelLocations, def)
	if err != nil {
		return nil, nil, err
	}
	if raw != def || len(cfg.Search.Locations) == 0 {
		if cfg.Search.Locations, err = ParseLocations(raw); err != nil {
			return nil, nil, err
		}
	}

	if err := checkOrdering(*f); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	secrets, err := b.secrets(src)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, secrets, nil
}

func (b *Builder) scraper(src InputSource, s *ScraperConfig) error {
	interval, err := b.count(src, LabelInterval, FieldInterval, int(s.Interval))
	if err != nil {
		return err
	}
	if interval == 0 {
		return invalid(FieldInterval, "must be a positive number of milliseconds")
	}
	s.Interval = int64(interval)

	if s.MaxRetries, err = b.count(src, LabelMaxRetries, FieldMaxRetries, s.MaxRetries); err != nil {
		return err
	}

	delay, err := b.count(src, LabelRetryDelay, FieldRetryDelay, int(s.RetryDelay))
	if err != nil {
		return err
	}
	s.RetryDelay = int64(delay)

	ua, err := b.text(src, LabelUserAgent, s.UserAgent)
	if err != nil {
		return err
	}
	s.UserAgent = strings.TrimSpace(ua)
	return checkText(FieldUserAgent, s.UserAgent)
}

func (b *Builder) secrets(src InputSource) (*Secrets, error) {
	ok, err := src.PromptConfirm(LabelNotifications)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer for %q: %w", LabelNotifications, err)
	}
	if !ok {
		fmt.Fprintln(b.warn, "Warning: no Telegram notifications. Listings will be printed to the console.")
		return &Secrets{}, nil
	}

	var token string
	if sp, ok := src.(SecretPrompter); ok {
		token, err = sp.PromptSecret(LabelAPIToken)
	} else {
		token, err = src.PromptText(LabelAPIToken, "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read answer for %q: %w", LabelAPIToken, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid(FieldAPIToken, "required when notifications are enabled")
	}
	if err := checkText(FieldAPIToken, token); err != nil {
		return nil, err
	}

	chatID, err := b.text(src, LabelChatID, "")
	if err != nil {
		return nil, err
	}
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, invalid(FieldChatID, "required when notifications are enabled")
	}
	if err := checkText(FieldChatID, chatID); err != nil {
		return nil, err
	}

	return &Secrets{Telegram: &TelegramSecrets{APIToken: token, ChatID: chatID}}, nil
}

func (b *Builder) text(src InputSource, label, def string) (string, error) {
	v, err := src.PromptText(label, def)
	if err != nil {
		return "", fmt.Errorf("failed to read answer for %q: %w", label, err)
	}
	return v, nil
}

func (b *Builder) price(src InputSource, label, field string, def float64) (float64, error) {
	raw, err := b.text(src, label, strconv.FormatFloat(def, 'f', -1, 64))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(field, "%q is not a number", raw)
	}
	if v < 0 {
		return 0, invalid(field, "must be a non-negative number")
	}
	return v, nil
}

func (b *Builder) count(src InputSource, label, field string, def int) (int, error) {
	raw, err := b.text(src, label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid(field, "%q is not an integer", raw)
	}
	if v < 0 {
		return 0, invalid(field, "must be a non-negative integer")
	}
	return v, nil
}

// ParseLocations splits a comma-separated list, trims each entry and drops
// empty ones. An input with no remaining entries, or an entry that is not
// UTF-8, is a validation error.
func ParseLocations(raw string) ([]string, error) {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok == "" {
			continue
		}
		if err := checkText(FieldLocations, tok); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	if len(out) == 0 {
		return nil, invalid(FieldLocations, "at least one location is required")
	}
	return out, nil
}

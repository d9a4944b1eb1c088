package config

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"scrapersetup/internal/prompt"
)

func buildWith(t *testing.T, answers ...string) (*Config, *Secrets, error) {
	t.Helper()
	b := NewBuilder(DefaultConfig(), false, nil)
	return b.Build(prompt.NewScript(answers...))
}

func requireValidationError(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if ve.Field != field {
		t.Fatalf("expected field %q, got %q (%v)", field, ve.Field, ve)
	}
	return ve
}

func TestBuild_AllDefaults(t *testing.T) {
	var warn bytes.Buffer
	b := NewBuilder(DefaultConfig(), false, &warn)
	src := prompt.NewScript("", "", "", "", "", "", "n")

	cfg, secrets, err := b.Build(src)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := DefaultConfig()
	if !reflect.DeepEqual(*cfg, want) {
		t.Errorf("config mismatch:\n got %+v\nwant %+v", *cfg, want)
	}
	if secrets.HasNotifications() {
		t.Errorf("expected no credentials, got %+v", secrets.Telegram)
	}
	if !strings.Contains(warn.String(), "printed to the console") {
		t.Errorf("expected console fallback warning, got %q", warn.String())
	}

	wantAsked := []string{
		LabelCategory, LabelMinPrice, LabelMaxPrice, LabelMinRooms, LabelMaxRooms,
		LabelLocations, LabelNotifications,
	}
	if !reflect.DeepEqual(src.Asked, wantAsked) {
		t.Errorf("prompt order:\n got %v\nwant %v", src.Asked, wantAsked)
	}
}

func TestBuild_OverridesAndNotifications(t *testing.T) {
	cfg, secrets, err := buildWith(t,
		"haeuser", "300.5", "900", "1", "3", " Graz , Linz ,Salzburg ", "y", " 123:abc ", "-100042")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if cfg.Search.Category != "haeuser" {
		t.Errorf("category = %q", cfg.Search.Category)
	}
	f := cfg.Search.Filters
	if f.MinPrice != 300.5 || f.MaxPrice != 900 || f.MinRooms != 1 || f.MaxRooms != 3 {
		t.Errorf("filters = %+v", f)
	}
	if !reflect.DeepEqual(cfg.Search.Locations, []string{"Graz", "Linz", "Salzburg"}) {
		t.Errorf("locations = %q", cfg.Search.Locations)
	}
	if secrets.Telegram == nil || secrets.Telegram.APIToken != "123:abc" || secrets.Telegram.ChatID != "-100042" {
		t.Errorf("secrets = %+v", secrets.Telegram)
	}
	if cfg.Scraper != DefaultConfig().Scraper {
		t.Errorf("scraper section should come from the baseline, got %+v", cfg.Scraper)
	}
}

func TestBuild_PriceOrdering(t *testing.T) {
	tests := []struct {
		name    string
		min     string
		max     string
		wantErr bool
	}{
		{"equal", "700", "700", false},
		{"ascending", "0", "1200", false},
		{"descending", "1200.01", "1200", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildWith(t, "", tt.min, tt.max, "", "", "", "n")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve := requireValidationError(t, err, FieldMinPrice)
			if !strings.Contains(ve.Error(), FieldMaxPrice) {
				t.Errorf("error should name both price fields: %v", ve)
			}
		})
	}
}

func TestBuild_RoomOrdering(t *testing.T) {
	if _, _, err := buildWith(t, "", "", "", "4", "4", "", "n"); err != nil {
		t.Fatalf("equal room counts should be accepted: %v", err)
	}

	_, _, err := buildWith(t, "", "", "", "5", "2", "", "n")
	ve := requireValidationError(t, err, FieldMinRooms)
	if !strings.Contains(ve.Error(), FieldMaxRooms) {
		t.Errorf("error should name both room fields: %v", ve)
	}
}

func TestBuild_PriceCheckedBeforeRooms(t *testing.T) {
	_, _, err := buildWith(t, "", "900", "100", "5", "2", "", "n")
	requireValidationError(t, err, FieldMinPrice)
}

func TestBuild_LocationsCheckedBeforeOrdering(t *testing.T) {
	_, _, err := buildWith(t, "", "900", "100", "", "", " , ,", "n")
	requireValidationError(t, err, FieldLocations)
}

func TestBuild_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		field   string
	}{
		{"price not a number", []string{"", "cheap"}, FieldMinPrice},
		{"negative price", []string{"", "", "-1"}, FieldMaxPrice},
		{"infinite price", []string{"", "Inf"}, FieldMinPrice},
		{"rooms not an integer", []string{"", "", "", "2.5"}, FieldMinRooms},
		{"negative rooms", []string{"", "", "", "", "-3"}, FieldMaxRooms},
		{"blank category", []string{"   "}, FieldCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildWith(t, tt.answers...)
			requireValidationError(t, err, tt.field)
		})
	}
}

func TestBuild_CredentialsRequiredWhenAccepted(t *testing.T) {
	_, _, err := buildWith(t, "", "", "", "", "", "", "y", "  ", "42")
	requireValidationError(t, err, FieldAPIToken)

	_, _, err = buildWith(t, "", "", "", "", "", "", "y", "token", " ")
	requireValidationError(t, err, FieldChatID)
}

func TestBuild_InputErrorIsNotValidation(t *testing.T) {
	_, _, err := buildWith(t, "", "")
	if err == nil {
		t.Fatal("expected error when input runs out")
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Errorf("input exhaustion should not be a validation error: %v", err)
	}
	if !errors.Is(err, prompt.ErrNoInput) {
		t.Errorf("expected ErrNoInput in chain, got %v", err)
	}
}

func TestBuild_AdvancedPromptsScraperSection(t *testing.T) {
	b := NewBuilder(DefaultConfig(), true, nil)
	src := prompt.NewScript("", "", "", "", "", "60000", "5", "1000", "test-agent/1.0", "Wien", "n")

	cfg, _, err := b.Build(src)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := ScraperConfig{Interval: 60000, MaxRetries: 5, RetryDelay: 1000, UserAgent: "test-agent/1.0"}
	if cfg.Scraper != want {
		t.Errorf("scraper = %+v, want %+v", cfg.Scraper, want)
	}

	_, _, err = NewBuilder(DefaultConfig(), true, nil).Build(prompt.NewScript("", "", "", "", "", "0"))
	requireValidationError(t, err, FieldInterval)
}

func TestBuild_AlternateBaseline(t *testing.T) {
	base := DefaultConfig()
	base.Search.Category = "eigentumswohnungen"
	base.Search.Locations = []string{"Innsbruck"}

	cfg, _, err := NewBuilder(base, false, nil).Build(prompt.NewScript("", "", "", "", "", "", "n"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.Search.Category != "eigentumswohnungen" || !reflect.DeepEqual(cfg.Search.Locations, []string{"Innsbruck"}) {
		t.Errorf("baseline not used: %+v", cfg.Search)
	}
}

func TestBuild_DoesNotMutateBaseline(t *testing.T) {
	base := DefaultConfig()
	b := NewBuilder(base, false, nil)
	if _, _, err := b.Build(prompt.NewScript("", "", "", "", "", "Graz", "n")); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(base, DefaultConfig()) {
		t.Error("baseline was mutated")
	}
}

func TestParseLocations(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{" A , B ,C ", []string{"A", "B", "C"}, false},
		{"Wien", []string{"Wien"}, false},
		{"A,,B,", []string{"A", "B"}, false},
		{" , , ", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseLocations(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLocations(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLocations(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseLocations(%q) = %q, want %q", tt.input, got, tt.want)
		}
		again, _ := ParseLocations(strings.Join(got, ","))
		if !reflect.DeepEqual(again, got) {
			t.Errorf("re-parsing %q is not idempotent: %q", got, again)
		}
	}
}

func TestBuild_RejectsTextThatIsNotUTF8(t *testing.T) {
	tests := []struct {
		name     string
		advanced bool
		answers  []string
		field    string
	}{
		{"category", false, []string{"\xff\xfe"}, FieldCategory},
		{"location", false, []string{"", "", "", "", "", "Wien, Landstra\xdfe"}, FieldLocations},
		{"user agent", true, []string{"", "", "", "", "", "", "", "", "agent\xff"}, FieldUserAgent},
		{"api token", false, []string{"", "", "", "", "", "", "y", "123:\xe4bc", "-100042"}, FieldAPIToken},
		{"chat id", false, []string{"", "", "", "", "", "", "y", "123:abc", "\xad100042"}, FieldChatID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(DefaultConfig(), tt.advanced, nil)
			_, _, err := b.Build(prompt.NewScript(tt.answers...))
			requireValidationError(t, err, tt.field)
		})
	}
}

func TestBuild_AcceptsUTF8Umlauts(t *testing.T) {
	cfg, _, err := buildWith(t, "", "", "", "", "", "Wien, Landstraße ,Mödling", "n")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []string{"Wien", "Landstraße", "Mödling"}
	if !reflect.DeepEqual(cfg.Search.Locations, want) {
		t.Errorf("locations = %q, want %q", cfg.Search.Locations, want)
	}
}

package deck

import (
	"strings"
	"testing"
	"time"
)

func TestStarRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value float64
		want  string
	}{
		{0, "☆☆☆☆☆"},
		{-1, "☆☆☆☆☆"},
		{0.3, "⯨☆☆☆☆"},
		{2.5, "★★⯨☆☆"},
		{3.7, "★★★⯨☆"}, // rounds to 3.5
		{4.8, "★★★★★"}, // rounds to 5
		{5, "★★★★★"},
		{6, "★★★★★"},
	}
	for _, tt := range tests {
		if got := StarRating(tt.value); got != tt.want {
			t.Errorf("StarRating(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func at(hhmm string) time.Time {
	tm, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return tm
}

func TestOpenStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		open, clos string
		now        time.Time
		wantStatus string
		wantOpen   bool
	}{
		{"missing opening", "", "22:00", at("12:00"), "Open 24/7", true},
		{"missing closing", "09:00", "", at("12:00"), "Open 24/7", true},
		{"equal times", "09:00", "09:00", at("03:00"), "Open 24/7", true},
		{"daytime open", "09:00", "17:00", at("12:00"), "Open", true},
		{"daytime closed", "09:00", "17:00", at("18:00"), "Closed", false},
		{"closes on the dot", "09:00", "17:00", at("17:00"), "Closed", false},
		{"overnight late", "22:00", "02:00", at("23:30"), "Open", true},
		{"overnight early", "22:00", "02:00", at("01:00"), "Open", true},
		{"overnight closed", "22:00", "02:00", at("10:00"), "Closed", false},
		{"seconds suffix", "09:00:00", "17:00:00", at("12:00"), "Open", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, open := OpenStatus(tt.open, tt.clos, tt.now)
			if status != tt.wantStatus || open != tt.wantOpen {
				t.Fatalf("OpenStatus(%q, %q, %s) = (%q, %v), want (%q, %v)",
					tt.open, tt.clos, tt.now.Format("15:04"), status, open, tt.wantStatus, tt.wantOpen)
			}
		})
	}
}

func TestFormatPriceRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"RM10.00 - RM20.00", "RM10 - RM20"},
		{"RM5.00", "RM5"},
		{"RM12.50 - RM30", "RM12.50 - RM30"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatPriceRange(tt.raw); got != tt.want {
			t.Errorf("FormatPriceRange(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMapURL(t *testing.T) {
	t.Parallel()

	url, ok := MapURL("4.3828, 100.9744", "test-key")
	if !ok {
		t.Fatal("expected a URL")
	}
	if !strings.Contains(url, "key=test-key") || !strings.Contains(url, "4.3828") {
		t.Fatalf("unexpected URL: %s", url)
	}

	if _, ok := MapURL("4.3828, 100.9744", ""); ok {
		t.Fatal("missing API key should yield no URL")
	}
	if _, ok := MapURL("4.3828", "test-key"); ok {
		t.Fatal("missing longitude should yield no URL")
	}
	if _, ok := MapURL("", "test-key"); ok {
		t.Fatal("empty location should yield no URL")
	}
}

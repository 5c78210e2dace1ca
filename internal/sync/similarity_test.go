package sync

import (
	"testing"
	"time"
)

func TestTokenCosine(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}{
		{"identical", "Bayer Leverkusen", "Bayer Leverkusen", 1, 1},
		{"extra token", "Bayer 04 Leverkusen", "Bayer Leverkusen", 0.75, 0.99},
		{"case and punctuation", "REAL-MADRID", "Real Madrid", 1, 1},
		{"accents", "Atlético Madrid", "Atletico Madrid", 1, 1},
		{"disjoint", "Real Madrid", "Bayer Leverkusen", 0, 0},
		{"empty left", "", "Bayer Leverkusen", 0, 0},
		{"both empty", "", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenCosine(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("TokenCosine(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestNormalizeTeamName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FC Barcelona", "barcelona"},
		{"Barcelona", "barcelona"},
		{"Liverpool FC", "liverpool"},
		{"Olympique de Marseille", "marseille"},
		{"1. FC Köln", "fc koln"},
		{"Arsenal Women", "arsenal"},
		{"Ajax U21", "ajax"},
		{"  Real   Madrid  ", "real madrid"},
	}

	for _, tt := range tests {
		if got := NormalizeTeamName(tt.in); got != tt.want {
			t.Errorf("NormalizeTeamName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsNormalized(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"surname in full name", "Messi", "Lionel Messi", true},
		{"reversed direction", "Lionel Messi", "Messi", true},
		{"diacritics", "Müller", "Thomas Muller", true},
		{"no overlap", "Messi", "Ronaldo", false},
		{"single letter ignored", "M", "Lionel Messi", false},
		{"empty", "", "Lionel Messi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsNormalized(tt.a, tt.b); got != tt.want {
				t.Errorf("ContainsNormalized(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDateWithin(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		b    time.Time
		days int
		want bool
	}{
		{"same day", base, 0, true},
		{"two days later within three", base.AddDate(0, 0, 2), 3, true},
		{"three days earlier", base.AddDate(0, 0, -3), 3, true},
		{"four days out", base.AddDate(0, 0, 4), 3, false},
		{"one day window", base.AddDate(0, 0, 1), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateWithin(base, tt.b, tt.days); got != tt.want {
				t.Errorf("DateWithin(%v, %v, %d) = %v, want %v", base, tt.b, tt.days, got, tt.want)
			}
		})
	}
}

func TestDateSwappedEqual(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want bool
	}{
		{
			"day month swapped",
			time.Date(1994, 5, 3, 0, 0, 0, 0, time.UTC),
			time.Date(1994, 3, 5, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"identical symmetric date",
			time.Date(1994, 4, 4, 0, 0, 0, 0, time.UTC),
			time.Date(1994, 4, 4, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"day above twelve",
			time.Date(1994, 5, 17, 0, 0, 0, 0, time.UTC),
			time.Date(1994, 17, 5, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"plain mismatch",
			time.Date(1994, 5, 3, 0, 0, 0, 0, time.UTC),
			time.Date(1994, 6, 3, 0, 0, 0, 0, time.UTC),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateSwappedEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("DateSwappedEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestSlugify(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic", input: "Lo-Fi", want: "lo-fi"},
		{name: "spaces collapse", input: "  Jazz   Hop  ", want: "jazz-hop"},
		{name: "punctuation stripped", input: "rock & roll!", want: "rock-roll"},
		{name: "accents dropped", input: "Café Musique", want: "cafe-musique"},
		{name: "hyphen runs", input: "city -- pop", want: "city-pop"},
		{name: "trim separators", input: "_-ambient-_", want: "ambient"},
		{name: "underscore kept inside", input: "chill_wave", want: "chill_wave"},
		{name: "non ascii only", input: "日本語", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashSlug(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := HashSlug("日本語", HashSlugLength)
		b := HashSlug("日本語", HashSlugLength)
		if a != b {
			t.Errorf("expected identical hashes, got %q and %q", a, b)
		}
		if len(a) != HashSlugLength {
			t.Errorf("expected length %d, got %d", HashSlugLength, len(a))
		}
	})

	t.Run("known digest", func(t *testing.T) {
		// sha256("abc")
		if got := HashSlug("abc", 16); got != "ba7816bf8f01cfea" {
			t.Errorf("unexpected digest prefix %q", got)
		}
	})

	t.Run("full digest for out of range length", func(t *testing.T) {
		if got := HashSlug("abc", 0); len(got) != 64 {
			t.Errorf("expected full digest, got %d chars", len(got))
		}
	})

	t.Run("SlugOrHash", func(t *testing.T) {
		if got := SlugOrHash("Hip-Hop"); got != "hip-hop" {
			t.Errorf("expected slug, got %q", got)
		}
		if got := SlugOrHash("ローファイ"); got != HashSlug("ローファイ", HashSlugLength) {
			t.Errorf("expected hash fallback, got %q", got)
		}
	})
}

func TestParseISODuration(t *testing.T) {
	tc := []struct {
		input string
		want  time.Duration
	}{
		{"PT4M13S", 4*time.Minute + 13*time.Second},
		{"PT1H", time.Hour},
		{"PT1H2S", time.Hour + 2*time.Second},
		{"P1DT2H3M", 26*time.Hour + 3*time.Minute},
		{"P0D", 0},
		{"P2W", 14 * 24 * time.Hour},
		{"PT0.5S", 500 * time.Millisecond},
		{"PT10H32M7S", 10*time.Hour + 32*time.Minute + 7*time.Second},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseISODuration(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseISODuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	for _, input := range []string{"", "P", "4M13S", "P1Y", "P2M", "PT1.5M", "PT9999999999H", "P99999999999W"} {
		t.Run("invalid "+input, func(t *testing.T) {
			if _, err := ParseISODuration(input); !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("ParseISODuration(%q) error = %v, want %v", input, err, ErrInvalidDuration)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("NewConfiguredLogger applies level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewConfiguredLogger(LoggingConfig{Level: "WARN"}, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		logger.Info("hidden")
		logger.Warn("shown")
		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("NewConfiguredLogger rejects unknown level", func(t *testing.T) {
		if _, err := NewConfiguredLogger(LoggingConfig{Level: "loud"}, &bytes.Buffer{}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected %v, got %v", ErrInvalidConfig, err)
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc")
		logger.Info("tick")
		if !strings.Contains(buf.String(), "run=abc") {
			t.Errorf("expected run field in output, got %q", buf.String())
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		if a, b := GenerateID(), GenerateID(); a == b || len(a) != 36 {
			t.Errorf("unexpected ids %q %q", a, b)
		}
	})
}

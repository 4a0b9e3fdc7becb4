package naming_test

import (
	"path/filepath"
	"strings"
	"testing"

	"pixship/internal/naming"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "My Photo #1", want: "My-Photo-1"},
		{in: "IMG_2024-01-14", want: "IMG_2024-01-14"},
		{in: "a   b\tc", want: "a-b-c"},
		{in: " leading", want: "-leading"},
		{in: "café.jpg", want: "cafjpg"},
		{in: "!!!", want: ""},
		{in: "a\ufeffb", want: "a-b"},
		{in: "a\u00a0\u3000b", want: "a-b"},
	}
	for _, tt := range tests {
		if got := naming.Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeStemOfFileName(t *testing.T) {
	file := "My Photo #1.png"
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	if got := naming.Sanitize(stem); got != "My-Photo-1" {
		t.Fatalf("unexpected sanitized name %q", got)
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, in := range []string{"My Photo #1", "  x  y ", "Ünïcødé name", "a-b_c"} {
		once := naming.Sanitize(in)
		if twice := naming.Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNamerTransliterate(t *testing.T) {
	plain := naming.Namer{}
	if got := plain.Name("Café Crème"); got != "Caf-Crme" {
		t.Fatalf("plain namer = %q", got)
	}
	folded := naming.Namer{Transliterate: true}
	if got := folded.Name("Café Crème"); got != "Cafe-Creme" {
		t.Fatalf("transliterating namer = %q", got)
	}
}

func TestURLBuilder(t *testing.T) {
	tests := []struct {
		name    string
		builder naming.URLBuilder
		want    string
	}{
		{
			name:    "default prefix",
			builder: naming.URLBuilder{BaseURL: "https://example.test", PathPrefix: "TMP_news/images", Extension: "webp"},
			want:    "https://example.test/TMP_news/images/foo.webp",
		},
		{
			name:    "slashes normalized",
			builder: naming.URLBuilder{BaseURL: "https://example.test/", PathPrefix: "/TMP_news/images/", Extension: ".webp"},
			want:    "https://example.test/TMP_news/images/foo.webp",
		},
		{
			name:    "no prefix",
			builder: naming.URLBuilder{BaseURL: "https://example.test", Extension: "webp"},
			want:    "https://example.test/foo.webp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.builder.Build("foo"); got != tt.want {
				t.Fatalf("Build = %q, want %q", got, tt.want)
			}
		})
	}
}

package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalizerFallsBackToEnglishThenKey(t *testing.T) {
	c := Default()
	ta := c.Localizer(Tamil)

	if got := ta.T("livestream.notification.live.now"); got != "இப்போது நேரலை" {
		t.Fatalf("unexpected tamil string %q", got)
	}
	if got := ta.T("prayer.request.phone"); got != "+91 00000 00000" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := ta.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestUnknownLanguageUsesEnglish(t *testing.T) {
	l := Default().Localizer("fr")
	if l.Lang() != English {
		t.Fatalf("expected en, got %q", l.Lang())
	}
	if got := l.T("livestream.notification.watching"); got != "watching" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestCompactClasses(t *testing.T) {
	c := Default()
	en := c.Localizer(English)
	ta := c.Localizer(Tamil)

	if en.Compact() || !ta.Compact() {
		t.Fatal("only tamil should be compact")
	}
	if got := en.TextClass("text-xs"); got != "text-xs" {
		t.Fatalf("unexpected english class %q", got)
	}
	if got := ta.TextClass("text-xs"); got != "text-xs tamil-text text-sm leading-relaxed" {
		t.Fatalf("unexpected tamil text class %q", got)
	}
	if got := ta.ButtonClass(""); got != "tamil-button text-xs px-2 py-1" {
		t.Fatalf("unexpected tamil button class %q", got)
	}
	if got := ta.TitleClass("font-semibold"); got != "font-semibold tamil-heading text-sm font-semibold leading-tight" {
		t.Fatalf("unexpected tamil title class %q", got)
	}
}

func TestMatch(t *testing.T) {
	c := Default()
	cases := []struct {
		accept, explicit, want string
	}{
		{"", "", English},
		{"ta-IN,ta;q=0.9,en;q=0.8", "", Tamil},
		{"fr-FR", "", English},
		{"ta", "en", English},
		{"en-US", "TA", Tamil},
		{"en-US", "de", English},
	}
	for _, tc := range cases {
		if got := c.Match(tc.accept, tc.explicit); got != tc.want {
			t.Fatalf("Match(%q, %q) = %q, want %q", tc.accept, tc.explicit, got, tc.want)
		}
	}
}

func TestNumberGrouping(t *testing.T) {
	if got := Default().Localizer(English).Number(1234); got != "1,234" {
		t.Fatalf("unexpected grouping %q", got)
	}
	if got := Default().Localizer(English).Number(42); got != "42" {
		t.Fatalf("unexpected number %q", got)
	}
}

func TestLoadOverlaysDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"prayer.request.phone":"+91 12345 67890"}`), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	en := c.Localizer(English)
	if got := en.T("prayer.request.phone"); got != "+91 12345 67890" {
		t.Fatalf("expected overlay value, got %q", got)
	}
	if got := en.T("prayer.request.title"); got != "Prayer Request" {
		t.Fatalf("expected embedded value to survive overlay, got %q", got)
	}
}

func TestOptionsListEnglishFirst(t *testing.T) {
	opts := Default().Options()
	if len(opts) != 2 || opts[0].Value != English || opts[1].Label != "தமிழ்" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestSetDefaultChangesUnmatchedLanguage(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.SetDefault("TA"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	if got := c.Match("fr-FR", ""); got != Tamil {
		t.Fatalf("expected unmatched header to use tamil, got %q", got)
	}
	if got := c.Match("en-US", ""); got != English {
		t.Fatalf("expected a supported header to win, got %q", got)
	}
	l := c.Localizer("de")
	if l.Lang() != Tamil {
		t.Fatalf("expected tamil localizer, got %q", l.Lang())
	}
	if got := l.T("prayer.request.phone"); got != "+91 00000 00000" {
		t.Fatalf("expected english key fallback, got %q", got)
	}
	if err := c.SetDefault("fr"); err == nil {
		t.Fatal("expected unsupported default to be rejected")
	}
	if c.DefaultLanguage() != Tamil {
		t.Fatalf("rejected default replaced the previous one: %q", c.DefaultLanguage())
	}
}

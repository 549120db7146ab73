package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestDefaultTagIsEnglish(t *testing.T) {
	if DefaultTag() != language.AmericanEnglish {
		t.Fatalf("expected en-US default, got %v", DefaultTag())
	}
}

func TestParseTagSupported(t *testing.T) {
	tag, ok := ParseTag("pt-BR")
	if !ok {
		t.Fatal("expected pt-BR to be supported")
	}
	if tag != language.BrazilianPortuguese {
		t.Fatalf("expected pt-BR tag, got %v", tag)
	}
}

func TestParseTagInvalid(t *testing.T) {
	tag, ok := ParseTag("not a tag")
	if ok {
		t.Fatal("expected invalid tag to be rejected")
	}
	if tag != DefaultTag() {
		t.Fatalf("expected default fallback, got %v", tag)
	}
}

func TestMatchFallsBackToDefault(t *testing.T) {
	if got := Match(""); got != DefaultTag() {
		t.Fatalf("expected default for empty value, got %v", got)
	}
	if got := Match("pt"); got != language.BrazilianPortuguese {
		t.Fatalf("expected pt to match pt-BR, got %v", got)
	}
}

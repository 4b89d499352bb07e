package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "survey.prefix"); got != "Survey #" {
		t.Fatalf("fallback to en failed: %s", got)
	}
}

func TestT_Turkish(t *testing.T) {
	if got := T("tr", "customer.unnamed"); got != "İsimsiz müşteri" {
		t.Fatalf("tr label: %s", got)
	}
}

func TestT_UnknownKey(t *testing.T) {
	if got := T("en", "nope.missing"); got != "nope.missing" {
		t.Fatalf("unknown key should echo, got %s", got)
	}
}

func TestT_AllLocalesCoverEnglishKeys(t *testing.T) {
	for _, loc := range SupportedLocales {
		for key := range translations["en"] {
			if _, ok := translations[loc][key]; !ok {
				t.Fatalf("locale %s missing key %s", loc, key)
			}
		}
	}
}

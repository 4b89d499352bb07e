package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// DetermineLocale picks the locale from an explicit query param, then the
// Accept-Language header (highest q first), then def, then the first
// supported locale. Supported values are base languages like "en", "tr".
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	sup := map[string]struct{}{}
	for _, s := range supported {
		sup[strings.ToLower(s)] = struct{}{}
	}

	pick := func(lang string) (string, bool) {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return "", false
		}
		l := strings.ToLower(lang)
		if _, ok := sup[l]; ok {
			return l, true
		}
		tag, err := language.Parse(lang)
		if err != nil {
			return "", false
		}
		base, _ := tag.Base()
		if _, ok := sup[base.String()]; ok {
			return base.String(), true
		}
		return "", false
	}

	if v, ok := pick(queryLang); ok {
		return v
	}
	if acceptLang != "" {
		// tags come back ordered by descending q
		tags, _, err := language.ParseAcceptLanguage(acceptLang)
		if err == nil {
			for _, tag := range tags {
				if v, ok := pick(tag.String()); ok {
					return v
				}
			}
		}
	}
	if v, ok := pick(def); ok {
		return v
	}
	if len(supported) > 0 {
		return strings.ToLower(supported[0])
	}
	return "en"
}

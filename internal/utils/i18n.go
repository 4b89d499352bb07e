package utils

// Labels shown in place of data the backend failed to provide.
// UI copy lives in the frontend; only fallbacks are kept here.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":        "ok",
		"customer.none":    "No customer info",
		"customer.unnamed": "Unnamed customer",
		"customer.prefix":  "Customer #",
		"survey.prefix":    "Survey #",
		"survey.unknown":   "Unknown survey",
		"question.prefix":  "Question #",
		"question.unknown": "Unknown question",
	},
	"tr": {
		"health.ok":        "tamam",
		"customer.none":    "Müşteri bilgisi yok",
		"customer.unnamed": "İsimsiz müşteri",
		"customer.prefix":  "Müşteri #",
		"survey.prefix":    "Anket #",
		"survey.unknown":   "Bilinmeyen anket",
		"question.prefix":  "Soru #",
		"question.unknown": "Bilinmeyen soru",
	},
}

// SupportedLocales lists the locales with a translation table.
var SupportedLocales = []string{"en", "tr"}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

package hudoc

import (
	"strconv"
	"strings"
)

const (
	importanceHigh   = 1
	importanceMedium = 2
	importanceLow    = 3
)

// MapImportance collapses HUDOC's four importance levels into three; levels
// 3 and 4 both become low. Missing, non-numeric or unknown levels are low.
func MapImportance(level string) int {
	n, err := strconv.Atoi(strings.TrimSpace(level))
	if err != nil {
		return importanceLow
	}

	switch n {
	case 1:
		return importanceHigh
	case 2:
		return importanceMedium
	default:
		return importanceLow
	}
}

var docTypes = map[string]string{
	"HEJUD": "sentencia_tedh",
	"HFJUD": "sentencia_tedh",
	"HEDEC": "decision_tedh",
	"HFDEC": "decision_tedh",
	"HEADV": "opinion_consultiva_tedh",
	"ADVOP": "opinion_consultiva_tedh",
}

// MapDocType maps a HUDOC document type code to a resolution type.
func MapDocType(code string) string {
	if t, ok := docTypes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return t
	}
	return "resolucion_tedh"
}

var languages = map[string]string{
	"ENG": "en",
	"FRE": "fr",
	"FRA": "fr",
	"SPA": "es",
	"GER": "de",
	"DEU": "de",
	"ITA": "it",
	"POR": "pt",
	"RUS": "ru",
	"TUR": "tr",
}

// LanguageCode maps an ISO 639-2 code to its two-letter form. Two-letter
// input passes through lowercased; anything else yields "".
func LanguageCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if l, ok := languages[c]; ok {
		return l
	}
	if len(c) == 2 {
		return strings.ToLower(c)
	}
	return ""
}

// Articles renders HUDOC's semicolon-separated convention articles as a
// comma-separated list.
func Articles(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

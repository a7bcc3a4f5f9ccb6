package cendoj

import "strings"

var courts = map[string]string{
	"STS":  "Tribunal Supremo",
	"SAN":  "Audiencia Nacional",
	"STSJ": "Tribunal Superior de Justicia",
	"SAP":  "Audiencia Provincial",
}

const unknownCourt = "Poder Judicial"

// prefix returns the ROJ court prefix with orders (A-prefixed codes) folded
// onto their judgment code, and whether the reference is an order.
func prefix(roj string) (string, bool) {
	code, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(roj)), " ")
	if strings.HasPrefix(code, "A") && len(code) > 1 {
		return "S" + code[1:], true
	}
	return code, false
}

// InferCourt derives the issuing court from a ROJ reference such as
// "STS 1234/2024" or "AAP 12/2023".
func InferCourt(roj string) string {
	code, _ := prefix(roj)
	if c, ok := courts[code]; ok {
		return c
	}
	return unknownCourt
}

// ResolutionType is "auto" for order references and "sentencia" otherwise.
func ResolutionType(roj string) string {
	if _, isOrder := prefix(roj); isOrder {
		return "auto"
	}
	return "sentencia"
}

var jurisdictions = []struct {
	needle string
	tag    string
}{
	{"civil", "civil"},
	{"penal", "penal"},
	{"contencioso", "contencioso"},
	{"social", "social"},
	{"militar", "militar"},
}

// MapJurisdiction maps the order named in the listing to a jurisdiction tag.
func MapJurisdiction(order string) string {
	o := strings.ToLower(order)
	for _, j := range jurisdictions {
		if strings.Contains(o, j.needle) {
			return j.tag
		}
	}
	return "general"
}

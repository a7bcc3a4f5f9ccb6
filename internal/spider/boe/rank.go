package boe

import "strings"

// rankRule maps a substring of the normative rank to a resolution type.
// Order matters: specific ranks precede the generic ones they contain.
type rankRule struct {
	needles []string
	kind    string
}

var rankRules = []rankRule{
	{[]string{"ley orgánica", "ley organica"}, "ley_organica"},
	{[]string{"real decreto-ley", "real decreto ley"}, "real_decreto_ley"},
	{[]string{"real decreto legislativo"}, "real_decreto_legislativo"},
	{[]string{"real decreto"}, "real_decreto"},
	{[]string{"ley"}, "ley"},
	{[]string{"orden"}, "orden_ministerial"},
	{[]string{"directiva"}, "directiva"},
	{[]string{"reglamento"}, "reglamento"},
	{[]string{"instrucción", "instruccion"}, "instruccion"},
	{[]string{"circular"}, "circular"},
	{[]string{"convenio"}, "convenio"},
	{[]string{"acuerdo"}, "acuerdo"},
	{[]string{"decreto"}, "decreto"},
	{[]string{"resolución", "resolucion"}, "resolucion"},
	{[]string{"corrección", "correccion"}, "correccion_errores"},
	{[]string{"anuncio"}, "anuncio"},
}

// MapRank maps a BOE normative rank to a resolution type. Unknown ranks map
// to "disposicion".
func MapRank(rank string) string {
	r := strings.ToLower(strings.TrimSpace(rank))
	if r == "" {
		return "disposicion"
	}

	for _, rule := range rankRules {
		for _, n := range rule.needles {
			if strings.Contains(r, n) {
				return rule.kind
			}
		}
	}

	return "disposicion"
}

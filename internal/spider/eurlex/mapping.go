package eurlex

import "strings"

// Mapping is the canonical vocabulary inferred from a CDM resource type.
type Mapping struct {
	ResolutionType string
	IssuingBody    string
	Jurisdiction   string
}

var resourceTypes = []struct {
	code string
	Mapping
}{
	{"DIR", Mapping{"directiva", "Parlamento Europeo y Consejo", "eu_legislacion"}},
	{"REG", Mapping{"reglamento", "Parlamento Europeo y Consejo", "eu_legislacion"}},
	{"DEC", Mapping{"decision", "Comision Europea", "eu_legislacion"}},
	{"JUDG", Mapping{"sentencia_tjue", "TJUE", "eu_general"}},
}

var unknownType = Mapping{"otro", "Union Europea", "eu_legislacion"}

// MapResourceType maps a resource-type URI to canonical values by code
// containment. Unknown types map to "otro".
func MapResourceType(uri string) Mapping {
	for _, rt := range resourceTypes {
		if strings.Contains(uri, rt.code) {
			return rt.Mapping
		}
	}
	return unknownType
}

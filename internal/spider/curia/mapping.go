package curia

import "strings"

var documentTypes = []struct {
	needles []string
	kind    string
}{
	{[]string{"sentencia", "judgment", "arret", "arrêt"}, "sentencia_tjue"},
	{[]string{"conclusiones", "opinion", "conclusions"}, "opinion_ag"},
	{[]string{"auto", "order", "ordonnance"}, "auto"},
	{[]string{"dictamen", "avis"}, "dictamen"},
}

// MapDocumentType maps a CURIA document type label in any of the court's
// languages to a resolution type. Unknown labels map to "resolucion".
func MapDocumentType(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, dt := range documentTypes {
		for _, n := range dt.needles {
			if strings.Contains(l, n) {
				return dt.kind
			}
		}
	}
	return "resolucion"
}

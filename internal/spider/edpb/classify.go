package edpb

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	numberYear      = regexp.MustCompile(`(\d+/\d{4})`)
	numberShortYear = regexp.MustCompile(`(\d+/\d{2})`)
	extension       = regexp.MustCompile(`\.\w+$`)
	languageSuffix  = regexp.MustCompile(`_(en|es|fr|de)$`)
)

var titleKinds = []struct {
	needle string
	kind   string
}{
	{"guideline", "guideline_edpb"},
	{"opinion", "opinion"},
	{"recommendation", "recomendacion"},
	{"decision", "decision"},
	{"statement", "declaracion"},
	{"letter", "letter"},
}

// Classify buckets a document by keywords in its title. Titles matching no
// keyword are treated as guidelines.
func Classify(title string) string {
	t := strings.ToLower(title)
	for _, k := range titleKinds {
		if strings.Contains(t, k.needle) {
			return k.kind
		}
	}
	return "guideline_edpb"
}

// Reference builds the external reference: the NN/YYYY number in the title
// when present, otherwise a slug of the last URL path segment.
func Reference(link, title string) string {
	for _, re := range []*regexp.Regexp{numberYear, numberShortYear} {
		if m := re.FindStringSubmatch(title); m != nil {
			return "EDPB-" + strings.ReplaceAll(m[1], "/", "-")
		}
	}

	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	slug := path.Base(strings.TrimRight(u.Path, "/"))
	slug = extension.ReplaceAllString(slug, "")
	slug = languageSuffix.ReplaceAllString(slug, "")
	if slug == "" || slug == "." || slug == "/" {
		return ""
	}

	return "EDPB-" + slug
}

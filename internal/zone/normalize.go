package zone

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// corruptions maps names mangled by lossy re-encoding of the source
// datasets onto their canonical form. Keys are already folded.
var corruptions = map[string]string{
	"ANTONIO NARI??O":           "ANTONIO NARINO",
	"ANTONIO NARI?O":            "ANTONIO NARINO",
	"ANTONIO NARI\uFFFDO":       "ANTONIO NARINO",
	"ANTONIO NARI\uFFFD\uFFFDO": "ANTONIO NARINO",
	"ANTONIO NARIA±O":           "ANTONIO NARINO",
	"CIUDAD BOL??VAR":           "CIUDAD BOLIVAR",
	"CIUDAD BOL?VAR":            "CIUDAD BOLIVAR",
	"USAQU??N":                  "USAQUEN",
	"USAQU?N":                   "USAQUEN",
	"ENGATIV??":                 "ENGATIVA",
	"ENGATIV?":                  "ENGATIVA",
	"FONTIB??N":                 "FONTIBON",
	"FONTIB?N":                  "FONTIBON",
	"SAN CRIST??BAL":            "SAN CRISTOBAL",
	"SAN CRIST?BAL":             "SAN CRISTOBAL",
	"LOS M??RTIRES":             "LOS MARTIRES",
	"LOS M?RTIRES":              "LOS MARTIRES",
}

// Normalize folds a locality name to its canonical lookup key: surrounding
// whitespace trimmed, inner whitespace collapsed, upper-cased and stripped
// of diacritics. Known encoding corruptions are repaired. Normalize is
// idempotent.
func Normalize(name string) string {
	folded := strings.ToUpper(name)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, folded); err == nil {
		folded = stripped
	}

	// Collapse after stripping: a lone mark between spaces leaves a double space.
	folded = strings.Join(strings.Fields(folded), " ")
	if folded == "" {
		return ""
	}
	if fixed, ok := corruptions[folded]; ok {
		return fixed
	}
	return folded
}

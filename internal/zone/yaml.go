package zone

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Table is the on-disk form of a tier configuration.
type Table struct {
	Tiers      []Tier             `yaml:"tiers"`
	CrimeRates map[string]float64 `yaml:"crime_rates"`
}

// LoadYAML reads a tier table from path. Sections left out of the file
// fall back to the defaults.
func LoadYAML(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: read %s", path)
	}
	return ParseYAML(data)
}

// ParseYAML parses a tier table document.
func ParseYAML(data []byte) (*Classifier, error) {
	var tbl Table
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return nil, eris.Wrap(err, "zone: parse tier table")
	}
	if len(tbl.Tiers) == 0 {
		tbl.Tiers = DefaultTiers()
	}
	if len(tbl.CrimeRates) == 0 {
		tbl.CrimeRates = DefaultCrimeRates()
	}
	return NewClassifier(tbl.Tiers, tbl.CrimeRates)
}

// ExportYAML renders the classifier as a tier table document.
func (c *Classifier) ExportYAML() ([]byte, error) {
	out, err := yaml.Marshal(Table{Tiers: c.Tiers(), CrimeRates: c.CrimeRates()})
	if err != nil {
		return nil, eris.Wrap(err, "zone: marshal tier table")
	}
	return out, nil
}

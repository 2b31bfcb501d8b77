package zone

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Classifier resolves localities to tiers and crime rates. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	tiers      map[TierName]Tier
	byLocality map[string]TierName
	crimeRates map[string]float64
}

// NewClassifier validates the tier table and builds the lookup indexes.
// Locality names in tiers and rates are normalized.
func NewClassifier(tiers []Tier, rates map[string]float64) (*Classifier, error) {
	c := &Classifier{
		tiers:      make(map[TierName]Tier, len(tiers)),
		byLocality: make(map[string]TierName),
		crimeRates: make(map[string]float64, len(rates)),
	}

	var errs []string
	for _, t := range tiers {
		switch t.Name {
		case Safe, Medium, High:
		default:
			errs = append(errs, fmt.Sprintf("unknown tier %q", t.Name))
			continue
		}
		if _, dup := c.tiers[t.Name]; dup {
			errs = append(errs, fmt.Sprintf("tier %s defined twice", t.Name))
			continue
		}
		if t.BaseRiskMin < 0 || t.BaseRiskMax > 1 || t.BaseRiskMin > t.BaseRiskMax {
			errs = append(errs, fmt.Sprintf("tier %s: base risk range [%v, %v] invalid", t.Name, t.BaseRiskMin, t.BaseRiskMax))
		}
		if t.LowThreshold <= 0 || t.LowThreshold >= t.MediumThreshold || t.MediumThreshold >= 1 {
			errs = append(errs, fmt.Sprintf("tier %s: thresholds must satisfy 0 < low < medium < 1", t.Name))
		}
		if len(t.Scenarios) == 0 {
			errs = append(errs, fmt.Sprintf("tier %s: no scenarios", t.Name))
		}
		for _, s := range t.Scenarios {
			if s.Hour < 0 || s.Hour > 23 || s.Day < 0 || s.Day > 6 {
				errs = append(errs, fmt.Sprintf("tier %s: scenario (%d, %d) out of range", t.Name, s.Hour, s.Day))
			}
		}

		names := make([]string, 0, len(t.Localities))
		for _, loc := range t.Localities {
			key := Normalize(loc)
			if prev, ok := c.byLocality[key]; ok {
				errs = append(errs, fmt.Sprintf("locality %s listed in %s and %s", key, prev, t.Name))
				continue
			}
			c.byLocality[key] = t.Name
			names = append(names, key)
		}
		t.Localities = names
		c.tiers[t.Name] = t
	}
	for _, name := range []TierName{Safe, Medium, High} {
		if _, ok := c.tiers[name]; !ok {
			errs = append(errs, fmt.Sprintf("tier %s missing", name))
		}
	}

	for loc, rate := range rates {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Sprintf("crime rate for %s out of [0, 1]", loc))
			continue
		}
		c.crimeRates[Normalize(loc)] = rate
	}

	if len(errs) > 0 {
		return nil, eris.Errorf("zone: invalid tier table: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Default returns a classifier over DefaultTiers and DefaultCrimeRates.
func Default() *Classifier {
	c, err := NewClassifier(DefaultTiers(), DefaultCrimeRates())
	if err != nil {
		panic(err)
	}
	return c
}

// TierOf returns the tier of a locality. Localities not listed in any tier
// are placed by crime rate: below 0.3 SAFE, above 0.6 HIGH, else MEDIUM.
func (c *Classifier) TierOf(locality string) Tier {
	key := Normalize(locality)
	if name, ok := c.byLocality[key]; ok {
		return c.tiers[name]
	}
	rate := c.CrimeRate(key)
	switch {
	case rate < safeCrimeCeiling:
		return c.tiers[Safe]
	case rate > highCrimeFloor:
		return c.tiers[High]
	default:
		return c.tiers[Medium]
	}
}

// Tier returns the named tier.
func (c *Classifier) Tier(name TierName) (Tier, bool) {
	t, ok := c.tiers[name]
	return t, ok
}

// Tiers returns the tiers in id order.
func (c *Classifier) Tiers() []Tier {
	return []Tier{c.tiers[Safe], c.tiers[Medium], c.tiers[High]}
}

// CrimeRate returns the locality's crime rate, DefaultCrimeRate if unknown.
func (c *Classifier) CrimeRate(locality string) float64 {
	if rate, ok := c.crimeRates[Normalize(locality)]; ok {
		return rate
	}
	return DefaultCrimeRate
}

// CrimeRates returns a copy of the crime-rate table.
func (c *Classifier) CrimeRates() map[string]float64 {
	out := make(map[string]float64, len(c.crimeRates))
	for k, v := range c.crimeRates {
		out[k] = v
	}
	return out
}

// Known reports whether the locality is listed in a tier.
func (c *Classifier) Known(locality string) bool {
	_, ok := c.byLocality[Normalize(locality)]
	return ok
}

// Localities returns every tiered locality, sorted.
func (c *Classifier) Localities() []string {
	out := make([]string, 0, len(c.byLocality))
	for k := range c.byLocality {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package zone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := Default().ExportYAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	c, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Localities(), c.Localities())
	assert.Equal(t, High, c.TierOf("BOSA").Name)
}

func TestParseYAMLOverridesRatesOnly(t *testing.T) {
	t.Parallel()

	doc := `
crime_rates:
  chapinero: 0.9
`
	c, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 0.9, c.CrimeRate("CHAPINERO"))
	// Listed localities keep their tier regardless of rate.
	assert.Equal(t, Safe, c.TierOf("CHAPINERO").Name)
	// Rates table was replaced, so others fall back to the default rate.
	assert.Equal(t, DefaultCrimeRate, c.CrimeRate("BOSA"))
}

func TestLoadYAMLErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("tiers: {not a list"))
	assert.Error(t, err)
}

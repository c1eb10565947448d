package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

func officialBands() BandTable {
	return BandTable{
		{Label: "Low", Min: 1, Max: 2.5},
		{Label: "Medium", Min: 2.5, Max: 3.7},
		{Label: "High", Min: 3.7, Max: 5},
	}
}

func TestClassifyCoversWholeScale(t *testing.T) {
	bands := officialBands()
	for s := 1.0; s <= 5.0; s += 0.01 {
		label, err := Classify(s, bands)
		require.NoError(t, err, "score %.2f", s)
		assert.NotEmpty(t, label)
	}
}

func TestClassifySharedBoundaryPrefersEarlierBand(t *testing.T) {
	bands := officialBands()

	label, err := Classify(2.5, bands)
	require.NoError(t, err)
	assert.Equal(t, "Low", label)

	label, err = Classify(3.7, bands)
	require.NoError(t, err)
	assert.Equal(t, "Medium", label)
}

func TestClassifyGapReturnsNoMatchingBand(t *testing.T) {
	bands := BandTable{
		{Label: "Low", Min: 1, Max: 2.5},
		{Label: "High", Min: 2.6, Max: 5},
	}

	_, err := Classify(2.55, bands)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoMatchingBand))
}

func TestClassifyBoundsAreInclusive(t *testing.T) {
	bands := officialBands()

	label, err := Classify(1, bands)
	require.NoError(t, err)
	assert.Equal(t, "Low", label)

	label, err = Classify(5, bands)
	require.NoError(t, err)
	assert.Equal(t, "High", label)
}

func TestValidateBands(t *testing.T) {
	cases := []struct {
		name  string
		bands BandTable
	}{
		{"empty", BandTable{}},
		{"blank label", BandTable{{Label: " ", Min: 1, Max: 5}}},
		{"inverted", BandTable{{Label: "A", Min: 4, Max: 2}}},
		{"below scale", BandTable{{Label: "A", Min: 0, Max: 5}}},
		{"above scale", BandTable{{Label: "A", Min: 1, Max: 6}}},
		{"duplicate label", BandTable{{Label: "A", Min: 1, Max: 3}, {Label: "a", Min: 3, Max: 5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBands(tc.bands)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidBands))
		})
	}

	assert.NoError(t, ValidateBands(officialBands()))
}

func TestGapsAndCoverage(t *testing.T) {
	assert.Empty(t, Gaps(officialBands()))
	assert.NoError(t, ValidateCoverage(officialBands()))

	gapped := BandTable{
		{Label: "High", Min: 2.6, Max: 4.5},
		{Label: "Low", Min: 1, Max: 2.5},
	}
	gaps := Gaps(gapped)
	require.Len(t, gaps, 2)
	assert.Equal(t, Gap{From: 2.5, To: 2.6}, gaps[0])
	assert.Equal(t, Gap{From: 4.5, To: 5}, gaps[1])

	err := ValidateCoverage(gapped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(2.5, 2.6)")
}

func TestGapsLeadingHole(t *testing.T) {
	gaps := Gaps(BandTable{{Label: "A", Min: 2, Max: 5}})
	require.Len(t, gaps, 1)
	assert.Equal(t, Gap{From: 1, To: 2}, gaps[0])
}

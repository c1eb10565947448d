package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

// Likert scale bounds.
const (
	MinValue = 1
	MaxValue = 5
)

const epsilon = 1e-9

// Band maps a closed score interval to a label.
type Band struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Color string  `json:"color,omitempty"`
}

// Contains reports whether score lies in [Min, Max].
func (b Band) Contains(score float64) bool {
	return score >= b.Min-epsilon && score <= b.Max+epsilon
}

// BandTable is an ordered list of bands. Order matters: lookups return the
// first matching band, so at a shared boundary the earlier band wins.
type BandTable []Band

// Gap is a sub-interval of the scale covered by no band.
type Gap struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

func (g Gap) String() string {
	return fmt.Sprintf("(%g, %g)", g.From, g.To)
}

// Classify returns the label of the first band containing score.
func Classify(score float64, bands BandTable) (string, error) {
	for _, band := range bands {
		if band.Contains(score) {
			return band.Label, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrNoMatchingBand, fmt.Sprintf("score %.2f is not covered by any interpretation band", score))
}

// ValidateBands checks the structural rules of a band table.
func ValidateBands(bands BandTable) error {
	if len(bands) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidBands, "at least one band is required")
	}
	seen := make(map[string]struct{}, len(bands))
	for i, band := range bands {
		label := strings.TrimSpace(band.Label)
		if label == "" {
			return appErrors.Clone(appErrors.ErrInvalidBands, fmt.Sprintf("band %d has an empty label", i+1))
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return appErrors.Clone(appErrors.ErrInvalidBands, fmt.Sprintf("band label %q is duplicated", label))
		}
		seen[key] = struct{}{}
		if math.IsNaN(band.Min) || math.IsNaN(band.Max) {
			return appErrors.Clone(appErrors.ErrInvalidBands, fmt.Sprintf("band %q has invalid limits", label))
		}
		if band.Min > band.Max {
			return appErrors.Clone(appErrors.ErrInvalidBands, fmt.Sprintf("band %q has min greater than max", label))
		}
		if band.Min < MinValue || band.Max > MaxValue {
			return appErrors.Clone(appErrors.ErrInvalidBands, fmt.Sprintf("band %q must stay within [%d, %d]", label, MinValue, MaxValue))
		}
	}
	return nil
}

// Gaps lists the parts of [MinValue, MaxValue] not covered by any band.
func Gaps(bands BandTable) []Gap {
	sorted := make(BandTable, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	var gaps []Gap
	cursor := float64(MinValue)
	for _, band := range sorted {
		if band.Min > cursor+epsilon {
			gaps = append(gaps, Gap{From: cursor, To: band.Min})
		}
		if band.Max > cursor {
			cursor = band.Max
		}
	}
	if cursor < MaxValue-epsilon {
		gaps = append(gaps, Gap{From: cursor, To: MaxValue})
	}
	return gaps
}

// ValidateCoverage fails when any score in [MinValue, MaxValue] has no band.
func ValidateCoverage(bands BandTable) error {
	gaps := Gaps(bands)
	if len(gaps) == 0 {
		return nil
	}
	parts := make([]string, len(gaps))
	for i, gap := range gaps {
		parts[i] = gap.String()
	}
	return appErrors.Clone(appErrors.ErrInvalidBands, "bands leave scores uncovered: "+strings.Join(parts, ", "))
}

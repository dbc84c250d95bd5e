// Package delta computes the differences shown next to the subject metrics of
// a mempool comparison note.
package delta

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// DefaultEpsilon is the smallest rounded percentage that is not rendered as
// Unchanged.
const DefaultEpsilon = 1.0

// Unchanged is rendered instead of percentages below the epsilon.
const Unchanged = "="

// ErrUndefinedDelta is returned when the baseline of a percentage is zero.
var ErrUndefinedDelta = errors.New("percentage delta against a zero baseline is undefined")

// PercentDelta returns the change from baseline to current as a whole,
// signed percentage such as "7%" or "-12%". Rounded values whose magnitude is
// below epsilon are returned as Unchanged.
func PercentDelta(current, baseline, epsilon float64) (string, error) {
	if baseline == 0 {
		return "", ErrUndefinedDelta
	}

	p := math.Round((current - baseline) / baseline * 100)
	if math.Abs(p) < epsilon {
		return Unchanged, nil
	}

	// int64 conversion drops the sign of negative zero
	return strconv.FormatInt(int64(p), 10) + "%", nil
}

// AbsoluteDelta returns current minus baseline.
func AbsoluteDelta(current, baseline float64) float64 {
	return current - baseline
}

// FormatAbsolute renders an absolute delta as a signed whole number.
func FormatAbsolute(d float64) string {
	n := int64(math.Round(d))
	if n > 0 {
		return "+" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

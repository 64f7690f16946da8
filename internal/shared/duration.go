package shared

import (
	"fmt"
	"math"
	"time"

	"github.com/sosodev/duration"
)

// ParseISODuration parses an ISO-8601 duration such as "PT4M13S", "P1DT2H" or "P0D".
//
// Year and month designators are rejected since they have no fixed length.
// Only the seconds component may carry a fraction.
func ParseISODuration(s string) (time.Duration, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("%w: %q must start with 'P'", ErrInvalidDuration, s)
	}

	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, s, err)
	}

	if d.Negative {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidDuration, s)
	}
	if d.Years != 0 || d.Months != 0 {
		return 0, fmt.Errorf("%w: %q uses years or months", ErrInvalidDuration, s)
	}
	for _, whole := range []float64{d.Weeks, d.Days, d.Hours, d.Minutes} {
		if math.Trunc(whole) != whole {
			return 0, fmt.Errorf("%w: %q has a fractional component before seconds", ErrInvalidDuration, s)
		}
	}

	seconds := d.Weeks*7*86400 + d.Days*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds
	if seconds*float64(time.Second) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidDuration, s)
	}

	return d.ToTimeDuration(), nil
}

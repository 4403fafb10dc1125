package grid

import (
	"errors"
	"fmt"
	"time"
)

// BandCount is the number of decay bands a Scale must define.
const BandCount = 6

// ErrInvalidScale is returned by Scale.Validate.
var ErrInvalidScale = errors.New("invalid decay scale")

// Band maps checks made at most UpTo after the hour began to Level.
type Band struct {
	UpTo  time.Duration
	Level int
}

// Scale is the step function from check latency to display intensity.
type Scale struct {
	Bands    []Band
	Baseline int
}

// DefaultScale scores promptness in 10 minute bands, 100 down to 50.
func DefaultScale() Scale {
	return Scale{
		Bands: []Band{
			{UpTo: 10 * time.Minute, Level: 100},
			{UpTo: 20 * time.Minute, Level: 90},
			{UpTo: 30 * time.Minute, Level: 80},
			{UpTo: 40 * time.Minute, Level: 70},
			{UpTo: 50 * time.Minute, Level: 60},
			{UpTo: 60 * time.Minute, Level: 50},
		},
		Baseline: 0,
	}
}

// Validate checks the band invariants: BandCount bands with ascending
// bounds ending at one hour, non-increasing levels, all above Baseline.
func (s Scale) Validate() error {
	if len(s.Bands) != BandCount {
		return fmt.Errorf("%w: want %d bands, got %d", ErrInvalidScale, BandCount, len(s.Bands))
	}
	var prev time.Duration
	for i, b := range s.Bands {
		if b.UpTo <= prev {
			return fmt.Errorf("%w: band %d bound %s not after %s", ErrInvalidScale, i, b.UpTo, prev)
		}
		if b.Level <= s.Baseline {
			return fmt.Errorf("%w: band %d level %d not above baseline %d", ErrInvalidScale, i, b.Level, s.Baseline)
		}
		if i > 0 && b.Level > s.Bands[i-1].Level {
			return fmt.Errorf("%w: band %d level %d rises above %d", ErrInvalidScale, i, b.Level, s.Bands[i-1].Level)
		}
		prev = b.UpTo
	}
	if prev != time.Hour {
		return fmt.Errorf("%w: last band ends at %s, want 1h", ErrInvalidScale, prev)
	}
	return nil
}

// WindowStart is the first instant of hour on cellDate's calendar day.
func WindowStart(cellDate time.Time, hour int) time.Time {
	y, m, d := cellDate.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, cellDate.Location())
}

// Intensity scores a check at checkedAt for the block at (cellDate, hour).
// Absent checks, and checks outside the hour window, score Baseline.
func (s Scale) Intensity(checkedAt time.Time, ok bool, cellDate time.Time, hour int) int {
	if !ok {
		return s.Baseline
	}
	elapsed := checkedAt.Sub(WindowStart(cellDate, hour))
	if elapsed < 0 || elapsed > time.Hour {
		return s.Baseline
	}
	for _, b := range s.Bands {
		if elapsed <= b.UpTo {
			return b.Level
		}
	}
	return s.Baseline
}

// IntensityMillis is Intensity for a timestamp in milliseconds since epoch.
func (s Scale) IntensityMillis(checkedAtMs int64, ok bool, cellDate time.Time, hour int) int {
	return s.Intensity(time.UnixMilli(checkedAtMs).In(cellDate.Location()), ok, cellDate, hour)
}

// Top is the strongest level the scale produces.
func (s Scale) Top() int {
	if len(s.Bands) == 0 {
		return s.Baseline
	}
	return s.Bands[0].Level
}

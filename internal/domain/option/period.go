package option

import (
	"time"

	"volguard/pkg/errors"
)

// Period is the analytical time window every computed row is tagged with.
// Periods are independent lenses over the same raw quotes, not a retention
// granularity: a computation for one period only reads prior rows of that
// same period.
type Period string

const (
	Period15m Period = "15m"
	Period1h  Period = "1h"
	Period4h  Period = "4h"
	Period1d  Period = "1d"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

var periodMinutes = map[Period]int{
	Period15m: 15,
	Period1h:  60,
	Period4h:  240,
	Period1d:  1440,
	Period7d:  10080,
	Period30d: 43200,
}

// AllPeriods lists every supported period in ascending window size
func AllPeriods() []Period {
	return []Period{Period15m, Period1h, Period4h, Period1d, Period7d, Period30d}
}

// MonitoredPeriods lists the periods the scheduled risk and deviation
// workers compute over. The 30d window is too coarse for per-run
// computation and stays available only as a query and retention window.
func MonitoredPeriods() []Period {
	return []Period{Period15m, Period1h, Period4h, Period1d, Period7d}
}

// ParsePeriod validates a period string
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidPeriod, "unknown period %q", s)
	}
	return p, nil
}

// Valid checks if the period is supported
func (p Period) Valid() bool {
	_, ok := periodMinutes[p]
	return ok
}

// Minutes returns the window length in minutes
func (p Period) Minutes() int {
	return periodMinutes[p]
}

// Duration returns the window length
func (p Period) Duration() time.Duration {
	return time.Duration(periodMinutes[p]) * time.Minute
}

// String returns string representation
func (p Period) String() string {
	return string(p)
}

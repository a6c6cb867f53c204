package scheduler

import (
	"fmt"
	"time"
)

// Interval runs a job every Every. With Align set the runs fall on multiples
// of Every since the zero time, so an hourly job fires on the hour whatever
// the process start time.
type Interval struct {
	Every time.Duration
	Align bool
}

// Every returns an unaligned interval schedule.
func Every(d time.Duration) Interval {
	return Interval{Every: d}
}

// Next implements Schedule.
func (i Interval) Next(t time.Time) time.Time {
	if i.Every <= 0 {
		return time.Time{}
	}
	if i.Align {
		return t.Truncate(i.Every).Add(i.Every)
	}
	return t.Add(i.Every)
}

func (i Interval) String() string {
	if i.Align {
		return fmt.Sprintf("@every %s aligned", i.Every)
	}
	return fmt.Sprintf("@every %s", i.Every)
}

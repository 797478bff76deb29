package models

import "time"

// Window is the daily posting window. Start and End are offsets from local
// midnight in Location; End is exclusive.
type Window struct {
	Location *time.Location
	Start    time.Duration
	End      time.Duration
	Interval time.Duration
}

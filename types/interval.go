package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownInterval = errors.New("unknown interval")

type Interval string

const (
	OneMinute      Interval = "1min"
	ThreeMinutes   Interval = "3min"
	FiveMinutes    Interval = "5min"
	FifteenMinutes Interval = "15min"
	ThirtyMinutes  Interval = "30min"
	Hour           Interval = "60min"
	TwoHours       Interval = "120min"
	FourHours      Interval = "240min"
	Day            Interval = "daily"
	Week           Interval = "weekly"
)

var IntervalToTime = map[Interval]time.Duration{
	OneMinute:      time.Minute,
	ThreeMinutes:   time.Minute * 3,
	FiveMinutes:    time.Minute * 5,
	FifteenMinutes: time.Minute * 15,
	ThirtyMinutes:  time.Minute * 30,
	Hour:           time.Hour,
	TwoHours:       time.Hour * 2,
	FourHours:      time.Hour * 4,
	Day:            time.Hour * 24,
	Week:           time.Hour * 24 * 7,
}

// gridStepsPerDay lists the granularities a simulation time grid can step at.
var gridStepsPerDay = map[Interval]int{
	Day:            1,
	Hour:           24,
	ThirtyMinutes:  48,
	FifteenMinutes: 96,
	FiveMinutes:    288,
	OneMinute:      1440,
}

var ConvertInterval = map[string]Interval{
	"1":      OneMinute,
	"3":      ThreeMinutes,
	"5":      FiveMinutes,
	"15":     FifteenMinutes,
	"30":     ThirtyMinutes,
	"60":     Hour,
	"120":    TwoHours,
	"240":    FourHours,
	"D":      Day,
	"W":      Week,
	"1min":   OneMinute,
	"3min":   ThreeMinutes,
	"5min":   FiveMinutes,
	"15min":  FifteenMinutes,
	"30min":  ThirtyMinutes,
	"60min":  Hour,
	"120min": TwoHours,
	"240min": FourHours,
	"daily":  Day,
	"weekly": Week,
}

// ParseInterval resolves a bar interval token. Unknown tokens are an error.
func ParseInterval(s string) (Interval, error) {
	i, ok := ConvertInterval[strings.TrimSpace(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	return i, nil
}

// ParseGranularity resolves a time grid token. Only granularities the grid can step at are accepted.
func ParseGranularity(s string) (Interval, error) {
	i, err := ParseInterval(s)
	if err != nil {
		return "", err
	}
	if _, ok := gridStepsPerDay[i]; !ok {
		return "", fmt.Errorf("%w: %q is not a time grid granularity", ErrUnknownInterval, s)
	}
	return i, nil
}

func (i Interval) Duration() time.Duration {
	return IntervalToTime[i]
}

// StepsPerDay is how many grid steps fit in one day. Unrecognized granularities step daily.
func (i Interval) StepsPerDay() int {
	if n, ok := gridStepsPerDay[i]; ok {
		return n
	}
	return 1
}

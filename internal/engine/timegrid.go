package engine

import (
	"time"

	"tradesim/types"
)

const day = 24 * time.Hour

// BuildTimeGrid returns the evenly spaced simulation timestamps covering [start, end).
// Only whole days between start and end count, so a partial trailing day adds no steps.
// An end at or before start yields an empty grid.
func BuildTimeGrid(start, end time.Time, granularity types.Interval) []time.Time {
	if !end.After(start) {
		return []time.Time{}
	}
	days := int(end.Sub(start) / day)
	stepsPerDay := granularity.StepsPerDay()
	step := day / time.Duration(stepsPerDay)

	n := days * stepsPerDay
	grid := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		grid = append(grid, start.Add(time.Duration(i)*step))
	}
	return grid
}

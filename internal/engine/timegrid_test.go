package engine

import (
	"testing"
	"time"

	"tradesim/types"

	"github.com/stretchr/testify/assert"
)

func TestBuildTimeGrid(t *testing.T) {
	jan1 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start       time.Time
		end         time.Time
		granularity types.Interval
		wantLen     int
		wantStep    time.Duration
	}{
		{
			name:        "three whole days daily",
			start:       jan1,
			end:         jan1.AddDate(0, 0, 3),
			granularity: types.Day,
			wantLen:     3,
			wantStep:    24 * time.Hour,
		},
		{
			name:        "one day hourly",
			start:       jan1,
			end:         jan1.AddDate(0, 0, 1),
			granularity: types.Hour,
			wantLen:     24,
			wantStep:    time.Hour,
		},
		{
			name:        "two days at 15min",
			start:       jan1,
			end:         jan1.AddDate(0, 0, 2),
			granularity: types.FifteenMinutes,
			wantLen:     192,
			wantStep:    15 * time.Minute,
		},
		{
			name:        "one day at 1min",
			start:       jan1,
			end:         jan1.AddDate(0, 0, 1),
			granularity: types.OneMinute,
			wantLen:     1440,
			wantStep:    time.Minute,
		},
		{
			name:        "partial trailing day is dropped",
			start:       jan1,
			end:         jan1.Add(36 * time.Hour),
			granularity: types.Day,
			wantLen:     1,
		},
		{
			name:        "less than a day yields nothing",
			start:       jan1,
			end:         jan1.Add(23 * time.Hour),
			granularity: types.Hour,
			wantLen:     0,
		},
		{
			name:        "unknown granularity steps daily",
			start:       jan1,
			end:         jan1.AddDate(0, 0, 2),
			granularity: types.Interval("fortnightly"),
			wantLen:     2,
			wantStep:    24 * time.Hour,
		},
		{
			name:        "end equals start",
			start:       jan1,
			end:         jan1,
			granularity: types.Day,
			wantLen:     0,
		},
		{
			name:        "end before start",
			start:       jan1,
			end:         jan1.AddDate(0, 0, -3),
			granularity: types.Day,
			wantLen:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildTimeGrid(tt.start, tt.end, tt.granularity)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
			if len(got) == 0 {
				return
			}
			assert.Equal(t, tt.start, got[0])
			for i := 1; i < len(got); i++ {
				if !got[i].After(got[i-1]) {
					t.Fatalf("grid not strictly increasing at %d: %v <= %v", i, got[i], got[i-1])
				}
				if tt.wantStep > 0 {
					assert.Equal(t, tt.wantStep, got[i].Sub(got[i-1]))
				}
			}
			assert.True(t, got[len(got)-1].Before(tt.end))
		})
	}
}

func TestBuildTimeGrid_JanuaryDates(t *testing.T) {
	jan1 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	got := BuildTimeGrid(jan1, time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), types.Day)

	assert.Equal(t, []time.Time{
		jan1,
		time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
	}, got)
}

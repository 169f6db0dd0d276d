package types

import (
	"errors"
	"time"
)

var ErrUnsortedCandles = errors.New("candles are not in ascending timestamp order")

// Chart is the bar history of one instrument, oldest first.
type Chart struct {
	ID       int       `json:"id"`
	Ticker   string    `json:"ticker"`
	Candles  []Candle  `json:"candles"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Interval Interval  `json:"interval"`
}

func NewChart(ticker string, interval Interval, candles []Candle) (*Chart, error) {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return nil, ErrUnsortedCandles
		}
	}
	c := &Chart{
		Ticker:   ticker,
		Candles:  candles,
		Interval: interval,
	}
	if len(candles) > 0 {
		c.Start = candles[0].Timestamp
		c.End = candles[len(candles)-1].Timestamp
	}
	return c, nil
}

func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Candles)
}

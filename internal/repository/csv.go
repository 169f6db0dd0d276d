package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tradesim/types"

	"github.com/shopspring/decimal"
)

var ErrMalformedCSV = errors.New("malformed csv")

const instrumentsFile = "instruments.csv"

// CSVStore reads bars from a directory holding one <TICKER>.csv per instrument with the
// columns timestamp,open,high,low,close,volume. An optional instruments.csv with the
// columns ticker,name,kind,currency supplies instrument details; tickers missing from it
// are treated as USD stocks. Timestamps are RFC 3339, YYYY-MM-DD or unix milliseconds.
type CSVStore struct {
	dir string
}

func NewCSVStore(dir string) (*CSVStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open csv store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open csv store: %s is not a directory", dir)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) GetAssetByTicker(_ context.Context, ticker string) (*types.Instrument, error) {
	if _, err := os.Stat(s.barsPath(ticker)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ticker %s %w", ticker, ErrAssetNotFound)
		}
		return nil, err
	}

	records, err := readCSV(filepath.Join(s.dir, instrumentsFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for i, rec := range records {
		if i == 0 || len(rec) < 4 || !strings.EqualFold(rec[0], ticker) {
			continue
		}
		inst := types.NewInstrument(ticker, rec[1], types.ParseInstrumentKind(rec[2]), rec[3])
		inst.Id = i
		return inst, nil
	}
	return types.NewInstrument(ticker, ticker, types.InstrumentStock, "USD"), nil
}

// GetAggregates reads the bars of ticker within [start, end]. Bars are returned as stored;
// interval only labels them.
func (s *CSVStore) GetAggregates(_ context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	records, err := readCSV(s.barsPath(ticker))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCandles
		}
		return nil, err
	}

	var candles []types.Candle
	for i, rec := range records {
		if i == 0 {
			continue
		}
		c, err := parseCandleRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", ticker, i+1, err)
		}
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && c.Timestamp.After(end) {
			continue
		}
		c.AssetId = assetId
		c.Ticker = ticker
		c.Interval = interval
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}

func (s *CSVStore) barsPath(ticker string) string {
	return filepath.Join(s.dir, ticker+".csv")
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		out = append(out, rec)
	}
}

func parseCandleRecord(rec []string) (types.Candle, error) {
	if len(rec) < 6 {
		return types.Candle{}, fmt.Errorf("%w: want 6 columns, got %d", ErrMalformedCSV, len(rec))
	}
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return types.Candle{}, err
	}
	var values [5]decimal.Decimal
	for i := range values {
		v, err := decimal.NewFromString(strings.TrimSpace(rec[i+1]))
		if err != nil {
			return types.Candle{}, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		values[i] = v
	}
	return types.Candle{
		Timestamp: ts,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.DateOnly, s); err == nil {
		return ts, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedCSV, s)
}

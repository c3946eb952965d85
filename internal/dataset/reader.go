package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Analyst/models"
)

var (
	// ErrNotFound means the dataset is valid but the ticker is not in it.
	ErrNotFound = errors.New("ticker not found in dataset")
	// ErrDataUnavailable means the dataset itself is missing or corrupt.
	ErrDataUnavailable = errors.New("dataset unavailable")
)

const defaultRSI = 50.0

// unavailableNews is the placeholder used until a news pipeline feeds the
// dataset.
const unavailableNews = "No recent news available"

// Reader resolves indicator snapshots from the features CSV. It is read-only
// and safe for concurrent use.
type Reader struct {
	path   string
	logger zerolog.Logger
}

// NewReader creates a Reader for the given features CSV path.
func NewReader(path string) *Reader {
	return &Reader{
		path:   path,
		logger: log.With().Str("component", "dataset_reader").Logger(),
	}
}

// Resolve returns the latest IndicatorRecord for the ticker, matching the
// ticker column case-insensitively and picking the row with the maximum date.
func (r *Reader) Resolve(ticker string) (models.IndicatorRecord, error) {
	header, rows, err := r.load()
	if err != nil {
		return models.IndicatorRecord{}, err
	}

	var best []string
	bestDate := ""
	for _, row := range rows {
		if !strings.EqualFold(cell(row, header, "ticker"), ticker) {
			continue
		}
		// Ties resolve to the later row, matching a stable date sort.
		if date := cell(row, header, "date"); best == nil || date >= bestDate {
			best = row
			bestDate = date
		}
	}
	if best == nil {
		return models.IndicatorRecord{}, fmt.Errorf("%w: %s", ErrNotFound, strings.ToUpper(ticker))
	}

	rec := models.IndicatorRecord{
		Symbol:         strings.ToUpper(cell(best, header, "ticker")),
		Date:           bestDate,
		Price:          firstFloat(best, header, []string{"close", "price"}, 0),
		RSI:            firstFloat(best, header, []string{"rsi"}, defaultRSI),
		TrendAverage:   firstFloat(best, header, []string{"ma20", "ma7"}, 0),
		SentimentScore: firstFloat(best, header, []string{"sentiment_score"}, 0),
		SentimentLabel: firstString(best, header, []string{"sentiment_label"}, "neutral"),
		NewsSummary:    unavailableNews,
	}

	r.logger.Debug().Str("symbol", rec.Symbol).Str("date", rec.Date).Msg("Resolved indicator record")
	return rec, nil
}

// Tickers returns the sorted unique ticker symbols present in the dataset.
func (r *Reader) Tickers() ([]string, error) {
	header, rows, err := r.load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, row := range rows {
		if t := strings.ToUpper(cell(row, header, "ticker")); t != "" {
			seen[t] = struct{}{}
		}
	}

	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

// load reads the whole CSV. Dataset size is assumed to fit in memory.
func (r *Reader) load() (map[string]int, [][]string, error) {
	file, err := os.Open(r.path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("Failed to open dataset")
		return nil, nil, fmt.Errorf("%w: opening %s: %v", ErrDataUnavailable, r.path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("Failed to parse dataset")
		return nil, nil, fmt.Errorf("%w: parsing %s: %v", ErrDataUnavailable, r.path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrDataUnavailable, r.path)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ticker", "date"} {
		if _, ok := header[required]; !ok {
			return nil, nil, fmt.Errorf("%w: %s has no %q column", ErrDataUnavailable, r.path, required)
		}
	}

	return header, records[1:], nil
}

func cell(row []string, header map[string]int, column string) string {
	idx, ok := header[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// firstFloat returns the first parseable value among the candidate columns,
// falling back to def when none is present.
func firstFloat(row []string, header map[string]int, columns []string, def float64) float64 {
	for _, column := range columns {
		if s := cell(row, header, column); s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return v
			}
		}
	}
	return def
}

func firstString(row []string, header map[string]int, columns []string, def string) string {
	for _, column := range columns {
		if s := cell(row, header, column); s != "" {
			return s
		}
	}
	return def
}

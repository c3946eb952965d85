package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Alias1177/Analyst/models"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		ticker  string
		want    models.IndicatorRecord
		wantErr error
	}{
		{
			name: "latest date wins",
			csv: "ticker,date,close,rsi,ma20,ma7,sentiment_score\n" +
				"BTC,2024-01-01,42000.5,75,41000.1234,40000,0.2\n" +
				"BTC,2024-02-01,43500.25,45,42500.5678,41000,0.3\n" +
				"ETH,2024-02-01,2300,60,2250,2200,0.1\n",
			ticker: "BTC",
			want: models.IndicatorRecord{
				Symbol:         "BTC",
				Date:           "2024-02-01",
				Price:          43500.25,
				RSI:            45,
				TrendAverage:   42500.5678,
				SentimentScore: 0.3,
				SentimentLabel: "neutral",
				NewsSummary:    "No recent news available",
			},
		},
		{
			name: "case insensitive match keeps dataset casing upper",
			csv: "ticker,date,close,rsi,ma20,ma7,sentiment_score\n" +
				"btc,2024-01-01,42000,55,41000,40000,0\n",
			ticker: "BtC",
			want: models.IndicatorRecord{
				Symbol:         "BTC",
				Date:           "2024-01-01",
				Price:          42000,
				RSI:            55,
				TrendAverage:   41000,
				SentimentLabel: "neutral",
				NewsSummary:    "No recent news available",
			},
		},
		{
			name: "defaults for absent columns",
			csv: "ticker,date\n" +
				"SOL,2024-03-01\n",
			ticker: "SOL",
			want: models.IndicatorRecord{
				Symbol:         "SOL",
				Date:           "2024-03-01",
				Price:          0,
				RSI:            50,
				TrendAverage:   0,
				SentimentScore: 0,
				SentimentLabel: "neutral",
				NewsSummary:    "No recent news available",
			},
		},
		{
			name: "trend falls back to ma7 and price to price column",
			csv: "ticker,date,price,rsi,ma20,ma7\n" +
				"DOGE,2024-03-01,0.1234,40,,0.1111\n",
			ticker: "DOGE",
			want: models.IndicatorRecord{
				Symbol:         "DOGE",
				Date:           "2024-03-01",
				Price:          0.1234,
				RSI:            40,
				TrendAverage:   0.1111,
				SentimentLabel: "neutral",
				NewsSummary:    "No recent news available",
			},
		},
		{
			name: "sentiment label column is honored",
			csv: "ticker,date,close,rsi,ma20,sentiment_score,sentiment_label\n" +
				"BTC,2024-03-01,42000,62,41000,0.8,bullish\n",
			ticker: "BTC",
			want: models.IndicatorRecord{
				Symbol:         "BTC",
				Date:           "2024-03-01",
				Price:          42000,
				RSI:            62,
				TrendAverage:   41000,
				SentimentScore: 0.8,
				SentimentLabel: "bullish",
				NewsSummary:    "No recent news available",
			},
		},
		{
			name: "absent ticker is not found",
			csv: "ticker,date,close\n" +
				"BTC,2024-01-01,42000\n",
			ticker:  "ZZZ",
			wantErr: ErrNotFound,
		},
		{
			name:    "missing ticker column is data unavailable",
			csv:     "symbol,date,close\nBTC,2024-01-01,42000\n",
			ticker:  "BTC",
			wantErr: ErrDataUnavailable,
		},
		{
			name:    "unparseable file is data unavailable",
			csv:     "ticker,date,close\n\"BTC,2024-01-01,42000\n",
			ticker:  "BTC",
			wantErr: ErrDataUnavailable,
		},
		{
			name:    "empty file is data unavailable",
			csv:     "",
			ticker:  "BTC",
			wantErr: ErrDataUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewReader(writeDataset(t, tt.csv))
			got, err := reader.Resolve(tt.ticker)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveMissingFile(t *testing.T) {
	reader := NewReader(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := reader.Resolve("BTC")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("Resolve() error = %v, want ErrDataUnavailable", err)
	}
}

func TestTickers(t *testing.T) {
	reader := NewReader(writeDataset(t,
		"ticker,date,close\n"+
			"eth,2024-01-01,2300\n"+
			"BTC,2024-01-01,42000\n"+
			"BTC,2024-02-01,43000\n"+
			"sol,2024-01-01,100\n"))

	got, err := reader.Tickers()
	if err != nil {
		t.Fatalf("Tickers() unexpected error: %v", err)
	}
	want := []string{"BTC", "ETH", "SOL"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tickers() = %v, want %v", got, want)
	}
}

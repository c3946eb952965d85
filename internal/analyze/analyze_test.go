package analyze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Alias1177/Analyst/internal/api/openrouter"
	"github.com/Alias1177/Analyst/internal/dataset"
	"github.com/Alias1177/Analyst/models"
)

// captureExplainer records what the pipeline asked for and returns canned
// text.
type captureExplainer struct {
	calls int
	rec   models.IndicatorRecord
	pair  models.PromptPair
	text  string
}

func (c *captureExplainer) Explain(_ context.Context, rec models.IndicatorRecord, pair models.PromptPair) models.ExplanationResult {
	c.calls++
	c.rec = rec
	c.pair = pair
	return models.ExplanationResult{Text: c.text}
}

func writeDataset(t *testing.T, content string) *dataset.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return dataset.NewReader(path)
}

const btcTwoDates = "ticker,date,close,rsi,ma20,ma7,sentiment_score\n" +
	"BTC,2024-01-01,42000,75,41000,40000,0.2\n" +
	"BTC,2024-02-01,43500.25,45,42500.5678,41000,0.3\n"

func TestAnalyzeUsesLatestRow(t *testing.T) {
	explainer := &captureExplainer{text: "Steady conditions."}
	analyzer := New(writeDataset(t, btcTwoDates), explainer, "1d")

	got, err := analyzer.Analyze(context.Background(), "btc")
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	if explainer.calls != 1 {
		t.Fatalf("explainer called %d times, want 1", explainer.calls)
	}
	if explainer.rec.RSI != 45 || explainer.rec.Date != "2024-02-01" {
		t.Errorf("prompt built from %+v, want the 2024-02-01 RSI=45 row", explainer.rec)
	}
	if !strings.Contains(explainer.pair.User, "RSI: 45.0") {
		t.Errorf("user prompt not built from latest row:\n%s", explainer.pair.User)
	}
	// RSI 45 sits in the neutral zone.
	if !strings.Contains(got, "🟡 RSI: 45.0") {
		t.Errorf("header does not show the neutral zone:\n%s", got)
	}
	if !strings.Contains(got, "Steady conditions.") {
		t.Errorf("reply missing explanation body:\n%s", got)
	}
	if !strings.Contains(got, "Educational analysis, not investment advice") {
		t.Errorf("reply missing disclaimer:\n%s", got)
	}
}

func TestAnalyzeNotFoundSkipsExplainer(t *testing.T) {
	explainer := &captureExplainer{text: "unused"}
	analyzer := New(writeDataset(t, btcTwoDates), explainer, "1d")

	_, err := analyzer.Analyze(context.Background(), "ZZZ")
	if !errors.Is(err, dataset.ErrNotFound) {
		t.Fatalf("Analyze() error = %v, want ErrNotFound", err)
	}
	if explainer.calls != 0 {
		t.Errorf("explainer called %d times for an unknown ticker", explainer.calls)
	}
}

func TestAnalyzeDataUnavailable(t *testing.T) {
	explainer := &captureExplainer{text: "unused"}
	analyzer := New(dataset.NewReader(filepath.Join(t.TempDir(), "missing.csv")), explainer, "1d")

	_, err := analyzer.Analyze(context.Background(), "BTC")
	if !errors.Is(err, dataset.ErrDataUnavailable) {
		t.Fatalf("Analyze() error = %v, want ErrDataUnavailable", err)
	}
	if explainer.calls != 0 {
		t.Errorf("explainer called %d times when data is unavailable", explainer.calls)
	}
}

func TestAnalyzeNoCredentialsEndToEnd(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	client := openrouter.NewClient(openrouter.Options{
		APIKey: "",
		Model:  "google/gemini-2.5-flash-lite",
		APIURL: srv.URL,
	})
	analyzer := New(writeDataset(t, btcTwoDates), client, "1d")

	got, err := analyzer.Analyze(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("pipeline issued %d HTTP requests without credentials", calls)
	}
	if !strings.Contains(got, "📊 RSI: 45.0 | Price: 43500.2500 | Sentiment: neutral") {
		t.Errorf("reply missing the indicator fallback line:\n%s", got)
	}
	if !strings.Contains(got, "Educational analysis, not investment advice") {
		t.Errorf("reply missing disclaimer:\n%s", got)
	}
}

func TestAnalyzeDegradedUpstreamStillReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := openrouter.NewClient(openrouter.Options{
		APIKey: "test-key",
		Model:  "google/gemini-2.5-flash-lite",
		APIURL: srv.URL,
	})
	analyzer := New(writeDataset(t, btcTwoDates), client, "1d")

	got, err := analyzer.Analyze(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("upstream failure must not fail the pipeline, got error: %v", err)
	}
	if !strings.Contains(got, "📊 <b>BTC</b>") || !strings.Contains(got, "Educational analysis") {
		t.Errorf("degraded reply is incomplete:\n%s", got)
	}
}

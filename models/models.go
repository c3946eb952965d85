package models

// IndicatorRecord is one resolved snapshot for a symbol at its most recent
// available date. Constructed per request, immutable afterwards.
type IndicatorRecord struct {
	Symbol         string  `json:"symbol"`
	Date           string  `json:"date"`
	Price          float64 `json:"price"`
	RSI            float64 `json:"rsi"`
	TrendAverage   float64 `json:"trend_average"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
	NewsSummary    string  `json:"news_summary"`
}

// PromptPair is the system/user instruction pair sent to the explanation
// service.
type PromptPair struct {
	System string
	User   string
}

// DegradedReason distinguishes why narrative generation was unavailable.
type DegradedReason string

const (
	DegradedNoCredentials     DegradedReason = "no_credentials"
	DegradedTransport         DegradedReason = "transport"
	DegradedUpstreamStatus    DegradedReason = "upstream_status"
	DegradedMalformedResponse DegradedReason = "malformed_response"
)

// ExplanationResult carries either the service's natural-language output or
// a degraded fallback text. A degraded result is a valid terminal outcome of
// the pipeline, not an error.
type ExplanationResult struct {
	Text     string
	Degraded bool
	Reason   DegradedReason
}

// TradeSignal is one buy/sell decision row from the trades log.
type TradeSignal struct {
	Ticker    string
	Decision  string
	Price     float64
	Date      string
	RSI       string
	Sentiment string
}

// SignalSubscriber is a chat registered for signal broadcasts.
type SignalSubscriber struct {
	UserID int64
	ChatID int64
}

package prompt

import (
	"fmt"

	"github.com/Alias1177/Analyst/models"
)

// DefaultTimeframe is used when the caller passes an empty timeframe.
const DefaultTimeframe = "1d"

const systemPrompt = "You are a cautious trading assistant providing educational analysis only. " +
	"Never give direct buy/sell advice. Explain conditions and scenarios."

// Build turns a resolved indicator record into the instruction pair for the
// explanation service. Pure function, always succeeds.
func Build(rec models.IndicatorRecord, timeframe string) models.PromptPair {
	if timeframe == "" {
		timeframe = DefaultTimeframe
	}

	user := fmt.Sprintf(`Analyze this market data:

Symbol: %s
Timeframe: %s
RSI: %.1f
SMA_50: %.4f
Price: %.4f
Sentiment: %s (score: %.2f)
Recent News: %s

Provide:
1. Current market condition (2-3 sentences)
2. Key technical signals (2 bullet points)
3. Sentiment context from news
4. Possible scenarios: bullish/bearish/neutral with brief reasoning
5. Risk factors to watch

Format for mobile reading. Use emojis. Keep under 300 words.`,
		rec.Symbol, timeframe, rec.RSI, rec.TrendAverage, rec.Price,
		rec.SentimentLabel, rec.SentimentScore, rec.NewsSummary)

	return models.PromptPair{System: systemPrompt, User: user}
}

package reply

import (
	"fmt"
	"strings"

	"github.com/Alias1177/Analyst/models"
)

// MaxMessageLength is the Telegram limit for a single message.
const MaxMessageLength = 4096

const disclaimer = "\n\n<code>⚠️ Educational analysis, not investment advice</code>"

// Assemble combines the indicator header, the explanation text and the
// disclaimer footer into one display-ready message, capped at the transport
// limit. Deterministic and pure.
func Assemble(rec models.IndicatorRecord, expl models.ExplanationResult) string {
	header := fmt.Sprintf(
		"📊 <b>%s</b> @ <code>$%.4f</code>\n📅 %s\n%s RSI: %.1f | SMA50: %.4f\n%s\n\n",
		rec.Symbol, rec.Price, rec.Date,
		ZoneMarker(rec.RSI), rec.RSI, rec.TrendAverage,
		strings.Repeat("─", 30),
	)

	full := header + expl.Text + disclaimer

	// Truncation counts runes so a multi-byte tail cannot push the message
	// past the limit once the ellipsis is appended.
	if runes := []rune(full); len(runes) > MaxMessageLength {
		full = string(runes[:MaxMessageLength-6]) + "…"
	}
	return full
}

// ZoneMarker maps the RSI value to its zone indicator: overbought above 70,
// oversold below 30, neutral in between. Boundaries are strict.
func ZoneMarker(rsi float64) string {
	switch {
	case rsi > 70:
		return "🔴"
	case rsi < 30:
		return "🟢"
	default:
		return "🟡"
	}
}

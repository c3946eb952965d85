package signals

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Analyst/models"
)

// Reader returns recent buy/sell decisions from the trades log.
type Reader struct {
	path   string
	logger zerolog.Logger
}

// NewReader creates a Reader for the given trades CSV path.
func NewReader(path string) *Reader {
	return &Reader{
		path:   path,
		logger: log.With().Str("component", "signals_reader").Logger(),
	}
}

// Latest returns the last n buy/sell signals in file order.
func (r *Reader) Latest(n int) ([]models.TradeSignal, error) {
	file, err := os.Open(r.path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("Failed to open trades log")
		return nil, fmt.Errorf("opening %s: %w", r.path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("Failed to parse trades log")
		return nil, fmt.Errorf("parsing %s: %w", r.path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var signals []models.TradeSignal
	for _, row := range records[1:] {
		decision := strings.ToLower(cell(row, header, "decision"))
		if decision != "buy" && decision != "sell" {
			continue
		}
		price, _ := strconv.ParseFloat(cell(row, header, "price"), 64)
		signals = append(signals, models.TradeSignal{
			Ticker:    cell(row, header, "ticker"),
			Decision:  decision,
			Price:     price,
			Date:      cell(row, header, "date"),
			RSI:       cell(row, header, "rsi"),
			Sentiment: cell(row, header, "sentiment"),
		})
	}

	if n > 0 && len(signals) > n {
		signals = signals[len(signals)-n:]
	}
	return signals, nil
}

// Format renders the signal list as an HTML message for the chat surface.
func Format(signals []models.TradeSignal) string {
	var sb strings.Builder
	sb.WriteString("📡 <b>Latest system signals:</b>\n\n")
	for _, s := range signals {
		marker := "🔴"
		if s.Decision == "buy" {
			marker = "🟢"
		}
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> · %s @ $%.4f\n   📅 %s | RSI: %s | Sent: %s\n\n",
			marker, strings.ToUpper(s.Decision), s.Ticker, s.Price, s.Date, s.RSI, s.Sentiment))
	}
	sb.WriteString("<i>⚠️ Educational analysis, not investment advice</i>")
	return sb.String()
}

func cell(row []string, header map[string]int, column string) string {
	idx, ok := header[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

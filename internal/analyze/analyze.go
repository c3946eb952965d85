package analyze

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Analyst/internal/prompt"
	"github.com/Alias1177/Analyst/internal/reply"
	"github.com/Alias1177/Analyst/models"
)

// Resolver looks up the latest indicator snapshot for a ticker.
type Resolver interface {
	Resolve(ticker string) (models.IndicatorRecord, error)
}

// Explainer turns a snapshot and its instruction pair into explanation text,
// degrading internally instead of failing.
type Explainer interface {
	Explain(ctx context.Context, rec models.IndicatorRecord, pair models.PromptPair) models.ExplanationResult
}

// Analyzer runs the analysis pipeline: resolve, build prompt, explain,
// assemble. Stateless and reentrant; concurrent calls share nothing mutable.
type Analyzer struct {
	resolver  Resolver
	explainer Explainer
	timeframe string
	logger    zerolog.Logger
}

// New wires the pipeline from its collaborators.
func New(resolver Resolver, explainer Explainer, timeframe string) *Analyzer {
	return &Analyzer{
		resolver:  resolver,
		explainer: explainer,
		timeframe: timeframe,
		logger:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze produces the formatted reply for a ticker. Dataset errors
// (dataset.ErrNotFound, dataset.ErrDataUnavailable) are the only failures;
// explanation-service trouble is absorbed into the reply body.
func (a *Analyzer) Analyze(ctx context.Context, rawTicker string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(rawTicker))

	rec, err := a.resolver.Resolve(ticker)
	if err != nil {
		return "", err
	}

	pair := prompt.Build(rec, a.timeframe)
	expl := a.explainer.Explain(ctx, rec, pair)
	if expl.Degraded {
		a.logger.Warn().Str("symbol", rec.Symbol).Str("reason", string(expl.Reason)).Msg("Explanation degraded")
	}

	return reply.Assemble(rec, expl), nil
}

package risk

import (
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/model"
)

// Chain tries strategies in order and returns the first successful
// prediction. Heuristic is always appended as the last strategy, so a
// Chain always produces a score.
type Chain struct {
	strategies []RiskModel
}

// NewChain builds a chain over the given strategies followed by Heuristic.
func NewChain(strategies ...RiskModel) *Chain {
	list := make([]RiskModel, 0, len(strategies)+1)
	list = append(list, strategies...)
	list = append(list, Heuristic{})
	return &Chain{strategies: list}
}

// Predict returns the score and the name of the strategy that produced it.
func (c *Chain) Predict(q Query) (float64, string) {
	for _, s := range c.strategies {
		score, err := s.Predict(q)
		if err != nil {
			zap.L().Debug("risk: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		return model.Clamp01(score), s.Name()
	}
	// Unreachable while Heuristic terminates the chain.
	score, _ := Heuristic{}.Predict(q)
	return score, Heuristic{}.Name()
}

// Strategies returns the strategy names in evaluation order.
func (c *Chain) Strategies() []string {
	out := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Name()
	}
	return out
}

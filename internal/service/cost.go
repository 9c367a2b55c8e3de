package service

import (
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/config"
	"github.com/hugo-lorenzo-mato/case-analyzer/internal/core"
)

// CostTable prices reasoning calls per quality tier.
type CostTable struct {
	Fast      config.TokenPrice
	Reasoning config.TokenPrice
}

// NewCostTable builds a cost table from configured prices.
func NewCostTable(cfg config.CostsConfig) CostTable {
	return CostTable{Fast: cfg.Fast, Reasoning: cfg.Reasoning}
}

// Cost returns the estimated USD cost of a call.
func (t CostTable) Cost(tier core.QualityTier, inputTokens, outputTokens int) float64 {
	price := t.Fast
	if tier == core.TierReasoning {
		price = t.Reasoning
	}
	return (float64(inputTokens)*price.InputPerMTok + float64(outputTokens)*price.OutputPerMTok) / 1_000_000
}

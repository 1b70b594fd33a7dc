// Package pricing holds the token pricing table and the byte-volume token
// heuristic used to estimate session cost.
package pricing

import (
	"fmt"

	"github.com/grovetools/fleet/pkg/models"
)

// ModelRate is the per-million-token price of one model, in USD.
type ModelRate struct {
	Input  float64
	Output float64
}

// ModelPricing lists per-million-token prices (USD) as of Feb 2026.
var ModelPricing = map[string]ModelRate{
	"claude-opus-4-6":   {Input: 15.0, Output: 75.0},
	"claude-sonnet-4-5": {Input: 3.0, Output: 15.0},
	"claude-haiku-4-5":  {Input: 0.80, Output: 4.0},
}

// DefaultModel is assumed when the session's model cannot be detected.
const DefaultModel = "claude-sonnet-4-5"

// BytesPerToken converts transcript file size to an approximate token count.
// Observed average for conversation JSONL is ~3.5 bytes per token. This is a
// byte-volume proxy, not a tokenizer count.
const BytesPerToken = 3.5

// EstimateTokensFromBytes returns a rough token estimate from transcript size.
func EstimateTokensFromBytes(byteCount int64) int {
	if byteCount <= 0 {
		return 0
	}
	return int(float64(byteCount) / BytesPerToken)
}

// EstimateCost returns the dollar cost for the given token usage.
func EstimateCost(inputTokens, outputTokens int, model string) float64 {
	rate, ok := ModelPricing[model]
	if !ok {
		rate = ModelPricing[DefaultModel]
	}
	inputCost := float64(inputTokens) / 1_000_000 * rate.Input
	outputCost := float64(outputTokens) / 1_000_000 * rate.Output
	return inputCost + outputCost
}

// DetectPlanType infers whether a session is subscription or token-billed.
// CLI, desktop app and background agent sessions ride the subscription plan;
// direct API processes and unknown sources default to pay-per-token.
func DetectPlanType(source models.Source) models.PlanType {
	switch source {
	case models.SourceCLI, models.SourceDesktop, models.SourceAgent:
		return models.PlanSubscription
	}
	return models.PlanPayPerToken
}

// FormatCost formats a dollar amount for display.
func FormatCost(dollars float64) string {
	if dollars < 0.01 {
		return "<$0.01"
	}
	return fmt.Sprintf("$%.2f", dollars)
}

// FormatTokens formats a token count for display (e.g. 48.2K, 1.2M).
func FormatTokens(count int) string {
	switch {
	case count >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(count)/1_000_000)
	case count >= 1_000:
		return fmt.Sprintf("%.1fK", float64(count)/1_000)
	default:
		return fmt.Sprintf("%d", count)
	}
}

package cost

import "fmt"

// TokenBreakdown is the canonical token triple extracted from a provider
// response. Each field is independently nil when the provider omitted that
// figure; a nil field is never substituted with zero.
type TokenBreakdown struct {
	InputTokens     *int `json:"input_tokens"`
	ReasoningTokens *int `json:"reasoning_tokens"`
	OutputTokens    *int `json:"output_tokens"`
}

// PriceSchedule holds a model's USD-per-million-token rates.
// CachedInputPerMillion is nil for models without a discounted cache tier.
type PriceSchedule struct {
	Currency              string   `json:"currency"`
	Unit                  string   `json:"unit"`
	InputPerMillion       float64  `json:"input"`
	OutputPerMillion      float64  `json:"output"`
	CachedInputPerMillion *float64 `json:"input_cached,omitempty"`
}

// NewPriceSchedule returns a schedule in the canonical currency and unit.
func NewPriceSchedule(inputPerMillion, outputPerMillion float64) *PriceSchedule {
	return &PriceSchedule{
		Currency:         "usd",
		Unit:             "per_million_tokens",
		InputPerMillion:  inputPerMillion,
		OutputPerMillion: outputPerMillion,
	}
}

// WithCachedInput returns a copy of the schedule with a cached-input rate.
func (schedule PriceSchedule) WithCachedInput(rate float64) *PriceSchedule {
	schedule.CachedInputPerMillion = &rate
	return &schedule
}

// CostBreakdown is a priced view of a TokenBreakdown. All values are in the
// schedule's currency; TotalCost is the exact sum of the three buckets.
type CostBreakdown struct {
	InputCost     float64 `json:"input_cost"`
	ReasoningCost float64 `json:"reasoning_cost"`
	OutputCost    float64 `json:"output_cost"`
	TotalCost     float64 `json:"total_cost"`
}

// ComputeBreakdown prices tokens against schedule. Reasoning tokens are priced
// at the output rate. When outputIncludesReasoning is true the output bucket
// is reduced by the reasoning tokens before pricing, clamped at zero, so the
// same tokens are never charged twice.
//
// Returns nil when the schedule is nil or when input or output token counts
// are absent: a partial or zero-filled breakdown is never fabricated.
func ComputeBreakdown(tokens *TokenBreakdown, schedule *PriceSchedule, outputIncludesReasoning bool) *CostBreakdown {
	if tokens == nil || schedule == nil {
		return nil
	}
	if tokens.InputTokens == nil || tokens.OutputTokens == nil {
		return nil
	}

	reasoningTokens := 0
	if tokens.ReasoningTokens != nil {
		reasoningTokens = *tokens.ReasoningTokens
	}

	outputTokens := *tokens.OutputTokens
	if outputIncludesReasoning {
		outputTokens -= reasoningTokens
		if outputTokens < 0 {
			outputTokens = 0
		}
	}

	inputCost := float64(*tokens.InputTokens) * schedule.InputPerMillion / 1_000_000
	reasoningCost := float64(reasoningTokens) * schedule.OutputPerMillion / 1_000_000
	outputCost := float64(outputTokens) * schedule.OutputPerMillion / 1_000_000

	return &CostBreakdown{
		InputCost:     inputCost,
		ReasoningCost: reasoningCost,
		OutputCost:    outputCost,
		TotalCost:     inputCost + reasoningCost + outputCost,
	}
}

// FormatCost renders a dollar value for transcripts and console output.
// Sub-millidollar values round to "rounds to 0¢", sub-dollar values are shown
// in cents with one decimal, and everything else as dollars.
func FormatCost(value float64) string {
	if value < 0.001 {
		return "rounds to 0¢"
	}
	if value < 1 {
		return fmt.Sprintf("%.1f¢", value*100)
	}
	return fmt.Sprintf("$%.2f", value)
}

// FormatCostLine renders a one-line summary of a breakdown, e.g.
// "Cost: $1.20 (30.0¢ input, 10.0¢ reasoning, 80.0¢ output)". When the total
// rounds to zero the component detail is omitted. includeReasoning controls
// whether the reasoning bucket appears in the detail.
func FormatCostLine(breakdown *CostBreakdown, outputLabel string, includeReasoning bool) string {
	if outputLabel == "" {
		outputLabel = "output"
	}
	totalLabel := FormatCost(breakdown.TotalCost)
	if totalLabel == "rounds to 0¢" {
		return "Cost: " + totalLabel
	}
	inputLabel := FormatCost(breakdown.InputCost)
	outputCostLabel := FormatCost(breakdown.OutputCost)
	if !includeReasoning {
		return fmt.Sprintf("Cost: %s (%s input, %s %s)", totalLabel, inputLabel, outputCostLabel, outputLabel)
	}
	reasoningLabel := FormatCost(breakdown.ReasoningCost)
	return fmt.Sprintf("Cost: %s (%s input, %s reasoning, %s %s)", totalLabel, inputLabel, reasoningLabel, outputCostLabel, outputLabel)
}

// Int returns a pointer to v, distinguishing a reported zero count from an
// absent one when building a TokenBreakdown by hand.
func Int(v int) *int {
	return &v
}

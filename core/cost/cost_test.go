package cost

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBreakdown_ReasoningInsideOutput(t *testing.T) {
	tokens := &TokenBreakdown{
		InputTokens:     Int(100),
		ReasoningTokens: Int(40),
		OutputTokens:    Int(200),
	}
	schedule := NewPriceSchedule(2.0, 8.0)

	breakdown := ComputeBreakdown(tokens, schedule, true)
	require.NotNil(t, breakdown)

	assert.InDelta(t, 0.0002, breakdown.InputCost, 1e-12)
	assert.InDelta(t, 0.00032, breakdown.ReasoningCost, 1e-12)
	assert.InDelta(t, 0.00128, breakdown.OutputCost, 1e-12)
	assert.InDelta(t, 0.0018, breakdown.TotalCost, 1e-12)

	// Total must be the exact sum of the buckets, not an independently
	// rounded figure.
	sum := breakdown.InputCost + breakdown.ReasoningCost + breakdown.OutputCost
	assert.Equal(t, sum, breakdown.TotalCost)
}

func TestComputeBreakdown_OutputExcludesReasoning(t *testing.T) {
	tokens := &TokenBreakdown{
		InputTokens:     Int(1000),
		ReasoningTokens: Int(500),
		OutputTokens:    Int(2000),
	}
	schedule := NewPriceSchedule(1.0, 10.0)

	breakdown := ComputeBreakdown(tokens, schedule, false)
	require.NotNil(t, breakdown)

	// Output priced unadjusted; reasoning still priced at the output rate.
	assert.InDelta(t, 0.02, breakdown.OutputCost, 1e-12)
	assert.InDelta(t, 0.005, breakdown.ReasoningCost, 1e-12)
}

func TestComputeBreakdown_ClampsNegativeOutputBucket(t *testing.T) {
	tokens := &TokenBreakdown{
		InputTokens:     Int(10),
		ReasoningTokens: Int(300),
		OutputTokens:    Int(200),
	}
	breakdown := ComputeBreakdown(tokens, NewPriceSchedule(2.0, 8.0), true)
	require.NotNil(t, breakdown)

	assert.Equal(t, 0.0, breakdown.OutputCost)
	assert.Greater(t, breakdown.ReasoningCost, 0.0)
}

func TestComputeBreakdown_MissingUsageYieldsNil(t *testing.T) {
	schedule := NewPriceSchedule(2.0, 8.0)

	cases := map[string]*TokenBreakdown{
		"nil tokens":     nil,
		"missing input":  {OutputTokens: Int(10)},
		"missing output": {InputTokens: Int(10)},
	}
	for name, tokens := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, ComputeBreakdown(tokens, schedule, true))
		})
	}

	t.Run("nil schedule", func(t *testing.T) {
		tokens := &TokenBreakdown{InputTokens: Int(1), OutputTokens: Int(1)}
		assert.Nil(t, ComputeBreakdown(tokens, nil, true))
	})
}

func TestComputeBreakdown_AbsentReasoningTreatedAsZero(t *testing.T) {
	tokens := &TokenBreakdown{InputTokens: Int(100), OutputTokens: Int(200)}
	breakdown := ComputeBreakdown(tokens, NewPriceSchedule(2.0, 8.0), true)
	require.NotNil(t, breakdown)

	assert.Equal(t, 0.0, breakdown.ReasoningCost)
	assert.InDelta(t, 0.0016, breakdown.OutputCost, 1e-12)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "rounds to 0¢", FormatCost(0.0004))
	assert.Equal(t, "0.1¢", FormatCost(0.001))
	assert.Equal(t, "12.3¢", FormatCost(0.1234))
	assert.Equal(t, "$1.20", FormatCost(1.2))
}

func TestFormatCostLine(t *testing.T) {
	breakdown := &CostBreakdown{
		InputCost:     0.30,
		ReasoningCost: 0.10,
		OutputCost:    0.80,
		TotalCost:     1.20,
	}

	withReasoning := FormatCostLine(breakdown, "output", true)
	assert.Equal(t, "Cost: $1.20 (30.0¢ input, 10.0¢ reasoning, 80.0¢ output)", withReasoning)

	withoutReasoning := FormatCostLine(breakdown, "completion", false)
	assert.Equal(t, "Cost: $1.20 (30.0¢ input, 80.0¢ completion)", withoutReasoning)

	tiny := &CostBreakdown{TotalCost: 0.0001}
	assert.Equal(t, "Cost: rounds to 0¢", FormatCostLine(tiny, "", true))
}

func TestWithCachedInput(t *testing.T) {
	schedule := NewPriceSchedule(0.56, 1.68).WithCachedInput(0.28)
	require.NotNil(t, schedule.CachedInputPerMillion)
	assert.Equal(t, 0.28, *schedule.CachedInputPerMillion)
	assert.False(t, math.Signbit(schedule.InputPerMillion))
}

package llm

// costPerToken holds USD prices per 1K tokens: [input, output].
var costPerToken = map[string][2]float64{
	"gpt-4o":                 {0.0025, 0.01},
	"gpt-4o-mini":            {0.00015, 0.0006},
	"gpt-4.1":                {0.002, 0.008},
	"gpt-4.1-mini":           {0.0004, 0.0016},
	"text-embedding-3-small": {0.00002, 0},
	"text-embedding-3-large": {0.00013, 0},

	"claude-3-haiku-20240307":  {0.00025, 0.00125},
	"claude-sonnet-4-20250514": {0.003, 0.015},
	"claude-opus-4-20250514":   {0.015, 0.075},
}

// CalculateCost returns zero for models without a known price.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	prices, ok := costPerToken[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000.0*prices[0] + float64(outputTokens)/1000.0*prices[1]
}

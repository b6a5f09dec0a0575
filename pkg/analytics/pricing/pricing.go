package pricing

import "strings"

// Usage is the token usage of one request. InputTokens includes cache
// traffic; Estimate splits the cached portion out at its own rates.
type Usage struct {
	// InputTokens is the total prompt-side token count.
	InputTokens int64 `json:"input_tokens"`

	// OutputTokens is the completion token count.
	OutputTokens int64 `json:"output_tokens"`

	// CacheReadTokens is the portion of input served from prompt cache.
	CacheReadTokens int64 `json:"cache_read_tokens"`

	// CacheCreationTokens is the portion of input written to prompt cache.
	CacheCreationTokens int64 `json:"cache_creation_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// IsZero reports whether no tokens were recorded at all.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheReadTokens == 0 && u.CacheCreationTokens == 0
}

// Add returns the componentwise sum of two usage counts.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:         u.InputTokens + o.InputTokens,
		OutputTokens:        u.OutputTokens + o.OutputTokens,
		CacheReadTokens:     u.CacheReadTokens + o.CacheReadTokens,
		CacheCreationTokens: u.CacheCreationTokens + o.CacheCreationTokens,
	}
}

// ModelPrice is a model's rates in USD per million tokens.
type ModelPrice struct {
	// Input is the prompt-side rate.
	Input float64 `yaml:"input" json:"input"`

	// Output is the completion-side rate.
	Output float64 `yaml:"output" json:"output"`
}

// Cost is an estimate broken into components, in USD.
type Cost struct {
	// Input covers regular (uncached) prompt tokens.
	Input float64 `json:"input"`

	// Output covers completion tokens.
	Output float64 `json:"output"`

	// CacheRead covers prompt tokens served from cache.
	CacheRead float64 `json:"cache_read"`

	// CacheWrite covers prompt tokens written to cache.
	CacheWrite float64 `json:"cache_write"`

	// Total is the sum of all components.
	Total float64 `json:"total"`
}

// Add returns the componentwise sum of two costs.
func (c Cost) Add(o Cost) Cost {
	return Cost{
		Input:      c.Input + o.Input,
		Output:     c.Output + o.Output,
		CacheRead:  c.CacheRead + o.CacheRead,
		CacheWrite: c.CacheWrite + o.CacheWrite,
		Total:      c.Total + o.Total,
	}
}

const (
	// cacheReadRate prices cache reads at 10% of the input rate.
	cacheReadRate = 0.10

	// cacheWriteRate prices cache writes at 125% of the input rate.
	cacheWriteRate = 1.25
)

// familyPrices are the built-in rates per model family. Dated model IDs
// resolve through the family name they contain.
var familyPrices = map[string]ModelPrice{
	"opus":   {Input: 15, Output: 75},
	"sonnet": {Input: 3, Output: 15},
	"haiku":  {Input: 0.80, Output: 4},
}

// defaultPrice applies when no family matches (Sonnet tier).
var defaultPrice = ModelPrice{Input: 3, Output: 15}

// familyPrice resolves a model ID to built-in rates by family name.
func familyPrice(model string) ModelPrice {
	id := strings.ToLower(model)
	for family, price := range familyPrices {
		if strings.Contains(id, family) {
			return price
		}
	}
	return defaultPrice
}

// estimate computes the cost of the given usage at the given rates.
// Regular input is what remains after cache traffic is split out,
// clamped at zero for defective upstream counts.
func estimate(p ModelPrice, u Usage) Cost {
	regular := u.InputTokens - u.CacheReadTokens - u.CacheCreationTokens
	if regular < 0 {
		regular = 0
	}

	c := Cost{
		Input:      tokenCost(regular, p.Input),
		Output:     tokenCost(u.OutputTokens, p.Output),
		CacheRead:  tokenCost(u.CacheReadTokens, p.Input*cacheReadRate),
		CacheWrite: tokenCost(u.CacheCreationTokens, p.Input*cacheWriteRate),
	}
	c.Total = c.Input + c.Output + c.CacheRead + c.CacheWrite
	return c
}

// tokenCost calculates the cost for a token count at a per-million rate.
func tokenCost(tokens int64, perMillion float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1e6 * perMillion
}

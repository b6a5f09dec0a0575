// Package pricing estimates the dollar cost of recorded token usage.
//
// Rates are USD per million tokens. Built-in rates cover the Opus,
// Sonnet and Haiku families; dated model IDs resolve through the family
// name they contain, and unknown models fall back to Sonnet-tier rates.
// Cache reads are priced at 10% of the model's input rate and cache
// writes at 125%, with the cached portion subtracted from regular
// input.
//
// An optional YAML file overrides rates per model ID and is reloaded on
// change, so published price adjustments don't require a rebuild. All
// figures are estimates for display; they are not billing data.
package pricing

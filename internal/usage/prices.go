// Package usage tracks token consumption and turns it into cost estimates.
package usage

// Price is a model's list price in USD per one million tokens and its
// requests-per-minute limit.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
	RPM              int
}

// PriceTable maps model names to prices. Lookups of unknown models fall back
// to the entry under DefaultModel.
type PriceTable map[string]Price

// DefaultModel is the key of the fallback price.
const DefaultModel = "default"

// DefaultPrices are estimates and may drift from the vendors' current lists.
var DefaultPrices = PriceTable{
	"gpt-4o":                     {InputPerMillion: 5.0, OutputPerMillion: 15.0, RPM: 60},
	"gemini-2.5-flash":           {InputPerMillion: 0.35, OutputPerMillion: 1.05, RPM: 20},
	"claude-3-5-sonnet-20240620": {InputPerMillion: 3.0, OutputPerMillion: 15.0, RPM: 40},
	"llama3":                     {InputPerMillion: 0, OutputPerMillion: 0, RPM: 90},
	"phi3":                       {InputPerMillion: 0, OutputPerMillion: 0, RPM: 90},
	DefaultModel:                 {InputPerMillion: 0, OutputPerMillion: 0, RPM: 30},
}

// Lookup returns the price for model.
func (t PriceTable) Lookup(model string) Price {
	if p, ok := t[model]; ok {
		return p
	}
	return t[DefaultModel]
}

// Cost prices a token count.
func (p Price) Cost(tokensIn, tokensOut int64) float64 {
	return float64(tokensIn)/1_000_000*p.InputPerMillion + float64(tokensOut)/1_000_000*p.OutputPerMillion
}

// Package tokens provides token cost estimation for prompt budgeting.
package tokens

import (
	"github.com/tmc/langchaingo/llms"
)

// Counter returns the integer token cost of a string. Implementations must be
// deterministic for identical input; the budgeting code only sums and compares
// the returned values.
type Counter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the tokenizer of the configured model.
type TiktokenCounter struct {
	Model string
}

func (c TiktokenCounter) Count(text string) int {
	model := c.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return llms.CountTokens(model, text)
}

// CharCounter estimates tokens using a characters-per-token ratio. This is a
// rough approximation (1 token ~= 4 chars) for when no tokenizer is available.
type CharCounter struct {
	CharsPerToken int // defaults to 4 if zero
}

func (c CharCounter) ratio() int {
	if c.CharsPerToken <= 0 {
		return 4
	}
	return c.CharsPerToken
}

func (c CharCounter) Count(text string) int {
	return len(text) / c.ratio()
}

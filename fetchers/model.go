package fetchers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/rickchristie/ghost"
)

// Model is a [ghost.Fetcher] backed by a LangChainGo llms.Model.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	fetcher := fetchers.NewModel(llm).WithModelName("gpt-4o-mini")
//
//	coord := ghost.NewCoordinator(fetcher)
type Model struct {
	model llms.Model
	name  string // optional model name forwarded on each call
}

// NewModel creates a Model fetcher wrapping the given llms.Model.
func NewModel(model llms.Model) *Model {
	return &Model{model: model}
}

// WithModelName sets the model name passed on each generation call.
// Returns the fetcher for chaining.
func (m *Model) WithModelName(name string) *Model {
	m.name = name
	return m
}

// Unwrap returns the underlying llms.Model.
func (m *Model) Unwrap() llms.Model {
	return m.model
}

// Fetch implements ghost.Fetcher. The request's token and temperature
// limits are forwarded as call options; the response goes through
// [Decode].
func (m *Model) Fetch(
	ctx context.Context,
	req ghost.FetchRequest,
) (*ghost.Suggestion, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithTemperature(req.Temperature),
	}
	if m.name != "" {
		opts = append(opts, llms.WithModel(m.name))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, m.model, BuildPrompt(req), opts...)
	if err != nil {
		return nil, fmt.Errorf("fetchers: model call failed: %w", err)
	}

	return Decode(out), nil
}

// Compile-time check that Model implements ghost.Fetcher.
var _ ghost.Fetcher = (*Model)(nil)

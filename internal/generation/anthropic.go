package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const (
	anthropicModel     = "claude-3-5-sonnet-20240620"
	anthropicMaxTokens = 1500
	systemPrompt       = "You are an assistant that explains household policy simulation results."
)

// AnthropicGenerator generates explanations by streaming from the
// Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicGenerator creates a generator from an API key.
func NewAnthropicGenerator(apiKey string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropicModel,
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (Stream, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	raw := g.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:       anthropic.F(g.model),
		MaxTokens:   anthropic.F(int64(anthropicMaxTokens)),
		Temperature: anthropic.F(0.0),
		System: anthropic.F([]anthropic.TextBlockParam{
			{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(systemPrompt),
			},
		}),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})

	return &anthropicStream{raw: raw}, nil
}

// anthropicStream surfaces only the text deltas of a message stream.
type anthropicStream struct {
	raw     *ssestream.Stream[anthropic.MessageStreamEvent]
	current string
}

func (s *anthropicStream) Next() bool {
	for s.raw.Next() {
		event := s.raw.Current()
		if delta, ok := event.Delta.(anthropic.ContentBlockDeltaEventDelta); ok && delta.Text != "" {
			s.current = delta.Text
			return true
		}
	}
	return false
}

func (s *anthropicStream) Current() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.raw.Err()
}

func (s *anthropicStream) Close() error {
	return s.raw.Close()
}

// FriendlyMessage maps a backend failure to user-facing wording. The
// raw error still goes to the log; clients only see these.
func FriendlyMessage(err error) string {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 529:
			return "Claude, our partner service, is currently overloaded. Please try again later."
		case apierr.StatusCode >= 500:
			return "Claude, our partner service, is currently experiencing an error. Please try again later."
		}
	}
	return "The AI service has experienced an error."
}

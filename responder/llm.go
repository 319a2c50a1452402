package responder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const systemPrompt = "You are HealthQ, a friendly AI health assistant. " +
	"Answer general health and wellness questions in plain language. " +
	"You are not a doctor and must not diagnose or prescribe."

// LLM delegates reply generation to a vendor completion API through
// langchaingo.
type LLM struct {
	model llms.Model
}

// NewLLM constructs a responder for the given provider. Supported providers
// are "openai" and "googleai".
func NewLLM(ctx context.Context, provider, apiKey, model string) (*LLM, error) {
	switch provider {
	case "openai":
		llm, err := openai.New(
			openai.WithToken(apiKey),
			openai.WithModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init openai responder: %w", err)
		}
		return &LLM{model: llm}, nil
	case "googleai":
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(apiKey),
			googleai.WithDefaultModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init googleai responder: %w", err)
		}
		return &LLM{model: llm}, nil
	default:
		return nil, fmt.Errorf("unknown responder provider %q", provider)
	}
}

func (l *LLM) content(message string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, message),
	}
}

func (l *LLM) Reply(ctx context.Context, message string) (string, error) {
	output, err := l.model.GenerateContent(ctx, l.content(message),
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	if len(output.Choices) == 0 {
		return "", fmt.Errorf("responder returned no choices")
	}

	return output.Choices[0].Content, nil
}

func (l *LLM) StreamReply(ctx context.Context, message string, fn func(chunk string) error) (string, error) {
	var reply string

	_, err := l.model.GenerateContent(ctx, l.content(message),
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			reply += string(chunk)
			return fn(string(chunk))
		}),
	)
	if err != nil {
		// Partial text accumulated before the failure still matters to the
		// caller, who decides whether to persist it.
		return reply, fmt.Errorf("failed to stream reply: %w", err)
	}

	return reply, nil
}

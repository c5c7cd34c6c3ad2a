package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"announce-qa-be/pkg/llm"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements llm.LLMProvider using the official openai-go SDK.
// It also serves any OpenAI-compatible endpoint via WithBaseURL.
type OpenAIProvider struct {
	client openaisdk.Client
	model  string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIProvider{
		client: openaisdk.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "system":
			msgs = append(msgs, openaisdk.SystemMessage(msg.Content))
		case "assistant", "model":
			msgs = append(msgs, openaisdk.ChatCompletionMessageParamOfAssistant(msg.Content))
		default:
			msgs = append(msgs, openaisdk.UserMessage(msg.Content))
		}
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(model),
		Messages: msgs,
	}
	params.Temperature = openaisdk.Float(options.Temperature)
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(options.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

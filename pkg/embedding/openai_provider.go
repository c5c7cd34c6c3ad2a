package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider generates embeddings through the openai-go SDK.
type OpenAIProvider struct {
	client openaisdk.Client
	model  string
}

var _ EmbeddingProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIProvider{
		client: openaisdk.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	// OpenAI embeddings are symmetric; taskType is accepted for interface
	// compatibility and ignored here.
	resp, err := p.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(p.model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embedding: empty response data")
	}

	values := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		values[i] = float32(v)
	}
	return &EmbeddingResponse{Values: values}, nil
}

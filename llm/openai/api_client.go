package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// apiClient is the part of the OpenAI API the backend calls. Tests replace it.
type apiClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// realAPIClient forwards to the go-openai client.
type realAPIClient struct {
	client *openai.Client
}

func (r *realAPIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return r.client.CreateChatCompletion(ctx, req)
}

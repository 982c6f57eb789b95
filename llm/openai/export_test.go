package openai

import (
	"context"
	"io"
	"net/http"
)

// Export for testing
type APIClient = apiClient

var (
	TokenLimitErrorOptions = tokenLimitErrorOptions
	WithExtraBody          = withExtraBody
)

// NewWithAPIClient creates a client backed by a custom API client for testing
func NewWithAPIClient(client apiClient, model string) *Client {
	return &Client{
		apiClient:    client,
		defaultModel: model,
	}
}

func NewExtraBodyTransport(base http.RoundTripper) http.RoundTripper {
	return newExtraBodyTransport(base)
}

func InjectExtraBody(ctx context.Context, body io.ReadCloser) ([]byte, error) {
	return injectExtraBody(body, extraBodyFrom(ctx))
}

package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames"
	"github.com/sashabaranov/go-openai"
)

var (
	// openaiPromptScope is the logging scope for OpenAI prompts
	openaiPromptScope = ctxlog.NewScope("openai_prompt", ctxlog.EnabledBy("MINDGAMES_LOGGING_OPENAI_PROMPT"))

	// openaiResponseScope is the logging scope for OpenAI responses
	openaiResponseScope = ctxlog.NewScope("openai_response", ctxlog.EnabledBy("MINDGAMES_LOGGING_OPENAI_RESPONSE"))
)

// Client is a client for OpenAI compatible chat completion endpoints.
// It implements mindgames.LLMClient.
type Client struct {
	apiClient apiClient

	// defaultModel is used when a request does not name a model.
	defaultModel string

	// baseURL is the custom base URL for the API.
	// If empty, uses the default OpenAI API endpoints.
	baseURL string

	// httpClient is the client used to reach the endpoint. Its transport
	// is wrapped to send sampling fields outside the OpenAI schema.
	httpClient *http.Client
}

var _ mindgames.LLMClient = (*Client)(nil)

const DefaultModel = mindgames.DefaultModel

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the model to use when a request does not name one.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithBaseURL sets the custom base URL for the API.
// Allows usage with compatible endpoints, proxies, or self-hosted instances
// such as vLLM.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used to reach the endpoint.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// New creates a new client. The API key may be empty for local servers
// that do not authenticate.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	client := &Client{
		defaultModel: DefaultModel,
		httpClient:   &http.Client{},
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)

	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}

	httpClient := *client.httpClient
	httpClient.Transport = newExtraBodyTransport(httpClient.Transport)
	config.HTTPClient = &httpClient

	client.apiClient = &realAPIClient{client: openai.NewClientWithConfig(config)}

	ctxlog.From(ctx).Debug("openai client created",
		"model", client.defaultModel,
		"base_url", config.BaseURL,
	)

	return client, nil
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req *mindgames.CompletionRequest) (*mindgames.CompletionResponse, error) {
	if req == nil {
		return nil, goerr.Wrap(mindgames.ErrInvalidParameter, "completion request is nil")
	}

	openaiReq := c.createRequest(req)
	logPrompt(ctx, openaiReq)

	resp, err := c.apiClient.CreateChatCompletion(withExtraBody(ctx, extraBody(req.Sampling)), openaiReq)
	if err != nil {
		opts := append(tokenLimitErrorOptions(err), goerr.V("model", openaiReq.Model))
		return nil, goerr.Wrap(err, "failed to create chat completion", opts...)
	}

	logResponse(ctx, resp)

	return convertResponse(resp), nil
}

func (c *Client) createRequest(req *mindgames.CompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
	}
}

// extraBody returns the sampling fields merged into the JSON body.
// temperature and top_p are always present because the typed request omits
// zero values. top_k and min_p are sent only when set.
func extraBody(p mindgames.SamplingParams) map[string]any {
	extra := map[string]any{
		"temperature": p.Temperature,
		"top_p":       p.TopP,
	}
	if p.TopK != nil {
		extra["top_k"] = *p.TopK
	}
	if p.MinP != nil {
		extra["min_p"] = *p.MinP
	}
	return extra
}

// convertResponse maps the SDK response. The SDK decodes a null content
// as an empty string, so empty content and reasoning are reported as absent.
func convertResponse(resp openai.ChatCompletionResponse) *mindgames.CompletionResponse {
	result := &mindgames.CompletionResponse{
		Choices: make([]mindgames.Choice, 0, len(resp.Choices)),
	}

	for _, choice := range resp.Choices {
		msg := &mindgames.ChoiceMessage{}
		if choice.Message.Content != "" {
			content := choice.Message.Content
			msg.Content = &content
		}
		if choice.Message.ReasoningContent != "" {
			reasoning := choice.Message.ReasoningContent
			msg.Reasoning = &reasoning
		}
		result.Choices = append(result.Choices, mindgames.Choice{Message: msg})
	}

	return result
}

func logPrompt(ctx context.Context, req openai.ChatCompletionRequest) {
	logger := ctxlog.From(ctx, openaiPromptScope)
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return
	}

	var messages []map[string]string
	for _, msg := range req.Messages {
		messages = append(messages, map[string]string{
			"role":    msg.Role,
			"content": msg.Content,
		})
	}

	logger.Info("OpenAI prompt",
		"model", req.Model,
		"temperature", req.Temperature,
		"top_p", req.TopP,
		"messages", messages,
	)
}

func logResponse(ctx context.Context, resp openai.ChatCompletionResponse) {
	logger := ctxlog.From(ctx, openaiResponseScope)
	if !logger.Enabled(ctx, slog.LevelInfo) {
		return
	}

	var content []map[string]any
	for _, choice := range resp.Choices {
		content = append(content, map[string]any{
			"finish_reason": choice.FinishReason,
			"text":          choice.Message.Content,
			"reasoning":     choice.Message.ReasoningContent,
		})
	}

	logger.Info("OpenAI response",
		"model", resp.Model,
		"usage", map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
		"content", content,
	)
}

// tokenLimitErrorOptions checks if the error is a token limit exceeded error
// and returns goerr.Option to tag the error with ErrTagTokenExceeded.
//
// Detection logic:
// - Error must be *openai.APIError
// - Type must be "invalid_request_error"
// - Code must be "context_length_exceeded" (as string)
func tokenLimitErrorOptions(err error) []goerr.Option {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Type != "invalid_request_error" {
		return nil
	}

	codeStr, ok := apiErr.Code.(string)
	if !ok {
		return nil
	}

	if codeStr == "context_length_exceeded" {
		return []goerr.Option{goerr.Tag(mindgames.ErrTagTokenExceeded)}
	}

	return nil
}

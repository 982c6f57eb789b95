package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/config"
	"github.com/m-mizutani/mindgames/llm/openai"
	openaiapi "github.com/sashabaranov/go-openai"
)

func TestOpenAIComplete(t *testing.T) {
	apiKey, ok := os.LookupEnv("TEST_OPENAI_API_KEY")
	if !ok {
		t.Skip("TEST_OPENAI_API_KEY is not set")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx = ctxlog.With(ctx, logger)

	options := []openai.Option{}
	if model, ok := os.LookupEnv("TEST_OPENAI_MODEL"); ok {
		options = append(options, openai.WithModel(model))
	}
	if baseURL, ok := os.LookupEnv("TEST_OPENAI_BASE_URL"); ok {
		options = append(options, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(ctx, apiKey, options...)
	gt.NoError(t, err)

	resp, err := client.Complete(ctx, &mindgames.CompletionRequest{
		Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "Say hello in one word"}},
		Sampling: mindgames.SamplingParams{Temperature: 1.0, TopP: 1.0},
	})
	gt.NoError(t, err)
	gt.Array(t, resp.Choices).Length(1).Required()
	gt.NotNil(t, resp.Choices[0].Message.Content)
}

type capturedRequest struct {
	Path   string
	Header http.Header
	Body   map[string]any
}

func newServer(t *testing.T, status int, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()
		gt.NoError(t, json.Unmarshal(raw, &captured.Body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteWithServer(t *testing.T) {
	const response = `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "Qwen/Qwen3-8B",
		"choices": [{
			"index": 0,
			"finish_reason": "stop",
			"message": {"role": "assistant", "content": "[0 cooperate] [2 defect]", "reasoning_content": "player 2 defected"}
		}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`

	t.Run("ipd sampling sends top_k and min_p", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusOK, response, &captured)

		client, err := openai.New(context.Background(), "test-key", openai.WithBaseURL(srv.URL+"/v1"))
		gt.NoError(t, err).Required()

		resp, err := client.Complete(context.Background(), &mindgames.CompletionRequest{
			Model: "Qwen/Qwen3-8B",
			Messages: []mindgames.Message{
				{Role: mindgames.RoleSystem, Content: "system"},
				{Role: mindgames.RoleUser, Content: "observation"},
			},
			Sampling: mindgames.SamplingFor(mindgames.KindThreePlayerIPD),
		})
		gt.NoError(t, err).Required()

		gt.Equal(t, captured.Path, "/v1/chat/completions")
		gt.Equal(t, captured.Header.Get("Authorization"), "Bearer test-key")
		gt.Equal(t, captured.Body["model"], any("Qwen/Qwen3-8B"))
		gt.Equal(t, captured.Body["top_k"], any(float64(20)))
		gt.Equal(t, captured.Body["min_p"], any(float64(0)))
		gt.Equal(t, captured.Body["top_p"], any(0.95))

		messages, ok := captured.Body["messages"].([]any)
		gt.True(t, ok)
		gt.A(t, messages).Length(2)

		gt.Array(t, resp.Choices).Length(1).Required()
		msg := resp.Choices[0].Message
		gt.Equal(t, *msg.Content, "[0 cooperate] [2 defect]")
		gt.Equal(t, *msg.Reasoning, "player 2 defected")
	})

	t.Run("default sampling sends no extra fields", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusOK, response, &captured)

		client, err := openai.New(context.Background(), "", openai.WithBaseURL(srv.URL+"/v1"), openai.WithModel("local-model"))
		gt.NoError(t, err).Required()

		_, err = client.Complete(context.Background(), &mindgames.CompletionRequest{
			Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "observation"}},
			Sampling: mindgames.SamplingFor(mindgames.KindCodenames),
		})
		gt.NoError(t, err).Required()

		gt.Equal(t, captured.Body["model"], any("local-model"))
		_, hasTopK := captured.Body["top_k"]
		_, hasMinP := captured.Body["min_p"]
		gt.False(t, hasTopK)
		gt.False(t, hasMinP)
	})

	t.Run("zero temperature from config is sent", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusOK, response, &captured)

		table, err := config.ParseSampling([]byte("Codenames:\n  temperature: 0\n  top_p: 1\n"))
		gt.NoError(t, err).Required()

		client, err := openai.New(context.Background(), "k", openai.WithBaseURL(srv.URL+"/v1"))
		gt.NoError(t, err).Required()

		_, err = client.Complete(context.Background(), &mindgames.CompletionRequest{
			Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "observation"}},
			Sampling: table.For(mindgames.KindCodenames),
		})
		gt.NoError(t, err).Required()

		temperature, ok := captured.Body["temperature"]
		gt.True(t, ok)
		gt.Equal(t, temperature, any(float64(0)))
		gt.Equal(t, captured.Body["top_p"], any(float64(1)))
	})

	t.Run("no choices", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusOK, `{"id":"x","choices":[]}`, &captured)

		client, err := openai.New(context.Background(), "k", openai.WithBaseURL(srv.URL+"/v1"))
		gt.NoError(t, err).Required()

		resp, err := client.Complete(context.Background(), &mindgames.CompletionRequest{
			Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "observation"}},
		})
		gt.NoError(t, err).Required()
		gt.A(t, resp.Choices).Length(0)
	})

	t.Run("null content is absent", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":null}}]}`, &captured)

		client, err := openai.New(context.Background(), "k", openai.WithBaseURL(srv.URL+"/v1"))
		gt.NoError(t, err).Required()

		resp, err := client.Complete(context.Background(), &mindgames.CompletionRequest{
			Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "observation"}},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, resp.Choices).Length(1).Required()
		gt.Nil(t, resp.Choices[0].Message.Content)
		gt.Nil(t, resp.Choices[0].Message.Reasoning)
	})

	t.Run("context length error is tagged", func(t *testing.T) {
		var captured capturedRequest
		srv := newServer(t, http.StatusBadRequest, `{"error":{"message":"too long","type":"invalid_request_error","code":"context_length_exceeded"}}`, &captured)

		client, err := openai.New(context.Background(), "k", openai.WithBaseURL(srv.URL+"/v1"))
		gt.NoError(t, err).Required()

		_, err = client.Complete(context.Background(), &mindgames.CompletionRequest{
			Messages: []mindgames.Message{{Role: mindgames.RoleUser, Content: "observation"}},
		})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, mindgames.ErrTagTokenExceeded))

		var apiErr *openaiapi.APIError
		gt.True(t, errors.As(err, &apiErr))
		gt.Equal(t, apiErr.HTTPStatusCode, http.StatusBadRequest)
	})
}

type apiClientFunc func(ctx context.Context, req openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error)

func (f apiClientFunc) CreateChatCompletion(ctx context.Context, req openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error) {
	return f(ctx, req)
}

func TestCompleteRequestMapping(t *testing.T) {
	var got openaiapi.ChatCompletionRequest
	client := openai.NewWithAPIClient(apiClientFunc(func(ctx context.Context, req openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error) {
		got = req
		return openaiapi.ChatCompletionResponse{
			Choices: []openaiapi.ChatCompletionChoice{
				{Message: openaiapi.ChatCompletionMessage{Role: "assistant", Content: "[A10 B10]"}},
			},
		}, nil
	}), "default-model")

	resp, err := client.Complete(context.Background(), &mindgames.CompletionRequest{
		Messages: []mindgames.Message{
			{Role: mindgames.RoleSystem, Content: "sys"},
			{Role: mindgames.RoleUser, Content: "obs"},
		},
		Sampling: mindgames.SamplingParams{Temperature: 0.7, TopP: 0.9},
	})
	gt.NoError(t, err).Required()

	gt.Equal(t, got.Model, "default-model")
	gt.Equal(t, got.Temperature, float32(0.7))
	gt.Equal(t, got.TopP, float32(0.9))
	gt.Equal(t, got.Messages, []openaiapi.ChatCompletionMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "obs"},
	})
	gt.Equal(t, *resp.Choices[0].Message.Content, "[A10 B10]")
	gt.Nil(t, resp.Choices[0].Message.Reasoning)
}

func TestCompleteNilRequest(t *testing.T) {
	client := openai.NewWithAPIClient(apiClientFunc(nil), "m")
	_, err := client.Complete(context.Background(), nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, mindgames.ErrInvalidParameter))
}

func TestInjectExtraBody(t *testing.T) {
	t.Run("fields are merged", func(t *testing.T) {
		ctx := openai.WithExtraBody(context.Background(), map[string]any{"top_k": 20})
		body, err := openai.InjectExtraBody(ctx, io.NopCloser(strings.NewReader(`{"model":"m","top_p":0.95}`)))
		gt.NoError(t, err).Required()

		var decoded map[string]any
		gt.NoError(t, json.Unmarshal(body, &decoded))
		gt.Equal(t, decoded["model"], any("m"))
		gt.Equal(t, decoded["top_k"], any(float64(20)))
	})

	t.Run("invalid body", func(t *testing.T) {
		ctx := openai.WithExtraBody(context.Background(), map[string]any{"top_k": 20})
		_, err := openai.InjectExtraBody(ctx, io.NopCloser(strings.NewReader(`not json`)))
		gt.Error(t, err)
	})
}

func TestTokenLimitErrorOptions(t *testing.T) {
	type testCase struct {
		name   string
		err    error
		hasTag bool
	}

	runTest := func(tc testCase) func(t *testing.T) {
		return func(t *testing.T) {
			opts := openai.TokenLimitErrorOptions(tc.err)
			if tc.hasTag {
				gt.NotEqual(t, 0, len(opts))
			} else {
				gt.Equal(t, 0, len(opts))
			}
		}
	}

	t.Run("token exceeded error", runTest(testCase{
		name: "context_length_exceeded",
		err: &openaiapi.APIError{
			Type:    "invalid_request_error",
			Code:    "context_length_exceeded",
			Message: "This model's maximum context length is 32768 tokens. However, your messages resulted in 40000 tokens.",
		},
		hasTag: true,
	}))

	t.Run("different error type", runTest(testCase{
		name: "different type",
		err: &openaiapi.APIError{
			Type:    "authentication_error",
			Code:    "invalid_api_key",
			Message: "Invalid API key",
		},
		hasTag: false,
	}))

	t.Run("code is not string", runTest(testCase{
		name: "code as int",
		err: &openaiapi.APIError{
			Type:    "invalid_request_error",
			Code:    12345,
			Message: "Some error",
		},
		hasTag: false,
	}))

	t.Run("nil error", runTest(testCase{
		name:   "nil error",
		err:    nil,
		hasTag: false,
	}))

	t.Run("non-APIError", runTest(testCase{
		name:   "generic error",
		err:    errors.New("some error"),
		hasTag: false,
	}))
}

package mindgames

import "context"

//go:generate go run github.com/matryer/moq@latest -out mock/llm.go -pkg mock . LLMClient

// LLMClient is a chat completion endpoint.
type LLMClient interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	Model    string
	Messages []Message
	Sampling SamplingParams
}

// CompletionResponse mirrors the shape of a chat completion. Every level
// is optional because endpoints return partial bodies under load.
type CompletionResponse struct {
	Choices []Choice
}

type Choice struct {
	Message *ChoiceMessage
}

type ChoiceMessage struct {
	Content *string
	// Reasoning is the model-exposed rationale, if the backend provides one.
	Reasoning *string
}

// completion returns the first choice message if the response carries
// content, nil otherwise.
func (x *CompletionResponse) completion() *ChoiceMessage {
	if x == nil || len(x.Choices) == 0 {
		return nil
	}
	msg := x.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return nil
	}
	return msg
}

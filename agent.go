package mindgames

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames/trace"
)

const (
	DefaultModel       = "Qwen/Qwen3-8B"
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// Agent answers game observations with actions produced by an LLM.
type Agent struct {
	llm   LLMClient
	trace trace.Handler

	model       string
	sampling    SamplingTable
	maxAttempts int
	retryDelay  time.Duration
}

// Option is the type for the options of the agent.
type Option func(*Agent)

// WithModel sets the model identifier sent with every request.
func WithModel(model string) Option {
	return func(x *Agent) {
		x.model = model
	}
}

// WithSamplingTable replaces the per-game sampling parameters.
func WithSamplingTable(table SamplingTable) Option {
	return func(x *Agent) {
		x.sampling = table
	}
}

// WithMaxAttempts sets the total number of completion attempts per turn.
func WithMaxAttempts(n int) Option {
	return func(x *Agent) {
		x.maxAttempts = n
	}
}

// WithRetryDelay sets the fixed wait between two completion attempts. Zero
// selects the retry package default of 100ms.
func WithRetryDelay(d time.Duration) Option {
	return func(x *Agent) {
		x.retryDelay = d
	}
}

// WithTrace sets the handler receiving turn and LLM call events.
func WithTrace(h trace.Handler) Option {
	return func(x *Agent) {
		x.trace = h
	}
}

// New creates a new agent.
func New(llm LLMClient, options ...Option) *Agent {
	x := &Agent{
		llm:         llm,
		trace:       trace.Nop(),
		model:       DefaultModel,
		sampling:    DefaultSamplingTable(),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range options {
		opt(x)
	}
	if x.maxAttempts < 1 {
		x.maxAttempts = 1
	}
	if x.trace == nil {
		x.trace = trace.Nop()
	}
	return x
}

// Act builds the prompt for the observation, asks the model and parses the
// completion into an action.
func (x *Agent) Act(ctx context.Context, observation string) (resp *AgentResponse, err error) {
	kind := Classify(observation)
	ctx = x.trace.StartTurn(ctx, string(kind))
	defer func() {
		var data *trace.TurnData
		if resp != nil {
			data = &trace.TurnData{
				Action:              resp.Action.String(),
				ActionParsingFailed: resp.Action.ParsingFailed,
			}
		}
		x.trace.EndTurn(ctx, data, err)
	}()

	messages, err := BuildMessages(observation)
	if err != nil {
		return nil, err
	}

	req := &CompletionRequest{
		Model:    x.model,
		Messages: messages,
		Sampling: x.sampling.For(kind),
	}

	msg, err := x.complete(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to complete", goerr.V("kind", kind), goerr.V("model", x.model))
	}

	return &AgentResponse{
		Prompt:     FormatPrompt(messages),
		Completion: *msg.Content,
		Reasoning:  msg.Reasoning,
		Action:     ParseAction(*msg.Content),
	}, nil
}

// complete calls the endpoint up to maxAttempts times with a constant
// delay in between. Errors and responses without content both count as
// failed attempts. When all attempts fail the most recent cause is
// returned, tagged with ErrTagCompletionFailed.
func (x *Agent) complete(ctx context.Context, req *CompletionRequest) (*ChoiceMessage, error) {
	logger := ctxlog.From(ctx)
	retrier := retry.New[*ChoiceMessage](retry.Config{
		MaxAttempts:   x.maxAttempts,
		InitialDelay:  x.retryDelay,
		BackoffPolicy: retry.BackoffConstant,
	})

	attempt := 0
	msg, err := retrier.Do(ctx, func(ctx context.Context) (*ChoiceMessage, error) {
		attempt++
		msg, err := x.attempt(ctx, req, attempt)
		if err != nil {
			logger.Warn("completion attempt failed",
				"attempt", attempt,
				"max_attempts", x.maxAttempts,
				"error", err,
			)
		}
		return msg, err
	})
	if err != nil {
		return nil, goerr.Wrap(err, "no valid completion",
			goerr.Tag(ErrTagCompletionFailed),
			goerr.V("attempts", attempt),
		)
	}
	return msg, nil
}

func (x *Agent) attempt(ctx context.Context, req *CompletionRequest, attempt int) (msg *ChoiceMessage, err error) {
	ctx = x.trace.StartLLMCall(ctx, attempt)
	defer func() {
		data := &trace.LLMCallData{Model: req.Model, Attempt: attempt}
		if msg != nil {
			data.Completion = *msg.Content
			data.HasReasoning = msg.Reasoning != nil
		}
		x.trace.EndLLMCall(ctx, data, err)
	}()

	resp, err := x.llm.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if msg = resp.completion(); msg == nil {
		return nil, goerr.Wrap(ErrNoCompletion, "invalid completion response", goerr.V("attempt", attempt))
	}
	return msg, nil
}

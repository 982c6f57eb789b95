package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

type ctxExtraBodyKey struct{}

// withExtraBody attaches fields that the chat completion request type can
// not express, such as top_k and min_p of vLLM compatible servers.
func withExtraBody(ctx context.Context, extra map[string]any) context.Context {
	if len(extra) == 0 {
		return ctx
	}
	return context.WithValue(ctx, ctxExtraBodyKey{}, extra)
}

func extraBodyFrom(ctx context.Context) map[string]any {
	extra, _ := ctx.Value(ctxExtraBodyKey{}).(map[string]any)
	return extra
}

// extraBodyTransport merges the extra fields of the request context into
// the JSON body before sending it.
type extraBodyTransport struct {
	base http.RoundTripper
}

func newExtraBodyTransport(base http.RoundTripper) *extraBodyTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &extraBodyTransport{base: base}
}

func (x *extraBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	extra := extraBodyFrom(req.Context())
	if len(extra) == 0 || req.Body == nil || req.Method != http.MethodPost {
		return x.base.RoundTrip(req)
	}

	body, err := injectExtraBody(req.Body, extra)
	if err != nil {
		return nil, err
	}

	cloned := req.Clone(req.Context())
	cloned.Body = io.NopCloser(bytes.NewReader(body))
	cloned.ContentLength = int64(len(body))
	cloned.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	return x.base.RoundTrip(cloned)
}

func injectExtraBody(r io.ReadCloser, extra map[string]any) ([]byte, error) {
	defer func() { _ = r.Close() }()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request body")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, goerr.Wrap(err, "failed to decode request body", goerr.V("body", string(raw)))
	}

	for key, value := range extra {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode extra body field", goerr.V("key", key))
		}
		fields[key] = encoded
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode request body")
	}
	return body, nil
}

package trace

import "context"

// multiHandler fans out trace events to multiple Handler implementations.
// Each handler receives its own context so span state never leaks between
// backends.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
func Multi(handlers ...Handler) Handler {
	return &multiHandler{handlers: handlers}
}

type multiCtxKey struct{}

func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok && len(v) == len(m.handlers) {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

func (m *multiHandler) start(ctx context.Context, fn func(h Handler, ctx context.Context) context.Context) context.Context {
	parents := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = fn(h, parents[i])
	}
	return context.WithValue(ctx, multiCtxKey{}, handlerCtxs)
}

func (m *multiHandler) end(ctx context.Context, fn func(h Handler, ctx context.Context)) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		fn(h, ctxs[i])
	}
}

func (m *multiHandler) StartGame(ctx context.Context, track string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartGame(ctx, track)
	})
}

func (m *multiHandler) EndGame(ctx context.Context, data *GameData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) { h.EndGame(ctx, data, err) })
}

func (m *multiHandler) StartTurn(ctx context.Context, kind string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartTurn(ctx, kind)
	})
}

func (m *multiHandler) EndTurn(ctx context.Context, data *TurnData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) { h.EndTurn(ctx, data, err) })
}

func (m *multiHandler) StartLLMCall(ctx context.Context, attempt int) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartLLMCall(ctx, attempt)
	})
}

func (m *multiHandler) EndLLMCall(ctx context.Context, data *LLMCallData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) { h.EndLLMCall(ctx, data, err) })
}

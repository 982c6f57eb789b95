package runner_test

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/mindgames/internal"
)

func testContext() context.Context {
	return ctxlog.With(context.Background(), internal.TestLogger())
}

package mindgames_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mindgames/internal"
)

func testContext() context.Context {
	return ctxlog.With(context.Background(), internal.TestLogger())
}

func loadObservation(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "observations", name))
	gt.NoError(t, err).Required()
	return string(data)
}

func deref[T any](t *testing.T, p *T) T {
	t.Helper()
	if p == nil {
		t.Fatal("unexpected nil pointer")
	}
	return *p
}

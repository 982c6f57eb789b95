package main_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	main "github.com/m-mizutani/mindgames/cmd/mindgames"
	"github.com/m-mizutani/mindgames/config"
	traceOtel "github.com/m-mizutani/mindgames/trace/otel"
)

var required = []string{"--team-hash", "team-1", "--arena-url", "https://arena.example.com"}

func args(extra ...string) []string {
	return append(append([]string{}, required...), extra...)
}

func TestPlayDefaults(t *testing.T) {
	cfg, err := main.ParsePlayArgs(context.Background(), args()...)
	gt.NoError(t, err).Required()

	gt.Equal(t, cfg.ModelName, mindgames.DefaultModel)
	gt.Equal(t, cfg.Tracks, []arena.Track{arena.TrackGeneralization})
	gt.True(t, cfg.SmallCategory)
	gt.Nil(t, cfg.MaxGamesPerTrack)
	gt.Equal(t, cfg.TeamHash, "team-1")
	gt.Equal(t, cfg.ArenaURL, "https://arena.example.com")
	gt.Equal(t, cfg.Sampling, mindgames.DefaultSamplingTable())
	gt.Equal(t, cfg.OTelExporter, traceOtel.ExporterNone)
}

func TestPlayFlags(t *testing.T) {
	samplingPath := filepath.Join(t.TempDir(), "sampling.yaml")
	gt.NoError(t, os.WriteFile(samplingPath, []byte("ColonelBlotto:\n  temperature: 0.3\n  top_p: 0.8\n"), 0600)).Required()

	cfg, err := main.ParsePlayArgs(context.Background(), args(
		"--model-name", "my/model",
		"--base-url", "http://localhost:8000/v1",
		"--tracks", "All",
		"--small-category=false",
		"--max-games-per-track", "4",
		"--sampling-config", samplingPath,
		"--otel-exporter", "stdout",
	)...)
	gt.NoError(t, err).Required()

	gt.Equal(t, cfg.ModelName, "my/model")
	gt.Equal(t, cfg.BaseURL, "http://localhost:8000/v1")
	gt.Equal(t, cfg.Tracks, arena.Tracks)
	gt.False(t, cfg.SmallCategory)
	gt.Equal(t, *deref(t, cfg.MaxGamesPerTrack), 4)
	gt.Equal(t, cfg.Sampling.For(mindgames.KindColonelBlotto).Temperature, float32(0.3))
	gt.Equal(t, cfg.OTelExporter, traceOtel.ExporterStdout)
}

func TestPlayEnvironment(t *testing.T) {
	t.Setenv("MINDGAMES_MAX_GAMES_PER_TRACK", "2")
	t.Setenv("MINDGAMES_TRACKS", "Social Detection")
	t.Setenv("MINDGAMES_OTEL_EXPORTER", "otlp")
	t.Setenv("MINDGAMES_OTEL_ENDPOINT", "http://collector:4317")

	cfg, err := main.ParsePlayArgs(context.Background(), args()...)
	gt.NoError(t, err).Required()
	gt.Equal(t, *deref(t, cfg.MaxGamesPerTrack), 2)
	gt.Equal(t, cfg.Tracks, []arena.Track{arena.TrackSocialDetection})
	gt.Equal(t, cfg.OTelExporter, traceOtel.ExporterOTLP)
	gt.Equal(t, cfg.OTelEndpoint, "http://collector:4317")
}

func TestPlayRejectsInvalidFlags(t *testing.T) {
	runTest := func(extra ...string) func(t *testing.T) {
		return func(t *testing.T) {
			_, err := main.ParsePlayArgs(context.Background(), args(extra...)...)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, config.ErrInvalidParameter))
		}
	}

	t.Run("zero max games", runTest("--max-games-per-track", "0"))
	t.Run("negative max games", runTest("--max-games-per-track", "-1"))
	t.Run("non integer max games", runTest("--max-games-per-track", "many"))
	t.Run("unknown track", runTest("--tracks", "Chess"))
	t.Run("unknown log format", runTest("--log-format", "xml"))
	t.Run("unknown log level", runTest("--log-level", "loud"))
	t.Run("no log destination", runTest("--logs-directory", ""))
	t.Run("unknown otel exporter", runTest("--otel-exporter", "jaeger"))
}

func TestPlayRequiresTeamHash(t *testing.T) {
	_, err := main.ParsePlayArgs(context.Background(), "--arena-url", "https://arena.example.com")
	gt.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := main.NewLogger(&buf, "debug", "json")
	gt.NoError(t, err).Required()

	logger.Debug("hello", "game", "Codenames")
	gt.S(t, buf.String()).Contains(`"msg":"hello"`)
	gt.S(t, buf.String()).Contains(`"game":"Codenames"`)

	buf.Reset()
	logger, err = main.NewLogger(&buf, "warn", "text")
	gt.NoError(t, err).Required()
	logger.Info("dropped")
	gt.Equal(t, buf.Len(), 0)
}

func deref[T any](t *testing.T, p *T) *T {
	t.Helper()
	if p == nil {
		t.Fatal("unexpected nil")
	}
	return p
}

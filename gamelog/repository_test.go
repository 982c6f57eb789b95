package gamelog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	"github.com/m-mizutani/mindgames/gamelog"
	"google.golang.org/api/googleapi"
)

var startTime = time.Date(2025, 10, 3, 14, 5, 9, 0, time.UTC)

func newLog() *gamelog.GameEvaluationLog {
	log := gamelog.New(gamelog.Metadata{
		PublicModelName:        "In2AI/Qwen3-8B:v1",
		PublicModelDescription: "baseline",
		Track:                  arena.TrackGeneralization,
		SmallCategory:          true,
	}, startTime)

	log.AddStep(gamelog.GameStep{
		PlayerID:    0,
		Observation: "[GAME] Round 1",
		Action: &mindgames.AgentResponse{
			Completion: "[A10 B10]",
			Action:     mindgames.ParseAction("[A10 B10]"),
		},
		StepInfo: arena.StepInfo{"round": 1},
	})
	log.OnlineEnvironmentInfo = &gamelog.OnlineEnvironmentInfo{GameURL: "/game/1", EnvID: "env-1", EnvironmentID: 1, MatchedEnvName: "ColonelBlotto-v0"}
	log.Finish(startTime.Add(time.Minute), arena.Rewards{0: 1}, arena.GameInfo{"reason": "won"})
	return log
}

func TestSanitizeName(t *testing.T) {
	gt.Equal(t, gamelog.SanitizeName("In2AI/Qwen3-8B:v1"), "In2AI_Qwen3_8B_v1")
	gt.Equal(t, gamelog.SanitizeName("plain"), "plain")
}

func TestObjectName(t *testing.T) {
	log := newLog()
	gt.Equal(t, gamelog.ObjectName(log), "In2AI_Qwen3_8B_v1/20251003_140509.json")
	gt.True(t, strings.HasPrefix(gamelog.FallbackName(log), "In2AI_Qwen3_8B_v1/20251003_140509_"))
}

func TestFileRepositorySave(t *testing.T) {
	dir := t.TempDir()
	repo := gamelog.NewFileRepository(dir)
	log := newLog()

	gt.NoError(t, repo.Save(context.Background(), log)).Required()

	data, err := os.ReadFile(filepath.Join(dir, "In2AI_Qwen3_8B_v1", "20251003_140509.json"))
	gt.NoError(t, err).Required()

	var loaded map[string]any
	gt.NoError(t, json.Unmarshal(data, &loaded)).Required()
	gt.Equal(t, loaded["id"], any(log.ID))
	gt.Equal(t, loaded["public_model_name"], any("In2AI/Qwen3-8B:v1"))
	gt.Equal(t, loaded["track"], any("Generalization"))
	gt.Equal(t, loaded["small_category"], any(true))
	gt.Equal(t, loaded["start_time"], any("2025-10-03T14:05:09Z"))
	gt.Equal(t, loaded["end_time"], any("2025-10-03T14:06:09Z"))
	gt.Equal(t, loaded["rewards"], any(map[string]any{"0": float64(1)}))

	steps, ok := loaded["steps"].([]any)
	gt.True(t, ok)
	gt.A(t, steps).Length(1)
	step := steps[0].(map[string]any)
	action := step["action"].(map[string]any)
	gt.Equal(t, action["completion"], any("[A10 B10]"))
	gt.Equal(t, action["action"], any(map[string]any{"action": "[A10 B10]", "action_parsing_failed": false}))

	env := loaded["online_environment_info"].(map[string]any)
	gt.Equal(t, env["matched_env_name"], any("ColonelBlotto-v0"))
}

func TestFileRepositoryDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	repo := gamelog.NewFileRepository(dir)

	first, second := newLog(), newLog()
	gt.NoError(t, repo.Save(context.Background(), first))
	gt.NoError(t, repo.Save(context.Background(), second))

	entries, err := os.ReadDir(filepath.Join(dir, "In2AI_Qwen3_8B_v1"))
	gt.NoError(t, err).Required()
	gt.A(t, entries).Length(2)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(gamelog.FallbackName(second))))
	gt.NoError(t, err)
}

func TestNewLogIsUnfinished(t *testing.T) {
	log := gamelog.New(gamelog.Metadata{PublicModelName: "m"}, startTime)
	raw, err := json.Marshal(log)
	gt.NoError(t, err).Required()
	gt.S(t, string(raw)).Contains(`"end_time":null`)
	gt.S(t, string(raw)).Contains(`"rewards":null`)
	gt.S(t, string(raw)).Contains(`"steps":[]`)
	gt.NotEqual(t, log.ID, "")
}

type bufferWriter struct {
	bytes.Buffer
	closeErr error
}

func (x *bufferWriter) Close() error { return x.closeErr }

func TestGCSRepositorySave(t *testing.T) {
	t.Run("writes under prefix", func(t *testing.T) {
		written := map[string]*bufferWriter{}
		repo := gamelog.NewGCSRepositoryWithWriter("bucket", "logs", func(ctx context.Context, name string) io.WriteCloser {
			w := &bufferWriter{}
			written[name] = w
			return w
		})

		log := newLog()
		gt.NoError(t, repo.Save(context.Background(), log)).Required()

		w, ok := written["logs/In2AI_Qwen3_8B_v1/20251003_140509.json"]
		gt.True(t, ok)
		if ok {
			gt.S(t, w.String()).Contains(log.ID)
		}
	})

	t.Run("existing object uses fallback name", func(t *testing.T) {
		var names []string
		repo := gamelog.NewGCSRepositoryWithWriter("bucket", "", func(ctx context.Context, name string) io.WriteCloser {
			names = append(names, name)
			if len(names) == 1 {
				return &bufferWriter{closeErr: &googleapi.Error{Code: http.StatusPreconditionFailed}}
			}
			return &bufferWriter{}
		})

		log := newLog()
		gt.NoError(t, repo.Save(context.Background(), log))
		gt.Equal(t, names, []string{gamelog.ObjectName(log), gamelog.FallbackName(log)})
	})

	t.Run("other errors are returned", func(t *testing.T) {
		errBroken := errors.New("broken pipe")
		repo := gamelog.NewGCSRepositoryWithWriter("bucket", "", func(ctx context.Context, name string) io.WriteCloser {
			return &bufferWriter{closeErr: errBroken}
		})

		err := repo.Save(context.Background(), newLog())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, errBroken))
	})
}

type repoFunc func(ctx context.Context, log *gamelog.GameEvaluationLog) error

func (f repoFunc) Save(ctx context.Context, log *gamelog.GameEvaluationLog) error {
	return f(ctx, log)
}

func TestMultiRepository(t *testing.T) {
	var calls int
	ok := repoFunc(func(ctx context.Context, log *gamelog.GameEvaluationLog) error {
		calls++
		return nil
	})
	failing := repoFunc(func(ctx context.Context, log *gamelog.GameEvaluationLog) error {
		calls++
		return errors.New("save failed")
	})

	err := gamelog.Multi(failing, ok).Save(context.Background(), newLog())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("save failed")
	gt.Equal(t, calls, 2)

	gt.NoError(t, gamelog.Multi(ok).Save(context.Background(), newLog()))
}

package mindgames

import (
	"bytes"
	"embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join":       strings.Join,
	"joinInts":   joinInts,
	"capitalize": capitalize,
}).ParseFS(templateFS, "templates/*.tmpl"))

// BuildMessages normalizes the observation and returns the system and user
// messages for it. Observations of unknown games are sent as they are.
func BuildMessages(observation string) ([]Message, error) {
	observation = Normalize(observation)

	system, err := render("system.tmpl", nil)
	if err != nil {
		return nil, err
	}

	user := observation
	kind := Classify(observation)
	if kind != KindDefault {
		gameCtx, err := Extract(kind, observation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract game context", goerr.V("kind", kind))
		}
		if user, err = renderUserMessage(gameCtx, observation); err != nil {
			return nil, err
		}
	}

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: strings.TrimSpace(user)},
	}, nil
}

func renderUserMessage(gameCtx GameContext, observation string) (string, error) {
	var rulesName, stateName string
	var view any

	switch v := gameCtx.(type) {
	case *BlottoContext:
		rulesName, stateName, view = "colonel_blotto_rules.tmpl", "colonel_blotto_state.tmpl", newBlottoView(v)
	case *CodenamesContext:
		rulesName, stateName, view = "codenames_rules.tmpl", "codenames_state.tmpl", newCodenamesView(v)
	case *IPDContext:
		rulesName, stateName, view = "three_player_ipd_rules.tmpl", "three_player_ipd_state.tmpl", newIPDView(v)
	default:
		return "", goerr.Wrap(ErrInvalidParameter, "unsupported game context", goerr.V("context", gameCtx))
	}

	rules, err := render(rulesName, view)
	if err != nil {
		return "", err
	}
	state, err := render(stateName, view)
	if err != nil {
		return "", err
	}

	return render("user.tmpl", struct {
		Rules       string
		Observation string
		State       string
	}{
		Rules:       rules,
		Observation: observation,
		State:       state,
	})
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", goerr.Wrap(err, "failed to render template", goerr.V("template", name))
	}
	return strings.TrimSpace(buf.String()), nil
}

// Template views flatten optional context fields into zero values; the
// templates treat zero as absent and print their fallback text.

type blottoView struct {
	Role         string
	CurrentRound int
	TotalRounds  int
	Units        int
	Fields       []string
	NumFields    int
	FieldsToWin  int
	RoundsToWin  int
}

func newBlottoView(ctx *BlottoContext) blottoView {
	return blottoView{
		Role:         deref(ctx.Role),
		CurrentRound: deref(ctx.CurrentRound),
		TotalRounds:  deref(ctx.TotalRounds),
		Units:        deref(ctx.Units),
		Fields:       ctx.Fields,
		NumFields:    ctx.NumFields(),
		FieldsToWin:  ctx.FieldsToWin(),
		RoundsToWin:  ctx.RoundsToWin(),
	}
}

type codenamesView struct {
	Role       string
	Team       string
	ClueWord   string
	ClueNumber int
}

func newCodenamesView(ctx *CodenamesContext) codenamesView {
	return codenamesView{
		Role:       ctx.Role,
		Team:       deref(ctx.Team),
		ClueWord:   deref(ctx.ClueWord),
		ClueNumber: deref(ctx.ClueNumber),
	}
}

// ipdView keeps player id and payoffs as pointers because 0 is a valid
// value for them.
type ipdView struct {
	PlayerID          *int
	NumRounds         int
	ConversationTurns int
	Phase             string
	CurrentRound      int
	R, T, S, P        *int
	OpponentIDs       []int
}

func newIPDView(ctx *IPDContext) ipdView {
	return ipdView{
		PlayerID:          ctx.PlayerID,
		NumRounds:         deref(ctx.NumRounds),
		ConversationTurns: deref(ctx.ConversationTurns),
		Phase:             string(ctx.Phase),
		CurrentRound:      deref(ctx.CurrentRound),
		R:                 ctx.R,
		T:                 ctx.T,
		S:                 ctx.S,
		P:                 ctx.P,
		OpponentIDs:       ctx.OpponentIDs,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func joinInts(values []int, sep string) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, sep)
}

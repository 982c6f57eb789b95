package mindgames

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	RoleSpymaster = "Spymaster"
	RoleOperative = "Operative"
)

var (
	codenamesRolePattern      = regexp.MustCompile(`(?i)You are Player\s+\d+,\s+the\s+(Spymaster|Operative)\s+for`)
	codenamesTeamPattern      = regexp.MustCompile(`(?i)You are Player\s+\d+,\s+the\s+(Spymaster|Operative)\s+for\s+(Red|Blue)\s+team\.`)
	codenamesSubmittedPattern = regexp.MustCompile(`(?i)Spymaster\s+of\s+(Red|Blue)\s+team,\s+Player\s+\d+,\s+submitted\s+\[(\w+)\s+(\d+)\]\.`)
)

// CodenamesContext is the state of a Codenames game.
type CodenamesContext struct {
	Role       string
	Team       *string
	ClueWord   *string
	ClueNumber *int
}

func (CodenamesContext) Kind() Kind { return KindCodenames }

// CodenamesRole returns "Spymaster" or "Operative". The environment always
// states the role in its first prompt, so a missing role means the
// transcript is malformed and ErrRoleNotFound is returned.
func CodenamesRole(observation string) (string, error) {
	m := codenamesRolePattern.FindStringSubmatch(observation)
	if m == nil {
		return "", goerr.Wrap(ErrRoleNotFound, "role prompt line is missing", goerr.V("length", len(observation)))
	}
	return capitalize(m[1]), nil
}

// ExtractCodenames returns the role, team and most relevant clue. The clue
// is the latest submission of the agent's own team when the team is
// known, otherwise the latest submission overall.
func ExtractCodenames(observation string) (*CodenamesContext, error) {
	role, err := CodenamesRole(observation)
	if err != nil {
		return nil, err
	}
	ctx := &CodenamesContext{Role: role}

	if m := codenamesTeamPattern.FindStringSubmatch(observation); m != nil {
		ctx.Team = ptr(capitalize(m[2]))
	}

	submissions := codenamesSubmittedPattern.FindAllStringSubmatch(observation, -1)
	if len(submissions) == 0 {
		return ctx, nil
	}

	var selected []string
	if ctx.Team != nil {
		for i := len(submissions) - 1; i >= 0; i-- {
			if strings.EqualFold(submissions[i][1], *ctx.Team) {
				selected = submissions[i]
				break
			}
		}
	}
	if selected == nil {
		selected = submissions[len(submissions)-1]
	}

	ctx.ClueWord = ptr(strings.ToLower(selected[2]))
	ctx.ClueNumber = parseInt(selected[3])
	if ctx.Team == nil {
		ctx.Team = ptr(capitalize(selected[1]))
	}

	return ctx, nil
}

// ValidateClue applies the environment's clue rule: a clue must not be a
// substring of any board word and no board word may be a substring of the
// clue, compared case-insensitively.
func ValidateClue(clue string, board []string) error {
	c := strings.ToLower(strings.TrimSpace(clue))
	if c == "" {
		return goerr.Wrap(ErrInvalidClue, "clue is empty")
	}
	for _, word := range board {
		w := strings.ToLower(strings.TrimSpace(word))
		if w == "" {
			continue
		}
		if strings.Contains(w, c) || strings.Contains(c, w) {
			return goerr.Wrap(ErrInvalidClue, "clue overlaps a board word",
				goerr.V("clue", clue),
				goerr.V("board_word", word),
			)
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

package mindgames

import (
	"regexp"
	"strings"
)

var (
	blottoRolePattern   = regexp.MustCompile(`(?i)You are\s+(.*?)\s+in a game of ColonelBlotto\.`)
	blottoUnitsPattern  = regexp.MustCompile(`(?i)Units to allocate:\s*(\d+)`)
	blottoFieldsPattern = regexp.MustCompile(`(?i)Available fields:\s*([A-Za-z](?:\s*,\s*[A-Za-z])*)`)
	blottoRoundPattern  = regexp.MustCompile(`(?i)COLONEL\s+BLOTTO\s*-\s*Round\s*(\d+)/(\d+)`)
)

// BlottoContext is the state of a Colonel Blotto game.
type BlottoContext struct {
	Role         *string
	Units        *int
	Fields       []string
	CurrentRound *int
	TotalRounds  *int
}

func (BlottoContext) Kind() Kind { return KindColonelBlotto }

// NumFields returns the number of known fields, 0 if unknown.
func (x *BlottoContext) NumFields() int {
	return len(x.Fields)
}

// FieldsToWin returns the majority of fields needed to win a round, 0 if unknown.
func (x *BlottoContext) FieldsToWin() int {
	if len(x.Fields) == 0 {
		return 0
	}
	return len(x.Fields)/2 + 1
}

// RoundsToWin returns the majority of rounds needed to win the game, 0 if unknown.
func (x *BlottoContext) RoundsToWin() int {
	if x.TotalRounds == nil || *x.TotalRounds == 0 {
		return 0
	}
	return *x.TotalRounds/2 + 1
}

// ExtractColonelBlotto pulls the role, unit budget, field labels and round
// counters out of the observation. Budget, fields and round are taken from
// their latest mention on the board.
func ExtractColonelBlotto(observation string) *BlottoContext {
	ctx := &BlottoContext{}

	if m := blottoRolePattern.FindStringSubmatch(observation); m != nil {
		ctx.Role = ptr(strings.TrimSpace(m[1]))
	}

	if m := lastMatch(blottoUnitsPattern, observation); m != nil {
		ctx.Units = parseInt(m[1])
	}

	if m := lastMatch(blottoFieldsPattern, observation); m != nil {
		for _, f := range strings.Split(m[1], ",") {
			if f = strings.TrimSpace(f); f != "" {
				ctx.Fields = append(ctx.Fields, strings.ToUpper(f))
			}
		}
	}

	if m := lastMatch(blottoRoundPattern, observation); m != nil {
		current, total := parseInt(m[1]), parseInt(m[2])
		if current != nil && total != nil {
			ctx.CurrentRound, ctx.TotalRounds = current, total
		}
	}

	return ctx
}

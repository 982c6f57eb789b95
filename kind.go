package mindgames

import "regexp"

// Kind identifies the game format of an observation.
type Kind string

const (
	KindColonelBlotto  Kind = "ColonelBlotto"
	KindCodenames      Kind = "Codenames"
	KindThreePlayerIPD Kind = "ThreePlayerIPD"
	KindDefault        Kind = "Default"
)

// String returns the string representation of the kind.
func (x Kind) String() string {
	return string(x)
}

var (
	colonelBlottoPattern = regexp.MustCompile(`(?is)(You are\s+.+?\s+in a game of ColonelBlotto\.|COLONEL\s+BLOTTO)`)
	codenamesPattern     = regexp.MustCompile(`(?i)You are playing Codenames,?\s*a 2v2 word deduction game\.`)

	ipdPrimaryPattern   = regexp.MustCompile(`(?i)You\s+are\s+Player\s+\d+\s+in\s+a\s+3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`)
	ipdFallbackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`),
		ipdDecisionTokenPattern,
	}
	ipdDecisionTokenPattern = regexp.MustCompile(`(?i)\[\s*(\d+)\s+(cooperate|defect)\s*\]`)
)

// detectors are evaluated in order and the first match wins. Patterns of
// different games may overlap, so the order is part of the contract.
var detectors = []struct {
	kind  Kind
	match func(string) bool
}{
	{kind: KindColonelBlotto, match: IsColonelBlotto},
	{kind: KindCodenames, match: IsCodenames},
	{kind: KindThreePlayerIPD, match: IsThreePlayerIPD},
}

// Classify returns the game kind of the observation. It never fails:
// observations that match no detector are KindDefault.
func Classify(observation string) Kind {
	observation = Normalize(observation)
	for _, d := range detectors {
		if d.match(observation) {
			return d.kind
		}
	}
	return KindDefault
}

func IsColonelBlotto(observation string) bool {
	return colonelBlottoPattern.MatchString(observation)
}

func IsCodenames(observation string) bool {
	return codenamesPattern.MatchString(observation)
}

// IsThreePlayerIPD detects the 3-player Iterated Prisoner's Dilemma. The
// primary signal is the initial prompt line; fallbacks cover later boards
// where the prompt has scrolled away.
func IsThreePlayerIPD(observation string) bool {
	if ipdPrimaryPattern.MatchString(observation) {
		return true
	}
	for _, p := range ipdFallbackPatterns {
		if p.MatchString(observation) {
			return true
		}
	}
	return false
}

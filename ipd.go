package mindgames

import (
	"regexp"
	"sort"
)

// Phase is the current phase of an Iterated Prisoner's Dilemma round.
type Phase string

const (
	PhaseConversation Phase = "conversation"
	PhaseDecision     Phase = "decision"
)

// phaseFallbackWindow is how many trailing characters are scanned for
// decision tokens when no phase announcement exists.
const phaseFallbackWindow = 1000

var (
	ipdPlayerPattern      = regexp.MustCompile(`(?i)You\s+are\s+Player\s+(\d+)\s+in\s+a\s+3-player\s+Iterated\s+Prisoner'?s\s+Dilemma`)
	ipdRoundsPattern      = regexp.MustCompile(`(?i)The\s+match\s+lasts\s+(\d+)\s+rounds`)
	ipdChatBulletPattern  = regexp.MustCompile(`(?i)•\s*(\d+)\s+free-chat\s+turns`)
	ipdChatBoardPattern   = regexp.MustCompile(`(?i)converse\s+freely\s+for\s+the\s+next\s+(\d+)\s+rounds`)
	ipdDecisionMarker     = regexp.MustCompile(`(?im)^\[GAME\][^\n]*submit your decisions`)
	ipdConversationMarker = regexp.MustCompile(`(?im)^\[GAME\][^\n]*You can converse freely`)
	ipdStartingRound      = regexp.MustCompile(`(?i)Starting\s+Round\s+(\d+)`)
	ipdRoundResults       = regexp.MustCompile(`(?i)###\s*Round\s+(\d+)\s*-\s*Results`)
	ipdBothCooperate      = regexp.MustCompile(`(?i)Both\s+cooperate\s*->\s*(\d+)`)
	ipdBothDefect         = regexp.MustCompile(`(?i)Both\s+defect\s*->\s*(\d+)`)
	ipdYouDefectTheyCoop  = regexp.MustCompile(`(?i)You\s+defect,\s*they\s+cooperate\s*->\s*(\d+)`)
	ipdYouCoopTheyDefect  = regexp.MustCompile(`(?i)You\s+cooperate,\s*they\s+defect\s*->\s*(\d+)`)
	ipdPlayerIDs          = []int{0, 1, 2}
)

// IPDContext is the state of a three-player Iterated Prisoner's Dilemma.
// Payoffs use the conventional names: R reward (both cooperate), P
// punishment (both defect), T temptation (you defect, they cooperate) and
// S sucker (you cooperate, they defect).
type IPDContext struct {
	PlayerID          *int
	NumRounds         *int
	ConversationTurns *int
	Phase             Phase
	CurrentRound      *int
	R, T, S, P        *int
	OpponentIDs       []int
}

func (IPDContext) Kind() Kind { return KindThreePlayerIPD }

func ExtractThreePlayerIPD(observation string) *IPDContext {
	ctx := &IPDContext{
		PlayerID:          firstInt(ipdPlayerPattern, observation),
		NumRounds:         firstInt(ipdRoundsPattern, observation),
		ConversationTurns: conversationTurns(observation),
		Phase:             DetectPhase(observation),
		R:                 firstInt(ipdBothCooperate, observation),
		P:                 firstInt(ipdBothDefect, observation),
		T:                 firstInt(ipdYouDefectTheyCoop, observation),
		S:                 firstInt(ipdYouCoopTheyDefect, observation),
	}

	if m := lastMatchOf(observation, ipdStartingRound, ipdRoundResults); m != nil {
		ctx.CurrentRound = parseInt(m[1])
	}

	if ctx.PlayerID != nil {
		ctx.OpponentIDs = opponentsOf(*ctx.PlayerID)
	}

	return ctx
}

// DetectPhase compares the latest decision and conversation announcements
// and returns the phase of whichever came last. Without announcements it
// looks for decision tokens near the end of the observation.
func DetectPhase(observation string) Phase {
	decision := lastOffset(ipdDecisionMarker, observation)
	conversation := lastOffset(ipdConversationMarker, observation)

	if decision >= 0 || conversation >= 0 {
		if decision > conversation {
			return PhaseDecision
		}
		return PhaseConversation
	}

	tail := observation
	if runes := []rune(tail); len(runes) > phaseFallbackWindow {
		tail = string(runes[len(runes)-phaseFallbackWindow:])
	}
	if ipdDecisionTokenPattern.MatchString(tail) {
		return PhaseDecision
	}
	return PhaseConversation
}

func conversationTurns(observation string) *int {
	if m := ipdChatBulletPattern.FindStringSubmatch(observation); m != nil {
		return parseInt(m[1])
	}
	return firstInt(ipdChatBoardPattern, observation)
}

func opponentsOf(playerID int) []int {
	var known bool
	var opponents []int
	for _, id := range ipdPlayerIDs {
		if id == playerID {
			known = true
			continue
		}
		opponents = append(opponents, id)
	}
	if !known {
		return nil
	}
	sort.Ints(opponents)
	return opponents
}

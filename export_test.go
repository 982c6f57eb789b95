package mindgames

var (
	LastMatch  = lastMatch
	LastOffset = lastOffset
	Capitalize = capitalize
)

// Completion exposes the response validity check.
func (x *CompletionResponse) Completion() *ChoiceMessage {
	return x.completion()
}

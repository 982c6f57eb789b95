package mindgames

// GameContext holds the structured fields extracted from an observation.
// Each game kind has its own record; every field is optional because the
// pattern it comes from may not have been emitted yet.
type GameContext interface {
	Kind() Kind
}

// Extract builds the context record for the given kind. KindDefault has
// no context and returns nil.
func Extract(kind Kind, observation string) (GameContext, error) {
	switch kind {
	case KindColonelBlotto:
		return ExtractColonelBlotto(observation), nil
	case KindCodenames:
		ctx, err := ExtractCodenames(observation)
		if err != nil {
			return nil, err
		}
		return ctx, nil
	case KindThreePlayerIPD:
		return ExtractThreePlayerIPD(observation), nil
	default:
		return nil, nil
	}
}

package mindgames

// SamplingParams are the generation parameters sent with a completion
// request. TopK and MinP are not part of the standard chat API and are
// only sent when set.
type SamplingParams struct {
	Temperature float32  `json:"temperature" yaml:"temperature"`
	TopP        float32  `json:"top_p" yaml:"top_p"`
	TopK        *int     `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	MinP        *float32 `json:"min_p,omitempty" yaml:"min_p,omitempty"`
}

// SamplingTable maps a game kind to its sampling parameters.
type SamplingTable map[Kind]SamplingParams

// DefaultSamplingTable returns the built-in parameters per game kind.
func DefaultSamplingTable() SamplingTable {
	return SamplingTable{
		KindDefault:       {Temperature: 1.0, TopP: 1.0},
		KindCodenames:     {Temperature: 1.0, TopP: 1.0},
		KindColonelBlotto: {Temperature: 1.0, TopP: 1.0},
		KindThreePlayerIPD: {
			Temperature: 0.6,
			TopP:        0.95,
			TopK:        ptr(20),
			MinP:        ptr[float32](0.0),
		},
	}
}

// For returns the parameters of kind, falling back to the KindDefault
// entry and then to the built-in default.
func (x SamplingTable) For(kind Kind) SamplingParams {
	if p, ok := x[kind]; ok {
		return p
	}
	if p, ok := x[KindDefault]; ok {
		return p
	}
	return DefaultSamplingTable()[KindDefault]
}

// SamplingFor returns the built-in parameters of kind.
func SamplingFor(kind Kind) SamplingParams {
	return DefaultSamplingTable().For(kind)
}

// Package config validates command line settings.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	"gopkg.in/yaml.v3"
)

var ErrInvalidParameter = goerr.New("invalid parameter")

// AllTracks is the --tracks value selecting every track.
const AllTracks = "All"

// ParseMaxGames parses the per-track game limit. It accepts a positive
// integer, or "None" (any case) and the empty string for no limit, which
// is returned as nil.
func ParseMaxGames(value string) (*int, error) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "none") {
		return nil, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil, goerr.Wrap(ErrInvalidParameter, "must be an integer > 0 or 'None'",
			goerr.V("max_games_per_track", value),
		)
	}
	return &n, nil
}

// ParseTracks resolves the --tracks value. Names are case sensitive.
func ParseTracks(value string) ([]arena.Track, error) {
	if value == AllTracks {
		return append([]arena.Track{}, arena.Tracks...), nil
	}

	track := arena.Track(value)
	if err := track.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidParameter, "unknown track",
			goerr.V("tracks", value),
			goerr.V("cause", err.Error()),
		)
	}
	return []arena.Track{track}, nil
}

// samplingFile is the YAML layout of a sampling override:
//
//	ThreePlayerIPD:
//	  temperature: 0.6
//	  top_p: 0.95
//	  top_k: 20
//	  min_p: 0.0
type samplingFile map[mindgames.Kind]mindgames.SamplingParams

var knownKinds = map[mindgames.Kind]bool{
	mindgames.KindColonelBlotto:  true,
	mindgames.KindCodenames:      true,
	mindgames.KindThreePlayerIPD: true,
	mindgames.KindDefault:        true,
}

// LoadSampling returns the built-in sampling table with the entries of
// the YAML file at path replaced. An empty path returns the built-in table.
func LoadSampling(path string) (mindgames.SamplingTable, error) {
	table := mindgames.DefaultSamplingTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sampling config", goerr.V("path", path))
	}

	overrides, err := ParseSampling(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid sampling config", goerr.V("path", path))
	}

	for kind, params := range overrides {
		table[kind] = params
	}
	return table, nil
}

// ParseSampling decodes and validates sampling overrides.
func ParseSampling(raw []byte) (mindgames.SamplingTable, error) {
	var file samplingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode sampling config")
	}

	table := mindgames.SamplingTable{}
	for kind, params := range file {
		if !knownKinds[kind] {
			return nil, goerr.Wrap(ErrInvalidParameter, "unknown game kind", goerr.V("kind", kind))
		}
		if params.Temperature < 0 || params.TopP <= 0 || params.TopP > 1 {
			return nil, goerr.Wrap(ErrInvalidParameter, "sampling parameter out of range",
				goerr.V("kind", kind),
				goerr.V("temperature", params.Temperature),
				goerr.V("top_p", params.TopP),
			)
		}
		if params.TopK != nil && *params.TopK <= 0 {
			return nil, goerr.Wrap(ErrInvalidParameter, "top_k must be positive", goerr.V("kind", kind))
		}
		if params.MinP != nil && (*params.MinP < 0 || *params.MinP > 1) {
			return nil, goerr.Wrap(ErrInvalidParameter, "min_p must be within [0, 1]", goerr.V("kind", kind))
		}
		table[kind] = params
	}
	return table, nil
}

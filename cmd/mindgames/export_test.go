package main

import (
	"context"
	"io"

	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	traceOtel "github.com/m-mizutani/mindgames/trace/otel"
)

// PlayConfig is an exported view of playConfig for testing.
type PlayConfig struct {
	ModelName              string
	BaseURL                string
	APIKey                 string
	PublicModelName        string
	PublicModelDescription string
	Tracks                 []arena.Track
	SmallCategory          bool
	TeamHash               string
	ArenaURL               string
	LogsDirectory          string
	MaxGamesPerTrack       *int
	Sampling               mindgames.SamplingTable
	OTelExporter           traceOtel.Exporter
	OTelEndpoint           string
}

// ParsePlayArgs runs the play command with args and returns the parsed
// configuration without starting any worker.
func ParsePlayArgs(ctx context.Context, args ...string) (*PlayConfig, error) {
	var got *PlayConfig
	cmd := playCommand(func(ctx context.Context, cfg *playConfig) error {
		got = &PlayConfig{
			ModelName:              cfg.modelName,
			BaseURL:                cfg.baseURL,
			APIKey:                 cfg.apiKey,
			PublicModelName:        cfg.publicModelName,
			PublicModelDescription: cfg.publicModelDescription,
			Tracks:                 cfg.tracks,
			SmallCategory:          cfg.smallCategory,
			TeamHash:               cfg.teamHash,
			ArenaURL:               cfg.arenaURL,
			LogsDirectory:          cfg.logsDirectory,
			MaxGamesPerTrack:       cfg.maxGamesPerTrack,
			Sampling:               cfg.sampling,
			OTelExporter:           cfg.otelExporter,
			OTelEndpoint:           cfg.otelEndpoint,
		}
		return nil
	})
	cmd.Writer, cmd.ErrWriter = io.Discard, io.Discard

	if err := cmd.Run(ctx, append([]string{"play"}, args...)); err != nil {
		return nil, err
	}
	return got, nil
}

var NewLogger = newLogger


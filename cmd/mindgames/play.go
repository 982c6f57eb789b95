package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	"github.com/m-mizutani/mindgames/config"
	"github.com/m-mizutani/mindgames/gamelog"
	"github.com/m-mizutani/mindgames/llm/openai"
	"github.com/m-mizutani/mindgames/runner"
	"github.com/m-mizutani/mindgames/trace"
	traceLogger "github.com/m-mizutani/mindgames/trace/logger"
	traceOtel "github.com/m-mizutani/mindgames/trace/otel"
	"github.com/urfave/cli/v3"
)

type playConfig struct {
	modelName string
	baseURL   string
	apiKey    string

	publicModelName        string
	publicModelDescription string
	tracks                 []arena.Track
	smallCategory          bool
	teamHash               string
	arenaURL               string

	logsDirectory string
	logsBucket    string
	logsPrefix    string

	maxGamesPerTrack *int
	sampling         mindgames.SamplingTable

	logLevel  string
	logFormat string

	otelExporter traceOtel.Exporter
	otelEndpoint string
}

func playCommand(run func(ctx context.Context, cfg *playConfig) error) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play online games on every selected track until stopped",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "model-name",
				Value:   mindgames.DefaultModel,
				Sources: cli.EnvVars("MINDGAMES_MODEL_NAME"),
				Usage:   "Model name for the agent",
			},
			&cli.StringFlag{
				Name:    "base-url",
				Sources: cli.EnvVars("MINDGAMES_BASE_URL"),
				Usage:   "Base URL of the OpenAI compatible endpoint",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Sources: cli.EnvVars("MINDGAMES_API_KEY", "OPENAI_API_KEY"),
				Usage:   "API key of the endpoint",
			},
			&cli.StringFlag{
				Name:    "public-model-name",
				Value:   "In2AI/Baseline",
				Sources: cli.EnvVars("MINDGAMES_PUBLIC_MODEL_NAME"),
				Usage:   "Public model name shown in the arena",
			},
			&cli.StringFlag{
				Name:    "public-model-description",
				Sources: cli.EnvVars("MINDGAMES_PUBLIC_MODEL_DESCRIPTION"),
				Usage:   "Model description shown in the arena",
			},
			&cli.StringFlag{
				Name:    "tracks",
				Value:   string(arena.TrackGeneralization),
				Sources: cli.EnvVars("MINDGAMES_TRACKS"),
				Usage:   "Tracks to play: Generalization, Social Detection or All",
			},
			&cli.BoolFlag{
				Name:    "small-category",
				Value:   true,
				Sources: cli.EnvVars("MINDGAMES_SMALL_CATEGORY"),
				Usage:   "Participate in the small model category",
			},
			&cli.StringFlag{
				Name:    "logs-directory",
				Value:   "./mindgames-logs/online/",
				Sources: cli.EnvVars("MINDGAMES_LOGS_DIRECTORY"),
				Usage:   "Directory to save game logs",
			},
			&cli.StringFlag{
				Name:    "logs-bucket",
				Sources: cli.EnvVars("MINDGAMES_LOGS_BUCKET"),
				Usage:   "Google Cloud Storage bucket to also save game logs",
			},
			&cli.StringFlag{
				Name:    "logs-prefix",
				Sources: cli.EnvVars("MINDGAMES_LOGS_PREFIX"),
				Usage:   "Object prefix in the logs bucket",
			},
			&cli.StringFlag{
				Name:    "max-games-per-track",
				Value:   "None",
				Sources: cli.EnvVars("MINDGAMES_MAX_GAMES_PER_TRACK"),
				Usage:   "Maximum games each track plays. Use 'None' for no limit",
			},
			&cli.StringFlag{
				Name:     "team-hash",
				Sources:  cli.EnvVars("MINDGAMES_TEAM_HASH"),
				Usage:    "Team hash for online play, provided by the arena",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "arena-url",
				Sources:  cli.EnvVars("MINDGAMES_ARENA_URL"),
				Usage:    "Base URL of the arena server",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "sampling-config",
				Sources: cli.EnvVars("MINDGAMES_SAMPLING_CONFIG"),
				Usage:   "YAML file overriding sampling parameters per game",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("MINDGAMES_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Sources: cli.EnvVars("MINDGAMES_LOG_FORMAT"),
				Usage:   "Log format: text or json",
			},
			&cli.StringFlag{
				Name:    "otel-exporter",
				Value:   string(traceOtel.ExporterNone),
				Sources: cli.EnvVars("MINDGAMES_OTEL_EXPORTER"),
				Usage:   "OpenTelemetry trace exporter: none, stdout or otlp",
			},
			&cli.StringFlag{
				Name:    "otel-endpoint",
				Sources: cli.EnvVars("MINDGAMES_OTEL_ENDPOINT"),
				Usage:   "OTLP gRPC endpoint URL. OTEL_EXPORTER_OTLP_* variables apply when empty",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := newPlayConfig(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}
}

// newPlayConfig validates every flag so that bad input fails before any
// worker starts.
func newPlayConfig(cmd *cli.Command) (*playConfig, error) {
	maxGames, err := config.ParseMaxGames(cmd.String("max-games-per-track"))
	if err != nil {
		return nil, err
	}

	tracks, err := config.ParseTracks(cmd.String("tracks"))
	if err != nil {
		return nil, err
	}

	sampling, err := config.LoadSampling(cmd.String("sampling-config"))
	if err != nil {
		return nil, err
	}

	otelExporter, err := traceOtel.ParseExporter(cmd.String("otel-exporter"))
	if err != nil {
		return nil, goerr.Wrap(config.ErrInvalidParameter, "invalid --otel-exporter", goerr.V("otel_exporter", cmd.String("otel-exporter")))
	}

	cfg := &playConfig{
		modelName:              cmd.String("model-name"),
		baseURL:                cmd.String("base-url"),
		apiKey:                 cmd.String("api-key"),
		publicModelName:        cmd.String("public-model-name"),
		publicModelDescription: cmd.String("public-model-description"),
		tracks:                 tracks,
		smallCategory:          cmd.Bool("small-category"),
		teamHash:               cmd.String("team-hash"),
		arenaURL:               cmd.String("arena-url"),
		logsDirectory:          cmd.String("logs-directory"),
		logsBucket:             cmd.String("logs-bucket"),
		logsPrefix:             cmd.String("logs-prefix"),
		maxGamesPerTrack:       maxGames,
		sampling:               sampling,
		logLevel:               cmd.String("log-level"),
		logFormat:              cmd.String("log-format"),
		otelExporter:           otelExporter,
		otelEndpoint:           cmd.String("otel-endpoint"),
	}

	if cfg.logsDirectory == "" && cfg.logsBucket == "" {
		return nil, goerr.Wrap(config.ErrInvalidParameter, "either --logs-directory or --logs-bucket must be specified")
	}

	if _, err := newLogger(os.Stderr, cfg.logLevel, cfg.logFormat); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runPlay(ctx context.Context, cfg *playConfig) error {
	logger, err := newLogger(os.Stderr, cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}
	ctx = ctxlog.With(ctx, logger)

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	llmOptions := []openai.Option{openai.WithModel(cfg.modelName)}
	if cfg.baseURL != "" {
		llmOptions = append(llmOptions, openai.WithBaseURL(cfg.baseURL))
	}
	llm, err := openai.New(ctx, cfg.apiKey, llmOptions...)
	if err != nil {
		return goerr.Wrap(err, "failed to create LLM client")
	}

	handlers := []trace.Handler{
		traceLogger.New(traceLogger.WithEvents(traceLogger.Turn, traceLogger.LLMCall)),
	}
	tp, err := traceOtel.NewTracerProvider(ctx, cfg.otelExporter,
		traceOtel.WithWriter(os.Stderr),
		traceOtel.WithEndpointURL(cfg.otelEndpoint),
	)
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down tracer provider", "error", err)
			}
		}()
		handlers = append(handlers, traceOtel.New(traceOtel.WithTracerProvider(tp)))
	}
	tracer := trace.Multi(handlers...)

	agent := mindgames.New(llm,
		mindgames.WithModel(cfg.modelName),
		mindgames.WithSamplingTable(cfg.sampling),
		mindgames.WithTrace(tracer),
	)

	factory := arena.NewOnlineFactory(cfg.arenaURL, arena.Registration{
		ModelName:     cfg.publicModelName,
		Description:   cfg.publicModelDescription,
		TeamHash:      cfg.teamHash,
		SmallCategory: cfg.smallCategory,
	})

	play := runner.New(agent, factory, repo, gamelog.Metadata{
		PublicModelName:        cfg.publicModelName,
		PublicModelDescription: cfg.publicModelDescription,
		SmallCategory:          cfg.smallCategory,
	}, runner.WithTrace(tracer))

	shutdown := runner.NewShutdown()
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	sigCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go runner.HandleSignals(sigCtx, signals, shutdown, func() { os.Exit(1) })

	workers := make([]*runner.Worker, 0, len(cfg.tracks))
	for _, track := range cfg.tracks {
		workers = append(workers, runner.NewWorker(track, play, shutdown, runner.WithMaxGames(cfg.maxGamesPerTrack)))
	}

	logger.Info("starting workers",
		"tracks", cfg.tracks,
		"model_name", cfg.modelName,
		"public_model_name", cfg.publicModelName,
		"small_category", cfg.smallCategory,
	)

	return runner.NewSupervisor(workers...).Run(ctx)
}

func newRepository(ctx context.Context, cfg *playConfig) (gamelog.Repository, func(), error) {
	var repos []gamelog.Repository
	closeFn := func() {}

	if cfg.logsDirectory != "" {
		repos = append(repos, gamelog.NewFileRepository(cfg.logsDirectory))
	}

	if cfg.logsBucket != "" {
		gcs, err := gamelog.NewGCSRepository(ctx, cfg.logsBucket, cfg.logsPrefix)
		if err != nil {
			return nil, nil, err
		}
		repos = append(repos, gcs)
		closeFn = func() {
			if err := gcs.Close(); err != nil {
				ctxlog.From(ctx).Warn("failed to close storage client", "error", err)
			}
		}
	}

	if len(repos) == 1 {
		return repos[0], closeFn, nil
	}
	return gamelog.Multi(repos...), closeFn, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/jonwraymond/memostore/cache"
	"github.com/jonwraymond/memostore/config"
	"github.com/jonwraymond/memostore/github"
	"github.com/jonwraymond/memostore/health"
	"github.com/jonwraymond/memostore/observe"
	"github.com/jonwraymond/memostore/secret"
)

var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitSetup   = 1
	exitCommand = 2
)

// setupError marks failures that happen before a command can do its work.
type setupError struct{ err error }

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := NewApp(stdout, stderr).Run(ctx, args); err != nil {
		fmt.Fprintln(stderr, err)
		var se *setupError
		if errors.As(err, &se) {
			return exitSetup
		}
		return exitCommand
	}
	return exitOK
}

// NewApp builds the command tree.
func NewApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      config.AppName,
		Usage:     "Summarize a GitHub user's recent activity",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			activityCommand(stdout, stderr),
			cacheCommand(stdout, stderr),
			doctorCommand(stdout, stderr),
		},
	}
}

func activityCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "activity",
		Usage: "Get the activity of a user from the GitHub API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "user to get the activity from",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) (err error) {
			rt, err := newSession(ctx, cmd, stderr)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.Close(ctx)) }()

			user := cmd.String("user")
			payload, err := rt.source.FetchEvents(ctx, user)
			if err != nil {
				return fmt.Errorf("fetch activity for %s: %w", user, err)
			}
			summary, err := github.Summarize(payload)
			if err != nil {
				return err
			}
			if len(summary) == 0 {
				_, err = fmt.Fprintf(stdout, "No recent public activity for %s.\n", user)
				return err
			}
			return github.Format(stdout, summary)
		},
	}
}

func cacheCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the memoization cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List resident entries, oldest first",
				Action: func(ctx context.Context, cmd *cli.Command) (err error) {
					rt, err := newSession(ctx, cmd, stderr)
					if err != nil {
						return err
					}
					defer func() { err = errors.Join(err, rt.Close(ctx)) }()
					return showCache(stdout, rt.cfg.Cache.Path, rt.store)
				},
			},
		},
	}
}

func showCache(w io.Writer, path string, store *cache.Store) error {
	entries := store.Entries()
	fmt.Fprintf(w, "%s (%d/%d entries)\n", path, len(entries), store.Capacity())
	for _, e := range entries {
		events := "-"
		if r := gjson.ParseBytes(e.Value); r.IsArray() {
			events = fmt.Sprint(len(r.Array()))
		}
		fmt.Fprintf(w, "%4d  %s  %8s  %s events\n", e.Rank, e.Key.Short(), humanize.Bytes(uint64(len(e.Value))), events)
	}
	return nil
}

func doctorCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Check the cache store and GitHub API reachability",
		Action: func(ctx context.Context, cmd *cli.Command) (err error) {
			rt, err := newSession(ctx, cmd, stderr)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.Close(ctx)) }()

			agg := health.NewAggregator(health.AggregatorConfig{Timeout: rt.cfg.GitHub.Timeout, Parallel: true})
			agg.Register(health.NewStoreChecker(rt.store.Backend()))
			agg.Register(health.NewRateLimitChecker(rt.client))

			report := agg.CheckAll(ctx)
			for _, r := range report.Results {
				fmt.Fprintln(stdout, r.Line())
			}
			if report.Status == health.StatusUnhealthy {
				return health.ErrUnhealthy
			}
			return nil
		},
	}
}

// session wires configuration, telemetry, the store and the GitHub client
// for one command invocation.
type session struct {
	cfg    *config.Config
	obs    *observe.Observer
	store  *cache.Store
	client *github.Client
	source github.EventSource
}

func newSession(ctx context.Context, cmd *cli.Command, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, &setupError{err}
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
		if err := cfg.Validate(); err != nil {
			return nil, &setupError{err}
		}
	}

	oc := cfg.Observe(version)
	oc.Output = stderr
	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return nil, &setupError{err}
	}
	logger := obs.Logger()

	store, err := cache.Open(ctx,
		&cache.FileBackend{Path: cfg.Cache.Path, Atomic: cfg.Cache.Atomic},
		cache.WithCapacity(cfg.Cache.Capacity),
		cache.WithStoreLogger(logger),
		cache.WithStoreMetrics(obs.Metrics()),
	)
	if err != nil {
		return nil, &setupError{err}
	}

	inv, err := cache.NewInvoker(store,
		cache.WithLogger(logger),
		cache.WithMetrics(obs.Metrics()),
		cache.WithTracer(obs.Tracer()),
	)
	if err != nil {
		return nil, &setupError{err}
	}

	token, err := resolveToken(ctx, cfg.GitHub.Token)
	if err != nil {
		return nil, &setupError{fmt.Errorf("resolve github token: %w", err)}
	}

	onRetry := func(attempt int, err error, delay time.Duration) {
		logger.Warn(ctx, "retrying github request",
			observe.F("attempt", attempt),
			observe.F("delay_ms", delay.Milliseconds()),
			observe.F("error", err),
		)
	}
	client, err := github.NewClient(
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithToken(token),
		github.WithUserAgent(config.AppName+"/"+version),
		github.WithExecutor(github.NewRetryExecutor(cfg.GitHub.Retries, cfg.GitHub.Timeout, onRetry)),
		github.WithMiddleware(observe.MiddlewareFromObserver(obs)),
	)
	if err != nil {
		return nil, &setupError{err}
	}

	return &session{
		cfg:    cfg,
		obs:    obs,
		store:  store,
		client: client,
		source: github.NewMemoizedSource(inv, client),
	}, nil
}

func resolveToken(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	r := secret.NewDefaultResolver()
	defer func() { _ = r.Close() }()
	return r.ResolveValue(ctx, raw)
}

func (rt *session) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return rt.obs.Shutdown(ctx)
}

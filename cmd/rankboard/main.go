// Command rankboard loads a players file into a leaderboard and reports on it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/okian/rankboard/internal/adapters/report"
	"github.com/okian/rankboard/internal/adapters/repository"
	app "github.com/okian/rankboard/internal/app"
	"github.com/okian/rankboard/internal/config"
	"github.com/okian/rankboard/pkg/logger"
	"github.com/okian/rankboard/pkg/metrics"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Options are the command line flags. Flags left unset keep the configured value.
type Options struct {
	Config      string   `short:"c" long:"config" description:"YAML config file" env:"RANKBOARD_CONFIG"`
	CSV         string   `short:"f" long:"csv" description:"players file with name and score columns"`
	Game        string   `short:"g" long:"game" description:"leaderboard name"`
	Top         int      `short:"n" long:"top" description:"number of leaders to print"`
	MaxLevel    int      `long:"max-level" description:"skip list level cap"`
	Seed        uint64   `long:"seed" description:"level draw seed, 0 for random"`
	Strict      bool     `long:"strict" description:"abort the load on the first malformed row"`
	Set         []string `short:"s" long:"set" description:"set a score after loading, as name=score" value-name:"NAME=SCORE"`
	Remove      []string `short:"r" long:"remove" description:"remove a player after loading" value-name:"NAME"`
	Rank        []string `short:"q" long:"rank" description:"print a player's rank" value-name:"NAME"`
	Dump        bool     `long:"dump" description:"print every skip list level"`
	JSON        bool     `long:"json" description:"print the summary as JSON"`
	MetricsFile string   `long:"metrics-file" description:"write Prometheus metrics to this file on exit"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	// Load configuration (defaults -> optional file -> env -> flags)
	cfg, err := config.LoadFile(ctx, opts.Config)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitError
	}
	applyFlags(parser, &opts, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithJSON(cfg.LogJSON)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithGame(cfg.Game),
		app.WithMaxLevel(cfg.MaxLevel),
		app.WithSeed(cfg.Seed),
		app.WithQueueSize(cfg.QueueSize),
		app.WithStrict(cfg.Strict),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return exitError
	}
	defer svc.Stop()

	code := execute(ctx, svc, cfg, &opts, stdout, log)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error(ctx, "failed to write metrics", logger.Error(err))
			return exitError
		}
	}
	return code
}

// applyFlags overrides cfg with every flag given on the command line.
func applyFlags(p *flags.Parser, opts *Options, cfg *config.Config) {
	set := func(name string) bool {
		o := p.FindOptionByLongName(name)
		return o != nil && o.IsSet()
	}
	if set("csv") {
		cfg.CSVPath = opts.CSV
	}
	if set("game") {
		cfg.Game = opts.Game
	}
	if set("top") {
		cfg.TopN = opts.Top
	}
	if set("max-level") {
		cfg.MaxLevel = opts.MaxLevel
	}
	if set("seed") {
		cfg.Seed = opts.Seed
	}
	if set("strict") {
		cfg.Strict = opts.Strict
	}
	if set("metrics-file") {
		cfg.MetricsFile = opts.MetricsFile
	}
}

func execute(ctx context.Context, svc *app.Service, cfg *config.Config, opts *Options, stdout io.Writer, log logger.Logger) int {
	summary := report.Summary{Game: cfg.Game}

	if cfg.CSVPath != "" {
		res, err := svc.LoadFile(ctx, cfg.CSVPath)
		if err != nil {
			log.Error(ctx, "load failed", logger.String("path", cfg.CSVPath), logger.Error(err))
			return exitError
		}
		if res.Errors != nil {
			log.Warn(ctx, "rows skipped", logger.Int("skipped", res.Skipped), logger.Error(res.Errors))
		}
		summary.Skipped = res.Skipped
	}

	for _, kv := range opts.Set {
		name, score, err := parseAssignment(kv)
		if err != nil {
			log.Error(ctx, "invalid --set", logger.String("value", kv), logger.Error(err))
			return exitUsage
		}
		if _, err := svc.Upsert(ctx, name, score); err != nil {
			log.Error(ctx, "upsert failed", logger.String("name", name), logger.Error(err))
			return exitError
		}
	}

	for _, name := range opts.Remove {
		removed, err := svc.Remove(ctx, name)
		if err != nil {
			log.Error(ctx, "remove failed", logger.String("name", name), logger.Error(err))
			return exitError
		}
		if !removed {
			log.Warn(ctx, "player not found", logger.String("name", name))
		}
	}

	top, err := svc.TopN(ctx, cfg.TopN)
	if err != nil {
		log.Error(ctx, "top query failed", logger.Error(err))
		return exitError
	}
	summary.Top = top

	for _, name := range opts.Rank {
		lookup := report.Lookup{Name: name}
		e, err := svc.Rank(ctx, name)
		switch {
		case err == nil:
			lookup.Found = true
			lookup.Entry = &e
		case !errors.Is(err, repository.ErrNotFound):
			log.Error(ctx, "rank query failed", logger.String("name", name), logger.Error(err))
			return exitError
		}
		summary.Lookups = append(summary.Lookups, lookup)
	}

	stats := svc.GetStats(ctx)
	summary.Size = stats.Entries
	summary.Levels = stats.Levels

	write := report.WriteText
	if opts.JSON {
		write = report.WriteJSON
	}
	if err := write(stdout, summary); err != nil {
		log.Error(ctx, "failed to write summary", logger.Error(err))
		return exitError
	}

	if opts.Dump {
		if err := svc.DumpStructure(ctx, stdout); err != nil {
			log.Error(ctx, "failed to write structure", logger.Error(err))
			return exitError
		}
	}
	return exitOK
}

// parseAssignment splits "name=score".
func parseAssignment(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("want name=score, got %q", kv)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("score for %s: %w", name, err)
	}
	return name, score, nil
}

// Command gen-players writes a synthetic players CSV for rankboard.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/okian/rankboard/internal/playergen"
	"github.com/okian/rankboard/pkg/logger"
)

// Options are the command line flags.
type Options struct {
	Count    int     `short:"n" long:"count" default:"250000" description:"rows to write"`
	Names    string  `long:"names" default:"sequential" choice:"sequential" choice:"uuid" description:"player name style"`
	MaxScore int     `long:"max-score" default:"10000" description:"highest possible score"`
	Repeats  float64 `long:"repeats" default:"0" description:"share of rows that re-score an earlier player"`
	Seed     uint64  `long:"seed" default:"0" description:"random seed, 0 for random"`
	Output   string  `short:"o" long:"output" description:"output file, stdout when empty"`
	Verbose  bool    `short:"v" long:"verbose" description:"enable debug logging"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts Options
	if _, err := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash).ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	if opts.Verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get()

	gen, err := playergen.New(playergen.Config{
		Count:    opts.Count,
		Names:    opts.Names,
		MaxScore: opts.MaxScore,
		Repeats:  opts.Repeats,
		Seed:     opts.Seed,
	})
	if err != nil {
		log.Error(ctx, "invalid options", logger.Error(err))
		return 2
	}

	out := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			log.Error(ctx, "failed to create output", logger.String("path", opts.Output), logger.Error(err))
			return 1
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Error(ctx, "failed to close output", logger.Error(err))
			}
		}()
		out = f
	}

	bw := bufio.NewWriter(out)
	if _, err := gen.Write(ctx, bw); err != nil {
		log.Error(ctx, "generation failed", logger.Error(err))
		return 1
	}
	if err := bw.Flush(); err != nil {
		log.Error(ctx, "failed to flush output", logger.Error(err))
		return 1
	}
	return 0
}

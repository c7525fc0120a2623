// Package playergen writes synthetic players files for exercising the loader.
package playergen

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rankboard/pkg/logger"
)

// Name styles.
const (
	NamesSequential = "sequential" // player0, player1, ...
	NamesUUID       = "uuid"
)

// Score tiers, as fractions of MaxScore. Average players dominate, elites are rare.
const (
	tierCount = 8

	avgMin, avgRange         = 0.30, 0.40
	highMin, highRange       = 0.70, 0.20
	lowMin, lowRange         = 0.01, 0.29
	eliteMin, eliteRange     = 0.90, 0.10
	veryLowMin, veryLowRange = 0.01, 0.09
	midHighMin, midHighRange = 0.60, 0.20
	midLowMin, midLowRange   = 0.20, 0.20
	wideMin, wideRange       = 0.01, 0.99
)

const (
	logProgressEvery        = 100_000
	seedStream       uint64 = 0x9e3779b97f4a7c15
)

// ErrInvalidConfig is returned for configurations that cannot produce a file.
var ErrInvalidConfig = errors.New("invalid generator config")

// Config controls a generated file.
type Config struct {
	Count    int     // rows to write
	Names    string  // NamesSequential or NamesUUID
	MaxScore int     // upper bound of generated scores
	Repeats  float64 // share of rows that re-score an earlier player, 0..1
	Seed     uint64  // zero picks a random seed
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidConfig, c.Count)
	case c.Names != NamesSequential && c.Names != NamesUUID:
		return fmt.Errorf("%w: unknown name style %q", ErrInvalidConfig, c.Names)
	case c.MaxScore < 1:
		return fmt.Errorf("%w: max score must be positive, got %d", ErrInvalidConfig, c.MaxScore)
	case c.Repeats < 0 || c.Repeats >= 1:
		return fmt.Errorf("%w: repeats must be within [0, 1), got %g", ErrInvalidConfig, c.Repeats)
	}
	return nil
}

// Generator produces rows for one Config.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	ids   io.Reader // entropy for UUID names
	names []string
}

// New builds a generator. Equal nonzero seeds give identical files.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	binary.LittleEndian.PutUint64(key[8:], seed^seedStream)

	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^seedStream)),
		ids: rand.NewChaCha8(key),
	}, nil
}

// Write emits a header and cfg.Count rows to w. It returns the rows written.
func (g *Generator) Write(ctx context.Context, w io.Writer) (int, error) {
	log := logger.Get().Named("playergen")

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "score"}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, 2)
	for i := 0; i < g.cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			cw.Flush()
			return i, err
		}

		name, err := g.name()
		if err != nil {
			return i, err
		}
		row[0] = name
		row[1] = strconv.Itoa(g.score())
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write row %d: %w", i+1, err)
		}

		if (i+1)%logProgressEvery == 0 {
			log.Debug(ctx, "rows generated", logger.Int("rows", i+1))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return g.cfg.Count, fmt.Errorf("flush: %w", err)
	}

	log.Info(ctx, "players file generated",
		logger.Int("rows", g.cfg.Count),
		logger.Int("players", len(g.names)),
	)
	return g.cfg.Count, nil
}

// name returns an earlier player for a repeat row, otherwise a new one.
func (g *Generator) name() (string, error) {
	if len(g.names) > 0 && g.rng.Float64() < g.cfg.Repeats {
		return g.names[g.rng.IntN(len(g.names))], nil
	}

	var name string
	switch g.cfg.Names {
	case NamesUUID:
		id, err := uuid.NewRandomFromReader(g.ids)
		if err != nil {
			return "", fmt.Errorf("generate uuid: %w", err)
		}
		name = id.String()
	default:
		name = "player" + strconv.Itoa(len(g.names))
	}
	g.names = append(g.names, name)
	return name, nil
}

// score draws an integer score from one of the tiers.
func (g *Generator) score() int {
	var lo, span float64
	switch g.rng.IntN(tierCount) {
	case 0:
		lo, span = avgMin, avgRange
	case 1:
		lo, span = highMin, highRange
	case 2:
		lo, span = lowMin, lowRange
	case 3:
		lo, span = eliteMin, eliteRange
	case 4:
		lo, span = veryLowMin, veryLowRange
	case 5:
		lo, span = midHighMin, midHighRange
	case 6:
		lo, span = midLowMin, midLowRange
	default:
		lo, span = wideMin, wideRange
	}
	return int((lo + g.rng.Float64()*span) * float64(g.cfg.MaxScore))
}

// Package service wires the leaderboard store to its load pipeline and exposes
// the operations the command line drivers need.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/okian/rankboard/internal/adapters/loader"
	recordqueue "github.com/okian/rankboard/internal/adapters/mq/queue"
	"github.com/okian/rankboard/internal/adapters/mq/worker"
	"github.com/okian/rankboard/internal/adapters/report"
	"github.com/okian/rankboard/internal/adapters/repository"
	"github.com/okian/rankboard/internal/domain/ranking"
	"github.com/okian/rankboard/internal/domain/types"
	"github.com/okian/rankboard/pkg/logger"
)

// Default service configuration constants.
const (
	defaultGame      = "MyGame"
	defaultQueueSize = 10_000
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")

// LoadResult summarizes one players file load.
type LoadResult struct {
	Records int   // rows read and queued
	Created int   // players that did not exist before
	Skipped int   // rows the loader or the store rejected
	Errors  error // every rejected row, nil when none
}

// Stats reports service state for logging and output.
type Stats struct {
	Game      string `json:"game"`
	Started   bool   `json:"started"`
	Entries   int    `json:"entries"`
	Levels    int    `json:"levels"`
	MaxLevel  int    `json:"max_level"`
	QueueSize int    `json:"queue_size"`
}

// Service owns one leaderboard and everything that feeds it.
type Service struct {
	mu sync.RWMutex

	leaderboard repository.Store

	// Configuration
	game      string
	maxLevel  int
	seed      uint64
	queueSize int
	strict    bool

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGame names the leaderboard.
func WithGame(game string) Option {
	return func(s *Service) {
		if game != "" {
			s.game = game
		}
	}
}

// WithMaxLevel caps skip list promotion.
func WithMaxLevel(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLevel = n
		}
	}
}

// WithSeed makes level draws reproducible. Zero keeps a random seed.
func WithSeed(seed uint64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithQueueSize sets the capacity of the load queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithStrict makes malformed rows abort a load.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		game:      defaultGame,
		maxLevel:  ranking.DefaultMaxLevel,
		queueSize: defaultQueueSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the leaderboard. Calling it again is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.leaderboard = repository.NewSkipListStore(ctx,
		repository.WithMaxLevel(s.maxLevel),
		repository.WithSeed(s.seed),
	)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("game", s.game),
		logger.Int("maxLevel", s.maxLevel),
		logger.Uint64("seed", s.seed),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop releases the leaderboard.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.leaderboard = nil
	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.leaderboard, nil
}

// LoadFile loads a players file from disk.
func (s *Service) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	return s.load(ctx, func(l *loader.CSVLoader, q loader.Sink) (loader.Report, error) {
		return l.LoadFile(ctx, path, q)
	})
}

// Load loads players CSV from r.
func (s *Service) Load(ctx context.Context, r io.Reader) (LoadResult, error) {
	return s.load(ctx, func(l *loader.CSVLoader, q loader.Sink) (loader.Report, error) {
		return l.Load(ctx, r, q)
	})
}

// load runs one pipeline: the loader fills a bounded queue and a single worker
// drains it into the store, so rows are applied in file order.
func (s *Service) load(ctx context.Context, read func(*loader.CSVLoader, loader.Sink) (loader.Report, error)) (LoadResult, error) {
	store, err := s.store()
	if err != nil {
		return LoadResult{}, err
	}

	q := recordqueue.NewInMemoryQueue(recordqueue.WithCapacity(s.queueSize))
	w := worker.NewInMemoryWorker(q, store, worker.WithLogger(s.logger.Named("worker")))
	l := loader.New(loader.WithStrict(s.strict), loader.WithLogger(s.logger.Named("loader")))

	go w.Run(ctx)

	rep, loadErr := read(l, q)
	_ = q.Close()

	select {
	case <-w.Done():
	case <-ctx.Done():
		return LoadResult{}, ctx.Err()
	}

	ws := w.Stats()
	res := LoadResult{
		Records: rep.Records,
		Created: int(ws.Created),
		Skipped: rep.Skipped + int(ws.Failed),
	}
	if loadErr != nil {
		return res, fmt.Errorf("load players: %w", loadErr)
	}

	var errs *multierror.Error
	if rep.Malformed != nil {
		errs = multierror.Append(errs, rep.Malformed)
	}
	if err := w.Err(); err != nil {
		errs = multierror.Append(errs, err)
	}
	res.Errors = errs.ErrorOrNil()

	s.logger.Info(ctx, "players loaded",
		logger.Int("records", res.Records),
		logger.Int("created", res.Created),
		logger.Int("skipped", res.Skipped),
		logger.Int("total", store.Count(ctx)),
	)
	return res, nil
}

// Upsert sets a player's score. Returns true if the player is new.
func (s *Service) Upsert(ctx context.Context, name string, score float64) (bool, error) {
	store, err := s.store()
	if err != nil {
		return false, err
	}
	return store.Upsert(ctx, name, score)
}

// Remove deletes a player. Returns false if the player was unknown.
func (s *Service) Remove(ctx context.Context, name string) (bool, error) {
	store, err := s.store()
	if err != nil {
		return false, err
	}
	return store.Remove(ctx, name)
}

// Rank returns the rank and score for a player.
func (s *Service) Rank(ctx context.Context, name string) (types.Entry, error) {
	store, err := s.store()
	if err != nil {
		return types.Entry{}, err
	}
	return store.Rank(ctx, name)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n)
}

// Range returns the entries ranked start..stop inclusive.
func (s *Service) Range(ctx context.Context, start, stop int) ([]types.Entry, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Range(ctx, start, stop)
}

// Count returns the number of players.
func (s *Service) Count(ctx context.Context) int {
	store, err := s.store()
	if err != nil {
		return 0
	}
	return store.Count(ctx)
}

// Game returns the leaderboard name.
func (s *Service) Game() string { return s.game }

// DumpStructure prints every skip list level, top level first.
func (s *Service) DumpStructure(ctx context.Context, w io.Writer) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	return report.WriteStructure(w, s.game, store.Levels(ctx))
}

// GetStats returns service statistics.
func (s *Service) GetStats(ctx context.Context) Stats {
	stats := Stats{
		Game:      s.game,
		MaxLevel:  s.maxLevel,
		QueueSize: s.queueSize,
	}

	store, err := s.store()
	if err != nil {
		return stats
	}
	st := store.Stats(ctx)
	stats.Started = true
	stats.Entries = st.Entries
	stats.Levels = st.Levels
	stats.MaxLevel = st.MaxLevel
	return stats
}

// Package loader streams players files into the leaderboard.
//
// A players file is CSV with a header row naming at least a name and a score
// column. Scores are integers. Rows are handed to a Sink in file order.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/okian/rankboard/internal/domain/model"
	"github.com/okian/rankboard/pkg/logger"
	"github.com/okian/rankboard/pkg/metrics"
)

const (
	defaultNameColumn  = "name"
	defaultScoreColumn = "score"
	defaultRetryDelay  = time.Millisecond
	utf8BOM            = "\ufeff"
)

// Sink receives parsed records. Enqueue is non-blocking and reports false when
// the record was not accepted.
type Sink interface {
	Enqueue(ctx context.Context, r model.Record) bool
	IsClosed() bool
}

// Report summarizes one load.
type Report struct {
	Records   int   // rows handed to the sink
	Skipped   int   // malformed rows left out
	Malformed error // every skipped row's error, nil when none
}

// CSVLoader parses players files.
type CSVLoader struct {
	strict      bool
	retryDelay  time.Duration
	nameColumn  string
	scoreColumn string
	logger      logger.Logger
}

// New creates a loader with configuration options.
func New(opts ...Option) *CSVLoader {
	l := &CSVLoader{
		retryDelay:  defaultRetryDelay,
		nameColumn:  defaultNameColumn,
		scoreColumn: defaultScoreColumn,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("loader")
	}
	return l
}

// LoadFile opens path and loads it into sink.
func (l *CSVLoader) LoadFile(ctx context.Context, path string, sink Sink) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		metrics.RecordErrorByComponent("loader", "open")
		return Report{}, fmt.Errorf("open players file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return l.Load(ctx, f, sink)
}

// Load reads CSV from r and enqueues one record per data row.
//
// A missing column, a read failure, a closed sink or a canceled context abort
// the load. Malformed rows are skipped and collected in Report.Malformed, unless
// the loader is strict, in which case the first one aborts.
func (l *CSVLoader) Load(ctx context.Context, r io.Reader, sink Sink) (Report, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLoaderDuration(time.Since(start).Seconds())
	}()

	var (
		rep       Report
		malformed *multierror.Error
	)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	nameIdx, scoreIdx, err := l.header(cr)
	if err != nil {
		metrics.RecordErrorByComponent("loader", "header")
		return rep, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var rec model.Record
		if err == nil {
			rec, err = l.parse(cr, row, nameIdx, scoreIdx)
		} else if pe := new(csv.ParseError); errors.As(err, &pe) {
			err = fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, pe.Line, pe.Err)
		} else {
			metrics.RecordErrorByComponent("loader", "read")
			return rep, fmt.Errorf("read players file: %w", err)
		}

		if err != nil {
			metrics.RecordLoaderRecord("malformed")
			if l.strict {
				return rep, err
			}
			rep.Skipped++
			malformed = multierror.Append(malformed, err)
			l.logger.Debug(ctx, "skipping row", logger.Error(err))
			continue
		}

		if err := l.send(ctx, sink, rec); err != nil {
			return rep, err
		}
		rep.Records++
		metrics.RecordLoaderRecord("applied")
	}

	rep.Malformed = malformed.ErrorOrNil()
	l.logger.Info(ctx, "players file loaded",
		logger.Int("records", rep.Records),
		logger.Int("skipped", rep.Skipped),
		logger.Duration("took", time.Since(start)),
	)
	return rep, nil
}

// header reads the first row and locates the name and score columns.
func (l *CSVLoader) header(cr *csv.Reader) (int, int, error) {
	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("%w: empty file, want %q and %q", ErrMissingColumn, l.nameColumn, l.scoreColumn)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}

	nameIdx, scoreIdx := -1, -1
	for i, col := range row {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		col = strings.TrimSpace(col)
		switch {
		case nameIdx < 0 && strings.EqualFold(col, l.nameColumn):
			nameIdx = i
		case scoreIdx < 0 && strings.EqualFold(col, l.scoreColumn):
			scoreIdx = i
		}
	}

	var missing []string
	if nameIdx < 0 {
		missing = append(missing, strconv.Quote(l.nameColumn))
	}
	if scoreIdx < 0 {
		missing = append(missing, strconv.Quote(l.scoreColumn))
	}
	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nameIdx, scoreIdx, nil
}

func (l *CSVLoader) parse(cr *csv.Reader, row []string, nameIdx, scoreIdx int) (model.Record, error) {
	line, _ := cr.FieldPos(0)

	if nameIdx >= len(row) || scoreIdx >= len(row) {
		return model.Record{}, fmt.Errorf("%w: line %d: %d fields", ErrMalformedRecord, line, len(row))
	}

	name := strings.TrimSpace(row[nameIdx])
	if name == "" {
		return model.Record{}, fmt.Errorf("%w: line %d: empty name", ErrMalformedRecord, line)
	}

	score, err := strconv.ParseInt(strings.TrimSpace(row[scoreIdx]), 10, 64)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: line %d: score %q: %w", ErrMalformedRecord, line, row[scoreIdx], err)
	}

	return model.Record{Line: line, Name: name, Score: float64(score)}, nil
}

// send hands rec to sink, waiting while the sink is full.
func (l *CSVLoader) send(ctx context.Context, sink Sink, rec model.Record) error {
	for !sink.Enqueue(ctx, rec) {
		if sink.IsClosed() {
			return fmt.Errorf("line %d: %w", rec.Line, ErrSinkClosed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil
}

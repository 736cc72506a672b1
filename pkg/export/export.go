// Package export streams the records of a Paradox table into a sink: CSV,
// SQLite or a Pebble key-value store.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/pxdb/pkg/logging"
	"github.com/ssargent/pxdb/pkg/table"
	"github.com/ssargent/pxdb/pkg/value"
)

// Sink receives a table's schema and then its records in index order
type Sink interface {
	Begin(schema []table.FieldDescriptor) error
	Write(index int, rec []value.Value) error
	Close() error
}

// Aborter is implemented by sinks that can discard what they have received.
// When Run fails it calls Abort instead of Close, so a transactional sink
// leaves its destination as it was before the export.
type Aborter interface {
	Abort() error
}

// ErrorPolicy decides what happens when a record cannot be read or written.
// Returning nil skips the record; returning an error aborts the export.
type ErrorPolicy func(index int, err error) error

// Abort is the default policy
func Abort(index int, err error) error {
	return fmt.Errorf("record %d: %w", index, err)
}

// Skip logs nothing and continues with the next record
func Skip(int, error) error {
	return nil
}

// Options configures Run
type Options struct {
	OnError       ErrorPolicy
	Logger        logrus.FieldLogger
	Limit         int // 0 exports every record
	ProgressEvery int // defaults to 1000
}

// Stats summarises a finished export
type Stats struct {
	Written int
	Skipped int
}

var errLimit = errors.New("export limit reached")

// Run streams every record of doc into sink. The sink is always closed, or
// aborted if the export fails and the sink implements Aborter.
func Run(ctx context.Context, doc *table.Document, sink Sink, opts Options) (stats Stats, err error) {
	if opts.OnError == nil {
		opts.OnError = Abort
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 1000
	}

	defer func() {
		if a, ok := sink.(Aborter); ok && err != nil {
			if aerr := a.Abort(); aerr != nil {
				opts.Logger.WithError(aerr).Warn("abort sink")
			}
			return
		}
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close sink: %w", cerr)
		}
	}()

	if err := sink.Begin(doc.Fields()); err != nil {
		return stats, fmt.Errorf("begin export: %w", err)
	}

	total := doc.RecordCount()
	if opts.Limit > 0 && opts.Limit < total {
		total = opts.Limit
	}
	log := opts.Logger.WithField("records", total)

	write := func(i int, rec []value.Value) error {
		if i >= total {
			return errLimit
		}
		if err := sink.Write(i, rec); err != nil {
			if perr := opts.OnError(i, err); perr != nil {
				return perr
			}
			stats.Skipped++
		} else {
			stats.Written++
		}
		if done := i + 1; done%opts.ProgressEvery == 0 || done == 1 {
			log.WithField("processed", done).Info("export progress")
		}
		return nil
	}

	next := 0
	err = doc.Scan(ctx, func(i int, rec []value.Value) error {
		if err := write(i, rec); err != nil {
			return err
		}
		next = i + 1
		return nil
	})

	var ce *table.CorruptionError
	switch {
	case err == nil, errors.Is(err, errLimit):
		err = nil
	case errors.As(err, &ce):
		// fall back to per-record reads so the policy sees each damaged record
		err = resume(ctx, doc, next, total, write, &stats, opts.OnError)
	}
	if err != nil {
		return stats, err
	}

	log.WithFields(logrus.Fields{
		"written": stats.Written,
		"skipped": stats.Skipped,
	}).Info("export complete")
	return stats, nil
}

func resume(ctx context.Context, doc *table.Document, from, total int, write func(int, []value.Value) error, stats *Stats, onError ErrorPolicy) error {
	for i := from; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := doc.FetchRecord(i)
		if err != nil {
			if perr := onError(i, err); perr != nil {
				return perr
			}
			stats.Skipped++
			continue
		}
		if err := write(i, rec); err != nil {
			return err
		}
	}
	return nil
}

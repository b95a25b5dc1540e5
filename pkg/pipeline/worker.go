package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"sinkhole/pkg/adlist"
	"sinkhole/pkg/progress"
)

// maxReadErrors is how many reads in a row may fail without consuming any
// byte before the source is given up.
const maxReadErrors = 8

// maxLineLength bounds a source line, terminator included.  Longer lines are
// skipped like a failed read.
const maxLineLength = 64 << 10

var (
	// errTooManyReadErrors is reported when a source keeps failing.
	errTooManyReadErrors = errors.New("too many consecutive read errors")

	errLineTooLong = errors.New("line too long")
)

// countingReader is a reader that knows how many bytes it has consumed.
// *adlist.Stream implements it.
type countingReader interface {
	io.Reader
	BytesRead() uint64
}

// worker reads a single adlist and sends its domains to the writer.
type worker struct {
	adlist    adlist.Adlist
	whitelist *Whitelist
	timeout   time.Duration
	obs       progress.Observer
	domains   chan<- string
}

// run reads the whole source.  Failures are reported to the observer only.
func (w *worker) run(ctx context.Context) {
	source := w.adlist.Source()

	stream, err := adlist.Open(ctx, w.adlist, w.timeout)
	if err != nil {
		w.obs.Observe(progress.ReadingAdlistFailed{Source: source, Reason: err})
		return
	}
	defer func() { _ = stream.Close() }()

	length, known := stream.Length()
	w.obs.Observe(progress.BeginAdlistRead{Source: source, Length: length, LengthKnown: known})

	if err = w.read(ctx, stream); err != nil {
		w.obs.Observe(progress.ReadingAdlistFailed{Source: source, Reason: err})
		return
	}

	w.obs.Observe(progress.FinishAdlistRead{Source: source})
}

func (w *worker) read(ctx context.Context, src countingReader) error {
	source := w.adlist.Source()
	r := &lineReader{r: bufio.NewReader(src)}

	var reported, stalledAt uint64
	failures := 0

	for lineNum := uint64(1); ; lineNum++ {
		raw, err := r.next()

		total := src.BytesRead()
		w.obs.Observe(progress.ReadProgress{Source: source, Bytes: total, Delta: total - reported})
		reported = total

		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if failures == 0 || total != stalledAt {
				failures, stalledAt = 0, total
			}
			failures++
			if failures >= maxReadErrors {
				return fmt.Errorf("read %s: %w: %w", source, errTooManyReadErrors, err)
			}
			continue
		}
		failures = 0

		if herr := w.handleLine(ctx, lineNum, raw); herr != nil {
			return herr
		}

		if err != nil {
			return nil
		}
	}
}

// lineReader splits a source into lines of at most maxLineLength bytes.
type lineReader struct {
	r *bufio.Reader
	// skipping is set while the rest of an over-long line interrupted by a
	// read error is still to be discarded.
	skipping bool
}

// next returns the next line with its terminator.  An over-long line is
// consumed and reported as errLineTooLong.  As with bufio.Reader.ReadString,
// err is io.EOF only for the last line.
func (l *lineReader) next() (string, error) {
	var buf []byte
	tooLong := l.skipping

	for {
		frag, err := l.r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(frag) > maxLineLength {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err != nil && !errors.Is(err, io.EOF):
			l.skipping = tooLong
			return string(buf), err
		}

		l.skipping = false
		if tooLong {
			return "", errLineTooLong
		}
		return string(buf), err
	}
}

// handleLine filters a single raw line and sends its domain, if any.
func (w *worker) handleLine(ctx context.Context, lineNum uint64, raw string) error {
	if !utf8.ValidString(raw) {
		return nil
	}

	line := strings.TrimSpace(raw)
	if adlist.IsIgnorable(line) {
		return nil
	}

	domain, ok := adlist.ParseLine(w.adlist.Format(), line)
	if !ok {
		return nil
	}

	domain = strings.TrimSpace(domain)
	if domain == "" || domain == "." {
		w.obs.Observe(progress.AllMatchingLineIgnored{
			Source:     w.adlist.Source(),
			LineNumber: lineNum,
			Line:       line,
		})
		return nil
	}

	if w.whitelist.Contains(domain) {
		w.obs.Observe(progress.WhitelistedDomainIgnored{Source: w.adlist.Source(), Domain: domain})
		return nil
	}

	select {
	case w.domains <- domain:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

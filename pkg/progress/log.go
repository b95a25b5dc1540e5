package progress

import (
	"log/slog"
	"sync"

	"github.com/c2h5oh/datasize"
)

// logStep is how many bytes of a source pass between two debug progress
// messages.
const logStep = datasize.MB

// LogObserver reports events through a structured logger.  Source-level
// milestones are logged at info level, failures at error level, and per-line
// events at debug level.
type LogObserver struct {
	log *slog.Logger

	mu     sync.Mutex
	logged map[string]uint64
}

// NewLogObserver creates a LogObserver.  A nil log means slog.Default().
func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{log: log, logged: make(map[string]uint64)}
}

// Observe implements Observer for *LogObserver.
func (o *LogObserver) Observe(e Event) {
	switch e := e.(type) {
	case BeginAdlistRead:
		size := "unknown"
		if e.LengthKnown {
			size = datasize.ByteSize(e.Length).HumanReadable()
		}
		o.log.Info("reading adlist", "source", e.Source, "size", size)
	case ReadProgress:
		o.logProgress(e)
	case FinishAdlistRead:
		o.mu.Lock()
		delete(o.logged, e.Source)
		o.mu.Unlock()
		o.log.Info("finished adlist", "source", e.Source)
	case ReadingAdlistFailed:
		o.log.Error("failed to read adlist", "source", e.Source, "error", e.Reason)
	case DomainWritten:
		o.log.Debug("domain written", "domain", e.Domain)
	case WhitelistedDomainIgnored:
		o.log.Debug("whitelisted domain ignored", "source", e.Source, "domain", e.Domain)
	case AllMatchingLineIgnored:
		o.log.Debug("all-matching line ignored", "source", e.Source, "line_number", e.LineNumber, "line", e.Line)
	}
}

func (o *LogObserver) logProgress(e ReadProgress) {
	o.mu.Lock()
	last := o.logged[e.Source]
	due := e.Bytes-last >= logStep.Bytes()
	if due {
		o.logged[e.Source] = e.Bytes
	}
	o.mu.Unlock()

	if due {
		o.log.Debug("adlist progress", "source", e.Source, "read", datasize.ByteSize(e.Bytes).HumanReadable())
	}
}

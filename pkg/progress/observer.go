package progress

import "sync"

// Observer receives progress events.  Observe is called from the adlist
// workers and the writer; implementations must not panic.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc is an adapter to allow the use of ordinary functions as
// observers.
type ObserverFunc func(e Event)

// Observe implements Observer for ObserverFunc.
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// Discard is an observer that ignores all events.
var Discard Observer = ObserverFunc(func(Event) {})

type synchronized struct {
	mu  sync.Mutex
	obs Observer
}

// Synchronized returns an observer that serialises calls to obs, making any
// observer safe for concurrent use.  A nil obs yields Discard.
func Synchronized(obs Observer) Observer {
	if obs == nil {
		return Discard
	}
	if s, ok := obs.(*synchronized); ok {
		return s
	}
	return &synchronized{obs: obs}
}

func (s *synchronized) Observe(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.Observe(e)
}

// Multi returns an observer that passes every event to each of observers in
// order.  Nil observers are skipped.
func Multi(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return ObserverFunc(func(e Event) {
		for _, o := range list {
			o.Observe(e)
		}
	})
}

// Recorder is an observer that keeps every event in memory.  It is safe for
// concurrent use and meant for tests and short runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Observe implements Observer for *Recorder.
func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ForSource returns the recorded events that carry the given source, in
// order.  DomainWritten events carry no source and are never returned.
func (r *Recorder) ForSource(source string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if SourceOf(e) == source {
			out = append(out, e)
		}
	}
	return out
}

// SourceOf returns the source an event refers to, or "" for events that are
// not tied to a source.
func SourceOf(e Event) string {
	switch e := e.(type) {
	case BeginAdlistRead:
		return e.Source
	case ReadProgress:
		return e.Source
	case FinishAdlistRead:
		return e.Source
	case ReadingAdlistFailed:
		return e.Source
	case WhitelistedDomainIgnored:
		return e.Source
	case AllMatchingLineIgnored:
		return e.Source
	default:
		return ""
	}
}

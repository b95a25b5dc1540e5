// Package progress defines the events a pipeline run reports while it reads
// adlists and writes outputs, and a few observers for them.
package progress

// Event is a progress event.  The concrete types are listed below; the set is
// closed.
type Event interface {
	isEvent()
}

// BeginAdlistRead is reported once an adlist source is open and before any of
// its bytes are read.
type BeginAdlistRead struct {
	Source string
	// Length is the total source length; it is only meaningful when
	// LengthKnown is true.
	Length      uint64
	LengthKnown bool
}

// ReadProgress is reported after every attempted line read.  Bytes is the
// cumulative count for the source and Delta the bytes since the previous
// ReadProgress of the same source.
type ReadProgress struct {
	Source string
	Bytes  uint64
	Delta  uint64
}

// FinishAdlistRead is reported when a source reaches EOF.
type FinishAdlistRead struct {
	Source string
}

// ReadingAdlistFailed is reported when a source cannot be read.  Nothing else
// is reported for the source afterwards.
type ReadingAdlistFailed struct {
	Source string
	Reason error
}

// DomainWritten is reported by the writer for every domain it receives,
// before deduplication.
type DomainWritten struct {
	Domain string
}

// WhitelistedDomainIgnored is reported when a parsed domain is whitelisted.
type WhitelistedDomainIgnored struct {
	Source string
	Domain string
}

// AllMatchingLineIgnored is reported when a line would block every domain,
// that is when its candidate is empty or ".".
type AllMatchingLineIgnored struct {
	Source     string
	LineNumber uint64
	Line       string
}

func (BeginAdlistRead) isEvent()          {}
func (ReadProgress) isEvent()             {}
func (FinishAdlistRead) isEvent()         {}
func (ReadingAdlistFailed) isEvent()      {}
func (DomainWritten) isEvent()            {}
func (WhitelistedDomainIgnored) isEvent() {}
func (AllMatchingLineIgnored) isEvent()   {}

package logging

import (
	"sync"
)

// Entry is a single captured log record.
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// Recorder is a Logger that captures entries in memory. Tests use it to
// assert that warning paths (compartment fallbacks, filter reversions, rename
// collisions) actually fire.
type Recorder struct {
	mu      sync.Mutex
	base    []Field
	name    string
	entries *[]Entry
}

// NewRecorder returns a Recorder with an empty entry list.
func NewRecorder() *Recorder {
	entries := make([]Entry, 0, 16)
	return &Recorder{entries: &entries}
}

func (r *Recorder) log(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]Field, 0, len(r.base)+len(fields))
	all = append(all, r.base...)
	all = append(all, fields...)
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Fields: all})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.log("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.log("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.log("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.log("error", msg, fields) }

func (r *Recorder) With(fields ...Field) Logger {
	child := &Recorder{entries: r.entries, name: r.name}
	child.base = append(append([]Field{}, r.base...), fields...)
	return child
}

func (r *Recorder) Named(name string) Logger {
	child := &Recorder{entries: r.entries, base: r.base}
	if r.name != "" {
		child.name = r.name + "." + name
	} else {
		child.name = name
	}
	return child
}

// Entries returns a snapshot of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Warnings returns the messages of all warn-level entries.
func (r *Recorder) Warnings() []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == "warn" {
			out = append(out, e.Message)
		}
	}
	return out
}

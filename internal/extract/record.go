package extract

import (
	"strings"

	"dispatchreport/constants"
)

// Record maps canonical field keys to extracted values. An absent key means
// the field was never captured; values are trimmed at the point of capture
// and never empty.
type Record struct {
	values map[constants.Field]string
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[constants.Field]string)}
}

// Get returns the value for f and whether it is present.
func (r *Record) Get(f constants.Field) (string, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Has reports whether f carries a non-empty value.
func (r *Record) Has(f constants.Field) bool {
	_, ok := r.values[f]
	return ok
}

// Set stores a trimmed value for f. An empty (or all-whitespace) value
// clears the key instead. When a key recurs, the last set wins; duplicate
// labels in one message resolve to the final occurrence by this rule.
func (r *Record) Set(f constants.Field, value string) {
	v := strings.TrimSpace(value)
	if v == "" {
		delete(r.values, f)
		return
	}
	r.values[f] = v
}

// Delete removes f from the record.
func (r *Record) Delete(f constants.Field) {
	delete(r.values, f)
}

// Len returns the number of captured fields.
func (r *Record) Len() int {
	return len(r.values)
}

// Fields returns the captured keys in vocabulary order, for deterministic
// iteration.
func (r *Record) Fields() []constants.Field {
	out := make([]constants.Field, 0, len(r.values))
	for _, f := range constants.AllFields() {
		if _, ok := r.values[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Map returns a copy of the captured values keyed by canonical name.
func (r *Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for f, v := range r.values {
		out[string(f)] = v
	}
	return out
}

// FromMap builds a record from canonical-name keys. Unknown keys are
// dropped: the vocabulary is closed.
func FromMap(m map[string]string) *Record {
	r := NewRecord()
	for k, v := range m {
		f := constants.Field(k)
		if !constants.IsKnown(f) {
			continue
		}
		r.Set(f, v)
	}
	return r
}

// Draft returns an independent working copy for edits. Mutating the draft
// never touches the base record until Commit.
func (r *Record) Draft() *Record {
	d := NewRecord()
	for f, v := range r.values {
		d.values[f] = v
	}
	return d
}

// Commit atomically replaces this record's contents with the draft's. A
// draft that is discarded instead of committed leaves the base untouched.
func (r *Record) Commit(draft *Record) {
	next := make(map[constants.Field]string, len(draft.values))
	for f, v := range draft.values {
		next[f] = v
	}
	r.values = next
}

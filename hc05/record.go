package hc05

import (
	"i4.energy/across/btprog/at"
)

// Record holds the module settings captured before reconfiguration, so the
// Communication configuration can restore them. Every field is either empty
// (not yet read) or the last value successfully parsed from the module; a
// field is always replaced as a whole string.
//
// A Record starts empty and is mutated only by the Controller's save phase,
// sequentially, so it needs no locking.
type Record struct {
	values [at.FieldCount]string
}

// Set overwrites the field unconditionally.
func (r *Record) Set(field at.ConfigField, value string) {
	r.values[field] = value
}

// Get returns the captured value, or the empty string until first written.
func (r *Record) Get(field at.ConfigField) string {
	return r.values[field]
}

// Has reports whether a value was captured for the field.
func (r *Record) Has(field at.ConfigField) bool {
	return r.values[field] != ""
}

package at

import (
	"fmt"
	"strings"
)

const (
	// colonScanBound is how far into a reply line the label's colon may
	// appear. All known replies to the four configuration queries carry a
	// five-character label ("+UART:", "+NAME:", ...), so the colon sits at
	// offset 5. Whether every firmware variant keeps its labels inside this
	// bound is unverified; treat a miss as a compatibility signal, not as
	// data.
	colonScanBound = 7

	// maxValueLen caps a configuration value. The module's own limit on
	// names and passwords is well below this.
	maxValueLen = 30
)

// ParseError reports a reply that does not follow the label:value grammar.
type ParseError struct {
	// Reply is the raw reply that failed to parse.
	Reply string
	// Reason describes which part of the grammar was violated.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse reply %q: %s", e.Reply, e.Reason)
}

// ParseValue extracts the configuration value from one query reply.
//
// The value is everything after the first colon of the first reply line, up
// to (excluding) the line terminator. A reply whose first line carries no
// colon within the scan bound, or whose value exceeds the capacity bound,
// yields a *ParseError.
//
// ParseValue is a pure function: no side effects, no I/O.
func ParseValue(reply string) (string, error) {
	line := reply
	if i := strings.IndexAny(line, CRLF); i >= 0 {
		line = line[:i]
	}

	bound := colonScanBound
	if len(line) < bound {
		bound = len(line)
	}
	colon := strings.IndexByte(line[:bound], ':')
	if colon < 0 {
		return "", &ParseError{Reply: reply, Reason: "no colon within label bound"}
	}

	value := line[colon+1:]
	if len(value) > maxValueLen {
		return "", &ParseError{Reply: reply, Reason: fmt.Sprintf("value exceeds %d bytes", maxValueLen)}
	}
	return value, nil
}

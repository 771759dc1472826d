package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing AT command module responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings. The module does not echo
// commands, so every token is part of a reply.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a reply line.
func Classify(line string) ResponseType {
	// Direct matches for final results
	switch line {
	case OK, Fail:
		return TypeFinal
	}

	// The module reports failures as "ERROR:(<code>)"
	if strings.HasPrefix(line, Error) {
		return TypeFinal
	}

	return TypeData
}

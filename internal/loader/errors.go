package loader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports malformed rig or animation input.
type ParseError struct {
	Op   string // what was being parsed: "decode", "segment", "vertex", ...
	File string
	Line int    // 1-based, 0 when unknown
	Text string // the offending source line
	Msg  string
	Err  error // underlying cause, if any
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	fmt.Fprintf(&b, ": %s: %s", e.Op, e.Msg)
	if e.Text != "" {
		fmt.Fprintf(&b, "\n\t%s", e.Text)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func nodeError(op string, line int, format string, args ...any) *ParseError {
	return &ParseError{Op: op, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func causeError(op string, line int, err error) *ParseError {
	return &ParseError{Op: op, Line: line, Msg: err.Error(), Err: err}
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// source attaches file and line text to errors raised while parsing data.
type source struct {
	file  string
	lines []string
}

func newSource(file string, data []byte) *source {
	return &source{file: file, lines: strings.Split(string(data), "\n")}
}

func (s *source) wrap(err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		pe = &ParseError{Op: "decode", Msg: err.Error(), Err: err}
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			pe.Line, _ = strconv.Atoi(m[1])
		}
	}
	if pe.File == "" {
		pe.File = s.file
	}
	if pe.Text == "" && pe.Line > 0 && pe.Line <= len(s.lines) {
		pe.Text = strings.TrimSpace(strings.TrimRight(s.lines[pe.Line-1], "\r"))
	}
	return pe
}

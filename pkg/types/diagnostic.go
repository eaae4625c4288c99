package types

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Severity orders diagnostics; higher values are more severe
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the lower-case name of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity parses a severity name
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn", "":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity: %s", s)
	}
}

// Location points at a position in a source file. Line and Column are
// 1-based; zero means unknown.
type Location struct {
	Path   string
	Line   int
	Column int
}

// LocationAt converts a byte offset into content into a 1-based line and
// column in path
func LocationAt(path string, content []byte, offset int) Location {
	before := content[:offset]
	return Location{
		Path:   path,
		Line:   bytes.Count(before, []byte("\n")) + 1,
		Column: offset - bytes.LastIndexByte(before, '\n'),
	}
}

// String renders the location as path:line:column, omitting unknown parts
func (l Location) String() string {
	switch {
	case l.Line == 0:
		return l.Path
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.Path, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
	}
}

// Diagnostic is a finding produced by a stage or an auxiliary pass
type Diagnostic struct {
	Severity Severity
	Location Location
	Message  string
	// Source names the stage or pass that produced the finding
	Source string
}

// String formats the diagnostic for plain-text reports
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
	if d.Source != "" {
		s += " [" + d.Source + "]"
	}
	return s
}

// SortDiagnostics orders diagnostics by path, line, column, severity
// (most severe first), message and source
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Location.Path != b.Location.Path {
			return a.Location.Path < b.Location.Path
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Location.Column != b.Location.Column {
			return a.Location.Column < b.Location.Column
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Source < b.Source
	})
}

// HasSeverity reports whether any diagnostic is at least min
func HasSeverity(diags []Diagnostic, min Severity) bool {
	for _, d := range diags {
		if d.Severity >= min {
			return true
		}
	}
	return false
}

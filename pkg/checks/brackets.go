package checks

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/kiln/pkg/types"
)

var closers = map[byte]byte{')': '(', ']': '[', '}': '{'}

// bracket is an open bracket. jsx marks a brace opened from JSX text,
// whose close returns the scanner to text.
type bracket struct {
	ch     byte
	offset int
	jsx    bool
}

// bracketScanner walks source code keeping a bracket stack. With jsx set
// it also follows JSX elements, whose text is not code: quotes there are
// apostrophes, not string delimiters.
type bracketScanner struct {
	path string
	src  []byte
	jsx  bool

	stack []bracket
	// elements counts the open elements of each JSX expression being
	// scanned, innermost last
	elements []int
	inText   bool
}

// checkBrackets reports the first bracket that does not balance. String
// literals, template literals and comments are skipped, and so is JSX
// text when jsx is set.
func checkBrackets(path string, src []byte, jsx bool) (types.Diagnostic, bool) {
	s := &bracketScanner{path: path, src: src, jsx: jsx}
	return s.scan()
}

func (s *bracketScanner) report(offset int, msg string) (types.Diagnostic, bool) {
	return types.Diagnostic{
		Severity: types.SeverityError,
		Location: types.LocationAt(s.path, s.src, offset),
		Message:  msg,
		Source:   TypeCheckPassName,
	}, true
}

func (s *bracketScanner) scan() (types.Diagnostic, bool) {
	src := s.src
	for i := 0; i < len(src); i++ {
		if s.inText {
			next, ok := s.text(i)
			if !ok {
				return s.report(i, "unterminated JSX tag")
			}
			i = next
			continue
		}

		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(string(src[i+2:]), "*/")
			if end < 0 {
				return s.report(i, "unterminated comment")
			}
			i += end + 3
		case c == '"' || c == '\'' || c == '`':
			end, ok := skipString(src, i)
			if !ok {
				return s.report(i, "unterminated string literal")
			}
			i = end
		case c == '<' && s.jsx && s.startsElement(i):
			end, selfClosing, ok := scanTag(src, i)
			if !ok {
				return s.report(i, "unterminated JSX tag")
			}
			if !selfClosing {
				s.elements = append(s.elements, 1)
				s.inText = true
			}
			i = end
		case c == '(' || c == '[' || c == '{':
			s.stack = append(s.stack, bracket{ch: c, offset: i})
		case c == ')' || c == ']' || c == '}':
			top := len(s.stack) - 1
			if top < 0 || s.stack[top].ch != closers[c] {
				return s.report(i, fmt.Sprintf("unexpected '%c'", c))
			}
			s.inText = s.stack[top].jsx
			s.stack = s.stack[:top]
		}
	}
	if len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		return s.report(top.offset, fmt.Sprintf("unclosed '%c'", top.ch))
	}
	return types.Diagnostic{}, false
}

// text handles one byte of JSX text at i and returns the index of the
// last byte consumed
func (s *bracketScanner) text(i int) (int, bool) {
	src := s.src
	switch src[i] {
	case '{':
		s.stack = append(s.stack, bracket{ch: '{', offset: i, jsx: true})
		s.inText = false
	case '<':
		end, selfClosing, ok := scanTag(src, i)
		if !ok {
			return i, false
		}
		top := len(s.elements) - 1
		if top < 0 {
			s.inText = false
			return end, true
		}
		switch {
		case i+1 < len(src) && src[i+1] == '/':
			s.elements[top]--
			if s.elements[top] == 0 {
				s.elements = s.elements[:top]
				s.inText = false
			}
		case !selfClosing:
			s.elements[top]++
		}
		return end, true
	}
	return i, true
}

// startsElement reports whether the '<' at i opens a JSX element rather
// than comparing or starting a type argument list
func (s *bracketScanner) startsElement(i int) bool {
	src := s.src
	if i+1 >= len(src) {
		return false
	}
	next := src[i+1]
	if next != '>' && !isLetter(next) {
		return false
	}

	j := i - 1
	for j >= 0 && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
		j--
	}
	if j < 0 {
		return true
	}
	if strings.IndexByte("(=,:?&|[{}>;", src[j]) >= 0 {
		return true
	}
	return j >= 5 && string(src[j-5:j+1]) == "return" && (j == 5 || !isIdent(src[j-6]))
}

// scanTag finds the '>' closing the tag that starts at i. Attribute
// strings and braced expressions are skipped.
func scanTag(src []byte, i int) (end int, selfClosing bool, ok bool) {
	depth := 0
	for j := i + 1; j < len(src); j++ {
		switch c := src[j]; {
		case c == '"' || c == '\'' || c == '`':
			k, ok := skipString(src, j)
			if !ok {
				return 0, false, false
			}
			j = k
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '>' && depth == 0:
			return j, src[j-1] == '/', true
		}
	}
	return 0, false, false
}

// skipString returns the index of the quote closing the literal at i.
// Single and double quoted strings end at a newline.
func skipString(src []byte, i int) (int, bool) {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n':
			if q != '`' {
				return 0, false
			}
		case q:
			return j, true
		}
	}
	return 0, false
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdent(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '_' || c == '$'
}

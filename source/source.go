// Package source implements the well-formedness check applied to
// javascript-mode artifacts before a full-replacement edit is accepted.
//
// The check is deliberately shallow: it is not a parser. It verifies
// that bracket constructs balance (outside strings and comments) and
// that the game-loop lifecycle entry points are present, which is enough
// to keep obviously broken or truncated model output from ever being
// committed as the live artifact.
package source

import (
	"errors"
	"fmt"
	"regexp"
)

// Package errors returned by Validate.
var (
	// ErrUnbalanced is returned when brackets do not balance.
	ErrUnbalanced = errors.New("unbalanced source")

	// ErrMissingEntryPoint is returned when a required lifecycle
	// function is absent.
	ErrMissingEntryPoint = errors.New("missing lifecycle entry point")

	// ErrEmptySource is returned for empty or whitespace-only input.
	ErrEmptySource = errors.New("empty source")
)

// EntryPoints are the lifecycle functions every game source must define.
// The canvas runtime calls update() then draw() each frame.
var EntryPoints = []string{"update", "draw"}

// entryPattern matches a function declaration or a function-valued
// binding for the named entry point.
func entryPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)(?:function\s+` + name + `\s*\(|(?:const|let|var)\s+` + name + `\s*=\s*(?:async\s+)?(?:function\b|\())`)
}

var entryPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(EntryPoints))
	for _, name := range EntryPoints {
		m[name] = entryPattern(name)
	}
	return m
}()

// Validate checks a full source text. It returns nil if the source is
// acceptable as the new artifact content, or one of the package errors
// describing the first problem found.
func Validate(src string) error {
	if !hasContent(src) {
		return ErrEmptySource
	}
	if err := checkBalance(src); err != nil {
		return err
	}
	stripped := stripLiterals(src)
	for _, name := range EntryPoints {
		if !entryPatterns[name].MatchString(stripped) {
			return fmt.Errorf("%w: %s", ErrMissingEntryPoint, name)
		}
	}
	return nil
}

func hasContent(src string) bool {
	for _, r := range src {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return true
		}
	}
	return false
}

// lexState tracks which literal or comment region the scanner is inside.
type lexState int

const (
	stateCode lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateTemplate
	stateLineComment
	stateBlockComment
)

// checkBalance verifies (), [], {} pairing outside string literals and
// comments. Template literal interpolation is not descended into; the
// braces of ${...} still count because the scanner treats the template
// body as opaque only between backticks.
func checkBalance(src string) error {
	var stack []byte
	state := stateCode

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch state {
		case stateSingleQuote:
			if c == '\\' {
				i++
			} else if c == '\'' || c == '\n' {
				state = stateCode
			}
			continue
		case stateDoubleQuote:
			if c == '\\' {
				i++
			} else if c == '"' || c == '\n' {
				state = stateCode
			}
			continue
		case stateTemplate:
			if c == '\\' {
				i++
			} else if c == '`' {
				state = stateCode
			}
			continue
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			}
			continue
		case stateBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				i++
				state = stateCode
			}
			continue
		}

		switch c {
		case '\'':
			state = stateSingleQuote
		case '"':
			state = stateDoubleQuote
		case '`':
			state = stateTemplate
		case '/':
			if i+1 < len(src) {
				switch src[i+1] {
				case '/':
					i++
					state = stateLineComment
				case '*':
					i++
					state = stateBlockComment
				}
			}
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			open := matchingOpen(c)
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return fmt.Errorf("%w: unexpected %q", ErrUnbalanced, string(c))
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		return fmt.Errorf("%w: unclosed %q", ErrUnbalanced, string(stack[len(stack)-1]))
	}
	if state == stateBlockComment {
		return fmt.Errorf("%w: unterminated comment", ErrUnbalanced)
	}
	if state == stateSingleQuote || state == stateDoubleQuote || state == stateTemplate {
		return fmt.Errorf("%w: unterminated string literal", ErrUnbalanced)
	}
	return nil
}

func matchingOpen(close byte) byte {
	switch close {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

// stripLiterals blanks out string literals and comments so entry-point
// matching cannot be fooled by the words "function update(" appearing
// inside a string.
func stripLiterals(src string) string {
	out := []byte(src)
	state := stateCode

	for i := 0; i < len(out); i++ {
		c := out[i]

		if state != stateCode {
			blank := true
			switch state {
			case stateSingleQuote:
				if c == '\\' && i+1 < len(out) {
					out[i+1] = ' '
					i++
				} else if c == '\'' || c == '\n' {
					state = stateCode
					blank = false
				}
			case stateDoubleQuote:
				if c == '\\' && i+1 < len(out) {
					out[i+1] = ' '
					i++
				} else if c == '"' || c == '\n' {
					state = stateCode
					blank = false
				}
			case stateTemplate:
				if c == '\\' && i+1 < len(out) {
					out[i+1] = ' '
					i++
				} else if c == '`' {
					state = stateCode
				}
			case stateLineComment:
				if c == '\n' {
					state = stateCode
					blank = false
				}
			case stateBlockComment:
				if c == '*' && i+1 < len(out) && out[i+1] == '/' {
					out[i+1] = ' '
					i++
					state = stateCode
				}
			}
			if blank && c != '\n' {
				out[i] = ' '
			}
			continue
		}

		switch c {
		case '\'':
			state = stateSingleQuote
		case '"':
			state = stateDoubleQuote
		case '`':
			state = stateTemplate
		case '/':
			if i+1 < len(out) {
				switch out[i+1] {
				case '/':
					out[i], out[i+1] = ' ', ' '
					i++
					state = stateLineComment
				case '*':
					out[i], out[i+1] = ' ', ' '
					i++
					state = stateBlockComment
				}
			}
		}
	}

	return string(out)
}

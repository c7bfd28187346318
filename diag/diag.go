// Package diag defines the structured diagnostic records surfaced by the
// lexer, macro expander, and directive driver, per the error-kinds table
// in the design: errors never cross the public boundary as exceptions.
package diag

import "github.com/gocpp-project/gocpp/token"

// Kind classifies an Output record.
type Kind int

const (
	// ERROR is a fatal #error directive; the driver clears its output.
	ERROR Kind = iota
	// WARNING is a non-fatal #warning directive.
	WARNING
	// MissingHeader is a non-fatal #include target absent from the cache
	// and search paths.
	MissingHeader
	// IncludeNestedTooDeeply is fatal: include depth exceeded the cap.
	IncludeNestedTooDeeply
	// SyntaxError covers lexer, directive, or expansion failures. Fatal
	// for the current expansion; the driver continues on the next line
	// when it safely can.
	SyntaxError
	// PortabilityBackslash flags a "\ <space> <newline>" sequence.
	PortabilityBackslash
	// UnhandledChar flags a high-bit byte outside a literal.
	UnhandledChar
	// ExplicitIncludeNotFound flags a DUI.Includes entry that could not
	// be resolved.
	ExplicitIncludeNotFound
)

func (k Kind) String() string {
	switch k {
	case ERROR:
		return "ERROR"
	case WARNING:
		return "WARNING"
	case MissingHeader:
		return "MISSING_HEADER"
	case IncludeNestedTooDeeply:
		return "INCLUDE_NESTED_TOO_DEEPLY"
	case SyntaxError:
		return "SYNTAX_ERROR"
	case PortabilityBackslash:
		return "PORTABILITY_BACKSLASH"
	case UnhandledChar:
		return "UNHANDLED_CHAR_ERROR"
	case ExplicitIncludeNotFound:
		return "EXPLICIT_INCLUDE_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// Output is one diagnostic record.
type Output struct {
	Kind     Kind
	Location token.Location
	Message  string
}

// List is an ordered collection of diagnostics, appended in emission
// order.
type List struct {
	entries []Output
}

// Add appends a diagnostic.
func (l *List) Add(kind Kind, loc token.Location, message string) {
	l.entries = append(l.entries, Output{Kind: kind, Location: loc, Message: message})
}

// Entries returns the diagnostics recorded so far, in emission order.
func (l *List) Entries() []Output {
	return l.entries
}

// HasFatal reports whether any recorded diagnostic is of a fatal kind
// (ERROR or INCLUDE_NESTED_TOO_DEEPLY).
func (l *List) HasFatal() bool {
	for _, o := range l.entries {
		if o.Kind == ERROR || o.Kind == IncludeNestedTooDeeply {
			return true
		}
	}
	return false
}

// Error is returned by components (lexer, macro expander) whose failure
// must abort the caller's current unit of work. The driver lifts it into
// an Output record via Kind/Location/Message.
type Error struct {
	Kind     Kind
	Location token.Location
	Message  string
}

func (e *Error) Error() string { return e.Message }

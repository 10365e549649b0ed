package syntax

import "github.com/walteh/kconfig-ls/pkg/token"

// Severity classifies a Diagnostic raised while parsing.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// Diagnostic is a single parse-time finding, independent of any tree node,
// so that a full list can be produced even when most of the file parsed
// cleanly.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     token.Span
}

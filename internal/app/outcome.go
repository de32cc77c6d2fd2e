// Package app holds the two request handlers: the per-filter batch
// recompute and the single-run evaluator.
package app

import "github.com/kzero/skillpoints/pkg/logger"

// Diagnostic is a recoverable condition worth reporting without
// aborting the request stream.
type Diagnostic struct {
	Message string
	Fields  []logger.Field
}

// Outcome is the tagged per-request result the transport loop decides
// on: a fatal error terminates the process, diagnostics are logged and
// processing continues, and Response (when non-nil) is written to
// stdout either way.
type Outcome struct {
	Response    interface{}
	Diagnostics []Diagnostic
	Err         error
}

// Ok wraps a clean response.
func Ok(resp interface{}) Outcome {
	return Outcome{Response: resp}
}

// Warning wraps a response that carries diagnostics.
func Warning(resp interface{}, diags ...Diagnostic) Outcome {
	return Outcome{Response: resp, Diagnostics: diags}
}

// Fatal wraps an error that must terminate the process.
func Fatal(err error) Outcome {
	return Outcome{Err: err}
}

// IsFatal reports whether the outcome terminates the process.
func (o Outcome) IsFatal() bool { return o.Err != nil }

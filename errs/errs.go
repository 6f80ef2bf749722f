// Package errs provides structured error types and helpers for the Voxlane compat layer.
package errs

import (
	"strconv"
	"strings"
)

// Code identifies a compat-layer error category.
type Code string

const (
	// CodeProbe indicates a dependency's presence or version could not be determined.
	CodeProbe Code = "probe_failed"
	// CodeInjection indicates a fallback module could not be built or published.
	CodeInjection Code = "injection_failed"
	// CodeReplacement indicates a data-model replacement could not be constructed or rebound.
	CodeReplacement Code = "replacement_failed"
	// CodeWrap indicates a callable could not be wrapped.
	CodeWrap Code = "wrap_failed"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
	// CodeNotFound indicates a missing module, export, or fallback source.
	CodeNotFound Code = "not_found"
	// CodeConflict indicates an attempt to overwrite an already-published module.
	CodeConflict Code = "conflict"
)

// E captures structured error information produced across the compat layer.
type E struct {
	Patch       string
	Code        Code
	Module      string
	Symbol      string
	Message     string
	Remediation string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the named patch and error code.
// The patch name may be empty when the failure is not tied to a specific patch.
func New(patch string, code Code, opts ...Option) *E {
	e := &E{
		Patch:       strings.TrimSpace(patch),
		Code:        code,
		Module:      "",
		Symbol:      "",
		Message:     "",
		Remediation: "",
		cause:       nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithModule records the module name the failure relates to.
func WithModule(module string) Option {
	trimmed := strings.TrimSpace(module)
	return func(e *E) {
		e.Module = trimmed
	}
}

// WithSymbol records the export symbol the failure relates to.
func WithSymbol(symbol string) Option {
	trimmed := strings.TrimSpace(symbol)
	return func(e *E) {
		e.Symbol = trimmed
	}
}

// WithRemediation attaches remediation guidance to the error.
func WithRemediation(remediation string) Option {
	trimmed := strings.TrimSpace(remediation)
	return func(e *E) {
		e.Remediation = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	patch := strings.TrimSpace(e.Patch)
	if patch == "" {
		patch = "unknown"
	}
	parts = append(parts, "patch="+patch)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Module != "" {
		parts = append(parts, "module="+strconv.Quote(e.Module))
	}
	if e.Symbol != "" {
		parts = append(parts, "symbol="+strconv.Quote(e.Symbol))
	}
	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Remediation != "" {
		parts = append(parts, "remediation="+strconv.Quote(e.Remediation))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// IsCode reports whether err is a compat error envelope carrying the given code.
func IsCode(err error, code Code) bool {
	e, ok := err.(*E)
	return ok && e.Code == code
}

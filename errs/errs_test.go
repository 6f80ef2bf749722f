package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesModuleAndSymbol(t *testing.T) {
	err := New(
		"permissive-predict-request",
		CodeReplacement,
		WithModule("veldt/queueing"),
		WithSymbol("PredictRequest"),
		WithMessage("target symbol missing"),
		WithRemediation("reinstall the veldt extension package"),
		WithCause(errors.New("export not found")),
	)

	out := err.Error()
	if !strings.Contains(out, "patch=permissive-predict-request") {
		t.Fatalf("expected patch marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=replacement_failed") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "module=\"veldt/queueing\"") {
		t.Fatalf("expected module in error string: %s", out)
	}
	if !strings.Contains(out, "symbol=\"PredictRequest\"") {
		t.Fatalf("expected symbol in error string: %s", out)
	}
	if !strings.Contains(out, "remediation=\"reinstall the veldt extension package\"") {
		t.Fatalf("expected remediation guidance in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"export not found\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestEmptyPatchRendersUnknown(t *testing.T) {
	err := New("", CodeProbe)
	out := err.Error()
	if !strings.Contains(out, "patch=unknown") {
		t.Fatalf("expected unknown patch marker, got %s", out)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("compile failed")
	err := New("ensure-serializing-module", CodeInjection, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match wrapped cause")
	}
}

func TestIsCode(t *testing.T) {
	err := New("p", CodeConflict)
	if !IsCode(err, CodeConflict) {
		t.Fatalf("expected IsCode to match conflict")
	}
	if IsCode(err, CodeWrap) {
		t.Fatalf("expected IsCode to reject mismatched code")
	}
	if IsCode(errors.New("plain"), CodeConflict) {
		t.Fatalf("expected IsCode to reject non-envelope errors")
	}
}

func TestNilErrorString(t *testing.T) {
	var err *E
	if err.Error() != "<nil>" {
		t.Fatalf("expected <nil> rendering for nil receiver")
	}
}

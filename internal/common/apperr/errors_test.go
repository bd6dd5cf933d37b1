package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := New(KindPrecondition, "no layout for session %s", "abc")
	wrapped := fmt.Errorf("render: %w", base)

	if got := KindOf(wrapped); got != KindPrecondition {
		t.Fatalf("KindOf = %q, want %q", got, KindPrecondition)
	}
	if !Is(wrapped, KindPrecondition) {
		t.Fatalf("expected Is to match precondition")
	}
	if Is(wrapped, KindValidation) {
		t.Fatalf("unexpected validation match")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain error should have no kind")
	}
}

func TestErrorMessageAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindRender, cause, "renderer failed").WithField("image")

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	want := "RENDER: renderer failed (image): connection reset"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWithHelpersCopy(t *testing.T) {
	orig := New(KindAnalysis, "bad output")
	sub := orig.WithSubkind(SubkindNotJSON).WithRaw("oops")

	if orig.Subkind != "" || orig.Raw != "" {
		t.Fatalf("original mutated: %+v", orig)
	}
	e, ok := As(sub)
	if !ok || e.Subkind != SubkindNotJSON || e.Raw != "oops" {
		t.Fatalf("unexpected copy: %+v", e)
	}
}

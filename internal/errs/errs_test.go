package errs

import (
	"errors"
	"testing"
)

func TestWrapAndKindOf(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(ExternalTimeout, "search call", cause)

	if KindOf(err) != ExternalTimeout {
		t.Fatalf("expected kind %q, got %q", ExternalTimeout, KindOf(err))
	}
	if !errors.Is(err, err) {
		t.Fatal("expected errors.Is to match itself")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("expected errors.As to extract *Error")
	}
	if e.Cause != cause {
		t.Fatal("expected cause to be preserved")
	}
}

func TestKindOfUnknownErrorIsInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != Internal {
		t.Fatal("expected plain errors to classify as internal")
	}
}

func TestKindOfNilIsEmpty(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatal("expected nil error to have empty kind")
	}
}

func TestRetryableKinds(t *testing.T) {
	cases := map[Kind]bool{
		ExternalTimeout:     true,
		ExternalRateLimited: true,
		ExternalUnavailable: false,
		ContentEmpty:        false,
		Cancelled:           false,
		Internal:            false,
	}
	for kind, want := range cases {
		if got := Retryable(kind); got != want {
			t.Errorf("Retryable(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestIsHelper(t *testing.T) {
	err := New(ContentEmpty, "no queries generated")
	if !Is(err, ContentEmpty) {
		t.Fatal("expected Is to match ContentEmpty")
	}
	if Is(err, Internal) {
		t.Fatal("expected Is to not match a different kind")
	}
}

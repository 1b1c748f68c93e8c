package core

import (
	"errors"
	"testing"
)

func TestValidateIdentifier_AcceptsAllowedCharacters(t *testing.T) {
	cases := []string{"acme", "acme-corp", "acme_corp", "Tenant01", "a", "0-9_AZ"}
	for _, id := range cases {
		got, err := ValidateIdentifier(id)
		if err != nil {
			t.Fatalf("expected %q to validate, got %v", id, err)
		}
		if got != id {
			t.Fatalf("expected identifier to pass through unchanged, got %q from %q", got, id)
		}
	}
}

func TestValidateIdentifier_RejectsInvalidInput(t *testing.T) {
	cases := []string{"", "   ", "acme corp", "acme/corp", "../etc", "acme!", "ても", "."}
	for _, id := range cases {
		if _, err := ValidateIdentifier(id); err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}

func TestValidateIdentifier_NeverRewrites(t *testing.T) {
	// A candidate with stray characters must fail outright, not come back
	// stripped.
	if got, err := ValidateIdentifier("acme.corp"); err == nil {
		t.Fatalf("expected rejection, got %q", got)
	}
}

func TestValidateIdentifier_WrapsSentinel(t *testing.T) {
	_, err := ValidateIdentifier("not/valid")
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	_, err = ValidateIdentifier("")
	if !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier for empty input, got %v", err)
	}
}

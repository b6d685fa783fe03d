package services_test

import (
	"errors"
	"strings"
	"testing"

	"influencer/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "narration", "synthesize", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"narration", "synthesize", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.Disposition
	}{
		{"transient", services.Wrap(services.ErrTransient, "upload", "insert", "503", nil), services.DispositionRetry},
		{"quota", services.Wrap(services.ErrQuotaExceeded, "upload", "insert", "403", nil), services.DispositionCloseGate},
		{"fatal", services.Wrap(services.ErrFatal, "upload", "insert", "401", nil), services.DispositionSkipItem},
		{"incomplete", services.Wrap(services.ErrContentIncomplete, "narration", "split", "", nil), services.DispositionSoftStop},
		{"topic", services.Wrap(services.ErrInvalidTopicCode, "topics", "validate", "", nil), services.DispositionHaltChannel},
		{"plain", errors.New("unknown"), services.DispositionSkipItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestQuotaExceededIsFatal(t *testing.T) {
	err := services.Wrap(services.ErrQuotaExceeded, "upload", "", "", nil)
	if !services.IsFatal(err) {
		t.Fatal("expected quota exhaustion to count as fatal")
	}
	if services.IsTransient(err) {
		t.Fatal("quota exhaustion must not be retried")
	}
}

package services_test

import (
	"errors"
	"strings"
	"testing"

	"ytbridge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemote, "upload", "insert video", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"upload", "insert video", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestSkippableClassification(t *testing.T) {
	notReady := services.Wrap(services.ErrNotReady, "upload", "select track", "no valid track", nil)
	if !services.IsNotReady(notReady) || !services.Skippable(notReady) {
		t.Fatalf("expected not-ready error to be skippable: %v", notReady)
	}
	configErr := services.Wrap(services.ErrConfiguration, "upload", "resolve account", "no account", nil)
	if !services.Skippable(configErr) {
		t.Fatal("expected configuration error to be skippable")
	}
	remoteErr := services.Wrap(services.ErrRemote, "upload", "insert", "", errors.New("quota"))
	if services.Skippable(remoteErr) {
		t.Fatal("remote errors must not be skipped")
	}
	if services.Skippable(nil) {
		t.Fatal("nil error should not be skippable")
	}
}

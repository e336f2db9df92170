package faults_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ocat/internal/faults"
)

func TestWrapRetainsMarkerAndCause(t *testing.T) {
	base := errors.New("disk full")
	err := faults.Wrap(faults.ErrDestinationCollision, "rename", "move file", "target occupied", base)
	if !errors.Is(err, faults.ErrDestinationCollision) {
		t.Fatalf("expected marker retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause retained, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"rename", "move file", "target occupied"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := faults.Wrap(nil, "registry", "occupy", "bad input", nil)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation default, got %v", err)
	}
}

func TestContextRoundtrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := faults.IdentifierFromContext(ctx); ok {
		t.Fatal("expected no identifier on fresh context")
	}
	ctx = faults.WithIdentifier(ctx, "o01010")
	ctx = faults.WithStage(ctx, "file_moved")
	ctx = faults.WithRunID(ctx, "run-1")

	if id, ok := faults.IdentifierFromContext(ctx); !ok || id != "o01010" {
		t.Fatalf("identifier roundtrip failed: %q %v", id, ok)
	}
	if stage, ok := faults.StageFromContext(ctx); !ok || stage != "file_moved" {
		t.Fatalf("stage roundtrip failed: %q %v", stage, ok)
	}
	if run, ok := faults.RunIDFromContext(ctx); !ok || run != "run-1" {
		t.Fatalf("run id roundtrip failed: %q %v", run, ok)
	}
}

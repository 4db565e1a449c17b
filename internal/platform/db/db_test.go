package db

import (
	"context"
	"errors"
	"testing"
)

func TestOpenDSN_Empty(t *testing.T) {
	_, err := OpenDSN(context.Background(), "  ")
	if !errors.Is(err, ErrNoDSN) {
		t.Fatalf("expected ErrNoDSN, got %v", err)
	}
}

func TestOpen_UsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Open(context.Background()); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("expected ErrNoDSN, got %v", err)
	}
}

func TestOpenDSN_Malformed(t *testing.T) {
	_, err := OpenDSN(context.Background(), "postgres://%zz")
	if err == nil {
		t.Fatal("expected parse error")
	}
}

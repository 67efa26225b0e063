package logger

import (
	"context"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	// Test development mode
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize development logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Test production mode
	err = Init()
	if err != nil {
		t.Fatalf("failed to initialize production logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger = Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

// Basic logging test (slog-backed; no Sugar)
func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
}

func TestFieldConstructors(t *testing.T) {
	if f := String("endpoint", "localhost:6666"); f.Key != "endpoint" || f.Value != "localhost:6666" {
		t.Errorf("String field = %+v", f)
	}
	if f := Duration("delay", 5*time.Second); f.Value != 5*time.Second {
		t.Errorf("Duration field = %+v", f)
	}

	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2020, 1, 1, 1, 0, 0, 0, loc)
	f := Time("timestamp", ts)
	got, ok := f.Value.(time.Time)
	if !ok {
		t.Fatalf("Time field value is %T", f.Value)
	}
	if got.Location() != time.UTC {
		t.Error("Time field must normalize to UTC")
	}
	if !got.Equal(ts) {
		t.Error("Time field changed the instant")
	}
}

func TestLoggerNamed(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	namedLogger.Info(ctx, "test message")
}

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacerFirstCallFree(t *testing.T) {
	p := NewPacer(time.Hour)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait blocked for %v", elapsed)
	}
}

func TestPacerDelaysSubsequentCalls(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait returned after %v, want >= 50ms", elapsed)
	}
}

func TestPacerZeroDelay(t *testing.T) {
	p := NewPacer(0)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
}

func TestPacerReset(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx := context.Background()

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	p.Reset()

	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait after Reset blocked for %v", elapsed)
	}
}

func TestPacerCancellation(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled context = %v, want context.Canceled", err)
	}
}

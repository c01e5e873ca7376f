package fallback_test

import (
	"context"
	"errors"
	"testing"

	"camclip/internal/fallback"
)

func TestFirstStopsAtFirstSuccess(t *testing.T) {
	calls := 0
	strategies := []fallback.Strategy[string]{
		{Name: "a", Run: func(context.Context) (string, error) { calls++; return "", errors.New("down") }},
		{Name: "b", Run: func(context.Context) (string, error) { calls++; return "b-value", nil }},
		{Name: "c", Run: func(context.Context) (string, error) { calls++; return "c-value", nil }},
	}

	value, winner, err := fallback.First(context.Background(), strategies)
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if value != "b-value" || winner != "b" {
		t.Fatalf("got value=%q winner=%q", value, winner)
	}
	if calls != 2 {
		t.Fatalf("expected chain to stop after success, calls=%d", calls)
	}
}

func TestFirstReportsExhaustion(t *testing.T) {
	strategies := []fallback.Strategy[int]{
		{Name: "x", Run: func(context.Context) (int, error) { return 0, errors.New("nope") }},
		{Name: "y", Run: func(context.Context) (int, error) { return 0, errors.New("still no") }},
	}
	_, _, err := fallback.First(context.Background(), strategies)
	if !errors.Is(err, fallback.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestFirstHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	strategies := []fallback.Strategy[int]{
		{Name: "never", Run: func(context.Context) (int, error) { t.Fatal("should not run"); return 0, nil }},
	}
	if _, _, err := fallback.First(ctx, strategies); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

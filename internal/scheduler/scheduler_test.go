package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func noop(context.Context) error { return nil }

func TestAdd(t *testing.T) {
	s := New(zaptest.NewLogger(t))

	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"valid", Job{Name: "daily", Schedule: "0 6 * * *", Run: noop}, false},
		{"descriptor", Job{Name: "monthly", Schedule: "@monthly", Run: noop}, false},
		{"duplicate", Job{Name: "daily", Schedule: "@daily", Run: noop}, true},
		{"no name", Job{Schedule: "@daily", Run: noop}, true},
		{"no run", Job{Name: "idle", Schedule: "@daily"}, true},
		{"bad schedule", Job{Name: "bad", Schedule: "tomorrow", Run: noop}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.job)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	got := s.Names()
	if len(got) != 2 || got[0] != "daily" || got[1] != "monthly" {
		t.Errorf("Names() = %v, want [daily monthly]", got)
	}
}

func TestRemove(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	if err := s.Add(Job{Name: "daily", Schedule: "@daily", Run: noop}); err != nil {
		t.Fatal(err)
	}

	if !s.Remove("daily") {
		t.Error("Remove() = false for a registered job")
	}
	if s.Remove("daily") {
		t.Error("Remove() = true for a removed job")
	}
	if len(s.Names()) != 0 {
		t.Errorf("Names() = %v after remove", s.Names())
	}
}

func TestRunNow(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	fail := errors.New("export failed")
	var calls atomic.Int32

	s.Add(Job{Name: "ok", Schedule: "@daily", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}})
	s.Add(Job{Name: "broken", Schedule: "@daily", Run: func(context.Context) error { return fail }})

	if err := s.RunNow("ok"); err != nil {
		t.Fatalf("RunNow(ok) = %v", err)
	}
	if calls.Load() != 1 || s.Runs("ok") != 1 {
		t.Errorf("calls = %d, runs = %d; want 1, 1", calls.Load(), s.Runs("ok"))
	}

	if err := s.RunNow("broken"); !errors.Is(err, fail) {
		t.Errorf("RunNow(broken) = %v, want %v", err, fail)
	}
	if s.Runs("broken") != 0 {
		t.Errorf("failed runs must not be counted, got %d", s.Runs("broken"))
	}

	if err := s.RunNow("missing"); err == nil {
		t.Error("RunNow(missing) succeeded")
	}
}

func TestNext(t *testing.T) {
	from := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) // Monday

	got, err := Next("0 6 * * 1", from)
	if err != nil {
		t.Fatalf("Next() = %v", err)
	}
	want := time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}

	if _, err := Next("61 * * * *", from); err == nil {
		t.Error("Next() accepted minute 61")
	}
}

func TestStartFiresJobs(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	ran := make(chan struct{}, 1)
	s.Add(Job{Name: "tick", Schedule: "@every 1s", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}})

	s.Start()
	defer s.Stop(context.Background())

	if next, ok := s.NextRun("tick"); !ok || next.IsZero() {
		t.Errorf("NextRun() = %v, %v; want a time after Start", next, ok)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire within 3s")
	}
}

func TestStopCancelsRunningJobs(t *testing.T) {
	s := New(zaptest.NewLogger(t))
	started := make(chan struct{})
	var once sync.Once
	s.Add(Job{Name: "slow", Schedule: "@every 1s", Run: func(ctx context.Context) error {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return ctx.Err()
	}})

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
	if ctx.Err() != nil {
		t.Error("Stop() waited for the timeout; the running job was not cancelled")
	}
}

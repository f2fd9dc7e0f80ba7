package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestProgressIdleIsNegativeOne(t *testing.T) {
	w := New()
	if got := w.Progress("nosuchsession"); got != -1 {
		t.Errorf("Progress on idle session = %d, want -1", got)
	}
}

func TestStartReportsMonotonicProgress(t *testing.T) {
	w := New()
	var seen []int
	job := Job{
		SessionID: "abc123def456",
		Kind:      JobProcess,
		Run: func(ctx context.Context, progress func(int)) error {
			for _, p := range []int{5, 10, 45, 100} {
				progress(p)
				seen = append(seen, w.Progress("abc123def456"))
			}
			return nil
		},
	}
	if err := w.Start(context.Background(), job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	last := -1
	for _, v := range seen {
		if v < last {
			t.Errorf("progress went backwards: %v", seen)
		}
		last = v
	}
	if w.Progress("abc123def456") != -1 {
		t.Error("progress should be cleared once the job finishes")
	}
}

func TestStartRejectsConcurrentJobOnSameSession(t *testing.T) {
	w := New()
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(context.Background(), Job{
			SessionID: "same1234abcd",
			Run: func(ctx context.Context, progress func(int)) error {
				close(started)
				<-release
				return nil
			},
		})
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first job never started")
	}

	err := w.Start(context.Background(), Job{
		SessionID: "same1234abcd",
		Run:       func(ctx context.Context, progress func(int)) error { return nil },
	})
	if err == nil {
		t.Error("expected second concurrent Start on the same session to fail")
	}

	close(release)
	wg.Wait()
}

func TestProgressReportAfterJobCompletionIsSafe(t *testing.T) {
	w := New()
	var captured func(int)
	job := Job{
		SessionID: "late1234abcd",
		Run: func(ctx context.Context, progress func(int)) error {
			captured = progress
			progress(5)
			return nil
		},
	}
	if err := w.Start(context.Background(), job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The callback outlives the job; calling it after Start returns must
	// not panic even though the session's progress counter has been
	// removed from the in-flight map.
	captured(100)
}

package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/codebuildervaibhav/presentation-analysis/internal/types"
)

func TestStoreSetAndGet(t *testing.T) {
	store := NewStatusStore()
	store.Set("a", Status{Status: types.StatusAnalyzing, Message: "1/6"})

	status, ok := store.Get("a")
	if !ok {
		t.Fatal("expected job to exist")
	}
	if status.Status != types.StatusAnalyzing || status.Message != "1/6" {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestResolveKeepsInFlightStatus(t *testing.T) {
	store := NewStatusStore()
	store.Set("a", Status{Status: types.StatusAnalyzing})

	for i := 0; i < 3; i++ {
		if _, ok := store.Resolve("a"); !ok {
			t.Fatalf("in-flight status disappeared on poll %d", i)
		}
	}
}

func TestResolvePopsTerminalExactlyOnce(t *testing.T) {
	store := NewStatusStore()
	store.Set("a", Status{Status: types.StatusComplete, Result: &types.AnalysisResult{}})

	status, ok := store.Resolve("a")
	if !ok || status.Status != types.StatusComplete {
		t.Fatalf("first poll should receive the terminal payload, got %+v ok=%v", status, ok)
	}

	if _, ok := store.Resolve("a"); ok {
		t.Error("second poll after a terminal read must return not-found")
	}
	if _, ok := store.Get("a"); ok {
		t.Error("terminal entry must be removed from the store")
	}
}

func TestResolveErrorIsAlsoOneShot(t *testing.T) {
	store := NewStatusStore()
	store.Set("a", Status{Status: types.StatusError, Message: "boom"})

	if _, ok := store.Resolve("a"); !ok {
		t.Fatal("first poll should see the error")
	}
	if _, ok := store.Resolve("a"); ok {
		t.Error("error status must be popped on first read")
	}
}

func TestConcurrentResolveSingleWinner(t *testing.T) {
	store := NewStatusStore()
	store.Set("job", Status{Status: types.StatusComplete})

	const pollers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, pollers)

	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Resolve("job"); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("exactly one poller should pop the terminal payload, got %d", count)
	}
}

func TestConcurrentWritesToDifferentKeys(t *testing.T) {
	store := NewStatusStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			store.Set(id, Status{Status: types.StatusAnalyzing, Progress: n})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("job-%d", i)
		status, ok := store.Get(id)
		if !ok || status.Progress != i {
			t.Errorf("key %s corrupted: %+v ok=%v", id, status, ok)
		}
	}
}

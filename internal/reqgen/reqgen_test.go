package reqgen

import (
	"sync"
	"testing"
)

func TestCounter_LatestWins(t *testing.T) {
	var c Counter

	if c.Latest() != 0 {
		t.Fatalf("expected zero before first token, got %d", c.Latest())
	}

	first := c.Next()
	second := c.Next()

	if c.IsLatest(first) {
		t.Error("first token must be superseded")
	}
	if !c.IsLatest(second) {
		t.Error("second token must be latest")
	}

	applied := ""
	if c.Apply(first, func() { applied = "first" }) {
		t.Error("stale apply must be refused")
	}
	if !c.Apply(second, func() { applied = "second" }) {
		t.Error("latest apply must run")
	}
	if applied != "second" {
		t.Errorf("expected second response applied, got %q", applied)
	}
}

// A slow response for an old selection must not overwrite a newer one.
func TestCounter_OutOfOrderResponses(t *testing.T) {
	var c Counter
	var mu sync.Mutex
	state := ""

	stale := c.Next()
	fresh := c.Next()

	// fresh response arrives first
	mu.Lock()
	c.Apply(fresh, func() { state = "account-B" })
	mu.Unlock()

	// stale response arrives later
	mu.Lock()
	c.Apply(stale, func() { state = "account-A" })
	mu.Unlock()

	if state != "account-B" {
		t.Errorf("expected account-B to win, got %q", state)
	}
}

func TestCounter_ConcurrentNext(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	seen := make(chan Token, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[Token]bool)
	for tok := range seen {
		if unique[tok] {
			t.Fatalf("duplicate token %d", tok)
		}
		unique[tok] = true
	}
	if c.Latest() != 100 {
		t.Errorf("expected latest 100, got %d", c.Latest())
	}
}

package latch

import (
	"sync"
	"testing"
)

func TestOnRelease_AfterZero(t *testing.T) {
	for _, count := range []int{0, 1, 2, 5} {
		l := New(count)
		for i := 0; i < count; i++ {
			l.Release()
		}

		called := false
		l.OnRelease(func() { called = true })
		if !called {
			t.Errorf("count=%d: continuation registered after release should run immediately", count)
		}
	}
}

func TestRelease_ExactlyN(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{name: "one", count: 1},
		{name: "three", count: 3},
		{name: "ten", count: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.count)
			calls := 0
			l.OnRelease(func() { calls++ })

			for i := 0; i < tt.count-1; i++ {
				l.Release()
			}
			if calls != 0 {
				t.Fatalf("continuation ran after %d of %d releases", tt.count-1, tt.count)
			}

			l.Release()
			if calls != 1 {
				t.Fatalf("calls = %d after %d releases, want 1", calls, tt.count)
			}

			// The N+1th release must not fire again.
			l.Release()
			l.Release()
			if calls != 1 {
				t.Errorf("calls = %d after extra releases, want 1", calls)
			}
			if l.Remaining() != 0 {
				t.Errorf("Remaining() = %d, want 0", l.Remaining())
			}
		})
	}
}

func TestRelease_RegistrationOrder(t *testing.T) {
	l := New(1)
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		l.OnRelease(func() { order = append(order, i) })
	}

	l.Release()

	if len(order) != 4 {
		t.Fatalf("got %d continuations, want 4", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestNew_NegativeCount(t *testing.T) {
	l := New(-3)
	if l.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", l.Remaining())
	}

	called := false
	l.OnRelease(func() { called = true })
	if !called {
		t.Error("negative count should behave as an already released latch")
	}
}

func TestRelease_ContinuationMayRegisterAgain(t *testing.T) {
	l := New(1)
	nested := false
	l.OnRelease(func() {
		// Registering from inside a continuation must not deadlock.
		l.OnRelease(func() { nested = true })
	})

	l.Release()

	if !nested {
		t.Error("continuation registered during release should run immediately")
	}
}

func TestRelease_Concurrent(t *testing.T) {
	const n = 100
	l := New(n)

	var mu sync.Mutex
	calls := 0
	l.OnRelease(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < n*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Release()
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

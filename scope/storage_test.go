package scope

import (
	"sync"
	"testing"

	"github.com/contextkit/propagate/observability"
)

// nilStorage reports nothing bound, ever. Exercises the normalization
// contract: backends may return nil, callers never see it.
type nilStorage struct{}

func (nilStorage) Attach(*ThreadContext) *ThreadContext { return nil }
func (nilStorage) Detach(_, _ *ThreadContext)           {}
func (nilStorage) Current() *ThreadContext              { return nil }

func TestNilBackendResultsNormalizeToEmpty(t *testing.T) {
	SetObserver(observability.NoOpObserver{})
	t.Cleanup(func() { SetObserver(observability.NoOpObserver{}) })
	restore := swapStorageForTest(nilStorage{})
	defer restore()

	if Current() != Empty() {
		t.Error("nil Current() from backend reached the caller")
	}
	tc := WithValue(Empty(), petKey, "dog")
	if prev := tc.Attach(); prev != Empty() {
		t.Errorf("nil Attach() result = %v, want canonical empty", prev)
	}
	tc.Detach(Empty())
}

// recordingStorage verifies the swap is delegated unconditionally, with
// the mismatch check staying out of the backend.
type recordingStorage struct {
	current  *ThreadContext
	detaches []*ThreadContext
}

func (s *recordingStorage) Attach(toAttach *ThreadContext) *ThreadContext {
	prev := s.current
	s.current = toAttach
	return prev
}

func (s *recordingStorage) Detach(toDetach, toRestore *ThreadContext) {
	s.detaches = append(s.detaches, toRestore)
	s.current = toRestore
}

func (s *recordingStorage) Current() *ThreadContext { return s.current }

func TestBackendSwapsUnconditionallyOnMismatch(t *testing.T) {
	SetObserver(observability.NoOpObserver{})
	t.Cleanup(func() { SetObserver(observability.NoOpObserver{}) })
	backend := &recordingStorage{}
	restore := swapStorageForTest(backend)
	defer restore()

	bound := WithValue(Empty(), petKey, "dog")
	stranger := WithValue(Empty(), petKey, "cat")
	prev := bound.Attach()

	stranger.Detach(prev)

	if len(backend.detaches) != 1 || backend.detaches[0] != prev {
		t.Error("mismatched detach was not delegated to the backend as-is")
	}
}

func TestRegisterStorageProviderAfterSelectionPanics(t *testing.T) {
	// Force backend selection, which is cached for the process lifetime.
	_ = storage()

	defer func() {
		if recover() == nil {
			t.Error("late registration did not panic")
		}
	}()
	RegisterStorageProvider(func() (Storage, error) { return nilStorage{}, nil })
}

func TestRegisterNilStorageProviderPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("nil provider did not panic")
		}
	}()
	RegisterStorageProvider(nil)
}

func TestGoroutineStorageClearsSlotOnRootRestore(t *testing.T) {
	s := newGoroutineStorage()
	tc := WithValue(Empty(), petKey, "dog")

	prev := s.Attach(tc)
	if prev != nil {
		t.Errorf("fresh slot returned %v, want nil", prev)
	}
	if s.Current() != tc {
		t.Error("attach did not bind")
	}

	s.Detach(tc, canonicalEmpty)
	if s.Current() != nil {
		t.Error("slot still bound after restoring the root")
	}
	s.mu.RLock()
	remaining := len(s.bindings)
	s.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("table retains %d entries after root restore, want 0", remaining)
	}
}

func TestGoroutineStorageKeepsNonRootRestore(t *testing.T) {
	s := newGoroutineStorage()
	outer := WithValue(Empty(), petKey, "dog")
	inner := WithValue(outer, petKey, "cat")

	s.Attach(outer)
	s.Attach(inner)
	s.Detach(inner, outer)

	if s.Current() != outer {
		t.Error("non-root restore was not kept")
	}
	s.Detach(outer, canonicalEmpty)
}

func TestGoroutineStorageSlotsAreIndependent(t *testing.T) {
	s := newGoroutineStorage()
	tc := WithValue(Empty(), petKey, "dog")
	s.Attach(tc)
	defer s.Detach(tc, canonicalEmpty)

	var wg sync.WaitGroup
	results := make([]*ThreadContext, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Current()
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != nil {
			t.Errorf("goroutine %d observed %v, want nothing bound", i, got)
		}
	}
}

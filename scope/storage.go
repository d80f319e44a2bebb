package scope

import (
	"fmt"
	"sync"

	"github.com/petermattis/goid"
)

// Storage holds, per goroutine, the currently bound ThreadContext. It is
// the one extension point of this package: hosts with their own notion of
// execution-local state (fibers, request slots, test doubles) can supply
// an alternative via RegisterStorageProvider.
//
// Implementations perform the swaps unconditionally and must not fail on
// mismatched pairings — that check belongs to the caller, which is this
// package. Returning nil from Attach or Current is allowed and is
// normalized to Empty() before reaching users.
type Storage interface {
	// Attach makes toAttach the calling goroutine's current binding and
	// returns the previous one, or nil if there was none.
	Attach(toAttach *ThreadContext) *ThreadContext
	// Detach restores toRestore as the calling goroutine's current
	// binding. toDetach is the context being exited; implementations
	// swap regardless of whether it is actually current.
	Detach(toDetach, toRestore *ThreadContext)
	// Current returns the calling goroutine's binding, or nil.
	Current() *ThreadContext
}

var (
	storageOnce sync.Once
	storageImpl Storage

	providerMu      sync.Mutex
	storageProvider func() (Storage, error)
	storageChosen   bool
)

// RegisterStorageProvider supplies an alternative Storage implementation.
// It must be called during program initialization, before any attach,
// detach, or Current anywhere in the process; the provider runs once, on
// first use, and its result is cached for the process lifetime.
//
// The provider must not call back into this package — backend selection
// is single-flight, and re-entering it deadlocks.
//
// A provider that returns an error is fatal at first use: the caller
// explicitly opted out of the default, so there is no safe fallback.
// Registering twice, or after the backend has been chosen, panics.
func RegisterStorageProvider(provider func() (Storage, error)) {
	if provider == nil {
		panic("scope: nil storage provider")
	}
	providerMu.Lock()
	defer providerMu.Unlock()
	if storageChosen {
		panic("scope: storage backend already initialized")
	}
	if storageProvider != nil {
		panic("scope: storage provider already registered")
	}
	storageProvider = provider
}

func storage() Storage {
	storageOnce.Do(initStorage)
	return storageImpl
}

func initStorage() {
	providerMu.Lock()
	provider := storageProvider
	storageChosen = true
	providerMu.Unlock()

	if provider == nil {
		// No override registered; this is the expected case, not an error.
		storageImpl = newGoroutineStorage()
		return
	}
	s, err := provider()
	if err != nil {
		panic(fmt.Sprintf("scope: storage provider failed to initialize: %v", err))
	}
	if s == nil {
		panic("scope: storage provider returned nil")
	}
	storageImpl = s
}

// swapStorageForTest replaces the selected backend and returns a restore
// function. Test-only; not safe while other goroutines use the package.
func swapStorageForTest(s Storage) (restore func()) {
	storageOnce.Do(initStorage)
	old := storageImpl
	storageImpl = s
	return func() { storageImpl = old }
}

// goroutineStorage is the default backend: a mutex-guarded table keyed by
// goroutine id. Slots are logically private to their goroutine — the lock
// only protects the table itself, never ordering between goroutines.
type goroutineStorage struct {
	mu       sync.RWMutex
	bindings map[int64]*ThreadContext
}

func newGoroutineStorage() *goroutineStorage {
	return &goroutineStorage{bindings: make(map[int64]*ThreadContext)}
}

func (s *goroutineStorage) Attach(toAttach *ThreadContext) *ThreadContext {
	id := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.bindings[id]
	s.bindings[id] = toAttach
	return prev
}

func (s *goroutineStorage) Detach(toDetach, toRestore *ThreadContext) {
	id := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	if toRestore == nil || toRestore == canonicalEmpty {
		// Restoring the root: clear the slot outright so finished
		// goroutines leave nothing behind in the table.
		delete(s.bindings, id)
		return
	}
	s.bindings[id] = toRestore
}

func (s *goroutineStorage) Current() *ThreadContext {
	id := goid.Get()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[id]
}

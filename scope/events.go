package scope

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/contextkit/propagate/observability"
)

// Diagnostic events emitted by this package. Both signal caller bugs, not
// library failures, and neither interrupts processing.
const (
	// EventDetachMismatch reports a Detach issued while a different
	// context was current.
	EventDetachMismatch observability.EventType = "scope.detach.mismatch"
	// EventDeepAncestry reports an ancestry chain crossing the depth
	// threshold.
	EventDeepAncestry observability.EventType = "scope.ancestry.depth"
)

var (
	observerMu sync.RWMutex
	observer   observability.Observer = observability.NewSlogObserver(slog.Default())
)

// SetObserver routes this package's diagnostics to obs. The default
// observer logs through slog; pass observability.NoOpObserver{} to
// silence diagnostics entirely. A nil obs restores the default.
func SetObserver(obs observability.Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if obs == nil {
		obs = observability.NewSlogObserver(slog.Default())
	}
	observer = obs
}

func currentObserver() observability.Observer {
	observerMu.RLock()
	defer observerMu.RUnlock()
	return observer
}

func reportDetachMismatch(toDetach, current *ThreadContext) {
	data := map[string]any{
		"detaching":          fmt.Sprintf("%p", toDetach),
		"generation":         toDetach.generation,
		"current":            fmt.Sprintf("%p", current),
		"current_generation": current.generation,
	}
	currentObserver().OnEvent(context.Background(), observability.Event{
		Type:      EventDetachMismatch,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "scope",
		Data:      data,
	})
}

func reportDeepAncestry(generation int) {
	currentObserver().OnEvent(context.Background(), observability.Event{
		Type:      EventDeepAncestry,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "scope",
		Data: map[string]any{
			"generation": generation,
			// The call site is the interesting part: this fires from
			// whatever loop is deriving without detaching.
			"stack": string(debug.Stack()),
		},
	})
}

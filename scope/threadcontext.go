package scope

import (
	"github.com/contextkit/propagate"
)

// generationWarnThreshold flags ancestry chains long enough to suggest a
// propagation leak in caller code, usually an attach loop that derives
// from its own product. The value is arbitrary.
const generationWarnThreshold = 1000

// ThreadContext couples an immutable propagate.Context with scope
// semantics: it can be attached as the calling goroutine's current
// context and later detached. It inherits values from its parent;
// deriving never mutates.
//
// Do not fake this type in tests; use Empty for a non-nil instance or
// swap the Storage backend instead.
type ThreadContext struct {
	context *propagate.Context
	// generation counts derivations back to the canonical empty
	// instance. Diagnostic only; it resets to 0 when a bare Context is
	// re-wrapped.
	generation int
}

var canonicalEmpty = &ThreadContext{context: propagate.Empty()}

// Empty returns the canonical generation-0 ThreadContext wrapping the
// empty Context. It is the ultimate ancestor of all scoped contexts, and
// what Current reports on a goroutine that never attached anything.
func Empty() *ThreadContext {
	return canonicalEmpty
}

// Wrap lifts a plain Context into a generation-0 ThreadContext. Together
// with Context it forms the bridge adapters use to move snapshots in and
// out of the scoped world without copying.
func Wrap(c *propagate.Context) *ThreadContext {
	if c == nil {
		c = propagate.Empty()
	}
	return &ThreadContext{context: c}
}

// Context unwraps the underlying immutable snapshot.
func (t *ThreadContext) Context() *propagate.Context {
	return t.context
}

// Generation reports the number of derivation steps between t and the
// canonical empty instance.
func (t *ThreadContext) Generation() int {
	return t.generation
}

// WithValue returns a child ThreadContext in which k resolves to v. The
// child's generation is the parent's plus one.
func WithValue[T any](t *ThreadContext, k *propagate.Key[T], v T) *ThreadContext {
	return t.child(propagate.WithValue(t.context, k, v))
}

// WithValues returns a child ThreadContext with every pair set. However
// many pairs are given, this is a single derivation step.
func (t *ThreadContext) WithValues(pairs ...propagate.Pair) *ThreadContext {
	return t.child(t.context.WithValues(pairs...))
}

func (t *ThreadContext) child(c *propagate.Context) *ThreadContext {
	next := &ThreadContext{context: c, generation: t.generation + 1}
	if next.generation == generationWarnThreshold {
		reportDeepAncestry(next.generation)
	}
	return next
}

// Get resolves k against the calling goroutine's current context.
func Get[T any](k *propagate.Key[T]) T {
	return k.Get(Current().Context())
}

// Current returns the calling goroutine's bound ThreadContext. It never
// returns nil: a goroutine with no binding reports Empty().
func Current() *ThreadContext {
	if c := storage().Current(); c != nil {
		return c
	}
	return canonicalEmpty
}

// Attach makes t current for the calling goroutine and returns what was
// bound before, normalized to Empty() — never nil. Pass the returned
// value back to Detach:
//
//	prev := tc.Attach()
//	defer tc.Detach(prev)
func (t *ThreadContext) Attach() *ThreadContext {
	if prev := storage().Attach(t); prev != nil {
		return prev
	}
	return canonicalEmpty
}

// Detach reverses an Attach, restoring toRestore as current.
//
// t should be the context whose Attach returned toRestore. If some other
// context is current at this moment, either the caller or code in between
// is not detaching correctly; a severe diagnostic is emitted and the
// restore proceeds anyway, because refusing would corrupt the cleanup
// path of everything further up the stack. Never write
// Current().Detach(prev) — it defeats this error detection.
func (t *ThreadContext) Detach(toRestore *ThreadContext) {
	if toRestore == nil {
		toRestore = canonicalEmpty
	}
	s := storage()
	current := s.Current()
	if current == nil {
		current = canonicalEmpty
	}
	if current != t {
		reportDetachMismatch(t, current)
	}
	s.Detach(t, toRestore)
}

// Run executes fn with t as the current context. The detach is deferred,
// so it runs even when fn panics, and the panic continues unchanged.
func (t *ThreadContext) Run(fn func()) {
	prev := t.Attach()
	defer t.Detach(prev)
	fn()
}

// Call executes fn with t as the current context and returns its result.
// Errors and panics propagate unchanged, after the detach.
func Call[T any](t *ThreadContext, fn func() (T, error)) (T, error) {
	prev := t.Attach()
	defer t.Detach(prev)
	return fn()
}

// WrapFunc returns a function that, whenever it is eventually executed —
// possibly later, possibly on another goroutine — runs fn with t as the
// current context. A wrapper that is never executed never attaches, so an
// abandoned unit of work leaves every binding untouched.
func (t *ThreadContext) WrapFunc(fn func()) func() {
	return func() {
		t.Run(fn)
	}
}

// Package scope binds a propagate.Context to the calling goroutine so
// deeply nested call chains can read ambient values through Current
// without parameter threading.
//
// A ThreadContext is an immutable pairing of a Context with scope
// bookkeeping. Attaching it makes it Current for this goroutine; detaching
// restores what was bound before. Every Attach must have a matching Detach
// in the same function:
//
//	prev := tc.Attach()
//	defer tc.Detach(prev)
//
// Most callers are better served by Run, Call, or WrapFunc, which pair the
// two automatically — the detach runs even when the unit of work panics.
// For handing work to other goroutines, wrap the executor with
// FixedExecutor or CurrentExecutor.
//
// Misuse is never fatal: detaching while a different context is current,
// or deriving an implausibly deep ancestry chain, emits a severe
// diagnostic through the observability package and proceeds. The binding
// always ends up in the state the caller asked for.
//
// Storage of the per-goroutine binding is pluggable; see Storage and
// RegisterStorageProvider. The default keeps bindings in a goroutine-id
// keyed table.
package scope

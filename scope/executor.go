package scope

// Executor is the unit-of-work abstraction the propagation wrappers sit
// on: anything that eventually runs a func(), from a fresh goroutine per
// call to a pooled worker. This package never creates execution itself;
// it only decorates what the host provides.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) {
	f(fn)
}

// GoExecutor runs each unit of work on its own new goroutine.
type GoExecutor struct{}

func (GoExecutor) Execute(fn func()) {
	go fn()
}

// FixedExecutor wraps e so every submitted unit of work runs under t,
// regardless of what is current at submission time. Useful when a single
// context shards work out to many workers.
//
// The executing goroutine's own binding is restored once the work
// completes; propagation is one-directional.
func (t *ThreadContext) FixedExecutor(e Executor) Executor {
	return ExecutorFunc(func(fn func()) {
		e.Execute(t.WrapFunc(fn))
	})
}

// CurrentExecutor wraps e so each submitted unit of work captures
// whatever ThreadContext is current at submission time and runs under
// exactly that context — not whatever happens to be current on the
// executing goroutine later. This is usually what request-scoped code
// wants; see also FixedExecutor.
func CurrentExecutor(e Executor) Executor {
	return ExecutorFunc(func(fn func()) {
		e.Execute(Current().WrapFunc(fn))
	})
}

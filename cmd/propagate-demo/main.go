// Command propagate-demo exercises the propagation library end to end:
// it builds an ambient context for a simulated request, fans work out to
// workers through context-carrying executors, and shows that each worker
// observes the submitter's values while worker goroutines stay isolated.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contextkit/propagate"
	"github.com/contextkit/propagate/observability"
	"github.com/contextkit/propagate/scope"
)

var (
	runIDKey  = propagate.NewKey[string]("run-id")
	userKey   = propagate.NewKeyWithDefault[string]("user", "anonymous")
	tenantKey = propagate.NewKey[string]("tenant")
)

func main() {
	var (
		workers      = flag.Int("workers", 4, "Number of worker goroutines")
		user         = flag.String("user", "", "User to place in the ambient context")
		tenant       = flag.String("tenant", "demo", "Tenant to place in the ambient context")
		observerName = flag.String("observer", "slog", "Diagnostics observer: slog or noop")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	observer, err := observability.GetObserver(*observerName)
	if err != nil {
		log.Fatalf("Failed to select observer: %v", err)
	}
	scope.SetObserver(observer)

	pairs := []propagate.Pair{
		propagate.V(runIDKey, uuid.Must(uuid.NewV7()).String()),
		propagate.V(tenantKey, *tenant),
	}
	if *user != "" {
		pairs = append(pairs, propagate.V(userKey, *user))
	}
	request := scope.Empty().WithValues(pairs...)

	request.Run(func() {
		fmt.Printf("request scope: run=%s user=%s tenant=%s\n",
			scope.Get(runIDKey), scope.Get(userKey), scope.Get(tenantKey))

		// CurrentExecutor captures the request scope at submit time, so
		// the workers see it even though their goroutines never attached
		// anything themselves.
		var g errgroup.Group
		executor := scope.CurrentExecutor(scope.ExecutorFunc(func(fn func()) {
			g.Go(func() error {
				fn()
				return nil
			})
		}))

		for i := 0; i < *workers; i++ {
			executor.Execute(func() {
				fmt.Printf("worker %d: run=%s user=%s tenant=%s\n",
					i, scope.Get(runIDKey), scope.Get(userKey), scope.Get(tenantKey))
			})
		}
		if err := g.Wait(); err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
	})

	// Outside the request scope, only declared defaults remain.
	fmt.Printf("after detach: run=%q user=%q\n", scope.Get(runIDKey), scope.Get(userKey))
}

package propagate_test

import (
	"testing"

	"github.com/contextkit/propagate"
)

func BenchmarkWithValue(b *testing.B) {
	keys := make([]*propagate.Key[int], 20)
	for i := range keys {
		keys[i] = propagate.NewKey[int]("k")
	}
	base := propagate.Empty()
	for i, k := range keys {
		base = propagate.WithValue(base, k, i)
	}
	extra := propagate.NewKey[int]("extra")

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = propagate.WithValue(base, extra, i)
	}
}

func BenchmarkKeyGet(b *testing.B) {
	keys := make([]*propagate.Key[int], 20)
	ctx := propagate.Empty()
	for i := range keys {
		keys[i] = propagate.NewKey[int]("k")
		ctx = propagate.WithValue(ctx, keys[i], i)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = keys[i%len(keys)].Get(ctx)
	}
}

package rescache

// loader.go collapses concurrent GetOrCreate calls for the same
// descriptor into a single CreateFunc invocation, mirroring the teacher's
// pkg/loader.go singleflight wrapper around Cache.GetOrLoad.
//
// © 2025 vkforge authors. MIT License.

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

type loaderGroup[D comparable] struct {
	g singleflight.Group
}

// do executes fn exactly once for the given descriptor hash across all
// concurrent callers; every waiter receives the same Handle/error.
func (lg *loaderGroup[D]) do(ctx context.Context, descHash uint64, fn func() (Handle, error)) (Handle, error, bool) {
	key := strconv.FormatUint(descHash, 16)
	res, err, shared := lg.g.Do(key, func() (any, error) {
		return fn()
	})
	if ctx.Err() != nil {
		return Handle{}, ctx.Err(), shared
	}
	if err != nil {
		return Handle{}, err, shared
	}
	return res.(Handle), nil, shared
}

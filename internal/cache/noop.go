package cache

import (
	"context"
	"time"
)

var _ Cache = Noop{}

// Noop is the degraded-mode Cache used when no backend is configured.
// Every read misses and every write succeeds silently, so callers behave
// exactly as they would on a cold cache.
type Noop struct{}

func (Noop) Get(context.Context, string, any) bool          { return false }
func (Noop) Set(context.Context, string, any, time.Duration) {}
func (Noop) Delete(context.Context, ...string)               {}
func (Noop) DeleteMatching(context.Context, string)          {}
func (Noop) Close() error                                    { return nil }

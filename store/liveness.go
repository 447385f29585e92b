package store

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/scenevault/scenevault/log"
)

// TransferFunc runs a cancellable transfer, reporting progress through report.
type TransferFunc func(ctx context.Context, report ProgressFunc) (Result, error)

// Transfer runs a download under the no-progress liveness policy.
//
// Instead of a flat deadline, it waits up to window for completion in a
// bounded loop: if the transfer finished, its result is returned; if progress
// advanced since the previous iteration the wait restarts, so time to
// completion is unbounded as long as bytes keep flowing; if a full window
// passes without progress the transfer is cancelled and a stall is reported.
func Transfer(ctx context.Context, window time.Duration, onProgress ProgressFunc, run TransferFunc) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var progress atomic.Uint64
	report := func(p float64) {
		progress.Store(math.Float64bits(p))
		if onProgress != nil {
			onProgress(p)
		}
	}

	type outcome struct {
		result Result
		err    error
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := run(ctx, report)
		done <- outcome{result, err}
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()

	last := progress.Load()
	for {
		select {
		case o := <-done:
			return o.result, o.err

		case <-ctx.Done():
			return Result{Status: StatusError}, ctx.Err()

		case <-timer.C:
			current := progress.Load()
			if current == last {
				log.Warnf("download made no progress for %s, cancelling", window)
				cancel()
				return Result{Status: StatusStalled}, ErrStalled
			}
			last = current
			timer.Reset(window)
		}
	}
}

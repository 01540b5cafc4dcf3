package core

import (
	"context"
	"net"
	"time"
)

// defaultPollInterval is short enough to add little latency but keeps
// the loop from hammering the endpoint.
const defaultPollInterval = 250 * time.Millisecond

// ReadinessGate polls a TCP endpoint until it accepts a connection.
// It keeps no state between calls; reachability alone satisfies it.
type ReadinessGate struct {
	Interval time.Duration // zero means defaultPollInterval
}

func NewReadinessGate() *ReadinessGate {
	return &ReadinessGate{Interval: defaultPollInterval}
}

func (g *ReadinessGate) interval() time.Duration {
	if g.Interval > 0 {
		return g.Interval
	}
	return defaultPollInterval
}

// AwaitReady blocks until req's endpoint accepts one TCP connection or
// the requirement's timeout lapses. The connection is closed right away,
// nothing is read or written. Returns a *TimeoutError on budget
// exhaustion, or ctx.Err() if the caller cancelled the wait.
func (g *ReadinessGate) AwaitReady(ctx context.Context, req ReadinessRequirement) error {
	interval := g.interval()
	start := time.Now()
	deadline := start.Add(time.Duration(req.Timeout))

	dialer := net.Dialer{Timeout: interval}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return &TimeoutError{Endpoint: req.Endpoint, Elapsed: time.Since(start)}
		}

		// a single attempt never runs past the overall budget, even
		// against an endpoint that drops packets instead of refusing
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		conn, err := dialer.DialContext(attemptCtx, "tcp", req.Addr())
		cancel()
		if err == nil {
			conn.Close()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sleep := interval
		if remaining := time.Until(deadline); remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// AwaitAll waits for every requirement concurrently; all must succeed
// before the job's steps may begin. Waiting one goroutine per endpoint
// bounds the total wait to the slowest timeout instead of the sum.
// The first failure wins and cancels the remaining waits.
func (g *ReadinessGate) AwaitAll(ctx context.Context, reqs []ReadinessRequirement) error {
	if len(reqs) == 0 {
		return nil
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(reqs))
	for _, req := range reqs {
		go func(req ReadinessRequirement) {
			errs <- g.AwaitReady(waitCtx, req)
		}(req)
	}

	var firstErr error
	for range reqs {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
			cancel() // no point waiting on the rest
		}
	}
	return firstErr
}

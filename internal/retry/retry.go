// Package retry runs an operation under exponential backoff, stopping early
// on failures whose kind is terminal.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"unveildocs/internal/util"
)

type State string

const (
	StateAttempting       State = "attempting"
	StateSuccess          State = "success"
	StateRetryableFailure State = "retryable_failure"
	StateWaiting          State = "waiting"
	StateTerminalFailure  State = "terminal_failure"
)

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy defaults to 4 attempts with a 1s base doubling up to 60s.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
	// Classify maps a failure to a kind. Errors that already carry a kind
	// keep it when Classify is nil.
	Classify func(error) util.ErrorKind
	Sleeper  Sleeper
	Logger   *slog.Logger
	// OnTransition observes every state change. Used by tests.
	OnTransition func(from, to State, attempt int)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.Base <= 0 {
		p.Base = time.Second
	}
	if p.Cap <= 0 {
		p.Cap = 60 * time.Second
	}
	if p.Classify == nil {
		p.Classify = util.KindOf
	}
	if p.Sleeper == nil {
		p.Sleeper = timerSleeper{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Delay is the wait before retry n (n >= 1): min(base * 2^(n-1), cap).
func (p Policy) Delay(n int) time.Duration {
	p = p.withDefaults()
	d := p.Base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// Outcome reports how a Do call ended.
type Outcome struct {
	Attempts  int
	TotalWait time.Duration
	Final     State
}

// Do calls op until it succeeds, fails with a terminal kind, or runs out of
// attempts. Exhaustion returns a max_retries_exceeded error wrapping the last
// failure. Cancellation is only observed while waiting.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, Outcome, error) {
	p = p.withDefaults()
	var (
		zero    T
		out     Outcome
		lastErr error
		state   = StateAttempting
	)
	move := func(to State) {
		if p.OnTransition != nil {
			p.OnTransition(state, to, out.Attempts)
		}
		state = to
	}

	for {
		switch state {
		case StateAttempting:
			out.Attempts++
			v, err := op(ctx, out.Attempts)
			if err == nil {
				move(StateSuccess)
				out.Final = state
				return v, out, nil
			}
			lastErr = err
			kind := p.Classify(err)
			if kind.Terminal() {
				p.Logger.Error("retry.terminal", "attempt", out.Attempts, "kind", kind, "error", err)
				move(StateTerminalFailure)
				out.Final = state
				return zero, out, &util.Error{Kind: kind, Err: err}
			}
			if kind == util.KindUnknown {
				p.Logger.Warn("retry.unknown_failure", "attempt", out.Attempts, "error", err)
			}
			move(StateRetryableFailure)

		case StateRetryableFailure:
			if out.Attempts >= p.MaxAttempts {
				p.Logger.Error("retry.exhausted", "attempts", out.Attempts, "error", lastErr)
				move(StateTerminalFailure)
				out.Final = state
				return zero, out, util.WrapError(util.KindMaxRetriesExceeded, lastErr,
					fmt.Sprintf("operation failed after %d attempts", out.Attempts))
			}
			move(StateWaiting)

		case StateWaiting:
			d := p.Delay(out.Attempts)
			p.Logger.Warn("retry.wait", "attempt", out.Attempts, "delay", d, "error", lastErr)
			if err := p.Sleeper.Sleep(ctx, d); err != nil {
				move(StateTerminalFailure)
				out.Final = state
				return zero, out, util.WrapError(util.KindUnknown, err, util.ErrRequestCancelled.Error())
			}
			out.TotalWait += d
			move(StateAttempting)
		}
	}
}

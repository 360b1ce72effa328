package broadcaster

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum-optimism/optimism/op-service/retry"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omxlabs/omx-deployer/pkg/deployer/metrics"
)

const DefaultMaxRetries = 10

var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryError is returned once every attempt of a command failed. It unwraps
// to both ErrRetriesExhausted and the error of the last attempt.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

type ExecutorOption func(*Executor)

func WithMaxRetries(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxRetries = n
	}
}

func WithLogger(lgr log.Logger) ExecutorOption {
	return func(e *Executor) {
		e.lgr = lgr
	}
}

func WithMetrics(m metrics.TxMetricer) ExecutorOption {
	return func(e *Executor) {
		e.m = m
	}
}

// Executor broadcasts commands through the node client, re-running a failed
// invocation unchanged up to maxRetries more times. Failures are not
// classified and there is no delay between attempts. Output that is not a
// receipt ends the loop at once. A retry can submit a
// duplicate transaction if the failed attempt had in fact been included.
type Executor struct {
	runner     Runner
	cfg        TxConfig
	maxRetries int
	lgr        log.Logger
	m          metrics.TxMetricer
}

var _ Broadcaster = (*Executor)(nil)

func NewExecutor(runner Runner, cfg TxConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{
		runner:     runner,
		cfg:        cfg,
		maxRetries: DefaultMaxRetries,
		lgr:        log.Root(),
		m:          metrics.NoopMetrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxRetries < 0 {
		e.maxRetries = 0
	}
	return e
}

// attempt is the outcome of one node client invocation. stop ends the retry
// loop with an error that further attempts cannot fix.
type attempt struct {
	rcpt *Receipt
	stop error
}

func (e *Executor) Broadcast(ctx context.Context, cmd Command) (*Receipt, error) {
	args, err := cmd.Args(e.cfg)
	if err != nil {
		return nil, err
	}
	op := string(cmd.Op)
	lgr := e.lgr.New("op", op, "target", cmd.Target)

	attempts := e.maxRetries + 1
	var (
		n       int
		lastErr error
	)
	res, err := retry.Do(ctx, attempts, retry.Fixed(0), func() (attempt, error) {
		if err := ctx.Err(); err != nil {
			return attempt{stop: err}, nil
		}
		n++
		if n > 1 {
			lgr.Warn("Retrying command, a previous attempt may already have been included", "attempt", n, "max", attempts, "err", lastErr)
		}
		e.m.RecordTxAttempt(op)
		lgr.Debug("Running node client", "attempt", n, "label", cmd.Label)

		out, err := e.runner.Run(ctx, e.cfg.Binary, args)
		if err != nil {
			lastErr = err
			return attempt{}, err
		}
		rcpt, err := ParseReceipt(out)
		if err != nil {
			return attempt{stop: err}, nil
		}
		if rcpt.Code != 0 {
			lastErr = &TxError{
				TxHash:    rcpt.TxHash,
				Code:      rcpt.Code,
				Codespace: rcpt.Codespace,
				RawLog:    rcpt.RawLog,
			}
			return attempt{}, lastErr
		}
		return attempt{rcpt: rcpt}, nil
	})
	if err == nil {
		err = res.stop
	}
	switch {
	case err == nil:
		e.m.RecordTxResult(op, metrics.OutcomeSuccess)
		lgr.Debug("Command included", "tx", res.rcpt.TxHash, "height", res.rcpt.Height, "attempts", n)
		return res.rcpt, nil
	case errors.Is(err, ErrMalformedReceipt):
		e.m.RecordTxResult(op, metrics.OutcomeMalformed)
		return nil, fmt.Errorf("%s: %w", cmd, err)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		e.m.RecordTxResult(op, metrics.OutcomeCanceled)
		if lastErr != nil {
			return nil, fmt.Errorf("%s aborted after %d attempts: %w", cmd, n, errors.Join(err, lastErr))
		}
		return nil, fmt.Errorf("%s aborted: %w", cmd, err)
	}

	e.m.RecordTxResult(op, metrics.OutcomeExhausted)
	lgr.Error("Command failed on every attempt", "attempts", n, "err", lastErr)
	return nil, fmt.Errorf("%s: %w", cmd, &RetryError{Attempts: n, Err: lastErr})
}

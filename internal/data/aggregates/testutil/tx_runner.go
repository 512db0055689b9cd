package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

// ErrInjected is returned at FailAfterStep when FailErr is unset. MapError
// classifies it as an internal failure.
var ErrInjected = errors.New("injected step failure")

// InjectedTxRunner wraps aggregate writes for tests. It records every step the
// write reports as "op/step" and can abort the transaction before it begins
// or right after a named step. With Inner unset the body runs without a
// database transaction.
type InjectedTxRunner struct {
	mu sync.Mutex

	Inner aggregates.TxRunner

	FailBegin     error
	FailAfterStep string
	FailErr       error

	Steps         []string
	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if fn == nil {
		r.count(nil)
		return nil
	}
	ctx = aggregates.WithStepCheck(ctx, r.check)
	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, fn)
	} else {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	r.count(err)
	return err
}

// StepsOf returns the recorded steps of op in order.
func (r *InjectedTxRunner) StepsOf(op string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.Steps {
		if name, step, ok := strings.Cut(s, "/"); ok && name == op {
			out = append(out, step)
		}
	}
	return out
}

func (r *InjectedTxRunner) check(op, step string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, op+"/"+step)
	if r.FailAfterStep == "" || step != r.FailAfterStep {
		return nil
	}
	if r.FailErr != nil {
		return r.FailErr
	}
	return fmt.Errorf("%w: %s after %s", ErrInjected, op, step)
}

func (r *InjectedTxRunner) count(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return
	}
	r.CommitCalls++
}

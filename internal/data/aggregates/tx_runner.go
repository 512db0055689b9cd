package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
// Any error returned by fn rolls the whole transaction back.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// Named steps inside aggregate writes. Each is reported once its rows are
// written, before the transaction commits.
const (
	StepRecipe            = "recipe"
	StepIngredients       = "ingredients"
	StepTags              = "tags"
	StepAuthorMemberships = "author_memberships"
	StepMemberships       = "memberships"
	StepEdge              = "edge"
)

// StepCheck observes completed steps of a write. A non-nil error aborts the
// write at that point and rolls the transaction back.
type StepCheck func(op, step string) error

type stepCheckKey struct{}

// WithStepCheck attaches check to ctx. Aggregate writes run under ctx call it
// after each named step.
func WithStepCheck(ctx context.Context, check StepCheck) context.Context {
	if check == nil {
		return ctx
	}
	return context.WithValue(ctx, stepCheckKey{}, check)
}

// StepDone reports a completed step to the check attached to dbc.Ctx, if any.
func StepDone(dbc dbctx.Context, op, step string) error {
	if dbc.Ctx == nil {
		return nil
	}
	check, _ := dbc.Ctx.Value(stepCheckKey{}).(StepCheck)
	if check == nil {
		return nil
	}
	return check(op, step)
}

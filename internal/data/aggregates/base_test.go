package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

func TestExecuteWriteOutcomes(t *testing.T) {
	favorite := domainagg.MembershipInput{Kind: types.MembershipFavorite, UserID: uuid.New(), TargetID: uuid.New()}
	tests := []struct {
		name      string
		op        string
		body      error
		status    string
		conflicts int
		retries   int
	}{
		{"success", OpComposerCreate, nil, "success", 0, 0},
		{"duplicate membership", OpGuardAdd, alreadyExists(OpGuardAdd, favorite), "conflict", 1, 0},
		{"unique index race", OpComposerCreate, gorm.ErrDuplicatedKey, "conflict", 1, 0},
		{"serialization failure", OpComposerUpdate, &pgconn.PgError{Code: "40001"}, "retryable", 0, 1},
		{"duplicate ingredient", OpComposerCreate,
			domainagg.Fail(domainagg.CodeValidation, OpComposerCreate, domainagg.ReasonDuplicateIngredient, "ingredients", ""),
			"validation", 0, 0},
		{"missing edge", OpGuardRemove,
			domainagg.Fail(domainagg.CodeNotFound, OpGuardRemove, domainagg.ReasonMembershipNotFound, "id", ""),
			"not_found", 0, 0},
		{"storage down", OpComposerDelete, errors.New("connection reset by peer"), "internal", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{
				Runner: spyTxRunner{},
				Hooks:  hooks,
			}, tt.op, func(dbctx.Context) error { return tt.body })
			if (err == nil) != (tt.body == nil) {
				t.Fatalf("err: %v", err)
			}
			if len(hooks.Operations) != 1 {
				t.Fatalf("operations: want=1 got=%d", len(hooks.Operations))
			}
			if got := hooks.Operations[0]; got.Name != tt.op || got.Status != tt.status {
				t.Fatalf("operation: want=%s/%s got=%s/%s", tt.op, tt.status, got.Name, got.Status)
			}
			if len(hooks.Conflicts) != tt.conflicts || len(hooks.Retries) != tt.retries {
				t.Fatalf("counters: conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteKeepsReason(t *testing.T) {
	in := domainagg.MembershipInput{Kind: types.MembershipShoppingCart, UserID: uuid.New(), TargetID: uuid.New()}
	err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}}, OpGuardAdd, func(dbctx.Context) error {
		return fmt.Errorf("insert cart edge: %w", alreadyExists(OpGuardAdd, in))
	})
	if domainagg.ReasonOf(err) != domainagg.ReasonAlreadyExists || domainagg.FieldOf(err) != "id" {
		t.Fatalf("reason lost: %v", err)
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	hooks := &spyHooks{}
	_ = executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "  ", func(dbctx.Context) error { return nil })
	if len(hooks.Operations) != 1 || hooks.Operations[0].Name != "aggregate.write" {
		t.Fatalf("operations: %+v", hooks.Operations)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{domainagg.Fail(domainagg.CodeForbidden, OpComposerDelete, domainagg.ReasonNotAuthor, "", ""), "forbidden"},
		{gorm.ErrDuplicatedKey, "conflict"},
		{context.DeadlineExceeded, "retryable"},
		{errors.New("disk full"), "internal"},
	}
	for _, c := range cases {
		if got := aggregateErrorStatus(c.err); got != c.want {
			t.Fatalf("status(%v): want=%s got=%s", c.err, c.want, got)
		}
	}
}

func TestMetricOpBoundsLabels(t *testing.T) {
	if got := MetricOp(" " + OpGuardAdd + " "); got != OpGuardAdd {
		t.Fatalf("known op: got=%q", got)
	}
	if got := MetricOp("Recipes.Composer.Import"); got != "other" {
		t.Fatalf("unknown op: got=%q", got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}

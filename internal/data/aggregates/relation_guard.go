package aggregates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

type RelationGuardDeps struct {
	Base BaseDeps

	Favorites     repos.FavoriteRepo
	ShoppingCarts repos.ShoppingCartRepo
	Subscribes    repos.SubscribeRepo

	// Target existence lookups.
	Users   repos.UserRepo
	Recipes repos.RecipeRepo
}

type relationGuard struct {
	deps  RelationGuardDeps
	edges map[types.MembershipKind]repos.EdgeStore
}

func NewRelationGuard(deps RelationGuardDeps) domainagg.RelationGuard {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "RelationGuard")
	edges := map[types.MembershipKind]repos.EdgeStore{}
	if deps.Favorites != nil {
		edges[deps.Favorites.Kind()] = deps.Favorites
	}
	if deps.ShoppingCarts != nil {
		edges[deps.ShoppingCarts.Kind()] = deps.ShoppingCarts
	}
	if deps.Subscribes != nil {
		edges[deps.Subscribes.Kind()] = deps.Subscribes
	}
	return &relationGuard{deps: deps, edges: edges}
}

func (g *relationGuard) Contract() domainagg.Contract {
	return domainagg.RelationGuardContract
}

func (g *relationGuard) Add(ctx context.Context, in domainagg.MembershipInput) error {
	const op = OpGuardAdd
	store, err := g.precheck(op, in)
	if err != nil {
		return err
	}
	if in.Kind == types.MembershipSubscribe && in.UserID == in.TargetID {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonSelfSubscribe, "id", "cannot subscribe to yourself")
	}
	err = executeWrite(ctx, g.deps.Base, op, func(dbc dbctx.Context) error {
		if err := g.targetExists(dbc, op, in); err != nil {
			return err
		}
		exists, err := store.Exists(dbc, in.UserID, in.TargetID)
		if err != nil {
			return err
		}
		if exists {
			return alreadyExists(op, in)
		}
		if err := store.Insert(dbc, in.UserID, in.TargetID); err != nil {
			// A concurrent insert can still win the race to the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyExists(op, in)
			}
			return err
		}
		return StepDone(dbc, op, StepEdge)
	})
	return g.finish(op, in, "add", err)
}

func (g *relationGuard) Remove(ctx context.Context, in domainagg.MembershipInput) error {
	const op = OpGuardRemove
	store, err := g.precheck(op, in)
	if err != nil {
		return err
	}
	err = executeWrite(ctx, g.deps.Base, op, func(dbc dbctx.Context) error {
		if err := g.targetExists(dbc, op, in); err != nil {
			return err
		}
		removed, err := store.Delete(dbc, in.UserID, in.TargetID)
		if err != nil {
			return err
		}
		if !removed {
			return domainagg.Fail(domainagg.CodeNotFound, op, domainagg.ReasonMembershipNotFound, "id",
				fmt.Sprintf("%s membership not found", in.Kind))
		}
		return StepDone(dbc, op, StepEdge)
	})
	return g.finish(op, in, "remove", err)
}

func (g *relationGuard) precheck(op string, in domainagg.MembershipInput) (repos.EdgeStore, error) {
	if !in.Kind.Valid() {
		return nil, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "kind",
			fmt.Sprintf("unknown membership kind %q", in.Kind))
	}
	store, ok := g.edges[in.Kind]
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("no edge store for %s", in.Kind), nil)
	}
	if in.UserID == uuid.Nil {
		return nil, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "user_id", "missing user id")
	}
	if in.TargetID == uuid.Nil {
		return nil, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "id", "missing target id")
	}
	return store, nil
}

func (g *relationGuard) targetExists(dbc dbctx.Context, op string, in domainagg.MembershipInput) error {
	var (
		found []uuid.UUID
		err   error
		what  = "recipe"
	)
	switch in.Kind {
	case types.MembershipSubscribe:
		what = "user"
		if g.deps.Users == nil {
			return nil
		}
		found, err = g.deps.Users.ExistingIDs(dbc, []uuid.UUID{in.TargetID})
	default:
		if g.deps.Recipes == nil {
			return nil
		}
		found, err = g.deps.Recipes.ExistingIDs(dbc, []uuid.UUID{in.TargetID})
	}
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return domainagg.Fail(domainagg.CodeNotFound, op, domainagg.ReasonUnknownReference, "id",
			fmt.Sprintf("%s not found: %s", what, in.TargetID))
	}
	return nil
}

func (g *relationGuard) finish(op string, in domainagg.MembershipInput, action string, err error) error {
	if err != nil {
		g.deps.Base.Log.Debug("membership change rejected",
			"op", op, "kind", string(in.Kind), "action", action, "reason", string(domainagg.ReasonOf(err)))
		return err
	}
	return nil
}

func alreadyExists(op string, in domainagg.MembershipInput) error {
	return domainagg.Fail(domainagg.CodeConflict, op, domainagg.ReasonAlreadyExists, "id",
		fmt.Sprintf("%s membership already exists", in.Kind))
}

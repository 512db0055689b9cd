package aggregates

import (
	"github.com/google/uuid"

	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
)

// RecipePolicy decides whether an actor may change an existing recipe.
type RecipePolicy interface {
	AuthorizeWrite(op string, actorID uuid.UUID, recipe *types.Recipe) error
}

// AuthorOnlyPolicy lets only the recipe's author update or delete it.
type AuthorOnlyPolicy struct{}

func (AuthorOnlyPolicy) AuthorizeWrite(op string, actorID uuid.UUID, recipe *types.Recipe) error {
	if recipe == nil {
		return domainagg.Fail(domainagg.CodeNotFound, op, domainagg.ReasonRecipeNotFound, "id", "recipe not found")
	}
	if actorID == uuid.Nil || actorID != recipe.AuthorID {
		return domainagg.Fail(domainagg.CodeForbidden, op, domainagg.ReasonNotAuthor, "", "only the author may modify this recipe")
	}
	return nil
}

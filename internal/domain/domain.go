package domain

import (
	"github.com/yungbote/pantry-backend/internal/domain/recipes"
	"github.com/yungbote/pantry-backend/internal/domain/user"
)

type User = user.User
type UserToken = user.UserToken

type Ingredient = recipes.Ingredient
type Tag = recipes.Tag
type Recipe = recipes.Recipe
type RecipeIngredient = recipes.RecipeIngredient
type RecipeTag = recipes.RecipeTag

type MembershipKind = recipes.MembershipKind
type MembershipEdge = recipes.MembershipEdge
type Favorite = recipes.Favorite
type ShoppingCart = recipes.ShoppingCart
type Subscribe = recipes.Subscribe

const (
	MembershipFavorite     = recipes.MembershipFavorite
	MembershipShoppingCart = recipes.MembershipShoppingCart
	MembershipSubscribe    = recipes.MembershipSubscribe
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},

		&Ingredient{},
		&Tag{},

		&Recipe{},
		&RecipeIngredient{},
		&RecipeTag{},

		&Favorite{},
		&ShoppingCart{},
		&Subscribe{},
	}
}

package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/repos/auth"
	"github.com/yungbote/pantry-backend/internal/data/repos/recipes"
	"github.com/yungbote/pantry-backend/internal/data/repos/user"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type IngredientRepo = recipes.IngredientRepo
type TagRepo = recipes.TagRepo

type RecipeRepo = recipes.RecipeRepo
type RecipeIngredientRepo = recipes.RecipeIngredientRepo
type RecipeTagRepo = recipes.RecipeTagRepo
type RecipeFilter = recipes.RecipeFilter
type CartLine = recipes.CartLine
type ComposedLine = recipes.ComposedLine
type TaggedRecipe = recipes.TaggedRecipe

type EdgeStore = recipes.EdgeStore
type FavoriteRepo = recipes.FavoriteRepo
type ShoppingCartRepo = recipes.ShoppingCartRepo
type SubscribeRepo = recipes.SubscribeRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	return recipes.NewIngredientRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return recipes.NewTagRepo(db, baseLog)
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return recipes.NewRecipeRepo(db, baseLog)
}
func NewRecipeIngredientRepo(db *gorm.DB, baseLog *logger.Logger) RecipeIngredientRepo {
	return recipes.NewRecipeIngredientRepo(db, baseLog)
}
func NewRecipeTagRepo(db *gorm.DB, baseLog *logger.Logger) RecipeTagRepo {
	return recipes.NewRecipeTagRepo(db, baseLog)
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	return recipes.NewFavoriteRepo(db, baseLog)
}
func NewShoppingCartRepo(db *gorm.DB, baseLog *logger.Logger) ShoppingCartRepo {
	return recipes.NewShoppingCartRepo(db, baseLog)
}
func NewSubscribeRepo(db *gorm.DB, baseLog *logger.Logger) SubscribeRepo {
	return recipes.NewSubscribeRepo(db, baseLog)
}

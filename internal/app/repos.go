package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	UserToken        repos.UserTokenRepo
	Ingredient       repos.IngredientRepo
	Tag              repos.TagRepo
	Recipe           repos.RecipeRepo
	RecipeIngredient repos.RecipeIngredientRepo
	RecipeTag        repos.RecipeTagRepo
	Favorite         repos.FavoriteRepo
	ShoppingCart     repos.ShoppingCartRepo
	Subscribe        repos.SubscribeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		UserToken:        repos.NewUserTokenRepo(db, log),
		Ingredient:       repos.NewIngredientRepo(db, log),
		Tag:              repos.NewTagRepo(db, log),
		Recipe:           repos.NewRecipeRepo(db, log),
		RecipeIngredient: repos.NewRecipeIngredientRepo(db, log),
		RecipeTag:        repos.NewRecipeTagRepo(db, log),
		Favorite:         repos.NewFavoriteRepo(db, log),
		ShoppingCart:     repos.NewShoppingCartRepo(db, log),
		Subscribe:        repos.NewSubscribeRepo(db, log),
	}
}

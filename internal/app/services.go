package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/cache"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
	"github.com/yungbote/pantry-backend/internal/platform/render"
	"github.com/yungbote/pantry-backend/internal/services"
)

type Aggregates struct {
	Composer domainagg.RecipeComposer
	Guard    domainagg.RelationGuard
}

type Services struct {
	Auth       services.AuthService
	User       services.UserService
	Ingredient services.IngredientService
	Tag        services.TagService
	Recipe     services.RecipeService
	Membership services.MembershipService
	Cart       services.CartService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	return Aggregates{
		Composer: aggregates.NewRecipeComposer(aggregates.RecipeComposerDeps{
			Base:              base,
			Recipes:           r.Recipe,
			RecipeIngredients: r.RecipeIngredient,
			RecipeTags:        r.RecipeTag,
			Ingredients:       r.Ingredient,
			Tags:              r.Tag,
			Favorites:         r.Favorite,
			ShoppingCarts:     r.ShoppingCart,
			Rules:             cfg.Rules,
		}),
		Guard: aggregates.NewRelationGuard(aggregates.RelationGuardDeps{
			Base:          base,
			Favorites:     r.Favorite,
			ShoppingCarts: r.ShoppingCart,
			Subscribes:    r.Subscribe,
			Users:         r.User,
			Recipes:       r.Recipe,
		}),
	}
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	r Repos,
	aggs Aggregates,
	catalogCache cache.Cache,
	store media.Store,
	metrics *observability.Metrics,
) (Services, error) {
	log.Info("Wiring services...")
	renderers, err := render.Default()
	if err != nil {
		return Services{}, fmt.Errorf("init shopping list renderers: %w", err)
	}
	return Services{
		Auth:       services.NewAuthService(db, log, r.User, r.UserToken, metrics, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:       services.NewUserService(log, r.User, r.Subscribe, store),
		Ingredient: services.NewIngredientService(log, r.Ingredient, catalogCache, cfg.CatalogCacheTTL, metrics),
		Tag:        services.NewTagService(log, r.Tag, catalogCache, cfg.CatalogCacheTTL, metrics),
		Recipe: services.NewRecipeService(services.RecipeServiceDeps{
			Log:               log,
			Composer:          aggs.Composer,
			Recipes:           r.Recipe,
			Users:             r.User,
			RecipeIngredients: r.RecipeIngredient,
			RecipeTags:        r.RecipeTag,
			Favorites:         r.Favorite,
			ShoppingCarts:     r.ShoppingCart,
			Subscribes:        r.Subscribe,
			Media:             store,
			PublicBaseURL:     cfg.PublicBaseURL,
		}),
		Membership: services.NewMembershipService(services.MembershipServiceDeps{
			Log:        log,
			Guard:      aggs.Guard,
			Recipes:    r.Recipe,
			Users:      r.User,
			Subscribes: r.Subscribe,
			Media:      store,
			Metrics:    metrics,
		}),
		Cart: services.NewCartService(log, r.RecipeIngredient, renderers, metrics),
	}, nil
}

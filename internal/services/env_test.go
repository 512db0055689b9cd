package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
	"github.com/yungbote/pantry-backend/internal/data/repos"
	"github.com/yungbote/pantry-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

const testBaseURL = "https://pantry.example"

// testEnv wires the services over a fresh committed database.
type testEnv struct {
	db        *gorm.DB
	log       *logger.Logger
	media     media.Store
	mediaRoot string

	users             repos.UserRepo
	tokens            repos.UserTokenRepo
	ingredients       repos.IngredientRepo
	tags              repos.TagRepo
	recipes           repos.RecipeRepo
	recipeIngredients repos.RecipeIngredientRepo
	recipeTags        repos.RecipeTagRepo
	favorites         repos.FavoriteRepo
	shoppingCarts     repos.ShoppingCartRepo
	subscribes        repos.SubscribeRepo

	recipeSvc     RecipeService
	membershipSvc MembershipService
	userSvc       UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if !testutil.IsolatedDB() {
		t.Skip("service tests commit data and need an isolated database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	store, err := media.NewLocalStore(log, media.Config{Root: root, BaseURL: "/media", MaxDimension: 32})
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	e := &testEnv{
		db:                db,
		log:               log,
		media:             store,
		mediaRoot:         root,
		users:             repos.NewUserRepo(db, log),
		tokens:            repos.NewUserTokenRepo(db, log),
		ingredients:       repos.NewIngredientRepo(db, log),
		tags:              repos.NewTagRepo(db, log),
		recipes:           repos.NewRecipeRepo(db, log),
		recipeIngredients: repos.NewRecipeIngredientRepo(db, log),
		recipeTags:        repos.NewRecipeTagRepo(db, log),
		favorites:         repos.NewFavoriteRepo(db, log),
		shoppingCarts:     repos.NewShoppingCartRepo(db, log),
		subscribes:        repos.NewSubscribeRepo(db, log),
	}
	base := aggregates.BaseDeps{DB: db, Log: log}
	composer := aggregates.NewRecipeComposer(aggregates.RecipeComposerDeps{
		Base:              base,
		Recipes:           e.recipes,
		RecipeIngredients: e.recipeIngredients,
		RecipeTags:        e.recipeTags,
		Ingredients:       e.ingredients,
		Tags:              e.tags,
		Favorites:         e.favorites,
		ShoppingCarts:     e.shoppingCarts,
	})
	guard := aggregates.NewRelationGuard(aggregates.RelationGuardDeps{
		Base:          base,
		Favorites:     e.favorites,
		ShoppingCarts: e.shoppingCarts,
		Subscribes:    e.subscribes,
		Users:         e.users,
		Recipes:       e.recipes,
	})
	e.recipeSvc = NewRecipeService(RecipeServiceDeps{
		Log:               log,
		Composer:          composer,
		Recipes:           e.recipes,
		Users:             e.users,
		RecipeIngredients: e.recipeIngredients,
		RecipeTags:        e.recipeTags,
		Favorites:         e.favorites,
		ShoppingCarts:     e.shoppingCarts,
		Subscribes:        e.subscribes,
		Media:             store,
		PublicBaseURL:     testBaseURL + "/",
	})
	e.membershipSvc = NewMembershipService(MembershipServiceDeps{
		Log:        log,
		Guard:      guard,
		Recipes:    e.recipes,
		Users:      e.users,
		Subscribes: e.subscribes,
		Media:      store,
	})
	e.userSvc = NewUserService(log, e.users, e.subscribes, store)
	return e
}

func (e *testEnv) seedUser(t *testing.T, email string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, email)
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, x%48, color.NRGBA{G: 180, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

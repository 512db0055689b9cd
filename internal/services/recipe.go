package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

const (
	recipeImageDir         = "recipes/images"
	defaultRecipePageLimit = 6
	maxRecipePageLimit     = 100
)

var ErrUnauthenticated = errors.New("authentication required")

// RecipeWriteInput is the body of recipe create and update. Image is a base64
// data URL; on update an empty Image keeps the stored one.
type RecipeWriteInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	Ingredients []domainagg.IngredientAmount
	TagIDs      []uuid.UUID
}

// MembershipFilter narrows a listing by the caller's favorites or cart.
type MembershipFilter int

const (
	MembershipAny MembershipFilter = iota
	MembershipOnly
	MembershipExcluded
)

type RecipeListQuery struct {
	AuthorID         uuid.UUID
	TagSlugs         []string
	IsFavorited      MembershipFilter
	IsInShoppingCart MembershipFilter

	// Search matches recipe name or text, ignoring case.
	Search string
	Limit  int
	Offset int
}

// RecipeService reads and writes recipes on behalf of actorID (writes) or
// viewerID (reads). viewerID may be uuid.Nil for anonymous callers.
type RecipeService interface {
	Create(ctx context.Context, actorID uuid.UUID, in RecipeWriteInput) (*RecipeView, error)
	Update(ctx context.Context, actorID, recipeID uuid.UUID, in RecipeWriteInput) (*RecipeView, error)
	Delete(ctx context.Context, actorID, recipeID uuid.UUID) error
	Get(ctx context.Context, viewerID, recipeID uuid.UUID) (*RecipeView, error)
	List(ctx context.Context, viewerID uuid.UUID, q RecipeListQuery) (RecipePage, error)
	// ShortLink returns the public short link of an existing recipe.
	ShortLink(ctx context.Context, recipeID uuid.UUID) (string, error)
}

type RecipeServiceDeps struct {
	Log      *logger.Logger
	Composer domainagg.RecipeComposer

	Recipes           repos.RecipeRepo
	Users             repos.UserRepo
	RecipeIngredients repos.RecipeIngredientRepo
	RecipeTags        repos.RecipeTagRepo
	Favorites         repos.FavoriteRepo
	ShoppingCarts     repos.ShoppingCartRepo
	Subscribes        repos.SubscribeRepo

	Media media.Store

	// PublicBaseURL prefixes short links, e.g. "https://pantry.example".
	PublicBaseURL string
}

type recipeService struct {
	log      *logger.Logger
	composer domainagg.RecipeComposer
	recipes  repos.RecipeRepo
	media    media.Store
	hydrator recipeHydrator
	baseURL  string
}

func NewRecipeService(deps RecipeServiceDeps) RecipeService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &recipeService{
		log:      log.With("service", "RecipeService"),
		composer: deps.Composer,
		recipes:  deps.Recipes,
		media:    deps.Media,
		baseURL:  strings.TrimRight(strings.TrimSpace(deps.PublicBaseURL), "/"),
		hydrator: recipeHydrator{
			users:         deps.Users,
			ingredients:   deps.RecipeIngredients,
			tags:          deps.RecipeTags,
			favorites:     deps.Favorites,
			shoppingCarts: deps.ShoppingCarts,
			subscribes:    deps.Subscribes,
			media:         deps.Media,
		},
	}
}

func (s *recipeService) Create(ctx context.Context, actorID uuid.UUID, in RecipeWriteInput) (*RecipeView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	if strings.TrimSpace(in.Image) == "" {
		return nil, domainagg.Fail(domainagg.CodeValidation, "Recipes.Service.Create", domainagg.ReasonMissingField, "image", "image is required")
	}
	imageKey, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	comp, err := s.composer.Create(ctx, domainagg.CreateRecipeInput{
		AuthorID:    actorID,
		Name:        in.Name,
		Image:       imageKey,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Ingredients: in.Ingredients,
		TagIDs:      in.TagIDs,
	})
	if err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	s.log.Info("recipe created", "recipe_id", comp.RecipeID, "author_id", actorID)
	return s.Get(ctx, actorID, comp.RecipeID)
}

func (s *recipeService) Update(ctx context.Context, actorID, recipeID uuid.UUID, in RecipeWriteInput) (*RecipeView, error) {
	if actorID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	before, err := s.recipes.GetByID(dbctx.Context{Ctx: ctx}, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	var imageKey string
	if strings.TrimSpace(in.Image) != "" {
		if imageKey, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}
	if _, err := s.composer.Update(ctx, domainagg.UpdateRecipeInput{
		ActorID:     actorID,
		RecipeID:    recipeID,
		Name:        in.Name,
		Image:       imageKey,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Ingredients: in.Ingredients,
		TagIDs:      in.TagIDs,
	}); err != nil {
		s.discardImage(ctx, imageKey)
		return nil, err
	}
	if imageKey != "" && before != nil && before.Image != imageKey {
		s.discardImage(ctx, before.Image)
	}
	return s.Get(ctx, actorID, recipeID)
}

func (s *recipeService) Delete(ctx context.Context, actorID, recipeID uuid.UUID) error {
	if actorID == uuid.Nil {
		return apierr.Unauthorized("unauthorized", ErrUnauthenticated)
	}
	before, err := s.recipes.GetByID(dbctx.Context{Ctx: ctx}, recipeID)
	if err != nil {
		return fmt.Errorf("load recipe: %w", err)
	}
	if err := s.composer.Delete(ctx, domainagg.DeleteRecipeInput{ActorID: actorID, RecipeID: recipeID}); err != nil {
		return err
	}
	if before != nil {
		s.discardImage(ctx, before.Image)
	}
	s.log.Info("recipe deleted", "recipe_id", recipeID, "author_id", actorID)
	return nil
}

func (s *recipeService) Get(ctx context.Context, viewerID, recipeID uuid.UUID) (*RecipeView, error) {
	r, err := s.recipes.GetByID(dbctx.Context{Ctx: ctx}, recipeID)
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	if r == nil {
		return nil, apierr.NotFound("recipe_not_found", fmt.Errorf("recipe %s not found", recipeID))
	}
	views, err := s.hydrator.hydrate(ctx, viewerID, []*types.Recipe{r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *recipeService) List(ctx context.Context, viewerID uuid.UUID, q RecipeListQuery) (RecipePage, error) {
	empty := RecipePage{Results: []RecipeView{}}
	// Anonymous callers have no favorites or cart: "only" matches nothing and
	// "excluded" removes nothing.
	if viewerID == uuid.Nil && (q.IsFavorited == MembershipOnly || q.IsInShoppingCart == MembershipOnly) {
		return empty, nil
	}
	f := repos.RecipeFilter{
		AuthorID: q.AuthorID,
		TagSlugs: q.TagSlugs,
		Search:   strings.TrimSpace(q.Search),
		Limit:    clampLimit(q.Limit, defaultRecipePageLimit, maxRecipePageLimit),
		Offset:   max(q.Offset, 0),
	}
	if viewerID != uuid.Nil {
		switch q.IsFavorited {
		case MembershipOnly:
			f.FavoritedBy = viewerID
		case MembershipExcluded:
			f.NotFavoritedBy = viewerID
		}
		switch q.IsInShoppingCart {
		case MembershipOnly:
			f.InCartOf = viewerID
		case MembershipExcluded:
			f.NotInCartOf = viewerID
		}
	}
	rows, total, err := s.recipes.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return empty, fmt.Errorf("list recipes: %w", err)
	}
	views, err := s.hydrator.hydrate(ctx, viewerID, rows)
	if err != nil {
		return empty, err
	}
	return RecipePage{Count: total, Results: views}, nil
}

func (s *recipeService) ShortLink(ctx context.Context, recipeID uuid.UUID) (string, error) {
	ids, err := s.recipes.ExistingIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{recipeID})
	if err != nil {
		return "", fmt.Errorf("load recipe: %w", err)
	}
	if len(ids) == 0 {
		return "", apierr.NotFound("recipe_not_found", fmt.Errorf("recipe %s not found", recipeID))
	}
	return s.baseURL + "/l/" + recipeID.String(), nil
}

func (s *recipeService) storeImage(ctx context.Context, dataURL string) (string, error) {
	return saveImage(ctx, s.media, "Recipes.Service.Image", recipeImageDir, "image", dataURL)
}

// saveImage stores a base64 data URL under dir. Input that does not decode to
// a supported image fails validation on field.
func saveImage(ctx context.Context, store media.Store, op, dir, field, dataURL string) (string, error) {
	if store == nil {
		return "", fmt.Errorf("media store not configured")
	}
	key, err := store.SaveDataURL(ctx, dir, dataURL)
	if err != nil {
		if errors.Is(err, media.ErrInvalidDataURL) || errors.Is(err, media.ErrUnsupported) {
			return "", domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonInvalidImage, field, err.Error())
		}
		return "", fmt.Errorf("store %s: %w", field, err)
	}
	return key, nil
}

func (s *recipeService) discardImage(ctx context.Context, key string) {
	if key == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete recipe image (ignored)", "key", key, "error", err)
	}
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

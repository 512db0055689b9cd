package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

type AuthorView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Avatar       string    `json:"avatar"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type RecipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

type TagView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Color string    `json:"color,omitempty"`
}

type RecipeView struct {
	ID               uuid.UUID              `json:"id"`
	Author           AuthorView             `json:"author"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	Tags             []TagView              `json:"tags"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	CreatedAt        time.Time              `json:"created_at"`
}

// RecipeShortView is the compact payload returned by membership endpoints and
// subscription listings.
type RecipeShortView struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type RecipePage struct {
	Count   int64        `json:"count"`
	Results []RecipeView `json:"results"`
}

// recipeHydrator resolves everything a RecipeView needs in one round of
// concurrent lookups.
type recipeHydrator struct {
	users         repos.UserRepo
	ingredients   repos.RecipeIngredientRepo
	tags          repos.RecipeTagRepo
	favorites     repos.FavoriteRepo
	shoppingCarts repos.ShoppingCartRepo
	subscribes    repos.SubscribeRepo
	media         media.Store
}

func (h recipeHydrator) hydrate(ctx context.Context, viewerID uuid.UUID, recipes []*types.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}
	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorSet := map[uuid.UUID]struct{}{}
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if _, ok := authorSet[r.AuthorID]; !ok {
			authorSet[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	var (
		lines      []repos.ComposedLine
		tagRows    []repos.TaggedRecipe
		authors    []*types.User
		favorited  []uuid.UUID
		inCart     []uuid.UUID
		subscribed []uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	g.Go(func() error {
		var err error
		lines, err = h.ingredients.GetComposedByRecipeIDs(dbc, recipeIDs)
		return err
	})
	g.Go(func() error {
		var err error
		tagRows, err = h.tags.GetTagsByRecipeIDs(dbc, recipeIDs)
		return err
	})
	g.Go(func() error {
		var err error
		authors, err = h.users.GetByIDs(dbc, authorIDs)
		return err
	})
	if viewerID != uuid.Nil {
		g.Go(func() error {
			var err error
			favorited, err = h.favorites.TargetIDsOf(dbc, viewerID, recipeIDs)
			return err
		})
		g.Go(func() error {
			var err error
			inCart, err = h.shoppingCarts.TargetIDsOf(dbc, viewerID, recipeIDs)
			return err
		})
		g.Go(func() error {
			var err error
			subscribed, err = h.subscribes.TargetIDsOf(dbc, viewerID, authorIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hydrate recipes: %w", err)
	}

	linesByRecipe := map[uuid.UUID][]RecipeIngredientView{}
	for _, l := range lines {
		linesByRecipe[l.RecipeID] = append(linesByRecipe[l.RecipeID], RecipeIngredientView{
			ID:              l.IngredientID,
			Name:            l.Name,
			MeasurementUnit: l.MeasurementUnit,
			Amount:          l.Amount,
		})
	}
	tagsByRecipe := map[uuid.UUID][]TagView{}
	for _, t := range tagRows {
		tagsByRecipe[t.RecipeID] = append(tagsByRecipe[t.RecipeID], TagView{ID: t.TagID, Name: t.Name, Slug: t.Slug, Color: t.Color})
	}
	authorByID := make(map[uuid.UUID]*types.User, len(authors))
	for _, a := range authors {
		authorByID[a.ID] = a
	}
	favSet, cartSet, subSet := idSet(favorited), idSet(inCart), idSet(subscribed)

	for _, r := range recipes {
		view := RecipeView{
			ID:               r.ID,
			Author:           h.author(authorByID[r.AuthorID], r.AuthorID, subSet),
			Name:             r.Name,
			Image:            h.imageURL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			Ingredients:      linesByRecipe[r.ID],
			Tags:             tagsByRecipe[r.ID],
			IsFavorited:      has(favSet, r.ID),
			IsInShoppingCart: has(cartSet, r.ID),
			CreatedAt:        r.CreatedAt,
		}
		if view.Ingredients == nil {
			view.Ingredients = []RecipeIngredientView{}
		}
		if view.Tags == nil {
			view.Tags = []TagView{}
		}
		out = append(out, view)
	}
	return out, nil
}

func (h recipeHydrator) short(r *types.Recipe) RecipeShortView {
	return RecipeShortView{ID: r.ID, Name: r.Name, Image: h.imageURL(r.Image), CookingTime: r.CookingTime}
}

func (h recipeHydrator) imageURL(key string) string {
	if h.media == nil || key == "" {
		return key
	}
	return h.media.URL(key)
}

func (h recipeHydrator) author(u *types.User, id uuid.UUID, subscribed map[uuid.UUID]struct{}) AuthorView {
	if u == nil {
		return AuthorView{ID: id}
	}
	view := AuthorView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: has(subscribed, u.ID),
	}
	if u.Avatar != "" {
		view.Avatar = h.imageURL(u.Avatar)
	}
	return view
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func has(set map[uuid.UUID]struct{}, id uuid.UUID) bool {
	_, ok := set[id]
	return ok
}

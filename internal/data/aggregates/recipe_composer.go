package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/data/repos"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

type RecipeComposerDeps struct {
	Base BaseDeps

	Recipes           repos.RecipeRepo
	RecipeIngredients repos.RecipeIngredientRepo
	RecipeTags        repos.RecipeTagRepo
	Ingredients       repos.IngredientRepo
	Tags              repos.TagRepo
	Favorites         repos.FavoriteRepo
	ShoppingCarts     repos.ShoppingCartRepo

	Policy RecipePolicy
	Rules  CompositionRules
}

type recipeComposer struct {
	deps RecipeComposerDeps
}

func NewRecipeComposer(deps RecipeComposerDeps) domainagg.RecipeComposer {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "RecipeComposer")
	if deps.Policy == nil {
		deps.Policy = AuthorOnlyPolicy{}
	}
	deps.Rules = deps.Rules.withDefaults()
	return &recipeComposer{deps: deps}
}

func (a *recipeComposer) Contract() domainagg.Contract {
	return domainagg.RecipeComposerContract
}

func (a *recipeComposer) configured() bool {
	d := a.deps
	return d.Recipes != nil && d.RecipeIngredients != nil && d.RecipeTags != nil &&
		d.Ingredients != nil && d.Tags != nil && d.Favorites != nil && d.ShoppingCarts != nil
}

func (a *recipeComposer) Create(ctx context.Context, in domainagg.CreateRecipeInput) (domainagg.RecipeComposition, error) {
	const op = OpComposerCreate
	var out domainagg.RecipeComposition
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "recipe composer repos not configured", nil)
	}
	if in.AuthorID == uuid.Nil {
		return out, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "author_id", "missing author_id")
	}
	if strings.TrimSpace(in.Image) == "" {
		return out, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "image", "image is required")
	}
	draft := compositionDraft{
		Name:        strings.TrimSpace(in.Name),
		Text:        strings.TrimSpace(in.Text),
		CookingTime: in.CookingTime,
		Ingredients: in.Ingredients,
		TagIDs:      in.TagIDs,
	}
	if err := validateDraft(op, a.deps.Rules, draft); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.checkReferences(dbc, op, draft); err != nil {
			return err
		}
		now := a.deps.Base.Now()
		recipe := &types.Recipe{
			ID:          uuid.New(),
			AuthorID:    in.AuthorID,
			Name:        draft.Name,
			Image:       strings.TrimSpace(in.Image),
			Text:        draft.Text,
			CookingTime: draft.CookingTime,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := a.deps.Recipes.Create(dbc, recipe); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepRecipe); err != nil {
			return err
		}
		edges, err := a.insertIngredients(dbc, recipe.ID, draft.Ingredients)
		if err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepIngredients); err != nil {
			return err
		}
		if err := a.replaceTags(dbc, recipe.ID, draft.TagIDs, false); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepTags); err != nil {
			return err
		}
		if a.deps.Rules.BootstrapAuthorMemberships {
			if err := a.deps.Favorites.Insert(dbc, in.AuthorID, recipe.ID); err != nil {
				return err
			}
			if err := a.deps.ShoppingCarts.Insert(dbc, in.AuthorID, recipe.ID); err != nil {
				return err
			}
			if err := StepDone(dbc, op, StepAuthorMemberships); err != nil {
				return err
			}
		}
		out = composition(recipe, edges, draft.TagIDs, now)
		return nil
	})
	if err != nil {
		return domainagg.RecipeComposition{}, err
	}
	a.deps.Base.Log.Debug("recipe composed", "recipe_id", out.RecipeID, "author_id", out.AuthorID, "ingredients", len(out.Ingredients))
	return out, nil
}

func (a *recipeComposer) Update(ctx context.Context, in domainagg.UpdateRecipeInput) (domainagg.RecipeComposition, error) {
	const op = OpComposerUpdate
	var out domainagg.RecipeComposition
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "recipe composer repos not configured", nil)
	}
	if in.RecipeID == uuid.Nil {
		return out, domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "id", "missing recipe id")
	}
	draft := compositionDraft{
		Name:        strings.TrimSpace(in.Name),
		Text:        strings.TrimSpace(in.Text),
		CookingTime: in.CookingTime,
		Ingredients: in.Ingredients,
		TagIDs:      in.TagIDs,
	}
	if err := validateDraft(op, a.deps.Rules, draft); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		recipe, err := a.deps.Recipes.GetByIDForUpdate(dbc, in.RecipeID)
		if err != nil {
			return err
		}
		if recipe == nil {
			return domainagg.Fail(domainagg.CodeNotFound, op, domainagg.ReasonRecipeNotFound, "id",
				fmt.Sprintf("recipe not found: %s", in.RecipeID))
		}
		if err := a.deps.Policy.AuthorizeWrite(op, in.ActorID, recipe); err != nil {
			return err
		}
		if err := a.checkReferences(dbc, op, draft); err != nil {
			return err
		}

		now := a.deps.Base.Now()
		updates := map[string]any{
			"name":         draft.Name,
			"text":         draft.Text,
			"cooking_time": draft.CookingTime,
			"updated_at":   now,
		}
		if image := strings.TrimSpace(in.Image); image != "" {
			updates["image"] = image
			recipe.Image = image
		}
		if err := a.deps.Recipes.UpdateFields(dbc, recipe.ID, updates); err != nil {
			return err
		}
		recipe.Name, recipe.Text, recipe.CookingTime, recipe.UpdatedAt = draft.Name, draft.Text, draft.CookingTime, now
		if err := StepDone(dbc, op, StepRecipe); err != nil {
			return err
		}

		edges, err := a.reconcileIngredients(dbc, recipe.ID, draft.Ingredients)
		if err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepIngredients); err != nil {
			return err
		}
		if err := a.replaceTags(dbc, recipe.ID, draft.TagIDs, true); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepTags); err != nil {
			return err
		}
		out = composition(recipe, edges, draft.TagIDs, now)
		return nil
	})
	if err != nil {
		return domainagg.RecipeComposition{}, err
	}
	return out, nil
}

func (a *recipeComposer) Delete(ctx context.Context, in domainagg.DeleteRecipeInput) error {
	const op = OpComposerDelete
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "recipe composer repos not configured", nil)
	}
	if in.RecipeID == uuid.Nil {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonMissingField, "id", "missing recipe id")
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		recipe, err := a.deps.Recipes.GetByIDForUpdate(dbc, in.RecipeID)
		if err != nil {
			return err
		}
		if recipe == nil {
			return domainagg.Fail(domainagg.CodeNotFound, op, domainagg.ReasonRecipeNotFound, "id",
				fmt.Sprintf("recipe not found: %s", in.RecipeID))
		}
		if err := a.deps.Policy.AuthorizeWrite(op, in.ActorID, recipe); err != nil {
			return err
		}
		ids := []uuid.UUID{recipe.ID}
		if err := a.deps.RecipeIngredients.DeleteByRecipeIDs(dbc, ids); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepIngredients); err != nil {
			return err
		}
		if err := a.deps.RecipeTags.DeleteByRecipeIDs(dbc, ids); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepTags); err != nil {
			return err
		}
		if err := a.deps.Favorites.DeleteByTargetIDs(dbc, ids); err != nil {
			return err
		}
		if err := a.deps.ShoppingCarts.DeleteByTargetIDs(dbc, ids); err != nil {
			return err
		}
		if err := StepDone(dbc, op, StepMemberships); err != nil {
			return err
		}
		if err := a.deps.Recipes.DeleteByIDs(dbc, ids); err != nil {
			return err
		}
		return StepDone(dbc, op, StepRecipe)
	})
}

// checkReferences rejects ingredient or tag ids absent from their catalog.
func (a *recipeComposer) checkReferences(dbc dbctx.Context, op string, d compositionDraft) error {
	want := ingredientIDs(d.Ingredients)
	have, err := a.deps.Ingredients.ExistingIDs(dbc, want)
	if err != nil {
		return err
	}
	if missing, ok := firstMissing(want, have); ok {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonUnknownReference, "ingredients",
			fmt.Sprintf("unknown ingredient id: %s", missing))
	}
	haveTags, err := a.deps.Tags.ExistingIDs(dbc, d.TagIDs)
	if err != nil {
		return err
	}
	if missing, ok := firstMissing(d.TagIDs, haveTags); ok {
		return domainagg.Fail(domainagg.CodeValidation, op, domainagg.ReasonUnknownReference, "tags",
			fmt.Sprintf("unknown tag id: %s", missing))
	}
	return nil
}

func (a *recipeComposer) insertIngredients(dbc dbctx.Context, recipeID uuid.UUID, in []domainagg.IngredientAmount) ([]storedEdge, error) {
	rows := make([]*types.RecipeIngredient, 0, len(in))
	for _, ing := range in {
		rows = append(rows, &types.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ing.IngredientID,
			Amount:       ing.Amount,
		})
	}
	if _, err := a.deps.RecipeIngredients.Create(dbc, rows); err != nil {
		return nil, err
	}
	out := make([]storedEdge, 0, len(rows))
	for _, r := range rows {
		out = append(out, storedEdge{EdgeID: r.ID, IngredientID: r.IngredientID, Amount: r.Amount})
	}
	return out, nil
}

// reconcileIngredients applies the symmetric difference between stored and
// desired edges. Common ingredients keep their edge row.
func (a *recipeComposer) reconcileIngredients(dbc dbctx.Context, recipeID uuid.UUID, desired []domainagg.IngredientAmount) ([]storedEdge, error) {
	rows, err := a.deps.RecipeIngredients.GetByRecipeIDs(dbc, []uuid.UUID{recipeID})
	if err != nil {
		return nil, err
	}
	current := make([]storedEdge, 0, len(rows))
	for _, r := range rows {
		current = append(current, storedEdge{EdgeID: r.ID, IngredientID: r.IngredientID, Amount: r.Amount})
	}
	plan := diffComposition(current, desired)

	if err := a.deps.RecipeIngredients.DeleteByIDs(dbc, plan.Delete); err != nil {
		return nil, err
	}
	for edgeID, amount := range plan.Update {
		if err := a.deps.RecipeIngredients.UpdateAmount(dbc, edgeID, amount); err != nil {
			return nil, err
		}
	}
	inserted, err := a.insertIngredients(dbc, recipeID, plan.Insert)
	if err != nil {
		return nil, err
	}

	byIngredient := make(map[uuid.UUID]storedEdge, len(desired))
	for _, e := range current {
		byIngredient[e.IngredientID] = e
	}
	for _, e := range inserted {
		byIngredient[e.IngredientID] = e
	}
	out := make([]storedEdge, 0, len(desired))
	for _, d := range desired {
		e := byIngredient[d.IngredientID]
		e.Amount = d.Amount
		out = append(out, e)
	}
	return out, nil
}

func (a *recipeComposer) replaceTags(dbc dbctx.Context, recipeID uuid.UUID, tagIDs []uuid.UUID, reset bool) error {
	if reset {
		if err := a.deps.RecipeTags.DeleteByRecipeIDs(dbc, []uuid.UUID{recipeID}); err != nil {
			return err
		}
	}
	rows := make([]*types.RecipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, &types.RecipeTag{ID: uuid.New(), RecipeID: recipeID, TagID: id})
	}
	_, err := a.deps.RecipeTags.Create(dbc, rows)
	return err
}

func composition(recipe *types.Recipe, edges []storedEdge, tagIDs []uuid.UUID, at time.Time) domainagg.RecipeComposition {
	ingredients := make([]domainagg.ComposedIngredient, 0, len(edges))
	for _, e := range edges {
		ingredients = append(ingredients, domainagg.ComposedIngredient{
			EdgeID:       e.EdgeID,
			IngredientID: e.IngredientID,
			Amount:       e.Amount,
		})
	}
	return domainagg.RecipeComposition{
		RecipeID:    recipe.ID,
		AuthorID:    recipe.AuthorID,
		Ingredients: ingredients,
		TagIDs:      append([]uuid.UUID(nil), tagIDs...),
		ComposedAt:  at,
	}
}

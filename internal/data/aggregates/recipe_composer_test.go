package aggregates_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/pantry-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/pantry-backend/internal/data/repos"
	"github.com/yungbote/pantry-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/dbctx"
)

type composerEnv struct {
	db    *gorm.DB
	deps  aggregates.RecipeComposerDeps
	hooks *aggtestutil.HooksRecorder

	author *types.User
	flour  *types.Ingredient
	sugar  *types.Ingredient
	eggs   *types.Ingredient
	tag    *types.Tag
}

// newComposerEnv returns a fresh database seeded outside any transaction,
// since the composer commits through its own.
func newComposerEnv(t *testing.T) *composerEnv {
	t.Helper()
	if !testutil.IsolatedDB() {
		t.Skip("composer tests commit data and need an isolated database")
	}
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	hooks := &aggtestutil.HooksRecorder{}

	env := &composerEnv{
		db:     db,
		hooks:  hooks,
		author: testutil.SeedUser(t, ctx, db, "author@example.com"),
		flour:  testutil.SeedIngredient(t, ctx, db, "flour", "g"),
		sugar:  testutil.SeedIngredient(t, ctx, db, "sugar", "g"),
		eggs:   testutil.SeedIngredient(t, ctx, db, "eggs", "pcs"),
		tag:    testutil.SeedTag(t, ctx, db, "Breakfast", "breakfast"),
	}
	env.deps = aggregates.RecipeComposerDeps{
		Base:              aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
		Recipes:           repos.NewRecipeRepo(db, log),
		RecipeIngredients: repos.NewRecipeIngredientRepo(db, log),
		RecipeTags:        repos.NewRecipeTagRepo(db, log),
		Ingredients:       repos.NewIngredientRepo(db, log),
		Tags:              repos.NewTagRepo(db, log),
		Favorites:         repos.NewFavoriteRepo(db, log),
		ShoppingCarts:     repos.NewShoppingCartRepo(db, log),
		Rules:             aggregates.CompositionRules{BootstrapAuthorMemberships: true},
	}
	return env
}

func (e *composerEnv) input(amounts ...domainagg.IngredientAmount) domainagg.CreateRecipeInput {
	return domainagg.CreateRecipeInput{
		AuthorID:    e.author.ID,
		Name:        "Pancakes",
		Image:       "recipes/images/pancakes.png",
		Text:        "Whisk and fry.",
		CookingTime: 15,
		Ingredients: amounts,
		TagIDs:      []uuid.UUID{e.tag.ID},
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func storedAmounts(t *testing.T, db *gorm.DB, recipeID uuid.UUID) map[uuid.UUID]types.RecipeIngredient {
	t.Helper()
	var rows []types.RecipeIngredient
	if err := db.Where("recipe_id = ?", recipeID).Find(&rows).Error; err != nil {
		t.Fatalf("load edges: %v", err)
	}
	out := map[uuid.UUID]types.RecipeIngredient{}
	for _, r := range rows {
		out[r.IngredientID] = r
	}
	return out
}

func TestRecipeComposerCreate(t *testing.T) {
	env := newComposerEnv(t)
	composer := aggregates.NewRecipeComposer(env.deps)
	ctx := context.Background()

	got, err := composer.Create(ctx, env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 200},
		domainagg.IngredientAmount{IngredientID: env.sugar.ID, Amount: 50},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.RecipeID == uuid.Nil || got.AuthorID != env.author.ID {
		t.Fatalf("unexpected composition header: %+v", got)
	}
	if len(got.Ingredients) != 2 {
		t.Fatalf("composition size: want=2 got=%d", len(got.Ingredients))
	}

	stored := storedAmounts(t, env.db, got.RecipeID)
	if len(stored) != 2 || stored[env.flour.ID].Amount != 200 || stored[env.sugar.ID].Amount != 50 {
		t.Fatalf("persisted composition mismatch: %+v", stored)
	}
	if n := countRows(t, env.db, &types.RecipeTag{}, "recipe_id = ?", got.RecipeID); n != 1 {
		t.Fatalf("tag edges: want=1 got=%d", n)
	}
	if n := countRows(t, env.db, &types.Favorite{}, "user_id = ? AND recipe_id = ?", env.author.ID, got.RecipeID); n != 1 {
		t.Fatalf("author favorite bootstrap: want=1 got=%d", n)
	}
	if n := countRows(t, env.db, &types.ShoppingCart{}, "user_id = ? AND recipe_id = ?", env.author.ID, got.RecipeID); n != 1 {
		t.Fatalf("author cart bootstrap: want=1 got=%d", n)
	}

	if ops := env.hooks.OpNames(); len(ops) != 1 || ops[0] != aggregates.OpComposerCreate {
		t.Fatalf("hook operations: %v", ops)
	}
	if got := env.hooks.Status(aggregates.OpComposerCreate); got != "success" {
		t.Fatalf("create status: got=%q", got)
	}
}

func TestRecipeComposerCreateWithoutBootstrap(t *testing.T) {
	env := newComposerEnv(t)
	env.deps.Rules.BootstrapAuthorMemberships = false
	composer := aggregates.NewRecipeComposer(env.deps)

	got, err := composer.Create(context.Background(), env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := countRows(t, env.db, &types.Favorite{}, "recipe_id = ?", got.RecipeID); n != 0 {
		t.Fatalf("favorites: want=0 got=%d", n)
	}
}

func TestRecipeComposerCreateRejects(t *testing.T) {
	env := newComposerEnv(t)
	composer := aggregates.NewRecipeComposer(env.deps)
	ctx := context.Background()
	unknown := uuid.New()

	tests := []struct {
		name   string
		in     domainagg.CreateRecipeInput
		reason domainagg.Reason
		field  string
	}{
		{
			name: "duplicate ingredient regardless of amounts",
			in: env.input(
				domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1},
				domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 9},
			),
			reason: domainagg.ReasonDuplicateIngredient,
			field:  "ingredients",
		},
		{
			name:   "unknown ingredient",
			in:     env.input(domainagg.IngredientAmount{IngredientID: unknown, Amount: 1}),
			reason: domainagg.ReasonUnknownReference,
			field:  "ingredients",
		},
		{
			name: "unknown tag",
			in: func() domainagg.CreateRecipeInput {
				in := env.input(domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1})
				in.TagIDs = []uuid.UUID{env.tag.ID, unknown}
				return in
			}(),
			reason: domainagg.ReasonUnknownReference,
			field:  "tags",
		},
		{
			name:   "empty ingredients",
			in:     env.input(),
			reason: domainagg.ReasonEmptyIngredients,
			field:  "ingredients",
		},
		{
			name: "missing image",
			in: func() domainagg.CreateRecipeInput {
				in := env.input(domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1})
				in.Image = ""
				return in
			}(),
			reason: domainagg.ReasonMissingField,
			field:  "image",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := composer.Create(ctx, tt.in)
			if !errors.Is(err, tt.reason) {
				t.Fatalf("reason: want=%s got=%v", tt.reason, err)
			}
			if !domainagg.IsCode(err, domainagg.CodeValidation) {
				t.Fatalf("code: want=validation got=%s", domainagg.CodeOf(err))
			}
			if got := domainagg.FieldOf(err); got != tt.field {
				t.Fatalf("field: want=%s got=%s", tt.field, got)
			}
		})
	}

	if n := countRows(t, env.db, &types.Recipe{}, "1 = 1"); n != 0 {
		t.Fatalf("rejected creates must not persist recipes, found %d", n)
	}
}

func TestRecipeComposerCreateRollsBackAfterTags(t *testing.T) {
	env := newComposerEnv(t)
	runner := &aggtestutil.InjectedTxRunner{
		Inner:         aggregates.NewGormTxRunner(env.db),
		FailAfterStep: aggregates.StepTags,
	}
	env.deps.Base.Runner = runner
	composer := aggregates.NewRecipeComposer(env.deps)

	_, err := composer.Create(context.Background(), env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1},
	))
	if !errors.Is(err, aggtestutil.ErrInjected) {
		t.Fatalf("want injected failure, got %v", err)
	}
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("code: want=internal got=%s", domainagg.CodeOf(err))
	}
	want := []string{aggregates.StepRecipe, aggregates.StepIngredients, aggregates.StepTags}
	if got := runner.StepsOf(aggregates.OpComposerCreate); !reflect.DeepEqual(got, want) {
		t.Fatalf("steps: want=%v got=%v", want, got)
	}
	if runner.RollbackCalls != 1 || runner.CommitCalls != 0 {
		t.Fatalf("runner commit=%d rollback=%d", runner.CommitCalls, runner.RollbackCalls)
	}
	for _, model := range []any{&types.Recipe{}, &types.RecipeIngredient{}, &types.RecipeTag{}, &types.Favorite{}} {
		if n := countRows(t, env.db, model, "1 = 1"); n != 0 {
			t.Fatalf("%T rows after rollback: want=0 got=%d", model, n)
		}
	}
	if got := env.hooks.Status(aggregates.OpComposerCreate); got != string(domainagg.CodeInternal) {
		t.Fatalf("create status: want=internal got=%q", got)
	}
}

func TestRecipeComposerUpdateRollsBackAfterIngredients(t *testing.T) {
	env := newComposerEnv(t)
	ctx := context.Background()
	created, err := aggregates.NewRecipeComposer(env.deps).Create(ctx, env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 100},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	runner := &aggtestutil.InjectedTxRunner{
		Inner:         aggregates.NewGormTxRunner(env.db),
		FailAfterStep: aggregates.StepIngredients,
	}
	env.deps.Base.Runner = runner
	_, err = aggregates.NewRecipeComposer(env.deps).Update(ctx, domainagg.UpdateRecipeInput{
		ActorID:     env.author.ID,
		RecipeID:    created.RecipeID,
		Name:        "Renamed",
		Text:        "x",
		CookingTime: 5,
		Ingredients: []domainagg.IngredientAmount{{IngredientID: env.eggs.ID, Amount: 3}},
		TagIDs:      []uuid.UUID{env.tag.ID},
	})
	if !errors.Is(err, aggtestutil.ErrInjected) {
		t.Fatalf("want injected failure, got %v", err)
	}
	stored := storedAmounts(t, env.db, created.RecipeID)
	if len(stored) != 1 || stored[env.flour.ID].Amount != 100 {
		t.Fatalf("composition must be untouched: %+v", stored)
	}
	if n := countRows(t, env.db, &types.Recipe{}, "name = ?", "Renamed"); n != 0 {
		t.Fatalf("recipe rename must roll back")
	}
	if got := runner.StepsOf(aggregates.OpComposerUpdate); len(got) != 2 || got[1] != aggregates.StepIngredients {
		t.Fatalf("update steps: %v", got)
	}
}

// racingIngredients loses the race on the unique (recipe, ingredient) index.
type racingIngredients struct {
	repos.RecipeIngredientRepo
}

func (racingIngredients) Create(dbctx.Context, []*types.RecipeIngredient) ([]*types.RecipeIngredient, error) {
	return nil, gorm.ErrDuplicatedKey
}

func TestRecipeComposerCreateIngredientRace(t *testing.T) {
	env := newComposerEnv(t)
	env.deps.RecipeIngredients = racingIngredients{RecipeIngredientRepo: env.deps.RecipeIngredients}
	composer := aggregates.NewRecipeComposer(env.deps)

	_, err := composer.Create(context.Background(), env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1},
	))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("code: want=conflict got=%v", err)
	}
	if env.hooks.ConflictsOf(aggregates.OpComposerCreate) != 1 {
		t.Fatalf("conflict hooks: %v", env.hooks.Conflicts)
	}
	if n := countRows(t, env.db, &types.Recipe{}, "1 = 1"); n != 0 {
		t.Fatalf("recipe must roll back, found %d", n)
	}
}

func TestRecipeComposerCreateRetryableBegin(t *testing.T) {
	env := newComposerEnv(t)
	runner := &aggtestutil.InjectedTxRunner{FailBegin: errors.New("database is locked")}
	env.deps.Base.Runner = runner
	composer := aggregates.NewRecipeComposer(env.deps)

	_, err := composer.Create(context.Background(), env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 1},
	))
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("code: want=retryable got=%v", err)
	}
	if env.hooks.RetriesOf(aggregates.OpComposerCreate) != 1 {
		t.Fatalf("retry hooks: %v", env.hooks.Retries)
	}
}

func TestRecipeComposerUpdateReconciles(t *testing.T) {
	env := newComposerEnv(t)
	composer := aggregates.NewRecipeComposer(env.deps)
	ctx := context.Background()

	created, err := composer.Create(ctx, env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 2},
		domainagg.IngredientAmount{IngredientID: env.sugar.ID, Amount: 3},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := storedAmounts(t, env.db, created.RecipeID)
	sugarEdge := before[env.sugar.ID].ID

	otherTag := testutil.SeedTag(t, ctx, env.db, "Dessert", "dessert")
	updated, err := composer.Update(ctx, domainagg.UpdateRecipeInput{
		ActorID:     env.author.ID,
		RecipeID:    created.RecipeID,
		Name:        "Sweet pancakes",
		Text:        "Whisk, fry, sprinkle.",
		CookingTime: 20,
		Ingredients: []domainagg.IngredientAmount{
			{IngredientID: env.sugar.ID, Amount: 5},
			{IngredientID: env.eggs.ID, Amount: 1},
		},
		TagIDs: []uuid.UUID{otherTag.ID},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	after := storedAmounts(t, env.db, created.RecipeID)
	if len(after) != 2 {
		t.Fatalf("composition size: want=2 got=%d (%+v)", len(after), after)
	}
	if _, ok := after[env.flour.ID]; ok {
		t.Fatalf("flour edge should be removed")
	}
	if after[env.sugar.ID].Amount != 5 || after[env.eggs.ID].Amount != 1 {
		t.Fatalf("amounts: %+v", after)
	}
	if after[env.sugar.ID].ID != sugarEdge {
		t.Fatalf("sugar edge id: want=%s got=%s", sugarEdge, after[env.sugar.ID].ID)
	}
	if updated.Ingredients[0].EdgeID != sugarEdge || updated.Ingredients[0].Amount != 5 {
		t.Fatalf("returned composition: %+v", updated.Ingredients)
	}

	var rec types.Recipe
	if err := env.db.First(&rec, "id = ?", created.RecipeID).Error; err != nil {
		t.Fatalf("load recipe: %v", err)
	}
	if rec.Name != "Sweet pancakes" || rec.CookingTime != 20 {
		t.Fatalf("scalar fields not updated: %+v", rec)
	}
	if rec.Image != "recipes/images/pancakes.png" {
		t.Fatalf("image should be kept when none is given, got %q", rec.Image)
	}
	var tags []types.RecipeTag
	if err := env.db.Where("recipe_id = ?", created.RecipeID).Find(&tags).Error; err != nil {
		t.Fatalf("load tags: %v", err)
	}
	if len(tags) != 1 || tags[0].TagID != otherTag.ID {
		t.Fatalf("tags: %+v", tags)
	}
}

func TestRecipeComposerUpdateAuthorization(t *testing.T) {
	env := newComposerEnv(t)
	composer := aggregates.NewRecipeComposer(env.deps)
	ctx := context.Background()

	created, err := composer.Create(ctx, env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 2},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stranger := testutil.SeedUser(t, ctx, env.db, "stranger@example.com")

	in := domainagg.UpdateRecipeInput{
		ActorID:     stranger.ID,
		RecipeID:    created.RecipeID,
		Name:        "Stolen",
		Text:        "nope",
		CookingTime: 1,
		Ingredients: []domainagg.IngredientAmount{{IngredientID: env.sugar.ID, Amount: 1}},
		TagIDs:      []uuid.UUID{env.tag.ID},
	}
	_, err = composer.Update(ctx, in)
	if !domainagg.IsCode(err, domainagg.CodeForbidden) || !errors.Is(err, domainagg.ReasonNotAuthor) {
		t.Fatalf("stranger update: want forbidden got %v", err)
	}
	if got := storedAmounts(t, env.db, created.RecipeID); got[env.flour.ID].Amount != 2 {
		t.Fatalf("composition changed by forbidden update: %+v", got)
	}

	in.ActorID = env.author.ID
	in.RecipeID = uuid.New()
	_, err = composer.Update(ctx, in)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) || !errors.Is(err, domainagg.ReasonRecipeNotFound) {
		t.Fatalf("missing recipe: want not_found got %v", err)
	}
}

func TestRecipeComposerDelete(t *testing.T) {
	env := newComposerEnv(t)
	composer := aggregates.NewRecipeComposer(env.deps)
	ctx := context.Background()

	created, err := composer.Create(ctx, env.input(
		domainagg.IngredientAmount{IngredientID: env.flour.ID, Amount: 2},
		domainagg.IngredientAmount{IngredientID: env.sugar.ID, Amount: 3},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fan := testutil.SeedUser(t, ctx, env.db, "fan@example.com")
	testutil.SeedFavorite(t, ctx, env.db, fan.ID, created.RecipeID)
	testutil.SeedCartItem(t, ctx, env.db, fan.ID, created.RecipeID)

	err = composer.Delete(ctx, domainagg.DeleteRecipeInput{ActorID: fan.ID, RecipeID: created.RecipeID})
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("non-author delete: want forbidden got %v", err)
	}

	if err := composer.Delete(ctx, domainagg.DeleteRecipeInput{ActorID: env.author.ID, RecipeID: created.RecipeID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, model := range []any{&types.RecipeIngredient{}, &types.RecipeTag{}, &types.Favorite{}, &types.ShoppingCart{}} {
		if n := countRows(t, env.db, model, "recipe_id = ?", created.RecipeID); n != 0 {
			t.Fatalf("%T rows after delete: want=0 got=%d", model, n)
		}
	}
	if n := countRows(t, env.db, &types.Recipe{}, "id = ?", created.RecipeID); n != 0 {
		t.Fatalf("recipe row still present")
	}

	err = composer.Delete(ctx, domainagg.DeleteRecipeInput{ActorID: env.author.ID, RecipeID: created.RecipeID})
	if !errors.Is(err, domainagg.ReasonRecipeNotFound) {
		t.Fatalf("second delete: want recipe_not_found got %v", err)
	}
}

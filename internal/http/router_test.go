package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	httpH "github.com/yungbote/pantry-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pantry-backend/internal/http/middleware"
	"github.com/yungbote/pantry-backend/internal/http/response"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/ctxutil"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/render"
	"github.com/yungbote/pantry-backend/internal/services"
)

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type fakeAuth struct{}

func (fakeAuth) RegisterUser(context.Context, services.RegisterInput) (*types.User, error) {
	return nil, apierr.Conflict("email_taken", errors.New("email is already registered"))
}
func (fakeAuth) LoginUser(context.Context, string, string) (string, error) { return "good", nil }
func (fakeAuth) LogoutUser(context.Context) error                          { return nil }
func (fakeAuth) GetAccessTTL() time.Duration                               { return time.Hour }
func (fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	if token != "good" {
		return ctx, apierr.Unauthorized("invalid_token", services.ErrInvalidToken)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: token, UserID: testUserID}), nil
}

// fakeRecipes answers with a fixed error so status mapping can be checked.
type fakeRecipes struct {
	err    error
	lastQ  services.RecipeListQuery
	viewer uuid.UUID
	actor  uuid.UUID
}

func (f *fakeRecipes) Create(ctx context.Context, actorID uuid.UUID, in services.RecipeWriteInput) (*services.RecipeView, error) {
	f.actor = actorID
	if f.err != nil {
		return nil, f.err
	}
	return &services.RecipeView{ID: uuid.New(), Name: in.Name}, nil
}
func (f *fakeRecipes) Update(ctx context.Context, actorID, id uuid.UUID, in services.RecipeWriteInput) (*services.RecipeView, error) {
	f.actor = actorID
	return nil, f.err
}
func (f *fakeRecipes) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	f.actor = actorID
	return f.err
}
func (f *fakeRecipes) Get(ctx context.Context, viewerID, id uuid.UUID) (*services.RecipeView, error) {
	f.viewer = viewerID
	return nil, f.err
}
func (f *fakeRecipes) List(ctx context.Context, viewerID uuid.UUID, q services.RecipeListQuery) (services.RecipePage, error) {
	f.lastQ = q
	f.viewer = viewerID
	return services.RecipePage{Results: []services.RecipeView{}}, f.err
}
func (f *fakeRecipes) ShortLink(ctx context.Context, id uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://pantry.example/l/" + id.String(), nil
}

type fakeMemberships struct{ err error }

func (f fakeMemberships) AddRecipe(ctx context.Context, userID uuid.UUID, kind types.MembershipKind, id uuid.UUID) (*services.RecipeShortView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.RecipeShortView{ID: id}, nil
}
func (f fakeMemberships) RemoveRecipe(context.Context, uuid.UUID, types.MembershipKind, uuid.UUID) error {
	return f.err
}
func (f fakeMemberships) Subscribe(context.Context, uuid.UUID, uuid.UUID, int) (*services.SubscriptionView, error) {
	return nil, f.err
}
func (f fakeMemberships) Unsubscribe(context.Context, uuid.UUID, uuid.UUID) error { return f.err }
func (f fakeMemberships) ListSubscriptions(context.Context, uuid.UUID, services.SubscriptionQuery) (services.SubscriptionPage, error) {
	return services.SubscriptionPage{Results: []services.SubscriptionView{}}, f.err
}

// fakeUsers keeps a single avatar for testUserID.
type fakeUsers struct {
	avatar string
}

func (f *fakeUsers) GetMe(ctx context.Context, userID uuid.UUID) (*services.AuthorView, error) {
	return &services.AuthorView{ID: userID, Avatar: f.avatar}, nil
}
func (f *fakeUsers) GetByID(ctx context.Context, viewerID, userID uuid.UUID) (*services.AuthorView, error) {
	return &services.AuthorView{ID: userID}, nil
}
func (f *fakeUsers) SetAvatar(ctx context.Context, userID uuid.UUID, dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return "", domainagg.Fail(domainagg.CodeValidation, "op", domainagg.ReasonInvalidImage, "avatar", "bad image")
	}
	f.avatar = "/media/users/avatars/" + userID.String() + ".png"
	return f.avatar, nil
}
func (f *fakeUsers) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	if f.avatar == "" {
		return apierr.NotFound("avatar_not_found", errors.New("no avatar"))
	}
	f.avatar = ""
	return nil
}

// fakeIngredients reports which search mode the handler picked.
type fakeIngredients struct {
	mode string
	term string
}

func (f *fakeIngredients) Search(ctx context.Context, prefix string, limit int) ([]*types.Ingredient, error) {
	f.mode, f.term = "prefix", prefix
	return []*types.Ingredient{}, nil
}
func (f *fakeIngredients) SearchContains(ctx context.Context, term string, limit int) ([]*types.Ingredient, error) {
	f.mode, f.term = "contains", term
	return []*types.Ingredient{}, nil
}
func (f *fakeIngredients) Get(context.Context, uuid.UUID) (*types.Ingredient, error) {
	return nil, apierr.NotFound("ingredient_not_found", errors.New("missing"))
}
func (f *fakeIngredients) EnsureIngredients(context.Context, []services.IngredientSeed) (services.EnsureResult, error) {
	return services.EnsureResult{}, nil
}

type fakeCart struct{}

func (fakeCart) BuildShoppingList(context.Context, uuid.UUID) ([]services.ShoppingListLine, error) {
	return []services.ShoppingListLine{}, nil
}
func (fakeCart) ExportShoppingList(_ context.Context, userID uuid.UUID, format render.Format) (*services.ShoppingListFile, error) {
	return &services.ShoppingListFile{
		Filename:    "shopping_list." + string(format),
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte("Shopping list\n\nflour (g) — 300\n"),
	}, nil
}

func newTestRouter(recipes *fakeRecipes, memberships fakeMemberships) *gin.Engine {
	return newTestRouterWith(recipes, memberships, &fakeUsers{}, &fakeIngredients{})
}

func newTestRouterWith(recipes *fakeRecipes, memberships fakeMemberships, users *fakeUsers, ingredients *fakeIngredients) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, fakeAuth{}),
		AuthHandler:       httpH.NewAuthHandler(fakeAuth{}),
		RecipeHandler:     httpH.NewRecipeHandler(recipes, memberships, fakeCart{}),
		UserHandler:       httpH.NewUserHandler(users, memberships),
		IngredientHandler: httpH.NewIngredientHandler(ingredients),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestRouterErrorMapping(t *testing.T) {
	recipeID := uuid.New().String()
	tests := []struct {
		name   string
		err    error
		method string
		path   string
		body   string
		status int
		reason string
	}{
		{
			name:   "duplicate favorite",
			err:    domainagg.Fail(domainagg.CodeConflict, "op", domainagg.ReasonAlreadyExists, "id", ""),
			method: http.MethodPost, path: "/api/recipes/" + recipeID + "/favorite",
			status: http.StatusConflict, reason: "already_exists",
		},
		{
			name:   "absent cart entry",
			err:    domainagg.Fail(domainagg.CodeNotFound, "op", domainagg.ReasonMembershipNotFound, "", ""),
			method: http.MethodDelete, path: "/api/recipes/" + recipeID + "/shopping_cart",
			status: http.StatusNotFound, reason: "membership_not_found",
		},
		{
			name:   "self subscribe",
			err:    domainagg.Fail(domainagg.CodeValidation, "op", domainagg.ReasonSelfSubscribe, "id", ""),
			method: http.MethodPost, path: "/api/users/" + testUserID.String() + "/subscribe",
			status: http.StatusBadRequest, reason: "self_subscribe",
		},
		{
			name:   "not author",
			err:    domainagg.Fail(domainagg.CodeForbidden, "op", domainagg.ReasonNotAuthor, "", ""),
			method: http.MethodDelete, path: "/api/recipes/" + recipeID,
			status: http.StatusForbidden, reason: "not_author",
		},
		{
			name:   "duplicate ingredient",
			err:    domainagg.Fail(domainagg.CodeValidation, "op", domainagg.ReasonDuplicateIngredient, "ingredients", ""),
			method: http.MethodPost, path: "/api/recipes",
			body:   `{"name":"x","image":"data:image/png;base64,AA==","text":"y","cooking_time":1,"ingredients":[],"tags":[]}`,
			status: http.StatusBadRequest, reason: "duplicate_ingredient",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakeRecipes{err: tt.err}, fakeMemberships{err: tt.err})
			rec := do(r, tt.method, tt.path, "good", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status: want=%d got=%d body=%s", tt.status, rec.Code, rec.Body.String())
			}
			if got := decodeError(t, rec).Reason; got != tt.reason {
				t.Fatalf("reason: want=%q got=%q", tt.reason, got)
			}
		})
	}
}

func TestRouterAuthentication(t *testing.T) {
	recipes := &fakeRecipes{}
	r := newTestRouter(recipes, fakeMemberships{})

	if rec := do(r, http.MethodPost, "/api/recipes", "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: want 401 got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/api/recipes", "revoked", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token on optional route: want 401 got %d", rec.Code)
	}

	rec := do(r, http.MethodGet, "/api/recipes?is_favorited=1&tags=breakfast&tags=lunch&limit=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous list: want 200 got %d", rec.Code)
	}
	if recipes.viewer != uuid.Nil || recipes.lastQ.IsFavorited != services.MembershipOnly || len(recipes.lastQ.TagSlugs) != 2 || recipes.lastQ.Limit != 2 {
		t.Fatalf("list query: viewer=%s q=%+v", recipes.viewer, recipes.lastQ)
	}

	rec = do(r, http.MethodGet, "/api/recipes", "good", "")
	if rec.Code != http.StatusOK || recipes.viewer != testUserID {
		t.Fatalf("authenticated list: code=%d viewer=%s", rec.Code, recipes.viewer)
	}

	if rec := do(r, http.MethodGet, "/api/recipes?author=nope", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad author filter: want 400 got %d", rec.Code)
	}

	if rec := do(r, http.MethodDelete, "/api/recipes/"+uuid.NewString(), "good", ""); rec.Code != http.StatusNoContent || recipes.actor != testUserID {
		t.Fatalf("delete: code=%d actor=%s", rec.Code, recipes.actor)
	}
}

func TestRouterRecipeListFilters(t *testing.T) {
	recipes := &fakeRecipes{}
	r := newTestRouter(recipes, fakeMemberships{})

	rec := do(r, http.MethodGet, "/api/recipes?is_favorited=0&is_in_shopping_cart=true&search=pie", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: want 200 got %d", rec.Code)
	}
	q := recipes.lastQ
	if q.IsFavorited != services.MembershipExcluded || q.IsInShoppingCart != services.MembershipOnly || q.Search != "pie" {
		t.Fatalf("list query: %+v", q)
	}

	recipes.lastQ = services.RecipeListQuery{}
	do(r, http.MethodGet, "/api/recipes", "good", "")
	if recipes.lastQ.IsFavorited != services.MembershipAny || recipes.lastQ.IsInShoppingCart != services.MembershipAny {
		t.Fatalf("unset flags: %+v", recipes.lastQ)
	}

	if rec := do(r, http.MethodGet, "/api/recipes?is_favorited=maybe", "good", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad flag: want 400 got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/api/recipes?is_in_shopping_cart=2", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad cart flag: want 400 got %d", rec.Code)
	}
}

func TestRouterShortLink(t *testing.T) {
	id := uuid.New()
	r := newTestRouter(&fakeRecipes{}, fakeMemberships{})

	rec := do(r, http.MethodGet, "/api/recipes/"+id.String()+"/get-link", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get-link: want 200 got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["short-link"] != "https://pantry.example/l/"+id.String() {
		t.Fatalf("short-link: %v", body)
	}

	rec = do(r, http.MethodGet, "/l/"+id.String(), "", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/recipes/"+id.String() {
		t.Fatalf("redirect: code=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}

	missing := newTestRouter(&fakeRecipes{err: apierr.NotFound("recipe_not_found", errors.New("missing"))}, fakeMemberships{})
	if rec := do(missing, http.MethodGet, "/api/recipes/"+id.String()+"/get-link", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get-link missing: want 404 got %d", rec.Code)
	}
	if rec := do(missing, http.MethodGet, "/l/"+id.String(), "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("redirect missing: want 404 got %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/l/not-a-uuid", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("redirect bad id: want 404 got %d", rec.Code)
	}
}

func TestRouterAvatar(t *testing.T) {
	users := &fakeUsers{}
	r := newTestRouterWith(&fakeRecipes{}, fakeMemberships{}, users, &fakeIngredients{})

	if rec := do(r, http.MethodPut, "/api/users/me/avatar", "", `{"avatar":"data:image/png;base64,AA=="}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous avatar: want 401 got %d", rec.Code)
	}
	rec := do(r, http.MethodPut, "/api/users/me/avatar", "good", `{"avatar":"not-an-image"}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Reason != "invalid_image" {
		t.Fatalf("bad avatar: code=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodPut, "/api/users/me/avatar", "good", `{"avatar":"data:image/png;base64,AA=="}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"avatar":"/media/users/avatars/`) {
		t.Fatalf("set avatar: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodDelete, "/api/users/me/avatar", "good", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete avatar: want 204 got %d", rec.Code)
	}
	if rec := do(r, http.MethodDelete, "/api/users/me/avatar", "good", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("delete absent avatar: want 404 got %d", rec.Code)
	}
}

func TestRouterIngredientSearchMode(t *testing.T) {
	ingredients := &fakeIngredients{}
	r := newTestRouterWith(&fakeRecipes{}, fakeMemberships{}, &fakeUsers{}, ingredients)

	do(r, http.MethodGet, "/api/ingredients?name=fl", "", "")
	if ingredients.mode != "prefix" || ingredients.term != "fl" {
		t.Fatalf("name: mode=%s term=%q", ingredients.mode, ingredients.term)
	}
	do(r, http.MethodGet, "/api/ingredients?name=fl&name_contains=our", "", "")
	if ingredients.mode != "contains" || ingredients.term != "our" {
		t.Fatalf("name_contains: mode=%s term=%q", ingredients.mode, ingredients.term)
	}
}

func TestRouterAuthAndDownload(t *testing.T) {
	r := newTestRouter(&fakeRecipes{}, fakeMemberships{})

	rec := do(r, http.MethodPost, "/api/auth/token/login", "", `{"email":"a@b.c","password":"pw"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"auth_token":"good"`) {
		t.Fatalf("login: code=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodPost, "/api/users", "", `{"email":"a@b.c","username":"a","first_name":"A","last_name":"B","password":"pw"}`)
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "email_taken" {
		t.Fatalf("register conflict: code=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodPost, "/api/auth/token/logout", "good", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: want 204 got %d", rec.Code)
	}

	rec = do(r, http.MethodGet, "/api/recipes/download_shopping_cart?format=txt", "good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download: want 200 got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "shopping_list.txt") {
		t.Fatalf("content-disposition: %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "flour (g) — 300") {
		t.Fatalf("body: %q", rec.Body.String())
	}
	if rec := do(r, http.MethodGet, "/api/recipes/download_shopping_cart?format=docx", "good", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format: want 400 got %d", rec.Code)
	}

	if rec := do(r, http.MethodGet, "/healthcheck", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: want 200 got %d", rec.Code)
	}
}

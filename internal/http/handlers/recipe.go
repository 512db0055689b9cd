package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pantry-backend/internal/domain"
	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/http/response"
	"github.com/yungbote/pantry-backend/internal/platform/render"
	"github.com/yungbote/pantry-backend/internal/services"
)

type RecipeHandler struct {
	recipes     services.RecipeService
	memberships services.MembershipService
	carts       services.CartService
}

func NewRecipeHandler(recipes services.RecipeService, memberships services.MembershipService, carts services.CartService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, memberships: memberships, carts: carts}
}

type recipeIngredientRequest struct {
	ID     uuid.UUID `json:"id"`
	Amount int       `json:"amount"`
}

type recipeRequest struct {
	Name        string                    `json:"name"`
	Image       string                    `json:"image"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Tags        []uuid.UUID               `json:"tags"`
}

func (r recipeRequest) input() services.RecipeWriteInput {
	amounts := make([]domainagg.IngredientAmount, 0, len(r.Ingredients))
	for _, in := range r.Ingredients {
		amounts = append(amounts, domainagg.IngredientAmount{IngredientID: in.ID, Amount: in.Amount})
	}
	return services.RecipeWriteInput{
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Ingredients: amounts,
		TagIDs:      r.Tags,
	}
}

// GET /api/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	q := services.RecipeListQuery{
		TagSlugs: c.QueryArray("tags"),
		Search:   c.Query("search"),
	}
	var err error
	if q.IsFavorited, err = queryMembership(c, "is_favorited"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if q.IsInShoppingCart, err = queryMembership(c, "is_in_shopping_cart"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if raw := c.Query("author"); raw != "" {
		if q.AuthorID, err = uuid.Parse(raw); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid author: %w", err))
			return
		}
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	page, err := h.recipes.List(c.Request.Context(), actorID(c), q)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	view, err := h.recipes.Get(c.Request.Context(), actorID(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/recipes/:id/get-link
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	link, err := h.recipes.ShortLink(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"short-link": link})
}

// GET /l/:id
func (h *RecipeHandler) FollowShortLink(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	if _, err := h.recipes.ShortLink(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+id.String())
}

// POST /api/recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.recipes.Create(c.Request.Context(), actorID(c), req.input())
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// PATCH /api/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.recipes.Update(c.Request.Context(), actorID(c), id, req.input())
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// DELETE /api/recipes/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), actorID(c), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/recipes/:id/favorite
func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, types.MembershipFavorite)
}

// DELETE /api/recipes/:id/favorite
func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, types.MembershipFavorite)
}

// POST /api/recipes/:id/shopping_cart
func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, types.MembershipShoppingCart)
}

// DELETE /api/recipes/:id/shopping_cart
func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, types.MembershipShoppingCart)
}

func (h *RecipeHandler) addMembership(c *gin.Context, kind types.MembershipKind) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	short, err := h.memberships.AddRecipe(c.Request.Context(), actorID(c), kind, id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, short)
}

func (h *RecipeHandler) removeMembership(c *gin.Context, kind types.MembershipKind) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "recipe_not_found", err)
		return
	}
	if err := h.memberships.RemoveRecipe(c.Request.Context(), actorID(c), kind, id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/recipes/download_shopping_cart?format=pdf|png|txt
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_format", err)
		return
	}
	file, err := h.carts.ExportShoppingList(c.Request.Context(), actorID(c), format)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/pantry-backend/internal/domain"
	"github.com/yungbote/pantry-backend/internal/http/response"
	"github.com/yungbote/pantry-backend/internal/services"
)

type IngredientHandler struct {
	ingredients services.IngredientService
}

func NewIngredientHandler(ingredients services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

// GET /api/ingredients?name=<prefix>|name_contains=<term>
func (h *IngredientHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var out []*types.Ingredient
	if term := strings.TrimSpace(c.Query("name_contains")); term != "" {
		out, err = h.ingredients.SearchContains(c.Request.Context(), term, limit)
	} else {
		out, err = h.ingredients.Search(c.Request.Context(), c.Query("name"), limit)
	}
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/ingredients/:id
func (h *IngredientHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "ingredient_not_found", err)
		return
	}
	out, err := h.ingredients.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}

type TagHandler struct {
	tags services.TagService
}

func NewTagHandler(tags services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// GET /api/tags
func (h *TagHandler) List(c *gin.Context) {
	out, err := h.tags.List(c.Request.Context())
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "tag_not_found", err)
		return
	}
	out, err := h.tags.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, out)
}

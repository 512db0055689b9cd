package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pantry-backend/internal/http/response"
	"github.com/yungbote/pantry-backend/internal/services"
)

type UserHandler struct {
	userService       services.UserService
	membershipService services.MembershipService
}

func NewUserHandler(userService services.UserService, membershipService services.MembershipService) *UserHandler {
	return &UserHandler{userService: userService, membershipService: membershipService}
}

// GET /api/users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context(), actorID(c))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, me)
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

// PUT /api/users/me/avatar
func (uh *UserHandler) SetAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	url, err := uh.userService.SetAvatar(c.Request.Context(), actorID(c), req.Avatar)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"avatar": url})
}

// DELETE /api/users/me/avatar
func (uh *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := uh.userService.DeleteAvatar(c.Request.Context(), actorID(c)); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/users/:id
func (uh *UserHandler) GetByID(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	u, err := uh.userService.GetByID(c.Request.Context(), actorID(c), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, u)
}

// GET /api/users/subscriptions
func (uh *UserHandler) ListSubscriptions(c *gin.Context) {
	var q services.SubscriptionQuery
	var err error
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if q.RecipesLimit, err = queryInt(c, "recipes_limit"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	page, err := uh.membershipService.ListSubscriptions(c.Request.Context(), actorID(c), q)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// POST /api/users/:id/subscribe
func (uh *UserHandler) Subscribe(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	recipesLimit, err := queryInt(c, "recipes_limit")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := uh.membershipService.Subscribe(c.Request.Context(), actorID(c), id, recipesLimit)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// DELETE /api/users/:id/subscribe
func (uh *UserHandler) Unsubscribe(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	if err := uh.membershipService.Unsubscribe(c.Request.Context(), actorID(c), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondNoContent(c)
}

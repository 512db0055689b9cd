package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/http/response"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
	"github.com/yungbote/pantry-backend/internal/platform/ctxutil"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// OptionalAuth attaches the caller when a token is present. A bad token is
// still rejected so clients notice revoked credentials.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}
		if !am.attach(c, tokenString) {
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrUnauthenticated)
			return
		}
		if !am.attach(c, tokenString) {
			return
		}
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, tokenString string) bool {
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		am.log.Debug("token rejected", "error", err)
		c.Abort()
		if _, ok := apierr.As(err); ok {
			response.RespondAggregateError(c, err)
		} else {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrInvalidToken)
		}
		return false
	}
	c.Request = c.Request.WithContext(ctx)
	return true
}

// extractToken accepts "Authorization: Token <t>" and "Authorization: Bearer <t>".
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return ""
	}
	return strings.TrimSpace(token)
}

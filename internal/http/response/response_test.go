package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/pantry-backend/internal/domain/aggregates"
	"github.com/yungbote/pantry-backend/internal/platform/apierr"
)

func TestRespondAggregateError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		want   APIError
	}{
		{
			name:   "validation carries reason and field",
			err:    domainagg.Fail(domainagg.CodeValidation, "Recipes.Composer.Create", domainagg.ReasonDuplicateIngredient, "ingredients", "ingredient listed twice"),
			status: http.StatusBadRequest,
			want:   APIError{Message: "ingredient listed twice", Code: "validation", Reason: "duplicate_ingredient", Field: "ingredients"},
		},
		{
			name:   "conflict",
			err:    fmt.Errorf("wrapped: %w", domainagg.Fail(domainagg.CodeConflict, "op", domainagg.ReasonAlreadyExists, "id", "")),
			status: http.StatusConflict,
			want:   APIError{Message: "already exists", Code: "conflict", Reason: "already_exists", Field: "id"},
		},
		{
			name:   "not found",
			err:    domainagg.Fail(domainagg.CodeNotFound, "op", domainagg.ReasonMembershipNotFound, "", "not in favorites"),
			status: http.StatusNotFound,
			want:   APIError{Message: "not in favorites", Code: "not_found", Reason: "membership_not_found"},
		},
		{
			name:   "forbidden",
			err:    domainagg.Fail(domainagg.CodeForbidden, "op", domainagg.ReasonNotAuthor, "", "only the author may change this recipe"),
			status: http.StatusForbidden,
			want:   APIError{Message: "only the author may change this recipe", Code: "forbidden", Reason: "not_author"},
		},
		{
			name:   "retryable",
			err:    domainagg.NewError(domainagg.CodeRetryable, "op", "database is locked", nil),
			status: http.StatusServiceUnavailable,
			want:   APIError{Message: "database is locked", Code: "retryable"},
		},
		{
			name:   "internal hides details",
			err:    domainagg.NewError(domainagg.CodeInternal, "op", "pq: relation missing", nil),
			status: http.StatusInternalServerError,
			want:   APIError{Message: "internal error", Code: "internal"},
		},
		{
			name:   "api error",
			err:    apierr.Conflict("email_taken", errors.New("email is already registered")),
			status: http.StatusConflict,
			want:   APIError{Message: "email is already registered", Code: "email_taken"},
		},
		{
			name:   "plain error",
			err:    errors.New("dial tcp: refused"),
			status: http.StatusInternalServerError,
			want:   APIError{Message: "internal error", Code: "internal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondAggregateError(c, tt.err)

			if rec.Code != tt.status {
				t.Fatalf("status: want=%d got=%d", tt.status, rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error != tt.want {
				t.Fatalf("envelope: want=%+v got=%+v", tt.want, env.Error)
			}
		})
	}
}

package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pantry-backend/internal/platform/ctxutil"
	"github.com/yungbote/pantry-backend/internal/services"
)

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

// queryMembership reads a tri-state membership filter: "1"/"true" keeps only
// members, "0"/"false" excludes them, absent means no filter.
func queryMembership(c *gin.Context, name string) (services.MembershipFilter, error) {
	raw := strings.TrimSpace(c.Query(name))
	switch strings.ToLower(raw) {
	case "":
		return services.MembershipAny, nil
	case "1", "true":
		return services.MembershipOnly, nil
	case "0", "false":
		return services.MembershipExcluded, nil
	}
	return services.MembershipAny, fmt.Errorf("invalid %s: %q", name, raw)
}

// actorID is the authenticated caller, or uuid.Nil for anonymous requests.
func actorID(c *gin.Context) uuid.UUID {
	return ctxutil.UserID(c.Request.Context())
}

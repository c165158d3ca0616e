// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the identity boundary at the transport level: it
// extracts a bearer credential, asks the injected auth.Verifier for the user
// id, and stashes it in the Gin context. Requests without a credential pass
// through anonymously; quota gating downstream applies only to authenticated
// callers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rewriteguard/rewrite-backend/internal/auth"
)

// userIDKey is the Gin context key under which the verified user id is stored.
const userIDKey = "userID"

// UserID returns the verified user id set by BearerAuth, or "" for anonymous
// requests.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// BearerAuth verifies an optional "Authorization: Bearer <token>" header
// against v. Behavior:
//   - no Authorization header: anonymous, request proceeds un-gated;
//   - well-formed bearer token: verified user id stored in the context;
//   - malformed header, invalid or expired token: 401 with a stable code.
func BearerAuth(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			unauthorized(c, "invalid authorization format")
			return
		}

		userID, err := v.Verify(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				unauthorized(c, "session expired")
			case errors.Is(err, auth.ErrTokenMissing), errors.Is(err, auth.ErrTokenInvalid):
				unauthorized(c, "invalid or expired session")
			default:
				unauthorized(c, "invalid or expired session")
			}
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireUser aborts with 401 unless BearerAuth has stored a verified user
// id. Mount it on routes that only make sense for authenticated callers
// (quota, job history).
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			unauthorized(c, "authorization required")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.GetString(requestIDKey),
		"code":       "unauthorized",
		"message":    msg,
	})
}

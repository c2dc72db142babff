package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

// ContextCallerID is the gin context key holding the authenticated user id.
const ContextCallerID = "caller_id"

// CallerID returns the authenticated user. It answers 401 and returns false
// when the request carries no identity.
func CallerID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextCallerID)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, NewErrorResponse("missing caller identity"))
		return "", false
	}
	return id, true
}

// BindJSON decodes the body into dst, answering 400 on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, apperrors.Validation("invalid request body: "+err.Error(), err))
		return false
	}
	return true
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondError_MapsCode(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		RespondError(c, fmt.Errorf("get: %w", apperrors.NotFound("patient", nil)))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "patient not found", body.Message)
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		RespondError(c, fmt.Errorf("pq: password authentication failed for user clinic"))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Message)
}

func TestCallerID_MissingIs401(t *testing.T) {
	w, _ := serve(t, func(c *gin.Context) {
		_, ok := CallerID(c)
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCallerID_Present(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextCallerID, "d1")

	id, ok := CallerID(c)
	assert.True(t, ok)
	assert.Equal(t, "d1", id)
}

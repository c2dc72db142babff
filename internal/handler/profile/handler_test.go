package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinical-records/internal/handler"
	"github.com/jwalitptl/clinical-records/internal/model"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

type stubService struct {
	callers  []string
	personal *model.PersonalData
	err      error
}

func (s *stubService) GetPersonalData(_ context.Context, callerID, userID string) (*model.PersonalData, error) {
	s.callers = append(s.callers, callerID+">"+userID)
	return s.personal, s.err
}

func (s *stubService) SavePersonalData(_ context.Context, callerID, userID string, form *model.PersonalDataForm) (*model.PersonalData, error) {
	s.callers = append(s.callers, callerID+">"+userID)
	if s.err != nil {
		return nil, s.err
	}
	p := &model.PersonalData{UserID: userID}
	form.Apply(p)
	return p, nil
}

func (s *stubService) GetMedicalData(_ context.Context, callerID, userID string) (*model.MedicalData, error) {
	return nil, apperrors.NotFound("medical data", nil)
}

func (s *stubService) SaveMedicalData(_ context.Context, callerID, userID string, form *model.MedicalDataForm) (*model.MedicalData, error) {
	m := &model.MedicalData{UserID: userID}
	form.Apply(m)
	return m, nil
}

func newEngine(svc ProfileService, caller string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("", func(c *gin.Context) {
		if caller != "" {
			c.Set(handler.ContextCallerID, caller)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(group)
	return r
}

func TestSavePersonal_UsesCallerAsUser(t *testing.T) {
	svc := &stubService{}
	r := newEngine(svc, "u1")

	body, _ := json.Marshal(map[string]string{"city": "Recife"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/profile/personal", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"u1>u1"}, svc.callers)

	var resp struct {
		Data model.PersonalData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.City)
	assert.Equal(t, "Recife", *resp.Data.City)
}

func TestGetPersonal_DoctorIsForbidden(t *testing.T) {
	r := newEngine(&stubService{err: apperrors.Unauthorized("only patients have personal data")}, "d1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/personal", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMedical_NotFound(t *testing.T) {
	r := newEngine(&stubService{}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/medical", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveMedical_BadBody(t *testing.T) {
	r := newEngine(&stubService{}, "u1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/profile/medical", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_RequiresCaller(t *testing.T) {
	r := newEngine(&stubService{}, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile/personal", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

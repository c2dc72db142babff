package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("listing owned patients: %w", BackendUnavailable(sql.ErrConnDone))

	assert.True(t, IsBackendUnavailable(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrBackendUnavailable, CodeOf(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCodeOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("boom")))
	assert.False(t, Is(nil, ErrInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrNotFound:           http.StatusNotFound,
		ErrValidation:         http.StatusBadRequest,
		ErrUnauthorized:       http.StatusForbidden,
		ErrBackendUnavailable: http.StatusServiceUnavailable,
		ErrSchemaMismatch:     http.StatusServiceUnavailable,
		ErrNotImplemented:     http.StatusNotImplemented,
		ErrInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, code.HTTPStatus(), "code %d", code)
	}
}

func TestSchemaMismatchNamesTable(t *testing.T) {
	err := SchemaMismatch("patient_diagnoses", nil)
	assert.Contains(t, err.Error(), `"patient_diagnoses"`)
	assert.True(t, IsSchemaMismatch(err))
}

package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/store"
)

func TestDecodeRow_PersonalData(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	row := store.Row{
		"id":         "pd-1",
		"user_id":    "u-1",
		"full_name":  "Ana Souza",
		"birth_date": birth,
		"city":       nil,
		"state":      "SP",
		"created_at": birth,
	}

	var pd model.PersonalData
	require.NoError(t, DecodeRow(row, &pd))

	assert.Equal(t, "u-1", pd.UserID)
	require.NotNil(t, pd.BirthDate)
	assert.Equal(t, "2000-06-15", *pd.BirthDate)
	assert.Nil(t, pd.City)
	assert.Equal(t, "SP", *pd.State)
	assert.Equal(t, birth, pd.CreatedAt)
}

func TestDecodeRows_MedicalWeightFromNumber(t *testing.T) {
	rows := []store.Row{
		{"id": "m-1", "user_id": "u-1", "weight": 72.5, "smoker": true},
		{"id": "m-2", "user_id": "u-2", "weight": "abc"},
	}

	out, err := DecodeRows[model.MedicalData](rows)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "72.5", *out[0].Weight)
	assert.True(t, *out[0].Smoker)
	assert.Equal(t, "abc", *out[1].Weight)
	assert.Nil(t, out[1].Smoker)
}

func TestOptional(t *testing.T) {
	var missing *string
	assert.Nil(t, Optional(missing))
	assert.Equal(t, "x", Optional(model.StringPtr("x")))
}

package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/jwalitptl/clinical-records/internal/cache/memory"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository/fallback"
	"github.com/jwalitptl/clinical-records/internal/repository/local"
	"github.com/jwalitptl/clinical-records/internal/repository/remote"
	"github.com/jwalitptl/clinical-records/internal/store"
	storemem "github.com/jwalitptl/clinical-records/internal/store/memory"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
)

func newService(t *testing.T, remoteEnabled bool) (*Service, *storemem.Store) {
	t.Helper()
	mem := storemem.New(model.TableUsers, model.TablePersonalData, model.TableMedicalData)
	require.NoError(t, mem.Insert(context.Background(), model.TableUsers, store.Row{"id": "p1", "profession": "patient", "email": "p1@x.org"}))
	require.NoError(t, mem.Insert(context.Background(), model.TableUsers, store.Row{"id": "d1", "profession": "doctor", "email": "d1@x.org"}))

	profiles := fallback.NewProfile(remoteEnabled,
		remote.NewProfileRepository(mem),
		local.NewProfileRepository(cachemem.New("medical_app_", nil)),
		logger.Nop(), nil)
	return NewService(profiles, remote.NewUserRepository(mem), logger.Nop()), mem
}

func TestSavePersonalData_MergesFields(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t, true)

	_, err := svc.SavePersonalData(ctx, "p1", "p1", &model.PersonalDataForm{City: model.StringPtr("Recife"), Gender: model.StringPtr("F")})
	require.NoError(t, err)
	pd, err := svc.SavePersonalData(ctx, "p1", "p1", &model.PersonalDataForm{City: model.StringPtr("Olinda")})
	require.NoError(t, err)

	assert.Equal(t, "Olinda", *pd.City)
	assert.Equal(t, "F", *pd.Gender)
	assert.Len(t, mem.Rows(model.TablePersonalData), 1)

	got, err := svc.GetPersonalData(ctx, "p1", "p1")
	require.NoError(t, err)
	assert.Equal(t, pd.ID, got.ID)
}

func TestSaveMedicalData_LocalOnly(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t, false)

	_, err := svc.SaveMedicalData(ctx, "p1", "p1", &model.MedicalDataForm{Weight: model.StringPtr("64"), Smoker: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, mem.Rows(model.TableMedicalData))

	md, err := svc.GetMedicalData(ctx, "p1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "64", *md.Weight)
	assert.False(t, *md.Smoker)
}

func TestProfile_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, true)

	_, err := svc.GetPersonalData(ctx, "d1", "p1")
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = svc.SaveMedicalData(ctx, "d1", "d1", &model.MedicalDataForm{})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.GetMedicalData(ctx, "p1", "p1")
	assert.True(t, apperrors.IsNotFound(err))
}

func boolPtr(b bool) *bool { return &b }

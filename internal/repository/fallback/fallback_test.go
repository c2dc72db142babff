package fallback

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/jwalitptl/clinical-records/internal/cache/memory"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository/local"
	"github.com/jwalitptl/clinical-records/internal/repository/remote"
	storemem "github.com/jwalitptl/clinical-records/internal/store/memory"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
)

func grant(id, patient, doctor string) *model.SharingGrant {
	return &model.SharingGrant{
		ID: id, PatientID: patient, DoctorID: doctor,
		SharedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), IsActive: true,
	}
}

func TestNewSharing_LocalOnlyWhenRemoteDisabled(t *testing.T) {
	ctx := context.Background()
	rows := storemem.New(model.TableSharing)
	cached := local.NewSharingRepository(cachemem.New("", nil))

	repo := NewSharing(false, remote.NewSharingRepository(rows), cached, logger.Nop(), nil)
	require.NoError(t, repo.Create(ctx, grant("g1", "p1", "d1")))

	assert.Empty(t, rows.Rows(model.TableSharing))
	got, err := cached.ListActiveByDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSharing_RemoteFirst(t *testing.T) {
	ctx := context.Background()
	rows := storemem.New(model.TableSharing)
	cached := local.NewSharingRepository(cachemem.New("", nil))

	repo := NewSharing(true, remote.NewSharingRepository(rows), cached, logger.Nop(), nil)
	require.NoError(t, repo.Create(ctx, grant("g1", "p1", "d1")))

	assert.Len(t, rows.Rows(model.TableSharing), 1)
	got, err := cached.ListActiveByDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSharing_FallsBackOnUnavailableRemote(t *testing.T) {
	ctx := context.Background()
	rows := storemem.NewFaulty(storemem.New(model.TableSharing))
	rows.FailTable(model.TableSharing, apperrors.BackendUnavailable(assert.AnError))
	cached := local.NewSharingRepository(cachemem.New("", nil))
	m := metrics.New("test")

	repo := NewSharing(true, remote.NewSharingRepository(rows), cached, logger.Nop(), m)
	require.NoError(t, repo.Create(ctx, grant("g1", "p1", "d1")))

	got, err := repo.ListActiveByDoctor(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].ID)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheFallbacks.WithLabelValues("sharing")))
}

func TestProfile_FallsBackOnMissingTable(t *testing.T) {
	ctx := context.Background()
	mem := storemem.New(model.TablePersonalData, model.TableMedicalData)
	mem.DropTable(model.TablePersonalData)
	cached := local.NewProfileRepository(cachemem.New("", nil))

	repo := NewProfile(true, remote.NewProfileRepository(mem), cached, logger.Nop(), nil)
	require.NoError(t, repo.SavePersonal(ctx, &model.PersonalData{ID: "pd1", UserID: "u1", City: model.StringPtr("Recife")}))

	pd, err := repo.GetPersonal(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Recife", *pd.City)

	// medical table exists, so a miss stays a miss
	_, err = repo.GetMedical(ctx, "u1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProfile_DoesNotHideValidationErrors(t *testing.T) {
	ctx := context.Background()
	rows := storemem.NewFaulty(storemem.New(model.TablePersonalData))
	rows.FailTable(model.TablePersonalData, apperrors.Validation("bad row", nil))
	cached := local.NewProfileRepository(cachemem.New("", nil))

	repo := NewProfile(true, remote.NewProfileRepository(rows), cached, logger.Nop(), nil)
	_, err := repo.ListPersonal(ctx, []string{"u1"})
	assert.True(t, apperrors.IsValidation(err))
}

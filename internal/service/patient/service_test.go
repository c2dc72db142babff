package patient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository/remote"
	"github.com/jwalitptl/clinical-records/internal/service/assembler"
	"github.com/jwalitptl/clinical-records/internal/service/sharing"
	"github.com/jwalitptl/clinical-records/internal/store"
	storemem "github.com/jwalitptl/clinical-records/internal/store/memory"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/retry"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }
func (c *testClock) tick()          { c.t = c.t.Add(time.Minute) }

type fixture struct {
	mem   *storemem.Store
	rows  *storemem.Faulty
	clock *testClock
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storemem.New(
		model.TableUsers, model.TablePatients, model.TablePersonalData, model.TableMedicalData,
		model.TableObservations, model.TableSharing, model.TableDiagnoses,
	)
	rows := storemem.NewFaulty(mem)
	clock := &testClock{t: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	policy := retry.Policy{Attempts: 3}
	log := logger.Nop()

	repos := Repositories{
		Users:        remote.NewUserRepository(rows),
		Patients:     remote.NewPatientRepository(rows),
		Profiles:     remote.NewProfileRepository(rows),
		Observations: remote.NewObservationRepository(rows),
		Diagnoses:    remote.NewDiagnosisRepository(rows, model.TableDiagnoses),
	}
	sharingSvc := sharing.NewService(remote.NewSharingRepository(rows), log,
		sharing.WithClock(clock.now), sharing.WithRetry(policy))
	asm := assembler.New(repos.Users, repos.Patients, repos.Profiles, repos.Observations, log,
		assembler.WithClock(clock.now), assembler.WithRetry(policy))
	svc := NewService(repos, sharingSvc, asm, log, WithClock(clock.now), WithRetry(policy))

	for _, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, mem.Insert(context.Background(), model.TableUsers, store.Row{
			"id": id, "profession": "doctor", "email": id + "@clinic.org", "full_name": "Dr " + id,
		}))
	}
	return &fixture{mem: mem, rows: rows, clock: clock, svc: svc}
}

func (f *fixture) create(t *testing.T, doctorID, name string) *model.PatientView {
	t.Helper()
	f.clock.tick()
	v, err := f.svc.CreatePatient(context.Background(), doctorID, &model.CreatePatientRequest{
		Name: name, Age: 30, City: "Recife", State: "PE", Weight: 70,
	})
	require.NoError(t, err)
	return v
}

func names(page *model.PatientPage) []string {
	out := make([]string, 0, len(page.Patients))
	for _, p := range page.Patients {
		out = append(out, p.Name)
	}
	return out
}

func TestScenario_SharingMakesPatientVisible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ana := f.create(t, "d1", "Ana")

	page, err := f.svc.ListPatients(ctx, "d2", model.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Patients)

	_, err = f.svc.Share(ctx, "d1", ana.ID, "d2")
	require.NoError(t, err)

	page, err = f.svc.ListPatients(ctx, "d2", model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Patients, 1)
	shared := page.Patients[0]
	assert.Equal(t, "Ana", shared.Name)
	assert.True(t, shared.IsShared)
	assert.Nil(t, shared.DoctorID)
	assert.NotNil(t, shared.SharedID)
	assert.Equal(t, 30, *shared.Age)
	assert.Equal(t, "Recife", shared.City)
}

func TestListPatients_OwnedThenSharedWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.create(t, "d1", "Owned A")
	f.create(t, "d1", "Owned B")
	other := f.create(t, "d2", "Other")
	_, err := f.svc.Share(ctx, "d2", other.ID, "d1")
	require.NoError(t, err)
	// a second, older active row for the same pair
	require.NoError(t, f.mem.Insert(ctx, model.TableSharing, store.Row{
		"id": "dup", "doctor_id": "d1", "patient_id": other.ID, "shared_at": f.clock.t.Add(-time.Hour), "is_active": true,
	}))

	page, err := f.svc.ListPatients(ctx, "d1", model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Owned A", "Owned B", "Other"}, names(page))
	assert.NotEqual(t, "dup", *page.Patients[2].SharedID)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.ItemsPerPage)
}

func TestListPatients_Paginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.create(t, "d1", fmt.Sprintf("P%d", i))
	}

	page, err := f.svc.ListPatients(context.Background(), "d1", model.PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"P2", "P3"}, names(page))
	assert.Equal(t, model.Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 5, ItemsPerPage: 2}, page.Pagination)
}

func TestRevoke_RemovesPatientAndKeepsAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	first, err := f.svc.Share(ctx, ana.ID, ana.ID, "d2")
	require.NoError(t, err)
	require.NoError(t, f.svc.Unshare(ctx, "d1", ana.ID, "d2"))

	page, err := f.svc.ListPatients(ctx, "d2", model.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Patients)

	rows := f.mem.Rows(model.TableSharing)
	require.Len(t, rows, 1)
	assert.Equal(t, false, rows[0]["is_active"])

	f.clock.tick()
	second, err := f.svc.Share(ctx, "d1", ana.ID, "d2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.SharedAt.After(first.SharedAt))
	assert.Len(t, f.mem.Rows(model.TableSharing), 2)
}

func TestShare_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	_, err := f.svc.Share(ctx, "d3", ana.ID, "d2")
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = f.svc.Share(ctx, "d1", ana.ID, "nobody")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Share(ctx, "d1", ana.ID, "d2")
	require.NoError(t, err)

	// the grantee may stop following the patient
	require.NoError(t, f.svc.Unshare(ctx, "d2", ana.ID, "d2"))
	assert.True(t, apperrors.IsUnauthorized(f.svc.Unshare(ctx, "d3", ana.ID, "d2")))
}

func TestGetPatient_VisibilityIsNotLeaked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	_, err := f.svc.GetPatient(ctx, "d2", ana.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.GetPatient(ctx, "d2", "does-not-exist")
	assert.True(t, apperrors.IsNotFound(err))

	v, err := f.svc.GetPatient(ctx, "d1", ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, "d1", *v.DoctorID)
}

func TestCreatePatient_Validation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]model.CreatePatientRequest{
		"blank name":  {Name: "  ", Age: 3, City: "c", State: "s", Weight: 1},
		"zero age":    {Name: "n", Age: 0, City: "c", State: "s", Weight: 1},
		"no city":     {Name: "n", Age: 3, State: "s", Weight: 1},
		"no state":    {Name: "n", Age: 3, City: "c", Weight: 1},
		"zero weight": {Name: "n", Age: 3, City: "c", State: "s"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			req := req
			_, err := f.svc.CreatePatient(context.Background(), "d1", &req)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	assert.Empty(t, f.mem.Rows(model.TablePatients))
}

func TestCreatePatient_BestEffortSubRecords(t *testing.T) {
	f := newFixture(t)
	f.rows.FailTable(model.TableMedicalData, apperrors.BackendUnavailable(assert.AnError))

	v, err := f.svc.CreatePatient(context.Background(), "d1", &model.CreatePatientRequest{
		Name: "Ana", Age: 40, City: "Natal", State: "RN", Weight: 61.5, Notes: "allergic",
		BirthDate: model.StringPtr("1990-01-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, 34, *v.Age)
	assert.Equal(t, "Natal", v.City)
	assert.Nil(t, v.Weight)
	assert.Equal(t, "allergic", v.Notes)
	assert.Len(t, f.mem.Rows(model.TablePatients), 1)
}

func TestUpdatePatient_MergesProvidedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	v, err := f.svc.UpdatePatient(ctx, "d1", ana.ID, &model.UpdatePatientRequest{
		City:   model.StringPtr("Olinda"),
		Weight: floatPtr(72.25),
		Notes:  model.StringPtr("new note"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", v.Name)
	assert.Equal(t, "Olinda", v.City)
	assert.Equal(t, "PE", v.State)
	assert.Equal(t, 30, *v.Age)
	assert.Equal(t, 72.25, *v.Weight)
	assert.Equal(t, "new note", v.Notes)

	v, err = f.svc.UpdatePatient(ctx, "d1", ana.ID, &model.UpdatePatientRequest{Name: model.StringPtr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", v.Name)
	assert.Equal(t, "new note", v.Notes)
}

func TestUpdatePatient_FailedMergeKeepsName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	f.rows.FailTable(model.TablePersonalData, apperrors.BackendUnavailable(errors.New("connection reset")))
	_, err := f.svc.UpdatePatient(ctx, "d1", ana.ID, &model.UpdatePatientRequest{
		Name: model.StringPtr("Ana Maria"),
		City: model.StringPtr("Olinda"),
	})
	assert.True(t, apperrors.IsBackendUnavailable(err))

	rows := f.mem.Rows(model.TablePatients)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["name"])

	f.rows.FailTable(model.TablePersonalData, nil)
	v, err := f.svc.UpdatePatient(ctx, "d1", ana.ID, &model.UpdatePatientRequest{Name: model.StringPtr("Ana Maria")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", v.Name)
}

func TestUpdatePatient_SharedDoctorNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	_, err := f.svc.UpdatePatient(ctx, "d2", ana.ID, &model.UpdatePatientRequest{Notes: model.StringPtr("x")})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = f.svc.Share(ctx, "d1", ana.ID, "d2")
	require.NoError(t, err)

	v, err := f.svc.UpdatePatient(ctx, "d2", ana.ID, &model.UpdatePatientRequest{Notes: model.StringPtr("second opinion")})
	require.NoError(t, err)
	assert.Equal(t, "second opinion", v.Notes)

	_, err = f.svc.UpdatePatient(ctx, "d2", ana.ID, &model.UpdatePatientRequest{Name: model.StringPtr("Other")})
	assert.True(t, apperrors.IsValidation(err))

	// each doctor keeps a private note
	own, err := f.svc.GetPatient(ctx, "d1", ana.ID)
	require.NoError(t, err)
	assert.Empty(t, own.Notes)
}

func TestDeletePatients_OnlyOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mine := f.create(t, "d1", "Mine")
	theirs := f.create(t, "d2", "Theirs")
	_, err := f.svc.UpdatePatient(ctx, "d1", mine.ID, &model.UpdatePatientRequest{Notes: model.StringPtr("n")})
	require.NoError(t, err)
	_, err = f.svc.Share(ctx, "d1", mine.ID, "d2")
	require.NoError(t, err)

	n, err := f.svc.DeletePatients(ctx, "d1", []string{mine.ID, theirs.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Len(t, f.mem.Rows(model.TablePatients), 1)
	assert.Empty(t, f.mem.Rows(model.TableObservations))
	assert.Len(t, f.mem.Rows(model.TableSharing), 1, "grants outlive the record")

	_, err = f.svc.DeletePatients(ctx, "d1", nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestListPatients_BackendUnavailableAfterRetries(t *testing.T) {
	f := newFixture(t)
	f.create(t, "d1", "Ana")
	f.rows.FailTable(model.TableSharing, apperrors.BackendUnavailable(assert.AnError))
	f.rows.ResetCounts()

	_, err := f.svc.ListPatients(context.Background(), "d1", model.PageRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsBackendUnavailable(err))
	assert.Equal(t, 3, f.rows.Queries(model.TableSharing))
}

func TestListPatients_DegradesOnMissingOptionalData(t *testing.T) {
	f := newFixture(t)
	f.create(t, "d1", "Ana")
	f.rows.FailTable(model.TablePersonalData, apperrors.SchemaMismatch(model.TablePersonalData, nil))

	page, err := f.svc.ListPatients(context.Background(), "d1", model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Patients, 1)
	assert.Nil(t, page.Patients[0].Age)
	assert.Equal(t, assembler.NotAvailable, page.Patients[0].City)
}

func TestDiagnoses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")

	_, err := f.svc.AddDiagnosis(ctx, "d2", ana.ID, &model.CreateDiagnosisRequest{Diagnosis: "flu"})
	assert.True(t, apperrors.IsUnauthorized(err))

	first, err := f.svc.AddDiagnosis(ctx, "d1", ana.ID, &model.CreateDiagnosisRequest{Diagnosis: "flu", Code: "J11"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", first.Date)

	f.clock.tick()
	_, err = f.svc.AddDiagnosis(ctx, "d1", ana.ID, &model.CreateDiagnosisRequest{Diagnosis: "cold", Date: "2024-06-01"})
	require.NoError(t, err)

	_, err = f.svc.AddDiagnosis(ctx, "d1", ana.ID, &model.CreateDiagnosisRequest{Diagnosis: "x", Date: "15/06/2024"})
	assert.True(t, apperrors.IsValidation(err))

	list, err := f.svc.ListDiagnoses(ctx, "d1", ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cold", list[0].Diagnosis)

	_, err = f.svc.ListDiagnoses(ctx, "d2", ana.ID)
	assert.True(t, apperrors.IsNotFound(err))

	assert.True(t, apperrors.Is(f.svc.UpdateDiagnosis(ctx, "d1", ana.ID, first.ID), apperrors.ErrNotImplemented))
	assert.True(t, apperrors.Is(f.svc.DeleteDiagnosis(ctx, "d1", ana.ID, first.ID), apperrors.ErrNotImplemented))
}

func TestDiagnoses_MissingTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ana := f.create(t, "d1", "Ana")
	f.mem.DropTable(model.TableDiagnoses)

	list, err := f.svc.ListDiagnoses(ctx, "d1", ana.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.AddDiagnosis(ctx, "d1", ana.ID, &model.CreateDiagnosisRequest{Diagnosis: "flu"})
	assert.True(t, apperrors.IsSchemaMismatch(err))
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "70", formatWeight(70))
	assert.Equal(t, "61.5", formatWeight(61.5))
	assert.Equal(t, "72.25", formatWeight(72.25))
}

func floatPtr(f float64) *float64 { return &f }

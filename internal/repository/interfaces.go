package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/clinical-records/internal/model"
)

// All repository interfaces in one file. Single-row getters return a
// NotFound error when the row is absent.
type (
	UserRepository interface {
		Get(ctx context.Context, id string) (*model.User, error)
		ListByIDs(ctx context.Context, ids []string) ([]*model.User, error)
		ListDoctors(ctx context.Context) ([]*model.User, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.PatientRecord) error
		Get(ctx context.Context, id string) (*model.PatientRecord, error)
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.PatientRecord, error)
		ListByIDs(ctx context.Context, ids []string) ([]*model.PatientRecord, error)
		UpdateName(ctx context.Context, id, name string, at time.Time) error
		DeleteOwned(ctx context.Context, doctorID string, ids []string) error
	}

	ProfileRepository interface {
		GetPersonal(ctx context.Context, userID string) (*model.PersonalData, error)
		ListPersonal(ctx context.Context, userIDs []string) ([]*model.PersonalData, error)
		SavePersonal(ctx context.Context, data *model.PersonalData) error
		GetMedical(ctx context.Context, userID string) (*model.MedicalData, error)
		ListMedical(ctx context.Context, userIDs []string) ([]*model.MedicalData, error)
		SaveMedical(ctx context.Context, data *model.MedicalData) error
	}

	ObservationRepository interface {
		ListForDoctor(ctx context.Context, doctorID string, patientIDs []string) ([]*model.Observation, error)
		Upsert(ctx context.Context, obs *model.Observation) error
		DeleteForDoctor(ctx context.Context, doctorID string, patientIDs []string) error
	}

	SharingRepository interface {
		Create(ctx context.Context, grant *model.SharingGrant) error
		Deactivate(ctx context.Context, patientID, doctorID string) error
		ListByPair(ctx context.Context, patientID, doctorID string) ([]*model.SharingGrant, error)
		ListActiveByDoctor(ctx context.Context, doctorID string) ([]*model.SharingGrant, error)
		ListActiveByPatient(ctx context.Context, patientID string) ([]*model.SharingGrant, error)
	}

	DiagnosisRepository interface {
		Create(ctx context.Context, diagnosis *model.Diagnosis) error
		// ListByPatient returns newest first.
		ListByPatient(ctx context.Context, patientID string) ([]*model.Diagnosis, error)
	}
)

package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
)

type patientRepository struct {
	rows store.RowStore
}

func NewPatientRepository(rows store.RowStore) repository.PatientRepository {
	return &patientRepository{rows: rows}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.PatientRecord) error {
	err := r.rows.Insert(ctx, model.TablePatients, store.Row{
		"id":         patient.ID,
		"doctor_id":  patient.DoctorID,
		"name":       patient.Name,
		"status":     string(patient.Status),
		"created_at": patient.CreatedAt,
		"updated_at": patient.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id string) (*model.PatientRecord, error) {
	row, err := r.rows.QueryOne(ctx, model.TablePatients, store.Where(store.Eq("id", id)))
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	var p model.PatientRecord
	if err := repository.DecodeRow(row, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.PatientRecord, error) {
	rows, err := r.rows.Query(ctx, model.TablePatients,
		store.Where(store.Eq("doctor_id", doctorID)),
		&store.Order{Column: "created_at"})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return repository.DecodeRows[model.PatientRecord](rows)
}

func (r *patientRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.PatientRecord, error) {
	rows, err := r.rows.Query(ctx, model.TablePatients, store.Where(store.In("id", ids)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return repository.DecodeRows[model.PatientRecord](rows)
}

func (r *patientRepository) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	err := r.rows.Update(ctx, model.TablePatients,
		store.Where(store.Eq("id", id)),
		store.Row{"name": name, "updated_at": at})
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return nil
}

func (r *patientRepository) DeleteOwned(ctx context.Context, doctorID string, ids []string) error {
	err := r.rows.Delete(ctx, model.TablePatients,
		store.Where(store.Eq("doctor_id", doctorID), store.In("id", ids)))
	if err != nil {
		return fmt.Errorf("failed to delete patients: %w", err)
	}
	return nil
}

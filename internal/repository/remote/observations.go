package remote

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

type observationRepository struct {
	rows store.RowStore
}

func NewObservationRepository(rows store.RowStore) repository.ObservationRepository {
	return &observationRepository{rows: rows}
}

func (r *observationRepository) ListForDoctor(ctx context.Context, doctorID string, patientIDs []string) ([]*model.Observation, error) {
	rows, err := r.rows.Query(ctx, model.TableObservations,
		store.Where(store.Eq("doctor_id", doctorID), store.In("patient_id", patientIDs)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return repository.DecodeRows[model.Observation](rows)
}

// Upsert keeps one observation per (patient, doctor); the last write wins.
func (r *observationRepository) Upsert(ctx context.Context, obs *model.Observation) error {
	filter := store.Where(store.Eq("patient_id", obs.PatientID), store.Eq("doctor_id", obs.DoctorID))

	_, err := r.rows.QueryOne(ctx, model.TableObservations, filter)
	switch {
	case err == nil:
		err = r.rows.Update(ctx, model.TableObservations, filter, store.Row{
			"observation": obs.Text,
			"updated_at":  obs.UpdatedAt,
		})
	case apperrors.IsNotFound(err):
		err = r.rows.Insert(ctx, model.TableObservations, store.Row{
			"id":          obs.ID,
			"patient_id":  obs.PatientID,
			"doctor_id":   obs.DoctorID,
			"observation": obs.Text,
			"created_at":  obs.CreatedAt,
			"updated_at":  obs.UpdatedAt,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

func (r *observationRepository) DeleteForDoctor(ctx context.Context, doctorID string, patientIDs []string) error {
	err := r.rows.Delete(ctx, model.TableObservations,
		store.Where(store.Eq("doctor_id", doctorID), store.In("patient_id", patientIDs)))
	if err != nil {
		return fmt.Errorf("failed to delete observations: %w", err)
	}
	return nil
}

package remote

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
)

type diagnosisRepository struct {
	rows  store.RowStore
	table string
}

// NewDiagnosisRepository stores diagnoses in table, which depends on the
// deployment.
func NewDiagnosisRepository(rows store.RowStore, table string) repository.DiagnosisRepository {
	if table == "" {
		table = model.TableDiagnoses
	}
	return &diagnosisRepository{rows: rows, table: table}
}

func (r *diagnosisRepository) Create(ctx context.Context, d *model.Diagnosis) error {
	err := r.rows.Insert(ctx, r.table, store.Row{
		"id":         d.ID,
		"patient_id": d.PatientID,
		"doctor_id":  d.DoctorID,
		"date":       d.Date,
		"code":       d.Code,
		"diagnosis":  d.Diagnosis,
		"created_at": d.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to add diagnosis: %w", err)
	}
	return nil
}

func (r *diagnosisRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Diagnosis, error) {
	rows, err := r.rows.Query(ctx, r.table,
		store.Where(store.Eq("patient_id", patientID)),
		&store.Order{Column: "created_at", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	return repository.DecodeRows[model.Diagnosis](rows)
}

package remote

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
)

type sharingRepository struct {
	rows store.RowStore
}

func NewSharingRepository(rows store.RowStore) repository.SharingRepository {
	return &sharingRepository{rows: rows}
}

func (r *sharingRepository) Create(ctx context.Context, grant *model.SharingGrant) error {
	err := r.rows.Insert(ctx, model.TableSharing, store.Row{
		"id":         grant.ID,
		"doctor_id":  grant.DoctorID,
		"patient_id": grant.PatientID,
		"shared_at":  grant.SharedAt,
		"is_active":  grant.IsActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create sharing grant: %w", err)
	}
	return nil
}

func (r *sharingRepository) Deactivate(ctx context.Context, patientID, doctorID string) error {
	err := r.rows.Update(ctx, model.TableSharing,
		store.Where(store.Eq("patient_id", patientID), store.Eq("doctor_id", doctorID)),
		store.Row{"is_active": false})
	if err != nil {
		return fmt.Errorf("failed to deactivate sharing grant: %w", err)
	}
	return nil
}

func (r *sharingRepository) ListByPair(ctx context.Context, patientID, doctorID string) ([]*model.SharingGrant, error) {
	return r.list(ctx, store.Where(store.Eq("patient_id", patientID), store.Eq("doctor_id", doctorID)))
}

func (r *sharingRepository) ListActiveByDoctor(ctx context.Context, doctorID string) ([]*model.SharingGrant, error) {
	return r.list(ctx, store.Where(store.Eq("doctor_id", doctorID), store.Eq("is_active", true)))
}

func (r *sharingRepository) ListActiveByPatient(ctx context.Context, patientID string) ([]*model.SharingGrant, error) {
	return r.list(ctx, store.Where(store.Eq("patient_id", patientID), store.Eq("is_active", true)))
}

func (r *sharingRepository) list(ctx context.Context, filter store.Filter) ([]*model.SharingGrant, error) {
	rows, err := r.rows.Query(ctx, model.TableSharing, filter, &store.Order{Column: "shared_at"})
	if err != nil {
		return nil, fmt.Errorf("failed to list sharing grants: %w", err)
	}
	return repository.DecodeRows[model.SharingGrant](rows)
}

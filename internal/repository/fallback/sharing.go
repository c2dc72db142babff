package fallback

import (
	"context"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
)

type sharingRepository struct {
	base
	remote repository.SharingRepository
	local  repository.SharingRepository
}

func (r *sharingRepository) Create(ctx context.Context, grant *model.SharingGrant) error {
	err := r.remote.Create(ctx, grant)
	if shouldFallback(err) {
		r.fellBack("create", err)
		return r.local.Create(ctx, grant)
	}
	return err
}

func (r *sharingRepository) Deactivate(ctx context.Context, patientID, doctorID string) error {
	err := r.remote.Deactivate(ctx, patientID, doctorID)
	if shouldFallback(err) {
		r.fellBack("deactivate", err)
		return r.local.Deactivate(ctx, patientID, doctorID)
	}
	return err
}

func (r *sharingRepository) ListByPair(ctx context.Context, patientID, doctorID string) ([]*model.SharingGrant, error) {
	grants, err := r.remote.ListByPair(ctx, patientID, doctorID)
	if shouldFallback(err) {
		r.fellBack("list_by_pair", err)
		return r.local.ListByPair(ctx, patientID, doctorID)
	}
	return grants, err
}

func (r *sharingRepository) ListActiveByDoctor(ctx context.Context, doctorID string) ([]*model.SharingGrant, error) {
	grants, err := r.remote.ListActiveByDoctor(ctx, doctorID)
	if shouldFallback(err) {
		r.fellBack("list_active_by_doctor", err)
		return r.local.ListActiveByDoctor(ctx, doctorID)
	}
	return grants, err
}

func (r *sharingRepository) ListActiveByPatient(ctx context.Context, patientID string) ([]*model.SharingGrant, error) {
	grants, err := r.remote.ListActiveByPatient(ctx, patientID)
	if shouldFallback(err) {
		r.fellBack("list_active_by_patient", err)
		return r.local.ListActiveByPatient(ctx, patientID)
	}
	return grants, err
}

package fallback

import (
	"context"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
)

type profileRepository struct {
	base
	remote repository.ProfileRepository
	local  repository.ProfileRepository
}

func (r *profileRepository) GetPersonal(ctx context.Context, userID string) (*model.PersonalData, error) {
	pd, err := r.remote.GetPersonal(ctx, userID)
	if shouldFallback(err) {
		r.fellBack("get_personal", err)
		return r.local.GetPersonal(ctx, userID)
	}
	return pd, err
}

func (r *profileRepository) ListPersonal(ctx context.Context, userIDs []string) ([]*model.PersonalData, error) {
	list, err := r.remote.ListPersonal(ctx, userIDs)
	if shouldFallback(err) {
		r.fellBack("list_personal", err)
		return r.local.ListPersonal(ctx, userIDs)
	}
	return list, err
}

func (r *profileRepository) SavePersonal(ctx context.Context, data *model.PersonalData) error {
	err := r.remote.SavePersonal(ctx, data)
	if shouldFallback(err) {
		r.fellBack("save_personal", err)
		return r.local.SavePersonal(ctx, data)
	}
	return err
}

func (r *profileRepository) GetMedical(ctx context.Context, userID string) (*model.MedicalData, error) {
	md, err := r.remote.GetMedical(ctx, userID)
	if shouldFallback(err) {
		r.fellBack("get_medical", err)
		return r.local.GetMedical(ctx, userID)
	}
	return md, err
}

func (r *profileRepository) ListMedical(ctx context.Context, userIDs []string) ([]*model.MedicalData, error) {
	list, err := r.remote.ListMedical(ctx, userIDs)
	if shouldFallback(err) {
		r.fellBack("list_medical", err)
		return r.local.ListMedical(ctx, userIDs)
	}
	return list, err
}

func (r *profileRepository) SaveMedical(ctx context.Context, data *model.MedicalData) error {
	err := r.remote.SaveMedical(ctx, data)
	if shouldFallback(err) {
		r.fellBack("save_medical", err)
		return r.local.SaveMedical(ctx, data)
	}
	return err
}

package local

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/cache"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

type profileRepository struct {
	cache cache.Cache
}

func NewProfileRepository(c cache.Cache) repository.ProfileRepository {
	return &profileRepository{cache: c}
}

func (r *profileRepository) loadPersonal(ctx context.Context) ([]*model.PersonalData, error) {
	var all []*model.PersonalData
	if _, err := cache.GetJSON(ctx, r.cache, KeyPersonalData, &all); err != nil {
		return nil, fmt.Errorf("failed to load personal data: %w", err)
	}
	return all, nil
}

func (r *profileRepository) loadMedical(ctx context.Context) ([]*model.MedicalData, error) {
	var all []*model.MedicalData
	if _, err := cache.GetJSON(ctx, r.cache, KeyMedicalData, &all); err != nil {
		return nil, fmt.Errorf("failed to load medical data: %w", err)
	}
	return all, nil
}

func (r *profileRepository) GetPersonal(ctx context.Context, userID string) (*model.PersonalData, error) {
	all, err := r.loadPersonal(ctx)
	if err != nil {
		return nil, err
	}
	for _, pd := range all {
		if pd.UserID == userID {
			return pd, nil
		}
	}
	return nil, apperrors.NotFound("personal data", nil)
}

func (r *profileRepository) ListPersonal(ctx context.Context, userIDs []string) ([]*model.PersonalData, error) {
	all, err := r.loadPersonal(ctx)
	if err != nil {
		return nil, err
	}
	want := toSet(userIDs)
	var out []*model.PersonalData
	for _, pd := range all {
		if want[pd.UserID] {
			out = append(out, pd)
		}
	}
	return out, nil
}

func (r *profileRepository) SavePersonal(ctx context.Context, data *model.PersonalData) error {
	all, err := r.loadPersonal(ctx)
	if err != nil {
		return err
	}
	stored := *data
	replaced := false
	for i, pd := range all {
		if pd.UserID == data.UserID {
			stored.ID = pd.ID
			stored.CreatedAt = pd.CreatedAt
			all[i] = &stored
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, &stored)
	}
	if err := cache.SetJSON(ctx, r.cache, KeyPersonalData, all); err != nil {
		return fmt.Errorf("failed to store personal data: %w", err)
	}
	return nil
}

func (r *profileRepository) GetMedical(ctx context.Context, userID string) (*model.MedicalData, error) {
	all, err := r.loadMedical(ctx)
	if err != nil {
		return nil, err
	}
	for _, md := range all {
		if md.UserID == userID {
			return md, nil
		}
	}
	return nil, apperrors.NotFound("medical data", nil)
}

func (r *profileRepository) ListMedical(ctx context.Context, userIDs []string) ([]*model.MedicalData, error) {
	all, err := r.loadMedical(ctx)
	if err != nil {
		return nil, err
	}
	want := toSet(userIDs)
	var out []*model.MedicalData
	for _, md := range all {
		if want[md.UserID] {
			out = append(out, md)
		}
	}
	return out, nil
}

func (r *profileRepository) SaveMedical(ctx context.Context, data *model.MedicalData) error {
	all, err := r.loadMedical(ctx)
	if err != nil {
		return err
	}
	stored := *data
	replaced := false
	for i, md := range all {
		if md.UserID == data.UserID {
			stored.ID = md.ID
			stored.CreatedAt = md.CreatedAt
			all[i] = &stored
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, &stored)
	}
	if err := cache.SetJSON(ctx, r.cache, KeyMedicalData, all); err != nil {
		return fmt.Errorf("failed to store medical data: %w", err)
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

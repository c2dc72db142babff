// Package local implements the sharing and profile repositories on the
// device cache. Each collection is one JSON array under a fixed key.
package local

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwalitptl/clinical-records/internal/cache"
	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
)

const (
	KeySharedData   = "shared_data"
	KeyPersonalData = "patient_personal"
	KeyMedicalData  = "patient_medical"
)

type sharingRepository struct {
	cache cache.Cache
}

func NewSharingRepository(c cache.Cache) repository.SharingRepository {
	return &sharingRepository{cache: c}
}

func (r *sharingRepository) load(ctx context.Context) ([]*model.SharingGrant, error) {
	var grants []*model.SharingGrant
	if _, err := cache.GetJSON(ctx, r.cache, KeySharedData, &grants); err != nil {
		return nil, fmt.Errorf("failed to load shared data: %w", err)
	}
	return grants, nil
}

func (r *sharingRepository) save(ctx context.Context, grants []*model.SharingGrant) error {
	if err := cache.SetJSON(ctx, r.cache, KeySharedData, grants); err != nil {
		return fmt.Errorf("failed to store shared data: %w", err)
	}
	return nil
}

func (r *sharingRepository) Create(ctx context.Context, grant *model.SharingGrant) error {
	grants, err := r.load(ctx)
	if err != nil {
		return err
	}
	g := *grant
	return r.save(ctx, append(grants, &g))
}

func (r *sharingRepository) Deactivate(ctx context.Context, patientID, doctorID string) error {
	grants, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, g := range grants {
		if g.PatientID == patientID && g.DoctorID == doctorID {
			g.IsActive = false
		}
	}
	return r.save(ctx, grants)
}

func (r *sharingRepository) ListByPair(ctx context.Context, patientID, doctorID string) ([]*model.SharingGrant, error) {
	return r.filter(ctx, func(g *model.SharingGrant) bool {
		return g.PatientID == patientID && g.DoctorID == doctorID
	})
}

func (r *sharingRepository) ListActiveByDoctor(ctx context.Context, doctorID string) ([]*model.SharingGrant, error) {
	return r.filter(ctx, func(g *model.SharingGrant) bool {
		return g.DoctorID == doctorID && g.IsActive
	})
}

func (r *sharingRepository) ListActiveByPatient(ctx context.Context, patientID string) ([]*model.SharingGrant, error) {
	return r.filter(ctx, func(g *model.SharingGrant) bool {
		return g.PatientID == patientID && g.IsActive
	})
}

func (r *sharingRepository) filter(ctx context.Context, keep func(*model.SharingGrant) bool) ([]*model.SharingGrant, error) {
	grants, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.SharingGrant, 0, len(grants))
	for _, g := range grants {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SharedAt.Before(out[j].SharedAt) })
	return out, nil
}

// Package sharing manages the doctor-patient sharing graph. Grants are
// never hard-deleted; revoking flips isActive and a later grant creates a
// new row.
package sharing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/retry"
)

type Service struct {
	repo  repository.SharingRepository
	retry retry.Policy
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRetry(p retry.Policy) Option {
	return func(s *Service) { s.retry = p }
}

func NewService(repo repository.SharingRepository, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repo:  repo,
		retry: retry.DefaultPolicy(),
		log:   log.With("sharing"),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grant returns the active grant for the pair, creating one if none exists.
func (s *Service) Grant(ctx context.Context, patientID, doctorID string) (*model.SharingGrant, error) {
	if err := validatePair(patientID, doctorID); err != nil {
		return nil, err
	}

	if existing, err := s.ActiveGrant(ctx, doctorID, patientID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	grant := &model.SharingGrant{
		ID:        s.newID(),
		DoctorID:  doctorID,
		PatientID: patientID,
		SharedAt:  s.now().UTC(),
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant access: %w", err)
	}

	s.log.Info("sharing granted", "grant_id", grant.ID, "patient_id", patientID, "doctor_id", doctorID)
	return grant, nil
}

// Revoke deactivates every grant for the pair. It reports NotFound when
// the pair has no active grant.
func (s *Service) Revoke(ctx context.Context, patientID, doctorID string) error {
	if err := validatePair(patientID, doctorID); err != nil {
		return err
	}

	active, err := s.ActiveGrant(ctx, doctorID, patientID)
	if err != nil {
		return err
	}
	if active == nil {
		return apperrors.NotFound("sharing grant", nil)
	}

	if err := s.repo.Deactivate(ctx, patientID, doctorID); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	s.log.Info("sharing revoked", "patient_id", patientID, "doctor_id", doctorID)
	return nil
}

// ListActiveForDoctor returns one grant per shared patient, the most
// recently shared one winning.
func (s *Service) ListActiveForDoctor(ctx context.Context, doctorID string) ([]*model.SharingGrant, error) {
	var grants []*model.SharingGrant
	err := retry.Do(ctx, s.retry, func() (err error) {
		grants, err = s.repo.ListActiveByDoctor(ctx, doctorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list grants for doctor: %w", err)
	}
	return Latest(grants, func(g *model.SharingGrant) string { return g.PatientID }), nil
}

// ListActiveForPatient returns one grant per doctor that can see the patient.
func (s *Service) ListActiveForPatient(ctx context.Context, patientID string) ([]*model.SharingGrant, error) {
	var grants []*model.SharingGrant
	err := retry.Do(ctx, s.retry, func() (err error) {
		grants, err = s.repo.ListActiveByPatient(ctx, patientID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list grants for patient: %w", err)
	}
	return Latest(grants, func(g *model.SharingGrant) string { return g.DoctorID }), nil
}

// ActiveGrant returns the latest active grant for the pair, or nil.
func (s *Service) ActiveGrant(ctx context.Context, doctorID, patientID string) (*model.SharingGrant, error) {
	var grants []*model.SharingGrant
	err := retry.Do(ctx, s.retry, func() (err error) {
		grants, err = s.repo.ListByPair(ctx, patientID, doctorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up grant: %w", err)
	}

	var latest *model.SharingGrant
	for _, g := range grants {
		if g.IsActive && (latest == nil || g.SharedAt.After(latest.SharedAt)) {
			latest = g
		}
	}
	return latest, nil
}

// Latest keeps, per key, the grant with the greatest SharedAt. The result
// follows the order in which keys first appear.
func Latest(grants []*model.SharingGrant, key func(*model.SharingGrant) string) []*model.SharingGrant {
	index := make(map[string]int, len(grants))
	out := make([]*model.SharingGrant, 0, len(grants))
	for _, g := range grants {
		k := key(g)
		if i, ok := index[k]; ok {
			if g.SharedAt.After(out[i].SharedAt) {
				out[i] = g
			}
			continue
		}
		index[k] = len(out)
		out = append(out, g)
	}
	return out
}

func validatePair(patientID, doctorID string) error {
	if strings.TrimSpace(patientID) == "" {
		return apperrors.Validation("patient id is required", nil)
	}
	if strings.TrimSpace(doctorID) == "" {
		return apperrors.Validation("doctor id is required", nil)
	}
	return nil
}

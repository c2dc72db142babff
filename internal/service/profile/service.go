// Package profile lets a patient read and edit their own personal and
// medical data through the configured profile storage.
package profile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/validator"
)

type Service struct {
	profiles  repository.ProfileRepository
	users     repository.UserRepository
	validator validator.Validator
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(profiles repository.ProfileRepository, users repository.UserRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		profiles:  profiles,
		users:     users,
		validator: validator.New(),
		log:       log.With("profile"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// authorize requires the caller to be the patient. Users unknown to the
// row store are accepted so local-only deployments keep working.
func (s *Service) authorize(ctx context.Context, callerID, userID string) error {
	if callerID == "" || callerID != userID {
		return apperrors.Unauthorized("profile data is only available to its owner")
	}
	u, err := s.users.Get(ctx, callerID)
	switch {
	case err == nil && u.IsDoctor():
		return apperrors.Unauthorized("doctors do not have a patient profile")
	case err != nil && !apperrors.IsNotFound(err) && !apperrors.IsBackendUnavailable(err) && !apperrors.IsSchemaMismatch(err):
		return err
	}
	return nil
}

func (s *Service) GetPersonalData(ctx context.Context, callerID, userID string) (*model.PersonalData, error) {
	if err := s.authorize(ctx, callerID, userID); err != nil {
		return nil, err
	}
	return s.profiles.GetPersonal(ctx, userID)
}

// SavePersonalData merges form into the stored row, creating it if needed.
func (s *Service) SavePersonalData(ctx context.Context, callerID, userID string, form *model.PersonalDataForm) (*model.PersonalData, error) {
	if form == nil {
		return nil, apperrors.Validation("personal data is required", nil)
	}
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	pd, err := s.profiles.GetPersonal(ctx, userID)
	if apperrors.IsNotFound(err) {
		pd, err = &model.PersonalData{ID: s.newID(), UserID: userID, CreatedAt: now}, nil
	}
	if err != nil {
		return nil, err
	}

	form.Apply(pd)
	pd.UpdatedAt = now
	if err := s.profiles.SavePersonal(ctx, pd); err != nil {
		return nil, err
	}

	s.log.Info("personal data saved", "user_id", userID)
	return pd, nil
}

func (s *Service) GetMedicalData(ctx context.Context, callerID, userID string) (*model.MedicalData, error) {
	if err := s.authorize(ctx, callerID, userID); err != nil {
		return nil, err
	}
	return s.profiles.GetMedical(ctx, userID)
}

// SaveMedicalData merges form into the stored row, creating it if needed.
func (s *Service) SaveMedicalData(ctx context.Context, callerID, userID string, form *model.MedicalDataForm) (*model.MedicalData, error) {
	if form == nil {
		return nil, apperrors.Validation("medical data is required", nil)
	}
	if err := s.validator.Validate(form); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, callerID, userID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	md, err := s.profiles.GetMedical(ctx, userID)
	if apperrors.IsNotFound(err) {
		md, err = &model.MedicalData{ID: s.newID(), UserID: userID, CreatedAt: now}, nil
	}
	if err != nil {
		return nil, err
	}

	form.Apply(md)
	md.UpdatedAt = now
	if err := s.profiles.SaveMedical(ctx, md); err != nil {
		return nil, err
	}

	s.log.Info("medical data saved", "user_id", userID)
	return md, nil
}

// Package doctor serves the doctor directory and the list of doctors a
// patient has shared their record with.
package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/service/sharing"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
)

// NoRegisteredName is shown for doctors who never filled in their name.
const NoRegisteredName = "No registered name"

type Service struct {
	users   repository.UserRepository
	sharing *sharing.Service
	log     *logger.Logger
}

func NewService(users repository.UserRepository, sharingSvc *sharing.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{users: users, sharing: sharingSvc, log: log.With("doctor")}
}

// SearchDoctors matches query case-insensitively against name, CRM,
// "CRM-STATE", specialty, state and city, or against every word of the
// name. An empty query returns all doctors.
func (s *Service) SearchDoctors(ctx context.Context, query string) ([]*model.Doctor, error) {
	users, err := s.users.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	term := strings.ToLower(strings.TrimSpace(query))
	out := make([]*model.Doctor, 0, len(users))
	for _, u := range users {
		d := ToDoctor(u)
		if term == "" || matches(d, term) {
			out = append(out, d)
		}
	}
	return out, nil
}

// SharedDoctors returns the doctors holding an active grant on the
// patient. Only the patient may ask.
func (s *Service) SharedDoctors(ctx context.Context, callerID, patientID string) ([]*model.Doctor, error) {
	if callerID == "" || callerID != patientID {
		return nil, apperrors.Unauthorized("only the patient can list who has access")
	}

	grants, err := s.sharing.ListActiveForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return []*model.Doctor{}, nil
	}

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.DoctorID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load shared doctors: %w", err)
	}

	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*model.Doctor, 0, len(grants))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			s.log.Debug("grant points at an unknown doctor", "doctor_id", id, "patient_id", patientID)
			continue
		}
		out = append(out, ToDoctor(u))
	}
	return out, nil
}

// ToDoctor maps a doctor user to its directory entry.
func ToDoctor(u *model.User) *model.Doctor {
	name := strings.TrimSpace(model.StringValue(u.FullName))
	if name == "" {
		name = NoRegisteredName
	}
	return &model.Doctor{
		ID:        u.ID,
		Name:      name,
		CRM:       model.StringValue(u.CRM),
		State:     model.StringValue(u.State),
		Specialty: model.StringValue(u.Specialty),
		Email:     u.Email,
		City:      model.StringValue(u.City),
		CreatedAt: u.CreatedAt,
	}
}

func matches(d *model.Doctor, term string) bool {
	name := strings.ToLower(d.Name)
	fields := []string{
		name,
		strings.ToLower(d.CRM),
		strings.ToLower(d.CRM + "-" + d.State),
		strings.ToLower(d.Specialty),
		strings.ToLower(d.State),
		strings.ToLower(d.City),
	}
	for _, f := range fields {
		if f != "" && strings.Contains(f, term) {
			return true
		}
	}

	for _, word := range strings.Fields(term) {
		if !strings.Contains(name, word) {
			return false
		}
	}
	return true
}

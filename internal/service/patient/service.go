// Package patient is the reconciliation entry point: it decides which
// patients a doctor can see, assembles their views, and gates every
// mutation on ownership or an active sharing grant.
package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/service/assembler"
	"github.com/jwalitptl/clinical-records/internal/service/sharing"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
	"github.com/jwalitptl/clinical-records/pkg/retry"
	"github.com/jwalitptl/clinical-records/pkg/validator"
)

type PatientService interface {
	ListPatients(ctx context.Context, doctorID string, page model.PageRequest) (*model.PatientPage, error)
	GetPatient(ctx context.Context, doctorID, patientID string) (*model.PatientView, error)
	CreatePatient(ctx context.Context, doctorID string, req *model.CreatePatientRequest) (*model.PatientView, error)
	UpdatePatient(ctx context.Context, doctorID, patientID string, req *model.UpdatePatientRequest) (*model.PatientView, error)
	DeletePatients(ctx context.Context, doctorID string, patientIDs []string) (int, error)

	AddDiagnosis(ctx context.Context, doctorID, patientID string, req *model.CreateDiagnosisRequest) (*model.Diagnosis, error)
	ListDiagnoses(ctx context.Context, doctorID, patientID string) ([]*model.Diagnosis, error)
	UpdateDiagnosis(ctx context.Context, doctorID, patientID, diagnosisID string) error
	DeleteDiagnosis(ctx context.Context, doctorID, patientID, diagnosisID string) error

	Share(ctx context.Context, actorID, patientID, doctorID string) (*model.SharingGrant, error)
	Unshare(ctx context.Context, actorID, patientID, doctorID string) error
}

// Repositories groups the stores the service reads and writes.
type Repositories struct {
	Users        repository.UserRepository
	Patients     repository.PatientRepository
	Profiles     repository.ProfileRepository
	Observations repository.ObservationRepository
	Diagnoses    repository.DiagnosisRepository
}

type Service struct {
	repos     Repositories
	sharing   *sharing.Service
	assembler *assembler.Assembler
	validator validator.Validator
	retry     retry.Policy
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRetry(p retry.Policy) Option {
	return func(s *Service) { s.retry = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(repos Repositories, sharingSvc *sharing.Service, asm *assembler.Assembler, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		repos:     repos,
		sharing:   sharingSvc,
		assembler: asm,
		validator: validator.New(),
		retry:     retry.DefaultPolicy(),
		log:       log.With("patient"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPatients returns the doctor's owned patients followed by the patients
// shared with them. A fault on either required listing fails the call.
func (s *Service) ListPatients(ctx context.Context, doctorID string, page model.PageRequest) (*model.PatientPage, error) {
	start := time.Now()
	if s.metrics != nil {
		defer func() { s.metrics.ReconcileLatency.Observe(time.Since(start).Seconds()) }()
	}

	var owned []*model.PatientRecord
	err := retry.Do(ctx, s.retry, func() (err error) {
		owned, err = s.repos.Patients.ListByDoctor(ctx, doctorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned patients: %w", err)
	}

	grants, err := s.sharing.ListActiveForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	ownedIDs := make(map[string]bool, len(owned))
	for _, rec := range owned {
		ownedIDs[rec.ID] = true
	}
	shared := make([]*model.SharingGrant, 0, len(grants))
	for _, g := range grants {
		if !ownedIDs[g.PatientID] {
			shared = append(shared, g)
		}
	}

	views, err := s.assembler.Assemble(ctx, doctorID, owned, shared)
	if err != nil {
		return nil, err
	}

	result := model.Paginate(views, page)
	return &result, nil
}

// access is what the doctor holds over a patient: the owned record or an
// active grant. Both nil means no access.
type access struct {
	record *model.PatientRecord
	grant  *model.SharingGrant
}

func (a access) visible() bool { return a.record != nil || a.grant != nil }

func (s *Service) resolveAccess(ctx context.Context, doctorID, patientID string) (access, error) {
	if strings.TrimSpace(patientID) == "" {
		return access{}, apperrors.Validation("patient id is required", nil)
	}

	rec, err := s.repos.Patients.Get(ctx, patientID)
	switch {
	case err == nil && rec.DoctorID == doctorID:
		return access{record: rec}, nil
	case err != nil && !apperrors.IsNotFound(err):
		return access{}, fmt.Errorf("failed to check patient ownership: %w", err)
	}

	grant, err := s.sharing.ActiveGrant(ctx, doctorID, patientID)
	if err != nil {
		return access{}, err
	}
	return access{grant: grant}, nil
}

func (s *Service) assembleOne(ctx context.Context, doctorID string, acc access) (*model.PatientView, error) {
	var (
		owned  []*model.PatientRecord
		shared []*model.SharingGrant
	)
	if acc.record != nil {
		owned = append(owned, acc.record)
	} else {
		shared = append(shared, acc.grant)
	}

	views, err := s.assembler.Assemble(ctx, doctorID, owned, shared)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, apperrors.NotFound("patient", nil)
	}
	return views[0], nil
}

// GetPatient does not distinguish a missing patient from one the doctor
// cannot see.
func (s *Service) GetPatient(ctx context.Context, doctorID, patientID string) (*model.PatientView, error) {
	acc, err := s.resolveAccess(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if !acc.visible() {
		return nil, apperrors.NotFound("patient", nil)
	}
	return s.assembleOne(ctx, doctorID, acc)
}

// CreatePatient stores the owned record first. Personal, medical and note
// rows are written best-effort afterwards; the returned view shows only
// what was actually persisted.
func (s *Service) CreatePatient(ctx context.Context, doctorID string, req *model.CreatePatientRequest) (*model.PatientView, error) {
	if req == nil {
		return nil, apperrors.Validation("patient data is required", nil)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &model.PatientRecord{
		ID:        s.newID(),
		DoctorID:  doctorID,
		Name:      req.Name,
		Status:    model.PatientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Patients.Create(ctx, rec); err != nil {
		return nil, err
	}

	birthDate := now.AddDate(-req.Age, 0, 0).Format(time.DateOnly)
	if req.BirthDate != nil && *req.BirthDate != "" {
		birthDate = *req.BirthDate
	}
	personal := &model.PersonalData{
		ID:        s.newID(),
		UserID:    rec.ID,
		FullName:  model.StringPtr(req.Name),
		BirthDate: model.StringPtr(birthDate),
		City:      model.StringPtr(req.City),
		State:     model.StringPtr(req.State),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Profiles.SavePersonal(ctx, personal); err != nil {
		s.log.Warn(err, "patient created without personal data", "patient_id", rec.ID)
	}

	medical := &model.MedicalData{
		ID:        s.newID(),
		UserID:    rec.ID,
		Weight:    model.StringPtr(formatWeight(req.Weight)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Profiles.SaveMedical(ctx, medical); err != nil {
		s.log.Warn(err, "patient created without medical data", "patient_id", rec.ID)
	}

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		if err := s.saveNotes(ctx, rec.ID, doctorID, notes, now); err != nil {
			s.log.Warn(err, "patient created without notes", "patient_id", rec.ID)
		}
	}

	s.log.Info("patient created", "patient_id", rec.ID, "doctor_id", doctorID)
	return s.assembleOne(ctx, doctorID, access{record: rec})
}

// UpdatePatient merges the provided fields. Only the owning doctor may
// rename a patient. Writes are not transactional: sub-records written before
// a failure stay written, but the name changes only once they all succeed.
func (s *Service) UpdatePatient(ctx context.Context, doctorID, patientID string, req *model.UpdatePatientRequest) (*model.PatientView, error) {
	if req == nil {
		return nil, apperrors.Validation("patient data is required", nil)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	acc, err := s.resolveAccess(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if !acc.visible() {
		return nil, apperrors.Unauthorized("no active grant or ownership for this patient")
	}

	now := s.now().UTC()

	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty", nil)
		}
		if acc.record == nil {
			return nil, apperrors.Validation("only the owning doctor can rename a patient", nil)
		}
	}

	if req.Age != nil || req.BirthDate != nil || req.City != nil || req.State != nil || req.Name != nil {
		if err := s.mergePersonal(ctx, patientID, req, acc.record != nil, now); err != nil {
			return nil, err
		}
	}

	if req.Weight != nil {
		if err := s.mergeMedical(ctx, patientID, *req.Weight, now); err != nil {
			return nil, err
		}
	}

	if req.Notes != nil {
		if err := s.saveNotes(ctx, patientID, doctorID, *req.Notes, now); err != nil {
			return nil, err
		}
	}

	// the base record is renamed last so a failed sub-record write leaves it untouched
	if req.Name != nil {
		if err := s.repos.Patients.UpdateName(ctx, patientID, name, now); err != nil {
			return nil, err
		}
		acc.record.Name = name
		acc.record.UpdatedAt = now
	}

	s.log.Info("patient updated", "patient_id", patientID, "doctor_id", doctorID)
	return s.assembleOne(ctx, doctorID, acc)
}

func (s *Service) mergePersonal(ctx context.Context, patientID string, req *model.UpdatePatientRequest, owned bool, now time.Time) error {
	pd, err := s.repos.Profiles.GetPersonal(ctx, patientID)
	if apperrors.IsNotFound(err) {
		pd, err = &model.PersonalData{ID: s.newID(), UserID: patientID, CreatedAt: now}, nil
	}
	if err != nil {
		return err
	}

	form := model.PersonalDataForm{City: req.City, State: req.State, BirthDate: req.BirthDate}
	if req.BirthDate == nil && req.Age != nil {
		form.BirthDate = model.StringPtr(now.AddDate(-*req.Age, 0, 0).Format(time.DateOnly))
	}
	if owned && req.Name != nil {
		form.FullName = model.StringPtr(strings.TrimSpace(*req.Name))
	}
	form.Apply(pd)
	pd.UpdatedAt = now

	return s.repos.Profiles.SavePersonal(ctx, pd)
}

func (s *Service) mergeMedical(ctx context.Context, patientID string, weight float64, now time.Time) error {
	md, err := s.repos.Profiles.GetMedical(ctx, patientID)
	if apperrors.IsNotFound(err) {
		md, err = &model.MedicalData{ID: s.newID(), UserID: patientID, CreatedAt: now}, nil
	}
	if err != nil {
		return err
	}

	form := model.MedicalDataForm{Weight: model.StringPtr(formatWeight(weight))}
	form.Apply(md)
	md.UpdatedAt = now

	return s.repos.Profiles.SaveMedical(ctx, md)
}

func (s *Service) saveNotes(ctx context.Context, patientID, doctorID, text string, now time.Time) error {
	return s.repos.Observations.Upsert(ctx, &model.Observation{
		ID:        s.newID(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// DeletePatients removes the listed records the doctor owns and their
// notes; other ids are skipped. Sharing grants are left untouched.
func (s *Service) DeletePatients(ctx context.Context, doctorID string, patientIDs []string) (int, error) {
	if len(patientIDs) == 0 {
		return 0, apperrors.Validation("at least one patient id is required", nil)
	}

	records, err := s.repos.Patients.ListByIDs(ctx, patientIDs)
	if err != nil {
		return 0, err
	}
	owned := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.DoctorID == doctorID {
			owned = append(owned, rec.ID)
		}
	}
	if len(owned) == 0 {
		return 0, nil
	}

	if err := s.repos.Patients.DeleteOwned(ctx, doctorID, owned); err != nil {
		return 0, err
	}
	if err := s.repos.Observations.DeleteForDoctor(ctx, doctorID, owned); err != nil {
		s.log.Warn(err, "patients deleted but their notes were not", "doctor_id", doctorID, "count", len(owned))
	}

	s.log.Info("patients deleted", "doctor_id", doctorID, "count", len(owned))
	return len(owned), nil
}

func (s *Service) AddDiagnosis(ctx context.Context, doctorID, patientID string, req *model.CreateDiagnosisRequest) (*model.Diagnosis, error) {
	if req == nil {
		return nil, apperrors.Validation("diagnosis is required", nil)
	}
	req.Diagnosis = strings.TrimSpace(req.Diagnosis)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	acc, err := s.resolveAccess(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if !acc.visible() {
		return nil, apperrors.Unauthorized("no active grant or ownership for this patient")
	}

	now := s.now().UTC()
	d := &model.Diagnosis{
		ID:        s.newID(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      req.Date,
		Code:      strings.TrimSpace(req.Code),
		Diagnosis: req.Diagnosis,
		CreatedAt: now,
	}
	if d.Date == "" {
		d.Date = now.Format(time.DateOnly)
	}
	if err := s.repos.Diagnoses.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDiagnoses returns newest first. A deployment without the diagnoses
// table yields an empty list.
func (s *Service) ListDiagnoses(ctx context.Context, doctorID, patientID string) ([]*model.Diagnosis, error) {
	acc, err := s.resolveAccess(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}
	if !acc.visible() {
		return nil, apperrors.NotFound("patient", nil)
	}

	list, err := s.repos.Diagnoses.ListByPatient(ctx, patientID)
	if apperrors.IsSchemaMismatch(err) {
		s.log.Warn(err, "diagnoses table missing, returning no diagnoses", "patient_id", patientID)
		return []*model.Diagnosis{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.Diagnosis{}
	}
	return list, nil
}

func (s *Service) UpdateDiagnosis(context.Context, string, string, string) error {
	return apperrors.NotImplemented("updating a diagnosis")
}

func (s *Service) DeleteDiagnosis(context.Context, string, string, string) error {
	return apperrors.NotImplemented("deleting a diagnosis")
}

// Share grants doctorID access to patientID. The actor must be the patient
// or the doctor owning the patient record.
func (s *Service) Share(ctx context.Context, actorID, patientID, doctorID string) (*model.SharingGrant, error) {
	if err := s.checkGrantee(ctx, doctorID); err != nil {
		return nil, err
	}
	if err := s.authorizeSharing(ctx, actorID, patientID, ""); err != nil {
		return nil, err
	}
	return s.sharing.Grant(ctx, patientID, doctorID)
}

// Unshare revokes doctorID's access. Besides the patient and the owner, the
// grantee may drop their own access.
func (s *Service) Unshare(ctx context.Context, actorID, patientID, doctorID string) error {
	if err := s.authorizeSharing(ctx, actorID, patientID, doctorID); err != nil {
		return err
	}
	return s.sharing.Revoke(ctx, patientID, doctorID)
}

func (s *Service) authorizeSharing(ctx context.Context, actorID, patientID, grantee string) error {
	if actorID == "" {
		return apperrors.Unauthorized("")
	}
	if actorID == patientID || (grantee != "" && actorID == grantee) {
		return nil
	}

	rec, err := s.repos.Patients.Get(ctx, patientID)
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("failed to check patient ownership: %w", err)
	}
	if rec != nil && rec.DoctorID == actorID {
		return nil
	}
	return apperrors.Unauthorized("only the patient or the owning doctor can change sharing")
}

func (s *Service) checkGrantee(ctx context.Context, doctorID string) error {
	if strings.TrimSpace(doctorID) == "" {
		return apperrors.Validation("doctor id is required", nil)
	}
	u, err := s.repos.Users.Get(ctx, doctorID)
	if apperrors.IsNotFound(err) {
		return apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return err
	}
	if !u.IsDoctor() {
		return apperrors.Validation("patients can only be shared with doctors", nil)
	}
	return nil
}

func formatWeight(w float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", w), "0"), ".")
}

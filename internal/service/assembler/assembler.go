// Package assembler joins base patient identities with their optional
// personal, medical and observation sub-records into PatientViews.
//
// Sub-records are fetched with one query per record type covering every
// patient in the batch, concurrently, and merged in memory. Optional
// fetches that fail are logged and the affected fields fall back to their
// defaults; only the identity lookups for shared patients are required.
package assembler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/service/identity"
	"github.com/jwalitptl/clinical-records/pkg/logger"
	"github.com/jwalitptl/clinical-records/pkg/metrics"
	"github.com/jwalitptl/clinical-records/pkg/retry"
)

// NotAvailable is shown for city and state when no personal data exists.
const NotAvailable = "N/A"

type Assembler struct {
	users        repository.UserRepository
	patients     repository.PatientRepository
	profiles     repository.ProfileRepository
	observations repository.ObservationRepository
	retry        retry.Policy
	log          *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

type Option func(*Assembler)

// WithClock overrides the reference time used for ages.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithRetry(p retry.Policy) Option {
	return func(a *Assembler) { a.retry = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assembler) { a.metrics = m }
}

func New(
	users repository.UserRepository,
	patients repository.PatientRepository,
	profiles repository.ProfileRepository,
	observations repository.ObservationRepository,
	log *logger.Logger,
	opts ...Option,
) *Assembler {
	if log == nil {
		log = logger.Nop()
	}
	a := &Assembler{
		users:        users,
		patients:     patients,
		profiles:     profiles,
		observations: observations,
		retry:        retry.DefaultPolicy(),
		log:          log.With("assembler"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// batch holds everything fetched for one assembly.
type batch struct {
	users        map[string]*model.User
	records      map[string]*model.PatientRecord
	personal     map[string]*model.PersonalData
	medical      map[string]*model.MedicalData
	observations map[string]*model.Observation
}

// Assemble builds views for the doctor's owned records followed by the
// shared grants, preserving input order. Grants must already be
// deduplicated by patient.
func (a *Assembler) Assemble(ctx context.Context, doctorID string, owned []*model.PatientRecord, shared []*model.SharingGrant) ([]*model.PatientView, error) {
	if len(owned) == 0 && len(shared) == 0 {
		return []*model.PatientView{}, nil
	}

	b, err := a.fetch(ctx, doctorID, owned, shared)
	if err != nil {
		return nil, err
	}

	views := make([]*model.PatientView, 0, len(owned)+len(shared))
	for _, rec := range owned {
		views = append(views, a.ownedView(rec, b))
	}
	ownedCount := len(views)

	for _, grant := range shared {
		if u := b.users[grant.PatientID]; u.IsDoctor() {
			a.log.Debug("skipping grant that points at a doctor",
				"grant_id", grant.ID, "patient_id", grant.PatientID)
			continue
		}
		views = append(views, a.sharedView(grant, b))
	}

	if a.metrics != nil {
		a.metrics.ReconciledPatients.WithLabelValues("owned").Add(float64(ownedCount))
		a.metrics.ReconciledPatients.WithLabelValues("shared").Add(float64(len(views) - ownedCount))
	}
	return views, nil
}

func (a *Assembler) fetch(ctx context.Context, doctorID string, owned []*model.PatientRecord, shared []*model.SharingGrant) (*batch, error) {
	ids := make([]string, 0, len(owned)+len(shared))
	sharedIDs := make([]string, 0, len(shared))
	for _, rec := range owned {
		ids = append(ids, rec.ID)
	}
	for _, g := range shared {
		ids = append(ids, g.PatientID)
		sharedIDs = append(sharedIDs, g.PatientID)
	}

	var (
		users        []*model.User
		records      []*model.PatientRecord
		personal     []*model.PersonalData
		medical      []*model.MedicalData
		observations []*model.Observation
	)

	g, gctx := errgroup.WithContext(ctx)

	if len(sharedIDs) > 0 {
		g.Go(func() error {
			return retry.Do(gctx, a.retry, func() (err error) {
				users, err = a.users.ListByIDs(gctx, sharedIDs)
				return err
			})
		})
		g.Go(func() error {
			return retry.Do(gctx, a.retry, func() (err error) {
				records, err = a.patients.ListByIDs(gctx, sharedIDs)
				return err
			})
		})
	}

	g.Go(func() error {
		list, err := a.profiles.ListPersonal(gctx, ids)
		if err != nil {
			a.degraded(model.TablePersonalData, len(ids), err)
			return nil
		}
		personal = list
		return nil
	})
	g.Go(func() error {
		list, err := a.profiles.ListMedical(gctx, ids)
		if err != nil {
			a.degraded(model.TableMedicalData, len(ids), err)
			return nil
		}
		medical = list
		return nil
	})
	g.Go(func() error {
		list, err := a.observations.ListForDoctor(gctx, doctorID, ids)
		if err != nil {
			a.degraded(model.TableObservations, len(ids), err)
			return nil
		}
		observations = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve shared patient identities: %w", err)
	}

	b := &batch{
		users:        make(map[string]*model.User, len(users)),
		records:      make(map[string]*model.PatientRecord, len(records)),
		personal:     make(map[string]*model.PersonalData, len(personal)),
		medical:      make(map[string]*model.MedicalData, len(medical)),
		observations: make(map[string]*model.Observation, len(observations)),
	}
	for _, u := range users {
		b.users[u.ID] = u
	}
	for _, r := range records {
		b.records[r.ID] = r
	}
	for _, pd := range personal {
		b.personal[pd.UserID] = pd
	}
	for _, md := range medical {
		b.medical[md.UserID] = md
	}
	for _, o := range observations {
		if prev, ok := b.observations[o.PatientID]; !ok || o.UpdatedAt.After(prev.UpdatedAt) {
			b.observations[o.PatientID] = o
		}
	}
	return b, nil
}

func (a *Assembler) degraded(table string, count int, err error) {
	a.log.Warn(err, "optional sub-record fetch failed, using defaults",
		"table", table, "patient_count", count)
	if a.metrics != nil {
		a.metrics.DegradedFetches.WithLabelValues(table).Inc()
	}
}

func (a *Assembler) ownedView(rec *model.PatientRecord, b *batch) *model.PatientView {
	doctorID := rec.DoctorID
	v := &model.PatientView{
		ID:        rec.ID,
		Name:      identity.Resolve(identity.Sources{User: recordIdentity(rec), Personal: b.personal[rec.ID], ID: rec.ID}),
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
		DoctorID:  &doctorID,
	}
	if v.Status == "" {
		v.Status = model.PatientStatusActive
	}
	a.overlay(v, b)
	return v
}

func (a *Assembler) sharedView(grant *model.SharingGrant, b *batch) *model.PatientView {
	user := b.users[grant.PatientID]
	if user == nil {
		user = recordIdentity(b.records[grant.PatientID])
	}
	sharedID := grant.ID
	v := &model.PatientView{
		ID:        grant.PatientID,
		Name:      identity.Resolve(identity.Sources{User: user, Personal: b.personal[grant.PatientID], ID: grant.PatientID}),
		Status:    model.PatientStatusShared,
		CreatedAt: grant.SharedAt,
		IsShared:  true,
		SharedID:  &sharedID,
	}
	a.overlay(v, b)
	return v
}

// overlay applies the optional sub-records to v.
func (a *Assembler) overlay(v *model.PatientView, b *batch) {
	v.City = NotAvailable
	v.State = NotAvailable

	if pd := b.personal[v.ID]; pd != nil {
		if city := strings.TrimSpace(model.StringValue(pd.City)); city != "" {
			v.City = city
		}
		if state := strings.TrimSpace(model.StringValue(pd.State)); state != "" {
			v.State = state
		}
		if pd.BirthDate != nil {
			v.Age = Age(*pd.BirthDate, a.now())
		}
	}
	if md := b.medical[v.ID]; md != nil && md.Weight != nil {
		v.Weight = ParseWeight(*md.Weight)
	}
	if obs := b.observations[v.ID]; obs != nil {
		v.Notes = obs.Text
	}
}

// recordIdentity presents an owned record as an identity row.
func recordIdentity(rec *model.PatientRecord) *model.User {
	if rec == nil {
		return nil
	}
	return &model.User{ID: rec.ID, FullName: model.StringPtr(rec.Name), Profession: model.ProfessionPatient}
}

// Age returns whole years between birthDate (YYYY-MM-DD, optionally
// followed by a time) and now, or nil when the date is unusable.
func Age(birthDate string, now time.Time) *int {
	birthDate = strings.TrimSpace(birthDate)
	if len(birthDate) > len(time.DateOnly) {
		birthDate = birthDate[:len(time.DateOnly)]
	}
	born, err := time.Parse(time.DateOnly, birthDate)
	if err != nil {
		return nil
	}

	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	if years < 0 {
		return nil
	}
	return &years
}

// ParseWeight reads a decimal weight; anything unparsable, non-positive or
// non-finite is absent.
func ParseWeight(raw string) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return nil
	}
	return &w
}

package remote

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinical-records/internal/model"
	"github.com/jwalitptl/clinical-records/internal/repository"
	"github.com/jwalitptl/clinical-records/internal/store"
	apperrors "github.com/jwalitptl/clinical-records/pkg/errors"
)

type profileRepository struct {
	rows store.RowStore
}

func NewProfileRepository(rows store.RowStore) repository.ProfileRepository {
	return &profileRepository{rows: rows}
}

func (r *profileRepository) GetPersonal(ctx context.Context, userID string) (*model.PersonalData, error) {
	row, err := r.rows.QueryOne(ctx, model.TablePersonalData, store.Where(store.Eq("user_id", userID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get personal data: %w", err)
	}
	var pd model.PersonalData
	if err := repository.DecodeRow(row, &pd); err != nil {
		return nil, err
	}
	return &pd, nil
}

func (r *profileRepository) ListPersonal(ctx context.Context, userIDs []string) ([]*model.PersonalData, error) {
	rows, err := r.rows.Query(ctx, model.TablePersonalData, store.Where(store.In("user_id", userIDs)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal data: %w", err)
	}
	return repository.DecodeRows[model.PersonalData](rows)
}

func (r *profileRepository) SavePersonal(ctx context.Context, data *model.PersonalData) error {
	row := store.Row{
		"full_name":     repository.Optional(data.FullName),
		"birth_date":    repository.Optional(data.BirthDate),
		"gender":        repository.Optional(data.Gender),
		"city":          repository.Optional(data.City),
		"state":         repository.Optional(data.State),
		"health_plan":   repository.Optional(data.HealthPlan),
		"profile_image": repository.Optional(data.ProfileImage),
		"updated_at":    data.UpdatedAt,
	}
	if err := r.upsert(ctx, model.TablePersonalData, data.UserID, data.ID, data.CreatedAt, row); err != nil {
		return fmt.Errorf("failed to save personal data: %w", err)
	}
	return nil
}

func (r *profileRepository) GetMedical(ctx context.Context, userID string) (*model.MedicalData, error) {
	row, err := r.rows.QueryOne(ctx, model.TableMedicalData, store.Where(store.Eq("user_id", userID)))
	if err != nil {
		return nil, fmt.Errorf("failed to get medical data: %w", err)
	}
	var md model.MedicalData
	if err := repository.DecodeRow(row, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

func (r *profileRepository) ListMedical(ctx context.Context, userIDs []string) ([]*model.MedicalData, error) {
	rows, err := r.rows.Query(ctx, model.TableMedicalData, store.Where(store.In("user_id", userIDs)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical data: %w", err)
	}
	return repository.DecodeRows[model.MedicalData](rows)
}

func (r *profileRepository) SaveMedical(ctx context.Context, data *model.MedicalData) error {
	row := store.Row{
		"height":              repository.Optional(data.Height),
		"weight":              repository.Optional(data.Weight),
		"smoker":              repository.Optional(data.Smoker),
		"high_blood_pressure": repository.Optional(data.HighBloodPressure),
		"physical_activity":   repository.Optional(data.PhysicalActivity),
		"exercise_frequency":  repository.Optional(data.ExerciseFrequency),
		"healthy_diet":        repository.Optional(data.HealthyDiet),
		"updated_at":          data.UpdatedAt,
	}
	if err := r.upsert(ctx, model.TableMedicalData, data.UserID, data.ID, data.CreatedAt, row); err != nil {
		return fmt.Errorf("failed to save medical data: %w", err)
	}
	return nil
}

// upsert updates the row owned by userID, inserting it when absent.
func (r *profileRepository) upsert(ctx context.Context, table, userID, id string, createdAt interface{}, row store.Row) error {
	filter := store.Where(store.Eq("user_id", userID))
	_, err := r.rows.QueryOne(ctx, table, filter)
	switch {
	case err == nil:
		return r.rows.Update(ctx, table, filter, row)
	case apperrors.IsNotFound(err):
		row["id"] = id
		row["user_id"] = userID
		row["created_at"] = createdAt
		return r.rows.Insert(ctx, table, row)
	default:
		return err
	}
}

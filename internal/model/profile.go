package model

import "time"

// PersonalData is optional and 1:1 with a patient.
type PersonalData struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	BirthDate    *string   `json:"birth_date,omitempty" db:"birth_date"`
	Gender       *string   `json:"gender,omitempty" db:"gender"`
	City         *string   `json:"city,omitempty" db:"city"`
	State        *string   `json:"state,omitempty" db:"state"`
	HealthPlan   *string   `json:"health_plan,omitempty" db:"health_plan"`
	ProfileImage *string   `json:"profile_image,omitempty" db:"profile_image"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// MedicalData is optional and 1:1 with a patient. Height and Weight are kept
// as entered; readers parse them as decimals.
type MedicalData struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	Height            *string   `json:"height,omitempty" db:"height"`
	Weight            *string   `json:"weight,omitempty" db:"weight"`
	Smoker            *bool     `json:"smoker,omitempty" db:"smoker"`
	HighBloodPressure *bool     `json:"high_blood_pressure,omitempty" db:"high_blood_pressure"`
	PhysicalActivity  *bool     `json:"physical_activity,omitempty" db:"physical_activity"`
	ExerciseFrequency *string   `json:"exercise_frequency,omitempty" db:"exercise_frequency"`
	HealthyDiet       *bool     `json:"healthy_diet,omitempty" db:"healthy_diet"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// PersonalDataForm merges into an existing PersonalData row.
type PersonalDataForm struct {
	FullName     *string `json:"full_name"`
	BirthDate    *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string `json:"gender"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	HealthPlan   *string `json:"health_plan"`
	ProfileImage *string `json:"profile_image"`
}

// Apply copies the set fields of f onto p.
func (f *PersonalDataForm) Apply(p *PersonalData) {
	if f.FullName != nil {
		p.FullName = f.FullName
	}
	if f.BirthDate != nil {
		p.BirthDate = f.BirthDate
	}
	if f.Gender != nil {
		p.Gender = f.Gender
	}
	if f.City != nil {
		p.City = f.City
	}
	if f.State != nil {
		p.State = f.State
	}
	if f.HealthPlan != nil {
		p.HealthPlan = f.HealthPlan
	}
	if f.ProfileImage != nil {
		p.ProfileImage = f.ProfileImage
	}
}

// MedicalDataForm merges into an existing MedicalData row.
type MedicalDataForm struct {
	Height            *string `json:"height"`
	Weight            *string `json:"weight"`
	Smoker            *bool   `json:"smoker"`
	HighBloodPressure *bool   `json:"high_blood_pressure"`
	PhysicalActivity  *bool   `json:"physical_activity"`
	ExerciseFrequency *string `json:"exercise_frequency"`
	HealthyDiet       *bool   `json:"healthy_diet"`
}

// Apply copies the set fields of f onto m.
func (f *MedicalDataForm) Apply(m *MedicalData) {
	if f.Height != nil {
		m.Height = f.Height
	}
	if f.Weight != nil {
		m.Weight = f.Weight
	}
	if f.Smoker != nil {
		m.Smoker = f.Smoker
	}
	if f.HighBloodPressure != nil {
		m.HighBloodPressure = f.HighBloodPressure
	}
	if f.PhysicalActivity != nil {
		m.PhysicalActivity = f.PhysicalActivity
	}
	if f.ExerciseFrequency != nil {
		m.ExerciseFrequency = f.ExerciseFrequency
	}
	if f.HealthyDiet != nil {
		m.HealthyDiet = f.HealthyDiet
	}
}

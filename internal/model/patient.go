package model

import "time"

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusShared   PatientStatus = "shared"
	PatientStatusArchived PatientStatus = "archived"
)

// PatientRecord is a patient created and owned by a single doctor.
type PatientRecord struct {
	ID        string        `json:"id" db:"id"`
	DoctorID  string        `json:"doctor_id" db:"doctor_id"`
	Name      string        `json:"name" db:"name"`
	Status    PatientStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// Observation is a doctor-private note on a patient. There is at most one
// per (patient, doctor) pair.
type Observation struct {
	ID        string    `json:"id" db:"id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	DoctorID  string    `json:"doctor_id" db:"doctor_id"`
	Text      string    `json:"observation" db:"observation"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PatientView is the assembled, never persisted, patient returned to callers.
// Owned views carry DoctorID; shared views carry SharedID.
type PatientView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Age       *int          `json:"age"`
	City      string        `json:"city"`
	State     string        `json:"state"`
	Weight    *float64      `json:"weight"`
	Status    PatientStatus `json:"status"`
	Notes     string        `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	DoctorID  *string       `json:"doctor_id"`
	IsShared  bool          `json:"is_shared"`
	SharedID  *string       `json:"shared_id,omitempty"`
}

// PatientPage is one page of a doctor's patient list.
type PatientPage struct {
	Patients   []*PatientView `json:"patients"`
	Pagination Pagination     `json:"pagination"`
}

// Paginate slices views without reordering them. A non-positive page size
// returns everything on a single page.
func Paginate(views []*PatientView, req PageRequest) PatientPage {
	total := len(views)
	if views == nil {
		views = []*PatientView{}
	}

	if req.PageSize <= 0 {
		return PatientPage{
			Patients: views,
			Pagination: Pagination{
				CurrentPage:  1,
				TotalPages:   1,
				TotalItems:   total,
				ItemsPerPage: total,
			},
		}
	}

	totalPages := total / req.PageSize
	if total%req.PageSize != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	// past the last page: empty slice, requested page echoed back
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * req.PageSize
		end = start + min(req.PageSize, total-start)
	}

	return PatientPage{
		Patients: views[start:end],
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: req.PageSize,
		},
	}
}

// CreatePatientRequest is the form a doctor submits for a new owned patient.
type CreatePatientRequest struct {
	Name   string  `json:"name" validate:"required"`
	Age    int     `json:"age" validate:"gt=0"`
	City   string  `json:"city" validate:"required"`
	State  string  `json:"state" validate:"required"`
	Weight float64 `json:"weight" validate:"gt=0"`
	Notes  string  `json:"notes"`
	// BirthDate (YYYY-MM-DD) takes precedence over Age when present.
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UpdatePatientRequest only touches the fields that are set.
type UpdatePatientRequest struct {
	Name      *string  `json:"name"`
	Age       *int     `json:"age" validate:"omitempty,gt=0"`
	BirthDate *string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	City      *string  `json:"city"`
	State     *string  `json:"state"`
	Weight    *float64 `json:"weight" validate:"omitempty,gt=0"`
	Notes     *string  `json:"notes"`
}

// DeletePatientsRequest lists the owned records to remove.
type DeletePatientsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

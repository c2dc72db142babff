package model

import "time"

// Diagnosis is append-only per patient.
type Diagnosis struct {
	ID        string    `json:"id" db:"id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	DoctorID  string    `json:"doctor_id" db:"doctor_id"`
	Date      string    `json:"date" db:"date"`
	Code      string    `json:"code" db:"code"`
	Diagnosis string    `json:"diagnosis" db:"diagnosis"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateDiagnosisRequest defaults Date to the day it is recorded.
type CreateDiagnosisRequest struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Code      string `json:"code"`
	Diagnosis string `json:"diagnosis" validate:"required"`
}

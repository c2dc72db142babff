package model

import "time"

// SharingGrant lets a doctor view and annotate a patient while active.
// Grants are soft-deleted so the history stays auditable.
type SharingGrant struct {
	ID        string    `json:"id" db:"id"`
	DoctorID  string    `json:"doctor_id" db:"doctor_id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	SharedAt  time.Time `json:"shared_at" db:"shared_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}

// ShareRequest names the two ends of a grant.
type ShareRequest struct {
	PatientID string `json:"patient_id" binding:"required"`
	DoctorID  string `json:"doctor_id" binding:"required"`
}

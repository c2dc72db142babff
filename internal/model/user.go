package model

import "time"

// Profession is fixed when the user registers.
type Profession string

const (
	ProfessionDoctor  Profession = "doctor"
	ProfessionPatient Profession = "patient"
)

// User is a row of the generic user-profile table.
type User struct {
	ID         string     `json:"id" db:"id"`
	Profession Profession `json:"profession" db:"profession"`
	Email      string     `json:"email" db:"email"`
	FullName   *string    `json:"full_name,omitempty" db:"full_name"`
	CRM        *string    `json:"crm,omitempty" db:"crm"`
	Specialty  *string    `json:"specialty,omitempty" db:"specialty"`
	City       *string    `json:"city,omitempty" db:"city"`
	State      *string    `json:"state,omitempty" db:"state"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsDoctor reports whether the user registered as a doctor.
func (u *User) IsDoctor() bool {
	return u != nil && u.Profession == ProfessionDoctor
}

// Doctor is the directory view of a doctor user.
type Doctor struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CRM       string    `json:"crm"`
	State     string    `json:"state"`
	Specialty string    `json:"specialty"`
	Email     string    `json:"email"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

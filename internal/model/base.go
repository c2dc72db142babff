package model

// Row table names shared by the repositories.
const (
	TableUsers        = "users"
	TablePatients     = "patients"
	TablePersonalData = "patient_personal_data"
	TableMedicalData  = "patient_medical_data"
	TableObservations = "patient_medical_observations"
	TableSharing      = "doctor_patient_sharing"
	TableDiagnoses    = "patient_diagnoses"
)

// Pagination describes one page of a list response. ItemsPerPage is always
// populated.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// PageRequest carries the query parameters of a paginated list call.
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// StringPtr is a convenience for optional string columns.
func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

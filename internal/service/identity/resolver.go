// Package identity turns patient identity rows into display names.
package identity

import (
	"strings"

	"github.com/jwalitptl/clinical-records/internal/model"
)

// Unnamed is the label used when no source yields a name.
const Unnamed = "Unnamed"

const idPrefixLen = 8

// Sources are the candidate rows a name can come from. Any of them may be nil.
type Sources struct {
	User     *model.User
	Personal *model.PersonalData
	// ID is used when neither row carries one.
	ID string
}

// Resolve returns the first non-empty name in priority order: user full
// name, personal-data full name, "Patient <email local part>", "Patient
// <first 8 chars of id>", and finally Unnamed. It never fails.
func Resolve(src Sources) string {
	if src.User != nil {
		if name := strings.TrimSpace(model.StringValue(src.User.FullName)); name != "" {
			return name
		}
	}
	if src.Personal != nil {
		if name := strings.TrimSpace(model.StringValue(src.Personal.FullName)); name != "" {
			return name
		}
	}
	if src.User != nil {
		if local := emailLocalPart(src.User.Email); local != "" {
			return "Patient " + local
		}
	}

	id := src.ID
	if id == "" && src.User != nil {
		id = src.User.ID
	}
	if id == "" && src.Personal != nil {
		id = src.Personal.UserID
	}
	if id != "" {
		if len(id) > idPrefixLen {
			id = id[:idPrefixLen]
		}
		return "Patient " + id
	}
	return Unnamed
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if at := strings.IndexByte(email, '@'); at >= 0 {
		email = email[:at]
	}
	return email
}

package models

import "time"

// StudentIdentity is the reference data printed on a document for one learner.
// It is pulled from the system of record at generation time and never owned here.
type StudentIdentity struct {
	ID          string     `json:"id" validate:"required"`
	Matricule   string     `json:"matricule" validate:"required"`
	FirstName   string     `json:"firstName" validate:"required"`
	LastName    string     `json:"lastName" validate:"required"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	BirthPlace  string     `json:"birthPlace,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	ClassName   string     `json:"className,omitempty"`
	PhotoURL    string     `json:"photoUrl,omitempty"`
	GuardianRef string     `json:"guardianRef,omitempty"`
}

// FullName renders the display name with the surname upper-cased, as printed on documents.
func (s StudentIdentity) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	return s.FirstName + " " + upper(s.LastName)
}

// SchoolIdentity describes the issuing institution.
type SchoolIdentity struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	PrincipalName string `json:"principalName,omitempty"`
	Motto         string `json:"motto,omitempty"`
}

func upper(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r >= 'a' && r <= 'z' {
			b[i] = r - 'a' + 'A'
		}
	}
	return string(b)
}

package profile

import (
	"time"

	"taskpay/internal/common"
)

// Profile is an applicant's personal record plus its eagerly loaded child
// collections. The row is created as a stub at registration; everything else
// arrives through form submissions.
type Profile struct {
	UserID         common.UUID          `json:"user_id"`
	Email          string               `json:"email,omitempty"`
	FirstName      string               `json:"first_name"`
	LastName       string               `json:"last_name"`
	Phone          string               `json:"phone"`
	Address        string               `json:"address"`
	City           string               `json:"city"`
	Summary        string               `json:"summary"`
	Education      []EducationEntry     `json:"education"`
	Experience     []ExperienceEntry    `json:"work_experience"`
	Certifications []CertificationEntry `json:"certifications"`
	Preferences    *Preferences         `json:"preferences"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type EducationEntry struct {
	ID            common.UUID `json:"id,omitempty"`
	Level         string      `json:"level"`
	Institution   string      `json:"institution"`
	Course        string      `json:"course"`
	YearCompleted int         `json:"year_completed,omitempty"`
}

type ExperienceEntry struct {
	ID             common.UUID  `json:"id,omitempty"`
	JobTitle       string       `json:"job_title"`
	CompanyID      *common.UUID `json:"company_id,omitempty"`
	CompanyName    string       `json:"company_name"`
	CompanyAddress string       `json:"company_address,omitempty"`
	StartDate      *time.Time   `json:"start_date,omitempty"`
	EndDate        *time.Time   `json:"end_date,omitempty"`
	Description    string       `json:"description,omitempty"`
}

type CertificationEntry struct {
	ID           common.UUID `json:"id,omitempty"`
	Name         string      `json:"name"`
	Organization string      `json:"organization"`
	IssuedYear   int         `json:"issued_year,omitempty"`
}

type Preferences struct {
	ID          common.UUID   `json:"id,omitempty"`
	SalaryMin   int64         `json:"salary_min"`
	SalaryMax   int64         `json:"salary_max"`
	CategoryIDs []common.UUID `json:"category_ids"`
	LocationIDs []common.UUID `json:"location_ids"`
}

// Form is one submission of the applicant form. Nil personal fields were
// omitted by the client and must not clobber stored values; the child
// collections always replace the stored sets in full.
type Form struct {
	FirstName      *string              `json:"first_name"`
	LastName       *string              `json:"last_name"`
	Phone          *string              `json:"phone"`
	Address        *string              `json:"address"`
	City           *string              `json:"city"`
	Summary        *string              `json:"summary"`
	Education      []EducationEntry     `json:"education"`
	Experience     []ExperienceEntry    `json:"work_experience"`
	Certifications []CertificationEntry `json:"certifications"`
	Preferences    *PreferencesInput    `json:"preferences"`
}

type PreferencesInput struct {
	SalaryMin   int64         `json:"salary_min"`
	SalaryMax   int64         `json:"salary_max"`
	CategoryIDs []common.UUID `json:"category_ids"`
	LocationIDs []common.UUID `json:"location_ids"`
}

package app

import (
	"context"
	"fmt"
	"strings"

	"taskpay/internal/common"
	"taskpay/internal/domain/profile"
)

type ProfileService struct {
	profiles profile.Repository
	logger   Logger
}

func NewProfileService(profiles profile.Repository, logger Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

func (s *ProfileService) Get(ctx context.Context, applicantID common.UUID) (*profile.Profile, error) {
	return s.profiles.GetByUserID(ctx, applicantID)
}

// Submit validates the whole form up front, then hands it to the repository
// for the atomic replace. Nothing is written when validation fails.
func (s *ProfileService) Submit(ctx context.Context, applicantID common.UUID, form profile.Form) error {
	if err := validateForm(form); err != nil {
		return err
	}
	if err := s.profiles.Replace(ctx, applicantID, form); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("profile replaced user_id=%s education=%d experience=%d certifications=%d",
			applicantID, len(form.Education), len(form.Experience), len(form.Certifications)))
	}
	return nil
}

func (s *ProfileService) ListApplicants(ctx context.Context, page, limit int) ([]profile.Profile, int, error) {
	limit, offset := normalizePage(page, limit)
	return s.profiles.ListApplicants(ctx, limit, offset)
}

func validateForm(form profile.Form) error {
	fields := map[string]string{}

	seenEducation := map[string]bool{}
	for i, e := range form.Education {
		if strings.TrimSpace(e.Level) == "" {
			fields[fmt.Sprintf("education[%d].level", i)] = "level is required"
		}
		if strings.TrimSpace(e.Institution) == "" {
			fields[fmt.Sprintf("education[%d].institution", i)] = "institution is required"
		}
		if strings.TrimSpace(e.Course) == "" {
			fields[fmt.Sprintf("education[%d].course", i)] = "course is required"
		}
		key := strings.ToLower(e.Level + "|" + e.Institution + "|" + e.Course)
		if seenEducation[key] {
			fields[fmt.Sprintf("education[%d]", i)] = "duplicate of another education entry"
		}
		seenEducation[key] = true
	}

	for i, e := range form.Experience {
		if strings.TrimSpace(e.JobTitle) == "" {
			fields[fmt.Sprintf("work_experience[%d].job_title", i)] = "job title is required"
		}
		if e.StartDate != nil && e.EndDate != nil && e.EndDate.Before(*e.StartDate) {
			fields[fmt.Sprintf("work_experience[%d].end_date", i)] = "end date precedes start date"
		}
	}

	seenCertifications := map[string]bool{}
	for i, c := range form.Certifications {
		if strings.TrimSpace(c.Name) == "" {
			fields[fmt.Sprintf("certifications[%d].name", i)] = "name is required"
		}
		if strings.TrimSpace(c.Organization) == "" {
			fields[fmt.Sprintf("certifications[%d].organization", i)] = "organization is required"
		}
		key := strings.ToLower(c.Name + "|" + c.Organization)
		if seenCertifications[key] {
			fields[fmt.Sprintf("certifications[%d]", i)] = "duplicate of another certification entry"
		}
		seenCertifications[key] = true
	}

	if p := form.Preferences; p != nil {
		if p.SalaryMin < 0 {
			fields["preferences.salary_min"] = "salary must not be negative"
		}
		if p.SalaryMax < 0 {
			fields["preferences.salary_max"] = "salary must not be negative"
		}
		if p.SalaryMin > 0 && p.SalaryMax > 0 && p.SalaryMin > p.SalaryMax {
			fields["preferences.salary_max"] = "maximum salary below minimum"
		}
	}

	if len(fields) > 0 {
		return common.NewValidationError("invalid profile form", fields)
	}
	return nil
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// normalizePage converts 1-based page/limit query values into a clamped
// limit/offset pair.
func normalizePage(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
